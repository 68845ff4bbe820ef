package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"nihongo/internal/config"
	"nihongo/internal/database"
	"nihongo/internal/logger"
	"nihongo/internal/service"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", "error", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if _, err := db.RunMigrations(); err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}

	backupService := service.NewBackupService(db, log)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(log, backupService, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(log, backupService, *importInput, *importClear)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(log *logger.Logger, backupService *service.BackupService, outputPath string) {
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal("failed to create output directory", "dir", dir, "error", err)
		}
	}

	log.Info("exporting database", "output", outputPath)
	if err := backupService.Export(outputPath); err != nil {
		log.Fatal("export failed", "error", err)
	}

	if info, err := os.Stat(outputPath); err == nil {
		log.Info("export complete", "size_mb", fmt.Sprintf("%.2f", float64(info.Size())/1024/1024))
	}
}

func handleImport(log *logger.Logger, backupService *service.BackupService, inputPath string, clearData bool) {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		log.Fatal("input file does not exist", "input", inputPath)
	}

	if clearData {
		fmt.Print("WARNING: This will delete all existing data. Type 'yes' to confirm: ")
		var confirmation string
		fmt.Scanln(&confirmation)
		if confirmation != "yes" {
			log.Info("import cancelled")
			return
		}

		log.Info("clearing existing data")
		if err := backupService.ClearTables(); err != nil {
			log.Fatal("failed to clear database", "error", err)
		}
	}

	log.Info("importing database", "input", inputPath)
	if err := backupService.Import(inputPath); err != nil {
		log.Fatal("import failed", "error", err)
	}

	log.Info("import complete")
}

func printUsage() {
	fmt.Println("Nihongo Database Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export users and lesson progress to a JSON file")
	fmt.Println("  backup import [options]    Import users and lesson progress from a JSON file")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -clear            Clear existing data before import (WARNING: destructive)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  backup export -output mybackup.json")
	fmt.Println("  backup import -input backup.json -clear")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE    Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./nihongo.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
