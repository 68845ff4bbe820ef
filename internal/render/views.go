// Package render turns lesson documents into the view data used by the
// lesson page templates.
package render

import (
	"math"
	"strconv"
	"strings"

	"nihongo/internal/lesson"
)

const (
	DefaultTheoryTitle       = "Nội dung lý thuyết"
	DefaultLessonTitle       = "Lesson"
	DefaultSimulationDetails = "Xem lại video mô phỏng để luyện nghe và phát âm chuẩn."
	DefaultWritingDetails    = "Chọn chữ cái để xem cách viết và luyện phát âm."
)

var toneFallback = []string{"tone-blue", "tone-green", "tone-purple", "tone-orange", "tone-pink"}

type MetaView struct {
	UnitTitle string
	Title     string
}

func Meta(m lesson.Meta) MetaView {
	title := m.Title
	if title == "" {
		title = DefaultLessonTitle
	}
	return MetaView{UnitTitle: m.UnitTitle, Title: title}
}

type SidebarView struct {
	Percent          int
	CompletedLessons int
	TotalLessons     int
	Chapters         []ChapterView
}

type ChapterView struct {
	Title     string
	Open      bool
	Current   bool
	Completed int
	Total     int
	Lessons   []OutlineRow
}

type OutlineRow struct {
	Class    string
	Icon     string
	Title    string
	Link     string
	Duration string
}

// Sidebar builds the course outline. Progress comes from the lesson meta;
// the first chapter and the current one start expanded.
func Sidebar(progress *lesson.Progress, s lesson.Sidebar) SidebarView {
	v := SidebarView{}
	if progress != nil {
		v.Percent = int(math.Round(progress.Percent * 100))
		v.CompletedLessons = progress.CompletedLessons
		v.TotalLessons = progress.TotalLessons
	}

	for i, ch := range s.Chapters {
		cv := ChapterView{
			Title:     ch.Title,
			Open:      ch.IsCurrent || i == 0,
			Current:   ch.IsCurrent,
			Completed: ch.CompletedLessons,
			Total:     ch.TotalLessons,
		}
		for _, l := range ch.Lessons {
			row := OutlineRow{
				Class:    "lesson-item is-pending",
				Icon:     "[ ]",
				Title:    l.Title,
				Link:     l.Link,
				Duration: l.Duration,
			}
			if l.Status == "complete" {
				row.Class = "lesson-item is-complete"
				row.Icon = "[x]"
			}
			if l.IsCurrent {
				row.Class += " is-active"
			}
			cv.Lessons = append(cv.Lessons, row)
		}
		v.Chapters = append(v.Chapters, cv)
	}
	return v
}

type TheoryView struct {
	Title        string
	Description  string
	Kana         []KanaView
	Vocab        []lesson.Vocab
	Grammar      []lesson.GrammarRule
	Conversation *lesson.Conversation
	Tips         []string
	Writing      *WritingView
}

type KanaView struct {
	Character   string
	Romaji      string
	Description string
	ToneClass   string
}

type WritingView struct {
	Description string
	Characters  []WritingPill
	Active      lesson.WritingSample
}

type WritingPill struct {
	lesson.WritingSample
	Active bool
}

func Theory(t lesson.Theory) TheoryView {
	v := TheoryView{
		Title:        t.Heading.Title,
		Description:  t.Heading.Description,
		Vocab:        t.Vocab,
		Grammar:      t.Grammar,
		Conversation: t.Conversation,
		Tips:         t.Tips,
	}
	if v.Title == "" {
		v.Title = DefaultTheoryTitle
	}

	for i, k := range t.KanaList {
		tone := k.ToneClass
		if tone == "" {
			tone = toneFallback[i%len(toneFallback)]
		}
		v.Kana = append(v.Kana, KanaView{
			Character:   k.Character,
			Romaji:      k.Romaji,
			Description: k.Description,
			ToneClass:   tone,
		})
	}

	if t.Writing != nil && len(t.Writing.Characters) > 0 {
		w := &WritingView{
			Description: t.Writing.Description,
			Active:      t.Writing.Characters[0],
		}
		if w.Description == "" {
			w.Description = DefaultWritingDetails
		}
		for i, c := range t.Writing.Characters {
			w.Characters = append(w.Characters, WritingPill{WritingSample: c, Active: i == 0})
		}
		v.Writing = w
	}
	return v
}

type SimulationView struct {
	Description     string
	Duration        string
	EmbedURL        string
	Source          string
	Poster          string
	Progress        string
	ProgressPercent int
	SummaryItems    []string
	SummaryTip      string
}

func Simulation(s lesson.Simulation) SimulationView {
	v := SimulationView{
		Description:  s.Description,
		Duration:     s.Video.Duration,
		EmbedURL:     s.Video.EmbedURL,
		Source:       s.Video.Source,
		Poster:       s.Video.Poster,
		Progress:     s.Video.Progress,
		SummaryItems: s.Summary.Items,
		SummaryTip:   s.Summary.Tip,
	}
	if v.Description == "" {
		v.Description = DefaultSimulationDetails
	}
	if s.Video.Progress != "" && s.Video.Duration != "" {
		v.ProgressPercent = PlaybackPercent(s.Video.Progress, s.Video.Duration)
	}
	return v
}

// PlaybackPercent converts two mm:ss timestamps into a 0..100 percentage.
// A zero or unparsable duration yields 0.
func PlaybackPercent(progress, duration string) int {
	d := clockSeconds(duration)
	if d == 0 {
		return 0
	}
	return min(100, int(math.Round(float64(clockSeconds(progress))/float64(d)*100)))
}

func clockSeconds(s string) int {
	parts := strings.SplitN(s, ":", 2)
	minutes, _ := strconv.Atoi(strings.TrimSpace(parts[0]))
	seconds := 0
	if len(parts) == 2 {
		seconds, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
	}
	return minutes*60 + seconds
}
