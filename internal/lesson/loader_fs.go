package lesson

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"path"
)

// FSLoader reads bundles laid out as <slug>/<name>.json in a file system.
type FSLoader struct {
	fsys fs.FS
}

func NewFSLoader(fsys fs.FS) *FSLoader {
	return &FSLoader{fsys: fsys}
}

func (l *FSLoader) Load(ctx context.Context, slug string) (*Bundle, error) {
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	if _, err := fs.Stat(l.fsys, slug); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &ResourceError{Path: slug, Err: err}
	}

	docs := make(map[string][]byte, len(resourceNames))
	for _, name := range resourceNames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := resourcePath(slug, name)
		raw, err := fs.ReadFile(l.fsys, p)
		if err != nil {
			return nil, &ResourceError{Path: p, Err: err}
		}
		docs[name] = raw
	}
	return decodeBundle(slug, docs)
}

// List returns every directory that carries a meta.json, ordered by the
// meta order field and then by slug.
func (l *FSLoader) List(ctx context.Context) ([]Summary, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return nil, err
	}

	var out []Summary
	for _, e := range entries {
		if !e.IsDir() || ValidateSlug(e.Name()) != nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := fs.ReadFile(l.fsys, path.Join(e.Name(), "meta.json"))
		if err != nil {
			continue
		}
		var m Meta
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, &ResourceError{Path: resourcePath(e.Name(), "meta"), Err: err}
		}
		out = append(out, Summary{Slug: e.Name(), Title: m.Title, UnitTitle: m.UnitTitle, Order: m.Order})
	}
	sortSummaries(out)
	return out, nil
}
