package lesson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"

	"nihongo/internal/practice"
)

// DefaultSlug is the lesson shown when none is requested.
const DefaultSlug = "lesson-1"

var (
	ErrInvalidSlug = errors.New("invalid lesson slug")
	ErrNotFound    = errors.New("lesson not found")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// resourceNames are the documents of a bundle, in the order they are decoded.
var resourceNames = []string{"meta", "sidebar", "theory", "simulation", "practice"}

// Loader reads lesson bundles from some backing source.
type Loader interface {
	Load(ctx context.Context, slug string) (*Bundle, error)
	List(ctx context.Context) ([]Summary, error)
}

// ResourceError reports the document that could not be loaded.
type ResourceError struct {
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return "failed to load resource: " + e.Path
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// ValidateSlug rejects anything that could escape the resource root.
func ValidateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}

// decodeBundle decodes the raw documents keyed by resource name.
func decodeBundle(slug string, docs map[string][]byte) (*Bundle, error) {
	b := &Bundle{Slug: slug}
	targets := map[string]any{
		"meta":       &b.Meta,
		"sidebar":    &b.Sidebar,
		"theory":     &b.Theory,
		"simulation": &b.Simulation,
		"practice":   &b.Practice,
	}
	for _, name := range resourceNames {
		if err := json.Unmarshal(docs[name], targets[name]); err != nil {
			return nil, &ResourceError{Path: resourcePath(slug, name), Err: err}
		}
	}
	return b, nil
}

func resourcePath(slug, name string) string {
	return slug + "/" + name + ".json"
}

func sortSummaries(s []Summary) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Order != s[j].Order {
			return s[i].Order < s[j].Order
		}
		return s[i].Slug < s[j].Slug
	})
}

// PracticeInput merges page-level defaults into the bundle's practice document.
// The course progress falls back to the meta progress, and lesson links fall
// back to the meta navigation and then to "#".
func PracticeInput(b *Bundle) practice.Data {
	d := b.Practice

	if d.ProgressPercent == nil {
		pct := 0.0
		if b.Meta.Progress != nil {
			pct = math.Round(b.Meta.Progress.Percent * 100)
		}
		d.ProgressPercent = &pct
	}

	nav := Navigation{}
	if b.Meta.Navigation != nil {
		nav = *b.Meta.Navigation
	}
	d.PreviousLessonURL = firstNonEmpty(d.PreviousLessonURL, nav.PreviousLessonURL, "#")
	d.NextLessonURL = firstNonEmpty(d.NextLessonURL, nav.NextLessonURL, "#")
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
