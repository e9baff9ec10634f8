// Package relation implements the derivation engine behind the field editor.
// Opening a session for a (collection, field, category) triple yields a
// mutable draft of the field and its relation records plus the set of
// collections, fields and seed rows that must be created to realize the
// chosen category. Recompute rules keep the derived set consistent while the
// user edits any input.
package relation

import (
	"errors"
	"fmt"
	"time"
)

// Category is the user-facing relationship kind selected for a field.
type Category string

const (
	CategoryStandard     Category = "standard"
	CategoryFile         Category = "file"
	CategoryM2O          Category = "m2o"
	CategoryO2M          Category = "o2m"
	CategoryM2M          Category = "m2m"
	CategoryFiles        Category = "files"
	CategoryTranslations Category = "translations"
	CategoryM2A          Category = "m2a"
	CategoryPresentation Category = "presentation"
)

// Categories lists every supported category.
func Categories() []Category {
	return []Category{
		CategoryStandard, CategoryFile, CategoryM2O, CategoryO2M,
		CategoryM2M, CategoryFiles, CategoryTranslations, CategoryM2A,
		CategoryPresentation,
	}
}

// ParseCategory converts a string into a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// NewField is the sentinel field name that opens a session in creation mode.
const NewField = "+"

// DefaultDebounce is the coalescing window applied to catalog-touching rules
// when Options.Debounce is zero.
const DefaultDebounce = 50 * time.Millisecond

// DebounceDisabled makes catalog-touching rules run synchronously. Used by
// one-shot callers such as the CLI.
const DebounceDisabled = time.Duration(-1)

var (
	// ErrFieldNotFound is returned when a session is opened for an existing
	// field the catalog does not know.
	ErrFieldNotFound = errors.New("relation: field not found")
	// ErrUnknownCategory is returned for an unsupported category value.
	ErrUnknownCategory = errors.New("relation: unknown category")
	// ErrSessionClosed is returned by mutations on a closed session.
	ErrSessionClosed = errors.New("relation: session closed")
	// ErrCategoryMismatch is returned when an existing field's stored
	// relations do not have the multiplicity the requested category needs.
	ErrCategoryMismatch = errors.New("relation: category does not match stored relations")
	// ErrNameExhausted is returned when junction name probing exceeds the
	// attempt cap. Unreachable for any finite catalog of sane size.
	ErrNameExhausted = errors.New("relation: junction name space exhausted")
)

// Options tunes a session.
type Options struct {
	// FilesCollection is the collection file relations point at.
	// Defaults to "files".
	FilesCollection string
	// LanguagesCollection is the default related collection for translation
	// fields. Defaults to "languages".
	LanguagesCollection string
	// Debounce is the coalescing window for catalog-touching rules. Zero
	// selects DefaultDebounce, DebounceDisabled runs them inline.
	Debounce time.Duration
}

func (o Options) withDefaults() Options {
	if o.FilesCollection == "" {
		o.FilesCollection = "files"
	}
	if o.LanguagesCollection == "" {
		o.LanguagesCollection = "languages"
	}
	if o.Debounce == 0 {
		o.Debounce = DefaultDebounce
	}
	return o
}

// CreationItem is one catalog object slated for creation, for display and
// confirmation by the caller.
type CreationItem struct {
	Name string `json:"name"`
	Kind string `json:"kind"` // collection | field
}
