package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"

	"github.com/conorfennell/langdrill/internal/domain"
	"github.com/conorfennell/langdrill/internal/fingerprint"
)

// customDir marks learner-authored content inside a deck directory.
const customDir = "custom"

// Dir reads decks from <root>/<deck>/ for each of its roots in turn. Files
// are visited in lexical order, entries in file order. YAML files hold an
// "items" list; .md files use the Q:/A: block format.
type Dir struct {
	roots []string
	log   logrus.FieldLogger
}

// NewDir returns a Source reading the given roots in order.
func NewDir(log logrus.FieldLogger, roots ...string) *Dir {
	return &Dir{roots: roots, log: log}
}

// ListEntries implements Source. Entries without an id get one derived from
// their fields; later entries repeating an id are skipped. ErrNoDeckDir is
// returned only when no root has the deck.
func (d *Dir) ListEntries(ctx context.Context, deck domain.Deck, filter Filter) ([]Entry, error) {
	var entries []Entry
	seen := make(map[string]string)
	found := false

	for _, root := range d.roots {
		deckDir := filepath.Join(root, string(deck))
		if _, err := os.Stat(deckDir); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", deckDir, err)
		}
		found = true
		if err := d.walk(ctx, deck, deckDir, filter, seen, &entries); err != nil {
			return nil, err
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNoDeckDir, deck)
	}

	d.log.WithFields(logrus.Fields{"deck": deck, "entries": len(entries)}).Debug("listed content")
	return entries, nil
}

func (d *Dir) walk(ctx context.Context, deck domain.Deck, deckDir string, filter Filter, seen map[string]string, entries *[]Entry) error {
	return filepath.WalkDir(deckDir, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if de.IsDir() {
			return nil
		}

		fileEntries, err := readFile(path)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		if fileEntries == nil {
			return nil
		}

		custom := isCustomPath(deckDir, path)
		for _, e := range fileEntries {
			if e.Fields == nil {
				e.Fields = map[string]string{}
			}
			e.Custom = e.Custom || custom
			if e.ID == "" {
				e.ID = fingerprint.Short(e.Fields)
			}
			if prev, dup := seen[e.ID]; dup {
				d.log.WithFields(logrus.Fields{"deck": deck, "item": e.ID, "file": path, "first": prev}).
					Warn("duplicate item id, skipping")
				continue
			}
			seen[e.ID] = path
			if filter.Match(e) {
				*entries = append(*entries, e)
			}
		}
		return nil
	})
}

// readFile returns nil for files that are not deck files.
func readFile(path string) ([]Entry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".md":
		return ParseMarkdownFile(path)
	default:
		return nil, nil
	}
}

// LoadYAML reads a YAML deck file of the form
//
//	items:
//	  - id: dom
//	    level: A1
//	    fields: {term: dom, translation: house}
func LoadYAML(path string) ([]Entry, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, err
	}
	var items []Entry
	if err := k.Unmarshal("items", &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []Entry{}
	}
	return items, nil
}

func isCustomPath(deckDir, path string) bool {
	rel, err := filepath.Rel(deckDir, path)
	if err != nil {
		return false
	}
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return first == customDir && first != filepath.ToSlash(rel)
}
