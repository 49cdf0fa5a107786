package content

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Markdown decks hold blocks of prefixed lines separated by blank lines or
// "---". A block starts at "Q:" and runs until the next "Q:" or separator.
//
//	Q: dom
//	A: house
//	C: noun, masculine
//	L: A1
const (
	frontPrefix   = "Q:"
	backPrefix    = "A:"
	contextPrefix = "C:"
	levelPrefix   = "L:"
	separator     = "---"
)

// Field names that markdown blocks map to.
const (
	FieldFront   = "front"
	FieldBack    = "back"
	FieldContext = "context"
)

// ParseMarkdownFile reads a markdown deck file.
func ParseMarkdownFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseMarkdown(file)
}

// ParseMarkdown extracts entries from r. Blocks without a front are dropped.
// Continuation lines are appended to the field opened last; L: is single-line.
func ParseMarkdown(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var entries []Entry
	var current Entry
	var field string
	var block []string
	started := false

	flushField := func() {
		if field != "" && len(block) > 0 {
			current.Fields[field] = strings.TrimRight(strings.Join(block, "\n"), "\n")
		}
		block = nil
	}
	finish := func() {
		flushField()
		if current.Fields[FieldFront] != "" {
			entries = append(entries, current)
		}
		current = Entry{Fields: map[string]string{}}
		field = ""
		started = false
	}
	current = Entry{Fields: map[string]string{}}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == separator {
			finish()
			continue
		}

		switch {
		case strings.HasPrefix(line, frontPrefix):
			if started {
				finish()
			}
			started = true
			field = FieldFront
			block = []string{trimPrefix(line, frontPrefix)}
		case strings.HasPrefix(line, backPrefix):
			flushField()
			field = FieldBack
			block = []string{trimPrefix(line, backPrefix)}
		case strings.HasPrefix(line, contextPrefix):
			flushField()
			field = FieldContext
			block = []string{trimPrefix(line, contextPrefix)}
		case strings.HasPrefix(line, levelPrefix):
			flushField()
			field = ""
			current.Level = strings.TrimSpace(trimPrefix(line, levelPrefix))
		case field != "":
			block = append(block, line)
		}
	}

	finish()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func trimPrefix(line, prefix string) string {
	return strings.TrimPrefix(line[len(prefix):], " ")
}
