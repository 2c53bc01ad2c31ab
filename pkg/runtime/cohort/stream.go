// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package cohort implements the constraint-grammar (CG) streaming text
// format's zero-copy forward iterator (§4.C): cohorts, readings, blanks,
// and escapes. It is the shared data model consumed by the suggest
// engine (pkg/runtime/commands/divvun) and the normalize/phon engine
// (pkg/runtime/commands/speech).
package cohort

import (
	"fmt"
	"strings"
)

// BlockKind discriminates the three block variants the CG stream yields.
type BlockKind int

const (
	BlockCohort BlockKind = iota
	BlockText
	BlockEscaped
)

// Block is one unit of a parsed CG stream, in source order.
type Block struct {
	Kind   BlockKind
	Cohort Cohort // valid when Kind == BlockCohort
	Text   string // raw line content, valid when Kind == BlockText or BlockEscaped
}

// Reading is one morphological analysis of a cohort.
type Reading struct {
	BaseForm string
	Tags     []string
	Depth    int    // count of leading tabs; >1 marks a subreading
	Raw      string // the untouched source line, for diagnostics/round-trip
}

// Cohort is one word-form's analysis block: the surface form plus its
// ordered readings.
type Cohort struct {
	WordForm string
	Readings []Reading
}

// Warning is a non-fatal stream warning (§7 kind 4): a malformed line was
// skipped but parsing continued.
type Warning struct {
	Line    int
	Message string
}

func (w Warning) Error() string {
	return fmt.Sprintf("cohort: line %d: %s", w.Line, w.Message)
}

// Stream holds a fully parsed CG text buffer: its blocks in source order
// plus whether the source ended with a trailing newline (needed for
// byte-exact round-tripping).
type Stream struct {
	Blocks          []Block
	TrailingNewline bool
	Warnings        []Warning
}

// Parse decodes a CG text buffer into a Stream. Malformed lines produce a
// Warning and are skipped rather than aborting the parse, per §4.C:
// "On a malformed line, emit a structured error and continue."
func Parse(text string) *Stream {
	trailingNewline := strings.HasSuffix(text, "\n")
	body := text
	if trailingNewline {
		body = body[:len(body)-1]
	}

	var lines []string
	if body != "" || text == "\n" {
		lines = strings.Split(body, "\n")
	}

	s := &Stream{TrailingNewline: trailingNewline}
	var cur *Cohort

	flush := func() {
		if cur != nil {
			s.Blocks = append(s.Blocks, Block{Kind: BlockCohort, Cohort: *cur})
			cur = nil
		}
	}

	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "\t"):
			depth := 0
			for depth < len(line) && line[depth] == '\t' {
				depth++
			}
			reading, err := parseReading(line[depth:], depth, line)
			if err != nil {
				s.Warnings = append(s.Warnings, Warning{Line: i + 1, Message: err.Error()})
				continue
			}
			if cur == nil {
				s.Warnings = append(s.Warnings, Warning{Line: i + 1, Message: "reading line with no preceding word-form line"})
				continue
			}
			cur.Readings = append(cur.Readings, reading)

		case strings.HasPrefix(line, `"<`):
			flush()
			wordForm, err := parseWordForm(line)
			if err != nil {
				s.Warnings = append(s.Warnings, Warning{Line: i + 1, Message: err.Error()})
				continue
			}
			cur = &Cohort{WordForm: wordForm}

		case strings.HasPrefix(line, ":"):
			flush()
			s.Blocks = append(s.Blocks, Block{Kind: BlockEscaped, Text: line})

		default:
			flush()
			s.Blocks = append(s.Blocks, Block{Kind: BlockText, Text: line})
		}
	}
	flush()

	return s
}

// parseWordForm extracts the form between `"<` and the matching `>"`.
func parseWordForm(line string) (string, error) {
	const prefix = `"<`
	rest := line[len(prefix):]
	end := strings.Index(rest, `>"`)
	if end < 0 {
		return "", fmt.Errorf("unterminated word-form quote: %q", line)
	}
	return rest[:end], nil
}

// parseReading decodes a tab-trimmed reading line: "base_form" tag tag ...
func parseReading(content string, depth int, raw string) (Reading, error) {
	if !strings.HasPrefix(content, `"`) {
		return Reading{}, fmt.Errorf("reading line missing opening quote: %q", raw)
	}

	rest := content[1:]
	end := findClosingQuote(rest)
	if end < 0 {
		return Reading{}, fmt.Errorf("reading line missing closing quote: %q", raw)
	}

	baseForm := rest[:end]
	tail := strings.TrimSpace(rest[end+1:])
	var tags []string
	if tail != "" {
		tags = strings.Fields(tail)
	}

	return Reading{BaseForm: baseForm, Tags: tags, Depth: depth, Raw: raw}, nil
}

// findClosingQuote finds the first unescaped '"' in s.
func findClosingQuote(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == '"' {
			return i
		}
	}
	return -1
}

// Serialize reconstructs the original CG text byte-for-byte from a
// Stream's blocks, satisfying the round-trip testable property (§8): a
// parse-then-serialize of a stream with no rewrites is byte-identical to
// the source.
func (s *Stream) Serialize() string {
	var b strings.Builder
	lines := make([]string, 0, len(s.Blocks)*2)

	for _, blk := range s.Blocks {
		switch blk.Kind {
		case BlockCohort:
			lines = append(lines, fmt.Sprintf(`"<%s>"`, blk.Cohort.WordForm))
			for _, r := range blk.Cohort.Readings {
				lines = append(lines, r.Raw)
			}
		case BlockText, BlockEscaped:
			lines = append(lines, blk.Text)
		}
	}

	b.WriteString(strings.Join(lines, "\n"))
	if s.TrailingNewline {
		b.WriteByte('\n')
	}
	return b.String()
}

// CleanBlank extracts the human-readable text from a raw text/escaped
// block: for an Escaped block, the leading colon marker is stripped (the
// "cleaned blank" of the glossary); for a plain Text block, the line is
// used as-is.
func CleanBlank(blk Block) string {
	if blk.Kind == BlockEscaped {
		return strings.TrimPrefix(blk.Text, ":")
	}
	return blk.Text
}
