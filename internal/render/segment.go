// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns assistant replies into terminal output: the
// character-by-character reveal, code fence splitting, syntax highlighting
// and markdown.
package render

import (
	"regexp"
	"strings"
)

// DefaultLanguage is assumed for fences without a language tag.
const DefaultLanguage = "javascript"

// codeFenceRegex matches ```lang\n...``` non-greedily across lines.
var codeFenceRegex = regexp.MustCompile("```(\\w+)?\\n([\\s\\S]*?)```")

// SegmentKind tells text and code apart.
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentCode
)

func (k SegmentKind) String() string {
	if k == SegmentCode {
		return "code"
	}
	return "text"
}

// Segment is one run of a reply.
type Segment struct {
	Kind     SegmentKind
	Language string // code only
	Content  string
}

// HasCodeBlock reports whether text contains a fence marker at all.
func HasCodeBlock(text string) bool {
	return strings.Contains(text, "```")
}

// Parse splits text into alternating text and code segments. Code content
// is trimmed; text between fences is kept verbatim. Unterminated fences
// stay in the text.
func Parse(text string) []Segment {
	var segments []Segment
	last := 0

	for _, m := range codeFenceRegex.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			segments = append(segments, Segment{Kind: SegmentText, Content: text[last:m[0]]})
		}

		lang := DefaultLanguage
		if m[2] >= 0 {
			lang = text[m[2]:m[3]]
		}
		segments = append(segments, Segment{
			Kind:     SegmentCode,
			Language: lang,
			Content:  strings.TrimSpace(text[m[4]:m[5]]),
		})
		last = m[1]
	}

	if last < len(text) {
		segments = append(segments, Segment{Kind: SegmentText, Content: text[last:]})
	}
	return segments
}

// CodeBlocks returns only the code segments of text.
func CodeBlocks(text string) []Segment {
	var out []Segment
	for _, s := range Parse(text) {
		if s.Kind == SegmentCode {
			out = append(out, s)
		}
	}
	return out
}
