// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// =============================================================================
// SEGMENT TESTS
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Segment
	}{
		{
			name: "plain text",
			in:   "just words",
			want: []Segment{{Kind: SegmentText, Content: "just words"}},
		},
		{
			name: "tagged fence",
			in:   "Here:\n```python\nprint(1)\n```\nDone.",
			want: []Segment{
				{Kind: SegmentText, Content: "Here:\n"},
				{Kind: SegmentCode, Language: "python", Content: "print(1)"},
				{Kind: SegmentText, Content: "\nDone."},
			},
		},
		{
			name: "untagged fence defaults to javascript",
			in:   "```\n  let x = 1;  \n```",
			want: []Segment{{Kind: SegmentCode, Language: "javascript", Content: "let x = 1;"}},
		},
		{
			name: "two fences",
			in:   "a```go\nx\n```b```sh\ny\n```",
			want: []Segment{
				{Kind: SegmentText, Content: "a"},
				{Kind: SegmentCode, Language: "go", Content: "x"},
				{Kind: SegmentText, Content: "b"},
				{Kind: SegmentCode, Language: "sh", Content: "y"},
			},
		},
		{
			name: "unterminated fence stays text",
			in:   "oops ```go\nx",
			want: []Segment{{Kind: SegmentText, Content: "oops ```go\nx"}},
		},
		{
			name: "empty",
			in:   "",
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Parse(tc.in))
		})
	}
}

func TestHasCodeBlockAndCodeBlocks(t *testing.T) {
	assert.False(t, HasCodeBlock("no fences"))
	assert.True(t, HasCodeBlock("```"))

	blocks := CodeBlocks("x```go\na\n```y```\nb\n```")
	require.Len(t, blocks, 2)
	assert.Equal(t, "a", blocks[0].Content)
	assert.Equal(t, "javascript", blocks[1].Language)
	assert.Equal(t, "code", blocks[1].Kind.String())
}

// =============================================================================
// REVEALER TESTS
// =============================================================================

func TestRevealer(t *testing.T) {
	r := NewRevealer("héllo")
	assert.Equal(t, StateRevealing, r.State())
	assert.Equal(t, "", r.Visible())

	assert.True(t, r.Tick())
	assert.True(t, r.Tick())
	assert.Equal(t, "hé", r.Visible(), "reveals whole runes")

	for r.Tick() {
	}
	assert.Equal(t, StateComplete, r.State())
	assert.True(t, r.Done())
	assert.Equal(t, "héllo", r.Visible())

	assert.False(t, r.Tick(), "ticks after completion are no-ops")
	assert.Equal(t, r.Content(), r.Visible())
}

func TestRevealer_TickCount(t *testing.T) {
	r := NewRevealer("abc")
	ticks := 0
	for !r.Done() {
		r.Tick()
		ticks++
	}
	assert.Equal(t, 3, ticks, "one rune per tick")
}

func TestNewComplete(t *testing.T) {
	r := NewComplete("stored reply")
	assert.True(t, r.Done())
	assert.Equal(t, "stored reply", r.Visible())
	assert.Equal(t, "complete", r.State().String())

	assert.True(t, NewRevealer("").Done())
}

// =============================================================================
// HIGHLIGHT / MARKDOWN TESTS
// =============================================================================

func TestHighlight(t *testing.T) {
	code := "func main() {\n\tfmt.Println(\"hi\")\n}"
	out := Highlight(code, "go")
	assert.Contains(t, out, "\x1b[")
	assert.Equal(t, code, stripANSI(out))

	assert.Equal(t, "plain words", stripANSI(Highlight("plain words", "no-such-language")))
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "Go", LanguageName("go"))
	assert.Equal(t, "whatever", LanguageName("whatever"))
}

func TestMarkdown(t *testing.T) {
	md := NewMarkdown("notty")
	out := md.Render("# Title\n\nSome **bold** text.", 40)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")
	assert.False(t, strings.HasSuffix(out, "\n"))

	assert.NotEmpty(t, NewMarkdown("").Render("hi", 0))
}
