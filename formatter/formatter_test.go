package formatter

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/splint/internal/document"
	tt "github.com/gnolang/splint/internal/types"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func tenLines() string {
	var b strings.Builder
	for i := 1; i <= 10; i++ {
		b.WriteString("L")
		b.WriteString(strings.Repeat("x", i))
		b.WriteString("\n")
	}
	return b.String()
}

func TestRenderContextWindow(t *testing.T) {
	t.Parallel()

	expected := `⚠️ error: /a: is not of type integer

  3 | Lxxx
  4 | Lxxxx
  5 | Lxxxxx
> 6 | Lxxxxxx
  7 | Lxxxxxxx

at config.json:6:3
`

	result := Render("config.json", tenLines(), tt.Position{Line: 6, Column: 3}, "/a: is not of type integer")
	assert.Equal(t, expected, result)
}

func TestRenderClampsAtDocumentStart(t *testing.T) {
	t.Parallel()

	expected := `⚠️ error: name is required

> 1 | Lx
  2 | Lxx

at config.json:1:1
`

	result := Render("config.json", tenLines(), tt.Position{Line: 1, Column: 1}, "name is required")
	assert.Equal(t, expected, result)
}

func TestRenderClampsAtDocumentEnd(t *testing.T) {
	t.Parallel()

	expected := `⚠️ error: bad

   7 | Lxxxxxxx
   8 | Lxxxxxxxx
   9 | Lxxxxxxxxx
> 10 | Lxxxxxxxxxx

at c.yml:10:5
`

	result := Render("c.yml", tenLines(), tt.Position{Line: 10, Column: 5}, "bad")
	assert.Equal(t, expected, result)
}

func TestRenderAlignsLineNumbers(t *testing.T) {
	t.Parallel()
	var b strings.Builder
	for i := 1; i <= 12; i++ {
		b.WriteString("line\n")
	}

	expected := `⚠️ error: oops

   6 | line
   7 | line
   8 | line
>  9 | line
  10 | line

at f.json:9:2
`

	result := Render("f.json", b.String(), tt.Position{Line: 9, Column: 2}, "oops")
	assert.Equal(t, expected, result)
}

func TestRenderWindowBounds(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		total int
		line  int
		first int
		last  int
	}{
		{name: "middle", total: 10, line: 6, first: 3, last: 7},
		{name: "first line", total: 10, line: 1, first: 1, last: 2},
		{name: "second line", total: 10, line: 2, first: 1, last: 3},
		{name: "last line", total: 10, line: 10, first: 7, last: 10},
		{name: "single line", total: 1, line: 1, first: 1, last: 1},
		{name: "empty", total: 0, line: 1, first: 1, last: 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			first, last := window(tc.total, tc.line)
			assert.Equal(t, tc.first, first)
			assert.Equal(t, tc.last, last)
		})
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	t.Parallel()
	src := tenLines()
	pos := tt.Position{Line: 4, Column: 1}

	first := Render("a.json", src, pos, "msg")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Render("a.json", src, pos, "msg"))
	}
}

func TestReport(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	lines := document.SplitLines("{\r\n  \"a\": 1\r\n}\r\n")
	err := Report(&buf, "a.json", lines, tt.Position{Line: 2, Column: 8}, "wrong")
	require.NoError(t, err)

	expected := `⚠️ error: wrong

  1 | {
> 2 |   "a": 1
  3 | }

at a.json:2:8
`
	assert.Equal(t, expected, buf.String())
}
