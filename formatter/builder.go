package formatter

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"text/template"

	"github.com/fatih/color"

	"github.com/gnolang/splint/internal/document"
	tt "github.com/gnolang/splint/internal/types"
)

const (
	warningGlyph = "⚠️"
	pointerGlyph = ">"

	// leadingContext and trailingContext are the lines shown around the
	// offending one.
	leadingContext  = 3
	trailingContext = 1
)

var (
	errorStyle   = color.New(color.FgRed)
	pointerStyle = color.New(color.FgRed, color.Bold)
	lineStyle    = color.New(color.Faint)
	footerStyle  = color.New(color.Faint)
)

const issueTemplate = `{{header .Message}}

{{snippet .Lines .Line}}
{{footer .Filename .Line .Column}}
`

var tmpl = template.Must(template.New("issue").Funcs(template.FuncMap{
	"header":  header,
	"snippet": snippet,
	"footer":  footer,
}).Parse(issueTemplate))

// IssueData is the input of the issue template.
type IssueData struct {
	Filename string
	Message  string
	Line     int
	Column   int
	Lines    []string
}

// Report writes the diagnostic for a single violation to w. lines are the
// document lines, as returned by document.SplitLines.
func Report(w io.Writer, path string, lines []string, pos tt.Position, message string) error {
	_, err := io.WriteString(w, render(path, lines, pos, message))
	return err
}

// Render returns the diagnostic for a single violation of the document raw.
func Render(path, raw string, pos tt.Position, message string) string {
	return render(path, document.SplitLines(raw), pos, message)
}

func render(path string, lines []string, pos tt.Position, message string) string {
	data := IssueData{
		Filename: path,
		Message:  message,
		Line:     pos.Line,
		Column:   pos.Column,
		Lines:    lines,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting issue: %v\n", err)
	}
	return buf.String()
}

func header(message string) string {
	return warningGlyph + " " + errorStyle.Sprintf("error: %s", message)
}

// snippet renders the context window around line (1-based), clamped to
// the document.
func snippet(lines []string, line int) string {
	first, last := window(len(lines), line)
	if first > last {
		return ""
	}

	width := len(strconv.Itoa(last))
	var endString string
	for i := first; i <= last; i++ {
		gutter := "  "
		if i == line {
			gutter = pointerStyle.Sprint(pointerGlyph) + " "
		}
		endString += gutter + lineStyle.Sprintf("%*d |", width, i) + " " + lines[i-1] + "\n"
	}
	return endString
}

// window returns the first and last 1-based line numbers to display.
func window(total, line int) (int, int) {
	first := line - leadingContext
	if first < 1 {
		first = 1
	}
	last := line + trailingContext
	if last > total {
		last = total
	}
	return first, last
}

func footer(filename string, line, column int) string {
	return footerStyle.Sprintf("at %s:%d:%d", filename, line, column)
}
