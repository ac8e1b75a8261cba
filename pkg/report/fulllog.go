package report

import (
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// FullLogName is the base name of the flat, live results log.
const FullLogName = "ResultsLogFull"

// FullLogWriter appends one line per finished test to ResultsLogFull.html,
// so the page is readable while the run is still going.
type FullLogWriter struct {
	file  *os.File
	width int
}

type fullLogLine struct {
	Href   string
	Name   string
	Pad    template.HTML
	Passed  bool
	Skipped bool
	Warned  bool
}

var fullLogTmpl = template.Must(template.New("fullLog").Parse(statusMarkers + `
{{- define "header"}}<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.}}</title>
</head>
<body>
<div style="font-family: Consolas">
<h1>{{.}}</h1>
{{- end}}
{{- define "line"}}
<a href="{{.Href}}">{{.Name}}</a>{{.Pad}}{{template "status" .}}<br />
{{- end}}
{{- define "footer"}}
<br /><strong>Time taken: {{.}}</strong><br />
</div>
</body>
</html>
{{end}}`))

// NewFullLogWriter creates the file at path and writes its header. names are
// the qualified names of every scheduled test; the longest sets the column
// width of the status markers.
func NewFullLogWriter(path string, names []string) (*FullLogWriter, error) {
	f, err := os.Create(path) //#nosec G304 -- path is inside the run directory
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	w := &FullLogWriter{file: f}
	for _, n := range names {
		if l := utf8.RuneCountInString(n); l > w.width {
			w.width = l
		}
	}
	w.width += namePadding

	if err := fullLogTmpl.ExecuteTemplate(f, "header", FullLogName); err != nil {
		f.Close()
		return nil, fmt.Errorf("write %s header: %w", path, err)
	}
	return w, nil
}

// Append writes the line for r.
func (w *FullLogWriter) Append(r Result) error {
	line := fullLogLine{
		Href:   TestLogPath(r.Name),
		Name:   r.Name,
		Pad:    template.HTML(strings.Repeat(nbsp, max(0, w.width-utf8.RuneCountInString(r.Name))+1)), //#nosec G203 -- fixed markup
		Passed:  r.Passed(),
		Skipped: r.Status == StatusSkipped,
		Warned:  r.Warned,
	}
	if err := fullLogTmpl.ExecuteTemplate(w.file, "line", line); err != nil {
		return fmt.Errorf("append %s: %w", r.Name, err)
	}
	return w.file.Sync()
}

// Close writes the time taken and closes the file.
func (w *FullLogWriter) Close(elapsed time.Duration) error {
	if err := fullLogTmpl.ExecuteTemplate(w.file, "footer", FormatElapsed(elapsed)); err != nil {
		w.file.Close()
		return fmt.Errorf("write footer: %w", err)
	}
	return w.file.Close()
}

// TestLogPath returns the link from the run directory to a test's log:
// A.B.t → ./A/B/t.html. Segments are path-escaped, so a name holding
// '#' or '?' still links to its page.
func TestLogPath(qualifiedName string) string {
	segments := strings.Split(qualifiedName, Separator)
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "./" + strings.Join(segments, "/") + pageExt
}

// testLogFile is the unescaped location of a test's log below the run
// directory.
func testLogFile(qualifiedName string) string {
	return filepath.FromSlash(strings.ReplaceAll(qualifiedName, Separator, "/") + pageExt)
}
