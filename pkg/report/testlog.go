package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/seltest-dev/seltest/pkg/core"
)

// TestLog is the content of a per-test log page.
type TestLog struct {
	Name        string // Qualified name, decides the file location
	Title       string
	Description string // Markdown
	Log         []string
	Errors      []string
	Completed   bool // Every step ran
	Skipped     bool // Never started; Errors holds the reason
	Warned      bool
	Screenshot  string // Relative to the run directory
	Elapsed     time.Duration
}

// NewTestLog builds the page content for an executed test.
func NewTestLog(tr *core.TestResult, title string) TestLog {
	tl := TestLog{
		Name:        tr.Name,
		Title:       title,
		Description: tr.Description,
		Log:         tr.Log,
		Errors:      tr.Errors,
		Completed:   tr.Completed,
		Skipped:     tr.Status == core.StatusSkipped,
		Warned:      tr.Warned,
		Elapsed:     tr.Duration,
	}
	for _, a := range tr.Attachments {
		if a.Name == core.AttachmentScreenshot {
			tl.Screenshot = a.Path
			break
		}
	}
	return tl
}

type testLogLine struct {
	Text    string
	Warning bool
}

type testLogData struct {
	Title       string
	Description template.HTML
	Lines       []testLogLine
	Errors      []string
	Completed   bool
	Skipped     bool
	Warned      bool
	Screenshot  string
	Elapsed     string
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var testLogTmpl = template.Must(template.New("testLog").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
</head>
<body>
<div style="font-family: Consolas">
<h1>{{.Title}}</h1>
{{- if .Description}}
<div style="font-weight: bold">{{.Description}}</div>
{{- end}}
{{- range .Lines}}
{{if .Warning}}<span style="color: #FFFF00; background-color: #000"><strong>WARNING:</strong> {{.Text}}</span>{{else}}{{.Text}}{{end}}<br />
{{- end}}
{{- if .Completed}}
<span style="color: #0A0">TEST SUCCESSFUL</span><br />
{{- else if .Skipped}}
<span style="color: #888">TEST SKIPPED</span><br />
{{- range .Errors}}
{{.}}<br />
{{- end}}
{{- else}}
{{- range .Errors}}
<span style="color: #F00"><strong>ERROR:</strong> {{.}}</span><br />
{{- end}}
{{- end}}
{{- if .Warned}}
<br /><span style="color: #FFFF00; background-color: #000">Warning detected. Please review test manually.</span><br />
{{- end}}
{{- if .Screenshot}}
<br /><a href="{{.Screenshot}}">Screenshot</a><br />
{{- end}}
<br /><strong>Time taken: {{.Elapsed}}</strong>
</div>
</body>
</html>
`))

// WriteTestLog writes the page for tl below runDir and returns its path
// relative to runDir.
func WriteTestLog(runDir string, tl TestLog) (string, error) {
	rel := testLogFile(tl.Name)
	path := filepath.Join(runDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}

	data := testLogData{
		Title:     tl.Title,
		Errors:    tl.Errors,
		Completed: tl.Completed,
		Skipped:   tl.Skipped,
		Warned:    tl.Warned,
		Elapsed:   FormatElapsed(tl.Elapsed),
	}
	if data.Title == "" {
		data.Title = tl.Name
	}
	for _, line := range tl.Log {
		if text, ok := strings.CutPrefix(line, core.WarningPrefix); ok {
			data.Lines = append(data.Lines, testLogLine{Text: text, Warning: true})
			continue
		}
		data.Lines = append(data.Lines, testLogLine{Text: line})
	}
	if tl.Description != "" {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(tl.Description), &buf); err != nil {
			return "", fmt.Errorf("render description: %w", err)
		}
		data.Description = template.HTML(buf.String()) //#nosec G203 -- goldmark escapes raw HTML by default
	}
	if tl.Screenshot != "" {
		link, err := filepath.Rel(filepath.Dir(path), filepath.Join(runDir, filepath.FromSlash(tl.Screenshot)))
		if err != nil {
			return "", fmt.Errorf("resolve screenshot link: %w", err)
		}
		data.Screenshot = filepath.ToSlash(link)
	}

	var buf bytes.Buffer
	if err := testLogTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render test log: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write test log: %w", err)
	}
	return filepath.ToSlash(rel), nil
}
