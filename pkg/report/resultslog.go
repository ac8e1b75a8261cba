package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

// Layout constants shared by the HTML logs.
const (
	pageExt     = ".html"
	nbsp        = "&nbsp;"
	indentUnit  = "|&nbsp;&nbsp;&nbsp;"
	depthPad    = "&nbsp;&nbsp;&nbsp;&nbsp;"
	namePadding = 3
)

// ResultsLogWriter renders the nested results log.
type ResultsLogWriter struct {
	Title      string        // Page header and file base name, e.g. ResultsLogFail
	Expected   int           // Tests scheduled; a different result count shows a banner
	Elapsed    time.Duration // Run duration for the "Time taken" line
	FailedOnly bool          // Render failed tests only
}

type resultsLogRow struct {
	Indent template.HTML
	Name   string
	IsTest bool
	Anchor string // TOC target id, categories only
	Href   string
	Pad    template.HTML
	Passed  bool
	Skipped bool
	Warned  bool
}

type resultsLogData struct {
	Title    string
	Mismatch bool
	TOC      []string
	Rows     []resultsLogRow
	Elapsed  string
	Warned   bool
}

var resultsLogTmpl = template.Must(template.New("resultsLog").Parse(resultsLogTemplate))

// Render writes the results log for results to w.
func (lw *ResultsLogWriter) Render(w io.Writer, results []Result) error {
	data := resultsLogData{
		Title:    lw.Title,
		Mismatch: lw.Expected != len(results),
		Elapsed:  FormatElapsed(lw.Elapsed),
	}

	if lw.FailedOnly {
		results = FilterFailed(results)
	}

	tree, err := BuildTree(results)
	if err != nil {
		return err
	}

	data.TOC = tree.TOC()
	targets := make(map[string]bool, len(data.TOC))
	for _, path := range data.TOC {
		targets[path] = true
	}

	width := tree.NameWidth + namePadding
	for _, n := range tree.Nodes {
		row := resultsLogRow{
			Indent: template.HTML(strings.Repeat(indentUnit, n.Depth)), //#nosec G203 -- fixed markup
			Name:   n.Name,
			IsTest: n.IsTest,
		}
		if !n.IsTest {
			if path := n.QualifiedPath(); targets[path] {
				row.Anchor = path
			}
			data.Rows = append(data.Rows, row)
			continue
		}

		if n.Result == nil {
			return fmt.Errorf("%s: %w", n.QualifiedPath(), ErrMissingResult)
		}
		pad := strings.Repeat(nbsp, max(0, width-utf8.RuneCountInString(n.Name))) +
			strings.Repeat(depthPad, tree.MaxDepth-n.Depth)
		row.Href = n.FilePath() + pageExt
		row.Pad = template.HTML(pad) //#nosec G203 -- fixed markup
		row.Passed = n.Result.Passed()
		row.Skipped = n.Result.Status == StatusSkipped
		row.Warned = n.Result.Warned
		if row.Warned {
			data.Warned = true
		}
		data.Rows = append(data.Rows, row)
	}

	return resultsLogTmpl.Execute(w, data)
}

// WriteFile renders the results log to path.
func (lw *ResultsLogWriter) WriteFile(path string, results []Result) error {
	var buf bytes.Buffer
	if err := lw.Render(&buf, results); err != nil {
		return fmt.Errorf("render %s: %w", lw.Title, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

const statusMarkers = `
{{- define "status" -}}
{{- if .Passed}}<span style="color: #0A0">SUCCESSFUL</span>{{else if .Skipped}}<span style="color: #888">SKIPPED</span>{{else}}<span style="color: #F00">FAILED</span>{{end -}}
{{- if .Warned}}&nbsp;<span style="color: #FFFF00; background-color: #000">WARNING</span>{{end -}}
{{- end -}}
`

const resultsLogTemplate = statusMarkers + `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
</head>
<body>
<div style="font-family: Consolas">
<h1>{{.Title}}</h1>
{{- if .Mismatch}}
<h1 style="color: #f00">ERROR: Mismatch in # of tests vs # of results. This page may not have accurate information.</h1><br />
{{- end}}
<h2>Category Links</h2>
<ul>
{{- range .TOC}}
<li><a href="#{{.}}">{{.}}</a></li><br />
{{- end}}
</ul>
<h2>Tests &amp; Categories</h2>
{{- range .Rows}}
{{.Indent}}{{if .IsTest}}<a href="{{.Href}}">{{.Name}}</a>{{.Pad}}{{template "status" .}}{{else}}<span style="font-weight: bold">{{if .Anchor}}<span id="{{.Anchor}}">{{.Name}}</span>{{else}}{{.Name}}{{end}}</span>{{end}}<br />
{{- end}}
<br /><strong>Time taken: {{.Elapsed}}</strong><br />
{{- if .Warned}}
<span style="color: #FFFF00; background-color: #000">Warning detected. Please review test manually.</span><br />
{{- end}}
</div>
</body>
</html>
`
