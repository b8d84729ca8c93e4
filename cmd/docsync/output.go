package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"golang.org/x/term"

	"docsync/internal/pipeline"
	"docsync/internal/transform"
)

// printer writes diagnostics, coloured when the output is a terminal.
type printer struct {
	out  io.Writer
	cwd  string
	path *color.Color
	pos  *color.Color
	msg  *color.Color
	err  *color.Color
	ok   *color.Color
}

func newPrinter(out *os.File) *printer {
	cwd, _ := os.Getwd()
	p := &printer{
		out:  out,
		cwd:  cwd,
		path: color.New(color.Bold),
		pos:  color.New(color.FgCyan),
		msg:  color.New(color.FgYellow),
		err:  color.New(color.FgRed, color.Bold),
		ok:   color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.path, p.pos, p.msg, p.err, p.ok} {
		if isTerminal(out) {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// rel shortens path relative to the working directory when it lies below it.
func (p *printer) rel(path string) string {
	if p.cwd == "" {
		return path
	}
	if rel, err := filepath.Rel(p.cwd, path); err == nil && !filepath.IsAbs(rel) && len(rel) < len(path) {
		return rel
	}
	return path
}

func (p *printer) diagnostic(d transform.Diagnostic) {
	fmt.Fprintf(p.out, "%s:%s: %s\n", p.path.Sprint(p.rel(d.URI.Path())), p.pos.Sprint(d.Position), p.msg.Sprint(d.Message))
}

func (p *printer) failure(path string, err error) {
	fmt.Fprintf(p.out, "%s: %s\n", p.path.Sprint(p.rel(path)), p.err.Sprint(err))
}

// results prints every diagnostic and failure and returns the number of diagnostics.
func (p *printer) results(results []pipeline.FileResult) int {
	count := 0
	for _, res := range results {
		if res.Err != nil {
			p.failure(res.Path, res.Err)
			continue
		}
		for _, d := range res.Diagnostics {
			p.diagnostic(d)
			count++
		}
	}
	return count
}

func (p *printer) summary(files, findings int) {
	if findings == 0 {
		fmt.Fprintln(p.out, p.ok.Sprintf("%d files checked, no findings", files))
		return
	}
	fmt.Fprintln(p.out, p.msg.Sprintf("%d files checked, %d findings", files, findings))
}

// writeJSON prints the diagnostics of results as one JSON array.
func writeJSON(out io.Writer, results []pipeline.FileResult) (int, error) {
	diagnostics := []transform.Diagnostic{}
	for _, res := range results {
		diagnostics = append(diagnostics, res.Diagnostics...)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return len(diagnostics), enc.Encode(diagnostics)
}
