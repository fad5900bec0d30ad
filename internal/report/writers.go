package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Markdown renders r as a Markdown document with a table of missing bones.
func Markdown(r *Report) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# Mesh transfer: %s\n\n", filepath.Base(r.Source))
	fmt.Fprintf(&b, "- Source: `%s`\n", r.Source)
	fmt.Fprintf(&b, "- Target: `%s`\n", r.Target)
	parent := r.Parent
	if parent == "" {
		parent = "(model root)"
	}
	fmt.Fprintf(&b, "- Parent: `%s`\n", parent)
	fmt.Fprintf(&b, "- Reset transform: %t\n", r.ResetTransform)
	fmt.Fprintf(&b, "- Time: %s\n\n", r.Time.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Transferred **%d** mesh(es), skipped **%d**.\n\n", r.Transferred, r.Skipped)

	if len(r.Missing) == 0 {
		b.WriteString("All bones mapped.\n")
		return b.Bytes()
	}

	b.WriteString("## Missing bones\n\n")
	b.WriteString("| Mesh | Bone | Did you mean | Score |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	for _, row := range r.Missing {
		score := ""
		if row.Suggestion != "" {
			score = fmt.Sprintf("%.2f", row.Score)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			mdCell(row.Mesh), mdCell(row.Bone), mdCell(row.Suggestion), score)
	}
	return b.Bytes()
}

func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "<", "&lt;")
}

// WriteMarkdown writes the Markdown form of r.
func WriteMarkdown(w io.Writer, r *Report) error {
	_, err := w.Write(Markdown(r))
	return err
}

// WriteHTML renders the Markdown form of r to a standalone HTML page.
func WriteHTML(w io.Writer, r *Report) error {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert(Markdown(r), &body); err != nil {
		return fmt.Errorf("report: render markdown: %w", err)
	}

	_, err := fmt.Fprintf(w, htmlPage, html.EscapeString(filepath.Base(r.Source)), body.String())
	return err
}

const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Mesh transfer: %s</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #bbb; padding: 4px 8px; }
</style>
</head>
<body>
%s</body>
</html>
`

var writers = map[string]struct {
	ext   string
	write func(io.Writer, *Report) error
}{
	"json": {".report.json", WriteJSON},
	"md":   {".report.md", WriteMarkdown},
	"html": {".report.html", WriteHTML},
}

// WriteFiles writes one file per format into dir, named base plus the
// format's extension, and returns the paths written.
func WriteFiles(dir, base string, formats []string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}

	var paths []string
	for _, f := range formats {
		wr, ok := writers[f]
		if !ok {
			return paths, fmt.Errorf("report: unknown format %q", f)
		}
		path := filepath.Join(dir, base+wr.ext)
		if err := writeFile(path, r, wr.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, r *Report, write func(io.Writer, *Report) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := write(f, r); err != nil {
		f.Close()
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return f.Close()
}
