// Package export turns a draft into downloadable files and clipboard text.
package export

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/atotto/clipboard"
	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/iburimskiy/leafdraft/internal/draft"
)

// Format is an export file type, named by its extension.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatRTF      Format = "rtf"
	FormatPDF      Format = "pdf"
)

// generator is credited in HTML and RTF output.
const generator = "leafdraft"

// maxTitleRunes bounds the title part of generated file names.
const maxTitleRunes = 30

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatMarkdown, FormatHTML, FormatRTF, FormatPDF}
}

// ParseFormat accepts an extension (with or without the dot) or a long name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "txt", "text":
		return FormatText, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "rtf":
		return FormatRTF, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Document is the exportable view of a draft.
type Document struct {
	Title   string
	Body    string // markdown
	Sources []draft.Source
}

// FromDraft uses the request as the title, as the editor does.
func FromDraft(d *draft.Document) Document {
	return Document{Title: d.Prompt, Body: d.Content, Sources: d.Sources}
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Render produces the file contents for f.
func Render(d Document, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return []byte(PlainText(d.Body) + "\n"), nil
	case FormatMarkdown:
		return renderMarkdown(d), nil
	case FormatHTML:
		return renderHTML(d)
	case FormatRTF:
		return renderRTF(d), nil
	case FormatPDF:
		return renderPDF(d)
	default:
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
}

// FileName derives "<title>_draft.<ext>" from the first 30 characters of
// the title, lower-cased, with whitespace runs collapsed to underscores.
func FileName(title string, f Format) string {
	runes := []rune(strings.TrimSpace(title))
	if len(runes) > maxTitleRunes {
		runes = runes[:maxTitleRunes]
	}

	var b strings.Builder
	inSpace := false
	for _, r := range runes {
		switch {
		case unicode.IsSpace(r):
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		case r == '/' || r == '\\' || r == ':' || r == 0:
			b.WriteByte('_')
		default:
			b.WriteRune(unicode.ToLower(r))
		}
		inSpace = false
	}

	name := strings.Trim(b.String(), "_")
	if name == "" {
		name = "document"
	}
	return name + "_draft." + string(f)
}

// Target resolves an output path and an optional format name. An explicit
// format wins, then the path's extension, then markdown. A directory (an
// existing one, or a path ending in a separator) gets FileName(title).
func Target(out, format, title string) (string, Format, error) {
	isDir := strings.HasSuffix(out, "/") || strings.HasSuffix(out, string(os.PathSeparator))
	if fi, err := os.Stat(out); err == nil && fi.IsDir() {
		isDir = true
	}

	var (
		f   Format
		err error
	)
	switch {
	case format != "":
		f, err = ParseFormat(format)
	case !isDir && filepath.Ext(out) != "":
		f, err = FormatFromPath(out)
	default:
		f = FormatMarkdown
	}
	if err != nil {
		return "", "", err
	}

	if isDir {
		return filepath.Join(out, FileName(title, f)), f, nil
	}
	return out, f, nil
}

// WriteFile renders d and writes it to path.
func WriteFile(path string, d Document, f Format) error {
	data, err := Render(d, f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

var clipboardWrite = clipboard.WriteAll

// Copy puts the plain-text body on the system clipboard.
func Copy(d Document) error {
	if err := clipboardWrite(PlainText(d.Body)); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}

// PlainText strips markdown syntax: headings and emphasis lose their
// markers, list items become bullets.
func PlainText(markdown string) string {
	src := []byte(markdown)
	root := md.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(n.Segment.Value(src))
				if n.SoftLineBreak() || n.HardLineBreak() {
					b.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				b.Write(n.Value)
			}
		case *ast.AutoLink:
			if entering {
				b.Write(n.Label(src))
			}
		case *ast.ListItem:
			if entering {
				b.WriteString("• ")
			}
		case *ast.TextBlock:
			if !entering {
				b.WriteByte('\n')
			}
		case *ast.Paragraph:
			if !entering {
				b.WriteByte('\n')
				if _, inItem := n.Parent().(*ast.ListItem); !inItem {
					b.WriteByte('\n')
				}
			}
		case *ast.Heading:
			if !entering {
				b.WriteString("\n\n")
			}
		case *ast.List:
			if !entering {
				b.WriteByte('\n')
			}
		case *ast.ThematicBreak:
			if entering {
				b.WriteString("\n")
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(src))
				}
				b.WriteByte('\n')
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func renderMarkdown(d Document) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n", d.Title, strings.TrimSpace(d.Body))
	if len(d.Sources) > 0 {
		b.WriteString("\n## Sources\n\n")
		for _, s := range d.Sources {
			fmt.Fprintf(&b, "- [%s](%s)\n", s.Title, s.URI)
		}
	}
	return []byte(b.String())
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; max-width: 800px; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; color: #333; }
  h1 { color: #2d475c; border-bottom: 2px solid #92C973; padding-bottom: 10px; }
  ul, ol { padding-left: 20px; }
  li { margin-bottom: 5px; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div>{{.Body}}</div>
{{- if .Sources}}
<h2>Sources</h2>
<ul>
{{- range .Sources}}
<li><a href="{{.URI}}">{{.Title}}</a></li>
{{- end}}
</ul>
{{- end}}
<p style="margin-top: 40px; font-size: 0.8em; color: #666; text-align: center;">Generated by {{.Generator}}</p>
</body>
</html>
`))

func renderHTML(d Document) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(d.Body), &body); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}

	var out bytes.Buffer
	err := page.Execute(&out, struct {
		Title     string
		Body      template.HTML
		Sources   []draft.Source
		Generator string
	}{
		Title:     d.Title,
		Body:      template.HTML(body.String()),
		Sources:   d.Sources,
		Generator: generator,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render html: %w", err)
	}
	return out.Bytes(), nil
}

func renderRTF(d Document) []byte {
	var b strings.Builder
	b.WriteString(`{\rtf1\ansi\deff0\nouicompat{\fonttbl{\f0\fnil\fcharset0 Arial;}{\f1\fnil\fcharset0 Calibri;}}`)
	b.WriteString("\n{\\*\\generator " + generator + ";}\\viewkind4\\uc1 \n")
	b.WriteString(`\pard\sa200\sl276\slmult1\f0\fs24\lang9 `)
	b.WriteString(rtfEscape(PlainText(d.Body)))
	b.WriteString("\\par\n}")
	return []byte(b.String())
}

// rtfEscape escapes control characters and writes non-ASCII runes as
// \uN? sequences.
func rtfEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '{' || r == '}':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString("\\par\n")
		case r == '\r':
		case r > 0x7f:
			if r1, r2 := utf16.EncodeRune(r); r1 != unicode.ReplacementChar {
				fmt.Fprintf(&b, "\\u%d?\\u%d?", int16(r1), int16(r2))
			} else {
				fmt.Fprintf(&b, "\\u%d?", int16(r))
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// A4 page layout in millimetres.
const (
	pdfSide       = 10
	pdfTop        = 20
	pdfBottom     = 15
	pdfTitleSize  = 16
	pdfTitleLine  = 8
	pdfTitleGap   = 10
	pdfBodySize   = 11
	pdfBodyLine   = 6
	pdfFontFamily = "Helvetica"
)

// renderPDF lays out a bold title over the plain-text body, breaking pages
// as the text runs past the bottom margin.
func renderPDF(d Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfSide, pdfTop, pdfSide)
	pdf.SetAutoPageBreak(true, pdfBottom)
	pdf.SetTitle(d.Title, true)
	pdf.SetCreator(generator, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont(pdfFontFamily, "B", pdfTitleSize)
	pdf.MultiCell(0, pdfTitleLine, tr(d.Title), "", "L", false)
	pdf.Ln(pdfTitleGap)

	pdf.SetFont(pdfFontFamily, "", pdfBodySize)
	pdf.MultiCell(0, pdfBodyLine, tr(PlainText(d.Body)), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
