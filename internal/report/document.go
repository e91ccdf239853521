package report

import (
	"strings"
)

// SectionKind tells Markdown how to print a Section.
type SectionKind int

const (
	SectionHeading SectionKind = iota + 1
	SectionText
	SectionImage
	SectionTable
	SectionMarker
)

// Section is one block of the narrative document.
type Section struct {
	Kind  SectionKind
	Level int    // heading depth
	Text  string // heading or paragraph text, pre-rendered table, marker body
	Alt   string // image alt text
	Path  string // image path relative to the report file
}

// Document is the assembled report. It is built once by Compose and not
// changed afterwards.
type Document struct {
	Sections []Section
}

// Markdown renders the document with '#' headings and ![alt](path) images.
func (d *Document) Markdown() string {
	var b strings.Builder
	for _, s := range d.Sections {
		switch s.Kind {
		case SectionHeading:
			b.WriteString(strings.Repeat("#", s.Level))
			b.WriteString(" ")
			b.WriteString(s.Text)
		case SectionText, SectionTable:
			b.WriteString(s.Text)
		case SectionImage:
			b.WriteString("![")
			b.WriteString(s.Alt)
			b.WriteString("](")
			b.WriteString(s.Path)
			b.WriteString(")")
		case SectionMarker:
			b.WriteString("<!-- ")
			b.WriteString(s.Text)
			b.WriteString(" -->")
		default:
			continue
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// ImagePaths lists every image the document embeds, in order.
func (d *Document) ImagePaths() []string {
	var out []string
	for _, s := range d.Sections {
		if s.Kind == SectionImage {
			out = append(out, s.Path)
		}
	}
	return out
}

func (d *Document) heading(level int, text string) {
	d.Sections = append(d.Sections, Section{Kind: SectionHeading, Level: level, Text: text})
}

func (d *Document) text(text string) {
	d.Sections = append(d.Sections, Section{Kind: SectionText, Text: text})
}

func (d *Document) table(md string) {
	d.Sections = append(d.Sections, Section{Kind: SectionTable, Text: md})
}

// image is a no-op for an empty path so a chart that was never written
// cannot be linked.
func (d *Document) image(alt, path string) bool {
	if path == "" {
		return false
	}
	d.Sections = append(d.Sections, Section{Kind: SectionImage, Alt: alt, Path: path})
	return true
}

func (d *Document) marker(text string) {
	d.Sections = append(d.Sections, Section{Kind: SectionMarker, Text: text})
}
