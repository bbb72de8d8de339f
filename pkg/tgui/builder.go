package tgui

import "strings"

// Builder assembles a multi-line HTML message. Line escapes its input;
// RawLine trusts it.
type Builder struct {
	lines []string
}

func NewBuilder() *Builder { return &Builder{} }

// Title adds "<emoji> <b>title</b>".
func (b *Builder) Title(emoji, title string) *Builder {
	t := strings.TrimSpace(title)
	if t == "" {
		return b
	}
	line := B(t).String()
	if e := strings.TrimSpace(emoji); e != "" {
		line = Esc(e).String() + " " + line
	}
	b.lines = append(b.lines, line)
	return b
}

func (b *Builder) Line(s string) *Builder {
	b.lines = append(b.lines, Esc(s).String())
	return b
}

func (b *Builder) RawLine(h H) *Builder {
	b.lines = append(b.lines, h.String())
	return b
}

func (b *Builder) Blank() *Builder {
	b.lines = append(b.lines, "")
	return b
}

// Build joins the lines, trimming leading and trailing blank lines.
func (b *Builder) Build() H {
	return H(strings.Trim(strings.Join(b.lines, "\n"), "\n"))
}
