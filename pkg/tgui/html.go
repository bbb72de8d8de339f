package tgui

import (
	"html"
	"strings"
)

// ParseModeHTML is the Telegram parse mode every H value targets.
const ParseModeHTML = "HTML"

// H is HTML that is safe to send with ParseMode="HTML".
// Values of type H are treated as already escaped.
type H string

func (h H) String() string { return string(h) }

// Esc escapes text for Telegram HTML parse mode.
func Esc(s string) H { return H(html.EscapeString(s)) }

func wrap(tag string, inner H) H { return H("<" + tag + ">" + inner.String() + "</" + tag + ">") }

func B(s string) H    { return wrap("b", Esc(s)) }
func I(s string) H    { return wrap("i", Esc(s)) }
func Code(s string) H { return wrap("code", Esc(s)) }

// Cmd renders a command as bold italic code.
func Cmd(s string) H { return wrap("b", wrap("i", Code(s))) }

// Concat joins parts without a separator.
func Concat(parts ...H) H {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(string(p))
	}
	return H(b.String())
}

// JoinH joins non-blank parts with sep.
func JoinH(sep string, parts ...H) H {
	ss := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p.String()) == "" {
			continue
		}
		ss = append(ss, p.String())
	}
	return H(strings.Join(ss, sep))
}
