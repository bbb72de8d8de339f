package todo

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	// MaxEntryLen is the longest accepted entry, in characters.
	MaxEntryLen = 128
	// MaxBodyLen bounds the rendered list body, in characters.
	MaxBodyLen = 2048
	// LinePrefix marks every rendered entry line.
	LinePrefix = "* "
)

var (
	ErrEntryTooLong  = errors.New("todo: entry too long")
	ErrListFull      = errors.New("todo: list full")
	ErrEntryNotFound = errors.New("todo: entry not found")
	ErrEmptyEntry    = errors.New("todo: empty entry")
)

// List holds entries newest first.
type List []string

// Body renders the list as it is stored in the card description.
func (l List) Body() string {
	if len(l) == 0 {
		return ""
	}
	var b strings.Builder
	for i, e := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(LinePrefix)
		b.WriteString(e)
	}
	return b.String()
}

// NormalizeEntry trims the entry and folds line breaks into spaces so the
// newline-joined body decodes back into the same entries.
func NormalizeEntry(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.TrimSpace(s)
}

// Add returns a new list with entry prepended. l is not modified.
func Add(l List, entry string) (List, error) {
	if entry == "" {
		return l, ErrEmptyEntry
	}
	if utf8.RuneCountInString(entry) > MaxEntryLen {
		return l, ErrEntryTooLong
	}
	out := make(List, 0, len(l)+1)
	out = append(out, entry)
	out = append(out, l...)
	if utf8.RuneCountInString(out.Body()) > MaxBodyLen {
		return l, ErrListFull
	}
	return out, nil
}

// Remove drops the oldest entry containing key. The scan runs from the end
// of the list (oldest) towards the front (newest).
func Remove(l List, key string) (List, string, error) {
	for i := len(l) - 1; i >= 0; i-- {
		if !strings.Contains(l[i], key) {
			continue
		}
		out := make(List, 0, len(l)-1)
		out = append(out, l[:i]...)
		out = append(out, l[i+1:]...)
		return out, l[i], nil
	}
	return l, "", ErrEntryNotFound
}

func Clear() List { return List{} }
