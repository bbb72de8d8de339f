package todo

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestAddPrepends(t *testing.T) {
	l := List{"b", "a"}
	got, err := Add(l, "c")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !slices.Equal(got, List{"c", "b", "a"}) {
		t.Fatalf("got %q", got)
	}
	if !slices.Equal(l, List{"b", "a"}) {
		t.Fatalf("input modified: %q", l)
	}
}

func TestAddRejections(t *testing.T) {
	full := List{}
	for {
		next, err := Add(full, "q")
		if err != nil {
			break
		}
		full = next
	}

	cases := []struct {
		name  string
		list  List
		entry string
		want  error
	}{
		{"128 runes ok", nil, strings.Repeat("가", MaxEntryLen), nil},
		{"129 runes", nil, strings.Repeat("a", MaxEntryLen+1), ErrEntryTooLong},
		{"empty", nil, "", ErrEmptyEntry},
		{"body over limit", full, "one more", ErrListFull},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := slices.Clone(tc.list)
			got, err := Add(tc.list, tc.entry)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err=%v want %v", err, tc.want)
			}
			if err != nil && !slices.Equal(got, before) {
				t.Fatalf("rejected add changed the list")
			}
		})
	}
	if n := len([]rune(full.Body())); n > MaxBodyLen {
		t.Fatalf("body grew to %d", n)
	}
}

func TestRemoveScansOldestFirst(t *testing.T) {
	l := List{"c milk", "b milk", "a bread"}

	got, removed, err := Remove(l, "milk")
	if err != nil || removed != "b milk" || !slices.Equal(got, List{"c milk", "a bread"}) {
		t.Fatalf("got %q removed %q err %v", got, removed, err)
	}

	got, removed, err = Remove(l, "zzz")
	if !errors.Is(err, ErrEntryNotFound) || removed != "" || !slices.Equal(got, l) {
		t.Fatalf("not found: got %q removed %q err %v", got, removed, err)
	}

	// The marker is not part of an entry.
	if _, _, err := Remove(l, "* "); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("marker matched: %v", err)
	}
}

func TestNormalizeEntry(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  buy milk ", "buy milk"},
		{"line\none", "line one"},
		{"a\r\nb\rc", "a b c"},
		{"\n", ""},
	}
	for _, tc := range cases {
		if got := NormalizeEntry(tc.in); got != tc.want {
			t.Fatalf("NormalizeEntry(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestCodecRoundTrip(t *testing.T) {
	u := User{ID: 1, DisplayName: "Ann"}
	for _, l := range []List{{}, {"a"}, {"new", "* starred", "old"}} {
		card := Encode(l, u)
		if card.Title != "✅ Todo list of Ann" || card.Footer != Footer {
			t.Fatalf("card=%+v", card)
		}
		got := Decode(&Message{FromBot: true, Card: &card})
		if !slices.Equal(got, l) {
			t.Fatalf("round trip %q -> %q", l, got)
		}
	}
	if Encode(List{}, u).Description != "" {
		t.Fatalf("empty list must encode to an empty body")
	}
	if got := Encode(List{"b", "a"}, u).Description; got != "* b\n* a" {
		t.Fatalf("body=%q", got)
	}
}

func TestDecodeIgnoresForeignMessages(t *testing.T) {
	foreign := &Card{Title: "x", Description: "* a", Footer: "other"}
	for _, m := range []*Message{nil, {FromBot: true}, {FromBot: true, Card: foreign}} {
		if got := Decode(m); len(got) != 0 {
			t.Fatalf("decoded %q from %+v", got, m)
		}
	}
}
