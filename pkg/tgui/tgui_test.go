package tgui

import "testing"

func TestEscapingHelpers(t *testing.T) {
	cases := []struct {
		got  H
		want string
	}{
		{Esc("a<b>&c"), "a&lt;b&gt;&amp;c"},
		{Code("x<y"), "<code>x&lt;y</code>"},
		{Cmd("/todo <task>"), "<b><i><code>/todo &lt;task&gt;</code></i></b>"},
		{Concat(Esc("Added "), Code("milk"), Esc("!")), "Added <code>milk</code>!"},
		{JoinH(" | ", B("a"), "", I("b")), "<b>a</b> | <i>b</i>"},
	}
	for i, tc := range cases {
		if tc.got.String() != tc.want {
			t.Fatalf("case %d: got %q want %q", i, tc.got, tc.want)
		}
	}
}

func TestTruncRunes(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 4, "hel…"},
		{"할일목록", 3, "할일…"},
		{"x", 0, ""},
	}
	for _, tc := range cases {
		if got := TruncRunes(tc.in, tc.n); got != tc.want {
			t.Fatalf("TruncRunes(%q,%d)=%q want %q", tc.in, tc.n, got, tc.want)
		}
	}
}

func TestBuilder(t *testing.T) {
	got := NewBuilder().
		Blank().
		Title("✅", "Todo list of <me>").
		Blank().
		Line("* a&b").
		RawLine(I("footer")).
		Blank().
		Build()
	want := "✅ <b>Todo list of &lt;me&gt;</b>\n\n* a&amp;b\n<i>footer</i>"
	if got.String() != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}
