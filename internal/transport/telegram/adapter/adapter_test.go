package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"golang.org/x/time/rate"

	kit "todobot/internal/transport"
	logx "todobot/pkg/logx"
)

func TestSplitTelegramText(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		limit int
		mode  string
		want  []string
	}{
		{"short", "hello", 10, "", []string{"hello"}},
		{"empty", "", 10, "", []string{""}},
		{"newline boundary", "aaaa\nbbbb\ncc", 10, "", []string{"aaaa\nbbbb", "cc"}},
		{"hard cut", "abcdefghij", 4, "", []string{"abcd", "efgh", "ij"}},
		{"keeps tags whole", "abc <b>x</b>", 6, "HTML", []string{"abc ", "<b>x", "</b>"}},
		{"runes not bytes", "가나다라", 2, "", []string{"가나", "다라"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := splitTelegramText(tc.in, tc.limit, tc.mode)
			if strings.Join(got, "|") != strings.Join(tc.want, "|") {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestClassifyAPIError(t *testing.T) {
	cases := []struct {
		in   error
		gone bool
		ok   bool
	}{
		{nil, false, true},
		{errors.New("telegram: Bad Request: message is not modified (400)"), false, true},
		{errors.New("telegram: Bad Request: message to delete not found (400)"), true, false},
		{errors.New("telegram: Bad Request: message can't be deleted for everyone (400)"), true, false},
		{errors.New("telegram: Too Many Requests (429)"), false, false},
	}
	for _, tc := range cases {
		got := classifyAPIError(tc.in)
		if (got == nil) != tc.ok || errors.Is(got, kit.ErrMessageGone) != tc.gone {
			t.Fatalf("classify(%v) = %v", tc.in, got)
		}
	}
}

type apiRecorder struct {
	mu    sync.Mutex
	calls map[string][]map[string]any
}

func (r *apiRecorder) handler(w http.ResponseWriter, req *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(req.Body).Decode(&body)
	method := req.URL.Path[strings.LastIndexByte(req.URL.Path, '/')+1:]
	r.mu.Lock()
	r.calls[method] = append(r.calls[method], body)
	r.mu.Unlock()
	_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
}

func TestMenuAndStatusAreDeduplicated(t *testing.T) {
	rec := &apiRecorder{calls: map[string][]map[string]any{}}
	srv := httptest.NewServer(http.HandlerFunc(rec.handler))
	defer srv.Close()

	a := &Adapter{
		cfg:     Config{Token: "T", APIURL: srv.URL},
		log:     logx.Nop(),
		limiter: rate.NewLimiter(rate.Inf, 1),
		http:    srv.Client(),
	}
	ctx := context.Background()
	menu := []kit.BotCommand{{Command: "todo", Description: "todo list"}, {Command: ""}}
	for i := 0; i < 2; i++ {
		if err := a.UpdateMenuCommands(ctx, menu); err != nil {
			t.Fatalf("menu: %v", err)
		}
		if err := a.UpdateStatus(ctx, "watching /todo help"); err != nil {
			t.Fatalf("status: %v", err)
		}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if n := len(rec.calls["setMyCommands"]); n != 1 {
		t.Fatalf("setMyCommands calls=%d", n)
	}
	cmds, _ := rec.calls["setMyCommands"][0]["commands"].([]any)
	if len(cmds) != 1 {
		t.Fatalf("commands=%v", cmds)
	}
	st := rec.calls["setMyShortDescription"]
	if len(st) != 1 || st[0]["short_description"] != "watching /todo help" {
		t.Fatalf("status calls=%v", st)
	}
}

func TestCallAPIReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: nope"}`))
	}))
	defer srv.Close()
	a := &Adapter{cfg: Config{Token: "T", APIURL: srv.URL}, log: logx.Nop(), limiter: rate.NewLimiter(rate.Inf, 1), http: srv.Client()}
	err := a.callAPI(context.Background(), "setMyCommands", struct{}{})
	if err == nil || !strings.Contains(err.Error(), "Bad Request: nope") {
		t.Fatalf("err=%v", err)
	}
}
