package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"todobot/internal/chatlog"
	"todobot/internal/storage"
	"todobot/internal/todo"
	logx "todobot/pkg/logx"
)

const timeLayout = "2006-01-02 15:04:05"

// showCommand prints the list the bot would read for a user: the same
// lookup the /todo commands perform, served from the ledger.
func showCommand(ctx context.Context, st storage.Store, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("todoctl show", flag.ContinueOnError)
	user := fs.Int64("user", 0, "telegram user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == 0 {
		return errors.New("show: -user is required")
	}

	ch := chatlog.New(nil, st, logx.Nop())
	rec, err := todo.FindTodoMessage(ctx, ch, *user)
	if err != nil {
		return err
	}
	l := todo.Decode(rec)
	if len(l) == 0 {
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("user %d has nothing to do", *user)))
		return nil
	}

	lines := []string{titleStyle.Render(rec.Card.Title), ""}
	for i, e := range l {
		lines = append(lines, accentStyle.Render(fmt.Sprintf("%2d.", i+1))+" "+e)
	}
	lines = append(lines, "", mutedStyle.Render(fmt.Sprintf("message %d, %d/%d chars", rec.Ref.MessageID, len([]rune(l.Body())), todo.MaxBodyLen)))
	fmt.Fprintln(out, panel(lines))
	return nil
}

func ledgerCommand(ctx context.Context, st storage.Store, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("todoctl ledger", flag.ContinueOnError)
	chat := fs.Int64("chat", 0, "telegram chat id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *chat == 0 {
		return errors.New("ledger: -chat is required")
	}
	recs, err := st.ListMessages(ctx, *chat)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("no recorded messages"))
		return nil
	}
	for _, r := range recs {
		kind := "text"
		if r.Card != nil {
			kind = okStyle.Render("card")
		}
		line := fmt.Sprintf("%8d  %s  %s", r.MessageID, r.SentAt.Local().Format(timeLayout), kind)
		if !r.ExpireAt.IsZero() {
			line += "  " + warnStyle.Render("expires "+r.ExpireAt.Local().Format(timeLayout))
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func auditCommand(ctx context.Context, st storage.Store, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("todoctl audit", flag.ContinueOnError)
	n := fs.Int("n", 20, "entries to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	entries, err := st.RecentAudit(ctx, *n)
	if err != nil {
		return err
	}
	for _, e := range entries {
		who := fmt.Sprint(e.ActorID)
		if e.ActorUsername != "" {
			who = "@" + e.ActorUsername
		}
		status := okStyle.Render("ok")
		if e.Error != "" {
			status = errorStyle.Render(e.Error)
		}
		fmt.Fprintf(out, "%s  %-18s %-14s %s %s %s\n",
			e.At.Local().Format(timeLayout), accentStyle.Render(e.Action), who,
			quoteTarget(e.Target), mutedStyle.Render((time.Duration(e.TookMS) * time.Millisecond).String()), status)
	}
	return nil
}

func quoteTarget(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return fmt.Sprintf("%q", s)
}
