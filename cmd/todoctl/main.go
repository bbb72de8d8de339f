// Command todoctl inspects the bot's message ledger and audit trail.
//
//	todoctl -config ./config.json show -user 123456
//	todoctl -config ./config.json ledger -chat -1001234
//	todoctl -config ./config.json audit -n 20
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"todobot/internal/config"
	"todobot/internal/storage"
	logx "todobot/pkg/logx"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fail(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("todoctl", flag.ContinueOnError)
	cfgPath := fs.String("config", "./config.json", "bot config (json or yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(out)
		return errors.New("missing command")
	}

	st, err := openStore(*cfgPath)
	if err != nil {
		return err
	}
	defer st.Close()

	switch rest[0] {
	case "show":
		return showCommand(ctx, st, rest[1:], out)
	case "ledger":
		return ledgerCommand(ctx, st, rest[1:], out)
	case "audit":
		return auditCommand(ctx, st, rest[1:], out)
	case "help":
		printUsage(out)
		return nil
	default:
		printUsage(out)
		return fmt.Errorf("unknown command: %s", rest[0])
	}
}

func openStore(cfgPath string) (storage.Store, error) {
	m := config.NewConfigManager(cfgPath)
	cfg, err := m.Parse()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	s, err := config.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	if s.StorageDriver == "memory" {
		return nil, errors.New("storage.driver is memory; nothing to inspect")
	}
	return storage.Open(storage.Config{Driver: s.StorageDriver, Path: s.StoragePath, BusyTimeout: s.BusyTimeout}, logx.Nop())
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, titleStyle.Render("todoctl")+mutedStyle.Render(" [-config path] <command> [flags]"))
	fmt.Fprintln(w, "  show   -user <id>   print a user's todo list")
	fmt.Fprintln(w, "  ledger -chat <id>   list recorded bot messages in a chat")
	fmt.Fprintln(w, "  audit  -n <count>   print recent todo operations")
}
