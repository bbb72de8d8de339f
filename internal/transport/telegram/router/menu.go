package router

import (
	"strings"
	"unicode"

	kit "todobot/internal/transport"
)

const (
	maxMenuCommands = 100
	maxMenuDesc     = 256
)

// sanitizeTelegramCommand converts a route token into a Telegram-safe bot
// command name. Telegram command names are restricted to [a-z0-9_]{1,32}.
// Tokens with nothing usable (for example "+" or "투두") yield "".
func sanitizeTelegramCommand(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_' || r == '-' || r == '/' || unicode.IsSpace(r):
			if b.Len() > 0 && !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "_")
	if len(out) > 32 {
		out = strings.TrimRight(out[:32], "_")
	}
	if out != "" && out[0] >= '0' && out[0] <= '9' {
		out = strings.TrimRight(("cmd_" + out)[:min(32, len(out)+4)], "_")
	}
	return out
}

// buildTelegramMenuCommands lists the visible top-level commands in
// route order.
func buildTelegramMenuCommands(root *cmdNode, cmds []Command) []kit.BotCommand {
	seen := map[string]bool{}
	out := make([]kit.BotCommand, 0, len(cmds))
	for _, c := range cmds {
		route := splitRoute(c.Route)
		if c.Hidden || len(route) != 1 {
			continue
		}
		name := sanitizeTelegramCommand(route[0])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		n, _ := root.child(route[0])
		desc := strings.ReplaceAll(strings.TrimSpace(summarizeNodeDesc(n)), "\n", " ")
		if desc == "" {
			desc = name
		}
		if r := []rune(desc); len(r) > maxMenuDesc {
			desc = string(r[:maxMenuDesc])
		}
		out = append(out, kit.BotCommand{Command: name, Description: desc})
		if len(out) >= maxMenuCommands {
			break
		}
	}
	return out
}
