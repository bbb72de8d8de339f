package router

import (
	"sort"
	"strings"

	"todobot/pkg/tgui"
)

// helpText renders help for path (empty for the top-level list).
func (m *CommandManager) helpText(path []string) tgui.H {
	m.mu.RLock()
	root := m.root
	m.mu.RUnlock()

	cur := root
	full := make([]string, 0, len(path))
	for _, p := range path {
		n, ok := cur.child(strings.TrimPrefix(p, "/"))
		if !ok {
			return tgui.NewBuilder().
				Title("❓", "Unknown command").
				RawLine(tgui.Concat(tgui.Esc("Try "), tgui.Code("/help"), tgui.Esc(" to list commands."))).
				Build()
		}
		cur = n
		full = append(full, n.name)
	}
	if len(full) == 0 {
		return helpTop(root)
	}
	return helpNode(cur, full)
}

func helpTop(root *cmdNode) tgui.H {
	b := tgui.NewBuilder().
		Title("📚", "Commands").
		RawLine(tgui.Concat(tgui.Esc("Type "), tgui.Code("/help <cmd>"), tgui.Esc(" for details."))).
		Blank()
	for _, name := range root.childNames() {
		n, _ := root.child(name)
		b.RawLine(helpRow("/"+name, summarizeNodeDesc(n)))
	}
	return b.Build()
}

func helpNode(cur *cmdNode, full []string) tgui.H {
	b := tgui.NewBuilder().RawLine(tgui.Concat(tgui.Esc("📚 "), tgui.B("Help"), tgui.Esc(" "), tgui.Code("/"+strings.Join(full, " "))))

	if c := cur.cmd; c != nil {
		if d := strings.TrimSpace(c.Description); d != "" {
			b.Line(d)
		}
		if u := strings.TrimSpace(c.Usage); u != "" {
			b.Blank().RawLine(tgui.B("Usage")).RawLine(tgui.Code(u))
		}
		if len(cur.aliases) > 0 {
			al := append([]string(nil), cur.aliases...)
			sort.Strings(al)
			parts := make([]tgui.H, 0, len(al))
			for _, a := range al {
				parts = append(parts, tgui.Code(a))
			}
			b.Blank().RawLine(tgui.Concat(tgui.B("Aliases"), tgui.Esc(": "), tgui.JoinH(", ", parts...)))
		}
	}

	if names := cur.childNames(); len(names) > 0 {
		b.Blank().RawLine(tgui.B("Subcommands"))
		for _, name := range names {
			n, _ := cur.child(name)
			b.RawLine(helpRow("/"+strings.Join(append(append([]string(nil), full...), name), " "), summarizeNodeDesc(n)))
		}
	}
	return b.Build()
}

func helpRow(cmd, desc string) tgui.H {
	row := tgui.Concat(tgui.Esc("• "), tgui.Code(cmd))
	if desc != "" {
		row = tgui.Concat(row, tgui.Esc(" - "+desc))
	}
	return row
}

func summarizeNodeDesc(n *cmdNode) string {
	if n == nil {
		return ""
	}
	if n.cmd != nil {
		if d := strings.TrimSpace(n.cmd.Description); d != "" {
			return d
		}
	}
	kids := n.childNames()
	if len(kids) == 0 {
		return ""
	}
	max := min(3, len(kids))
	s := strings.Join(kids[:max], ", ")
	if len(kids) > max {
		s += ", …"
	}
	return "subcommands: " + s
}
