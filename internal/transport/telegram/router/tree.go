package router

import (
	"sort"
	"strings"
)

// cmdNode is one token of a command route. Aliases point at the same node
// as the canonical name, so children may hold one node under several keys.
type cmdNode struct {
	name     string
	cmd      *Command
	aliases  []string
	children map[string]*cmdNode
}

func newRoot() *cmdNode {
	return &cmdNode{children: map[string]*cmdNode{}}
}

func normToken(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func splitRoute(route string) []string {
	f := strings.Fields(route)
	for i := range f {
		f[i] = normToken(f[i])
	}
	return f
}

func (r *cmdNode) ensure(route []string) *cmdNode {
	cur := r
	for _, tok := range route {
		n, ok := cur.children[tok]
		if !ok {
			n = &cmdNode{name: tok, children: map[string]*cmdNode{}}
			cur.children[tok] = n
		}
		cur = n
	}
	return cur
}

// add registers c at route and its aliases next to the last token.
// An alias never shadows a canonical name.
func (r *cmdNode) add(route []string, c Command) *cmdNode {
	leaf := r.ensure(route)
	leaf.cmd = &c

	parent := r.ensure(route[:len(route)-1])
	for _, a := range c.Aliases {
		a = normToken(a)
		if a == "" || strings.ContainsAny(a, " \t") {
			continue
		}
		if cur, ok := parent.children[a]; ok && cur != leaf {
			continue
		}
		parent.children[a] = leaf
		leaf.aliases = append(leaf.aliases, a)
	}
	return leaf
}

func (r *cmdNode) child(name string) (*cmdNode, bool) {
	n, ok := r.children[normToken(name)]
	return n, ok
}

// childNames returns the canonical child names, sorted.
func (r *cmdNode) childNames() []string {
	out := make([]string, 0, len(r.children))
	for k, n := range r.children {
		if n.name == k {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// cutWord splits s into its first whitespace-delimited word and the
// trimmed rest.
func cutWord(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, isSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }
