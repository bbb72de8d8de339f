package todo

import "strings"

const (
	TitlePrefix = "✅ Todo list of "
	// Footer marks a card as todo storage. It doubles as a usage hint.
	Footer = "/todo a I have to wash my hands!"
)

// Card is the structured part of a todo message.
type Card struct {
	Title       string
	Description string
	Footer      string
}

// User is the owner of a list.
type User struct {
	ID          int64
	DisplayName string
}

// IsTodo reports whether the card carries the todo footer.
func (c *Card) IsTodo() bool {
	return c != nil && c.Footer == Footer
}

// Encode builds the card for l.
func Encode(l List, u User) Card {
	return Card{
		Title:       TitlePrefix + u.DisplayName,
		Description: l.Body(),
		Footer:      Footer,
	}
}

// Decode reads the list stored in m. A missing message, a message without
// a card, or a card with another footer yields an empty list.
func Decode(m *Message) List {
	if m == nil || !m.Card.IsTodo() {
		return List{}
	}
	return decodeBody(m.Card.Description)
}

func decodeBody(body string) List {
	if strings.TrimSpace(body) == "" {
		return List{}
	}
	lines := strings.Split(body, "\n")
	out := make(List, 0, len(lines))
	for _, ln := range lines {
		out = append(out, strings.TrimPrefix(ln, LinePrefix))
	}
	return out
}
