package todo

import (
	"unicode/utf8"

	kit "todobot/internal/transport"
	"todobot/pkg/tgui"
)

// RenderCard renders a card as Telegram HTML.
func RenderCard(c Card) tgui.H {
	b := tgui.NewBuilder().RawLine(tgui.B(c.Title))
	if c.Description != "" {
		b.Line(c.Description)
	}
	if c.Footer != "" {
		b.Blank().RawLine(tgui.I(c.Footer))
	}
	return b.Build()
}

// Render renders an outgoing message: text first, then the card.
func Render(out Outgoing) tgui.H {
	var card tgui.H
	if out.Card != nil {
		card = RenderCard(*out.Card)
	}
	return tgui.JoinH("\n\n", out.Text, card)
}

// fitsOneMessage reports whether out renders short enough to be sent as a
// single message. Escaping can make a card several times longer than its
// body.
func fitsOneMessage(out Outgoing) bool {
	return utf8.RuneCountInString(Render(out).String()) <= kit.MaxMessageLen
}

func nothingToDoText() tgui.H {
	return tgui.Concat(
		tgui.Esc("There is nothing to do now. Try to add some with "),
		tgui.Cmd("/todo blah blah"),
		tgui.Esc("!"),
	)
}

func tooLongText() tgui.H {
	return tgui.Esc("Content is too long!!! You have to send a content shorter than 128 characters.")
}

func listFullText() tgui.H {
	return tgui.Esc("Your todo list is now full... just remove some to add new one!")
}

func addedText(entry string) tgui.H {
	return tgui.Concat(tgui.Esc("Added "), tgui.Code(entry), tgui.Esc(" to your todo list!"))
}

func removedText(entry string) tgui.H {
	return tgui.Concat(tgui.Esc("Removed "), tgui.Code(entry), tgui.Esc("!"))
}

func notFoundText(key string) tgui.H {
	return tgui.Concat(tgui.Esc("task about "), tgui.Code(key), tgui.Esc(" is not found."))
}

// HelpText is the static usage text of the todo command.
func HelpText() tgui.H {
	c := tgui.Cmd
	return tgui.NewBuilder().
		RawLine(tgui.Concat(c("/todo help"), tgui.Esc(" to check how to use this bot."))).
		RawLine(tgui.Concat(c("/todo"), tgui.Esc(", "), c("/todo l"), tgui.Esc(", or "), c("/todo list"),
			tgui.Esc(" to see your todo list."))).
		RawLine(tgui.Concat(c("/todo <task>"), tgui.Esc(", "), c("/todo a <task>"), tgui.Esc(" or "), c("/todo add <task>"),
			tgui.Esc(" to add new task to do."))).
		RawLine(tgui.Concat(c("/todo r <words>"), tgui.Esc(" or "), c("/todo remove <words>"),
			tgui.Esc(" to remove task you have done or canceled. It searches your todo list for tasks including "),
			tgui.Code("words"), tgui.Esc(" and removes the oldest one."))).
		RawLine(tgui.Concat(c("/todo clear"), tgui.Esc(" to clear your todo list. "), tgui.B("!!! IT CAN NOT BE RESTORED !!!"))).
		Build()
}
