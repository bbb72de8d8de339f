package todo

import (
	"context"

	kit "todobot/internal/transport"
)

// FindTodoMessage returns the todo record in the user's private chat: the
// newest bot message carrying the todo footer, else the newest bot message
// at all, else nil.
func FindTodoMessage(ctx context.Context, ch Channel, userID int64) (*Message, error) {
	dm, err := ch.DirectChat(ctx, userID)
	if err != nil {
		return nil, err
	}
	hist, err := ch.History(ctx, dm)
	if err != nil {
		return nil, err
	}
	var fallback *Message
	for i := range hist {
		m := &hist[i]
		if !m.FromBot {
			continue
		}
		if m.Card.IsTodo() {
			return m, nil
		}
		if fallback == nil {
			fallback = m
		}
	}
	return fallback, nil
}

// ClearBotMessages deletes every bot message in the user's private chat,
// oldest first, one at a time. Messages listed in keep are skipped. It
// returns the deleted refs in deletion order.
func ClearBotMessages(ctx context.Context, ch Channel, userID int64, keep ...kit.MessageRef) ([]kit.MessageRef, error) {
	dm, err := ch.DirectChat(ctx, userID)
	if err != nil {
		return nil, err
	}
	hist, err := ch.History(ctx, dm)
	if err != nil {
		return nil, err
	}
	skip := make(map[kit.MessageRef]bool, len(keep))
	for _, k := range keep {
		skip[k] = true
	}

	var deleted []kit.MessageRef
	for i := len(hist) - 1; i >= 0; i-- {
		m := hist[i]
		if !m.FromBot || skip[m.Ref] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if err := ch.Delete(ctx, m.Ref); err != nil {
			return deleted, err
		}
		deleted = append(deleted, m.Ref)
	}
	return deleted, nil
}
