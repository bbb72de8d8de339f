package todo

import (
	"context"
	"strconv"
	"time"

	"todobot/internal/transport/telegram/router"
)

// CooldownGroup is the cooldown slot shared by every todo subcommand
// except help.
const CooldownGroup = "todo"

// Commands returns the router registrations for the todo command group.
func (s *Service) Commands(timeout time.Duration) []router.Command {
	handle := func(fn func(ctx context.Context, c Caller, req *router.Request) error) router.HandlerFunc {
		return func(ctx context.Context, req *router.Request) error {
			return fn(ctx, callerOf(req), req)
		}
	}
	return []router.Command{
		{
			Route:       "todo",
			Aliases:     []string{"투두", "할일"},
			Description: "show or add to your todo list",
			Usage:       "/todo [task]",
			Cooldown:    CooldownGroup,
			Timeout:     timeout,
			Handle: handle(func(ctx context.Context, c Caller, req *router.Request) error {
				if req.Tail == "" {
					return s.List(ctx, c)
				}
				return s.Add(ctx, c, req.Tail)
			}),
		},
		{
			Route:       "todo +",
			Aliases:     []string{"add", "a", "추가"},
			Description: "add a task",
			Usage:       "/todo add <task>",
			Args:        router.ArgsRequired,
			Cooldown:    CooldownGroup,
			Timeout:     timeout,
			Handle: handle(func(ctx context.Context, c Caller, req *router.Request) error {
				return s.Add(ctx, c, req.Tail)
			}),
		},
		{
			Route:       "todo ?",
			Aliases:     []string{"list", "l", "목록"},
			Description: "show your todo list",
			Usage:       "/todo list",
			Args:        router.ArgsNone,
			Cooldown:    CooldownGroup,
			Timeout:     timeout,
			Handle: handle(func(ctx context.Context, c Caller, req *router.Request) error {
				return s.List(ctx, c)
			}),
		},
		{
			Route:       "todo -",
			Aliases:     []string{"remove", "r", "삭제"},
			Description: "remove the oldest task containing the words",
			Usage:       "/todo remove <words>",
			Args:        router.ArgsRequired,
			Cooldown:    CooldownGroup,
			Timeout:     timeout,
			Handle: handle(func(ctx context.Context, c Caller, req *router.Request) error {
				return s.Remove(ctx, c, req.Tail)
			}),
		},
		{
			Route:       "todo clear",
			Aliases:     []string{"초기화"},
			Description: "delete your whole todo list",
			Usage:       "/todo clear",
			Cooldown:    CooldownGroup,
			Timeout:     timeout,
			Handle: handle(func(ctx context.Context, c Caller, req *router.Request) error {
				return s.Clear(ctx, c)
			}),
		},
		{
			Route:       "todo help",
			Aliases:     []string{"도움말"},
			Description: "how to use this bot",
			Usage:       "/todo help",
			Timeout:     timeout,
			Handle: handle(func(ctx context.Context, c Caller, req *router.Request) error {
				return s.Help(ctx, c)
			}),
		},
	}
}

func callerOf(req *router.Request) Caller {
	c := Caller{Chat: req.Chat, User: User{ID: req.FromID}}
	if m := req.Message; m != nil {
		c.Username = m.FromUsername
		c.Private = m.IsPrivate
		c.User.DisplayName = m.FromDisplayName
	}
	switch {
	case c.User.DisplayName != "":
	case c.Username != "":
		c.User.DisplayName = "@" + c.Username
	default:
		c.User.DisplayName = strconv.FormatInt(c.User.ID, 10)
	}
	return c
}
