// Package todo implements the per-user todo list whose only copy lives in a
// bot message of the user's private chat.
//
// The list is decoded from that message, mutated by pure functions and
// written back by sending, editing or deleting messages through a Channel.
package todo
