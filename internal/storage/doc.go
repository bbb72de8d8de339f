// Package storage persists the bot's message ledger and audit trail.
//
// Telegram bots cannot read chat history, so every message the bot sends
// (and the todo card it carries) is recorded here. The ledger is the bot's
// view of its own messages; it is consulted wherever the chat history
// would be read.
//
// Backends:
//   - memory: process-local, for tests and throwaway runs
//   - file:   snapshot + JSONL journal, compacted periodically
//   - sqlite: modernc.org/sqlite (pure Go), WAL mode
package storage
