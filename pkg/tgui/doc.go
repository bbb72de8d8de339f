// Package tgui holds small helpers for Telegram HTML messages:
//   - H, a string type for already-escaped HTML
//   - tag helpers (B, I, Code, ...) that escape their input
//   - Builder, a line-oriented message builder
package tgui
