// Package logx configures todobot's structured logging.
//
// logx.Logger is a thin value type over zerolog:
//   - console output stays readable (short timestamp, file:line caller)
//   - the optional file sink writes JSON lines
//   - the optional Telegram sink forwards warnings to an operator chat,
//     filtered by level and rate limited
//
// Loggers derived from a Service follow Service.Apply, so a config reload
// changes every component logger at once.
package logx
