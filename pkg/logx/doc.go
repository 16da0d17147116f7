// Package logx configures eopbot's structured logging.
//
// A small wrapper (logx.Logger) on top of zerolog keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - An optional Telegram ops sink (min-level + rate limiting) that is
//     separate from the relay channel
//
// Loggers derived from a Service follow Service.Apply, so a config reload
// changes level and outputs without rebuilding components.
package logx
