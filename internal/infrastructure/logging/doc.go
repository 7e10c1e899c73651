// Package logging provides structured logging for Lumen.
//
// It wraps the standard library's log/slog with configuration-driven
// format and level selection, plus default service/version attributes so
// logs from lumenctl and lumend are distinguishable when aggregated.
package logging
