// Package logging configures the structured loggers used across fakews.
//
// It wraps log/slog. Sessions, responders and the capture client accept a
// *slog.Logger and fall back to Nop when none is given.
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	})
//	logger.Info("session listening", "url", session.URL())
//
// Set Config.Mirror to copy every record, as JSON, to a second writer such
// as a log file.
package logging
