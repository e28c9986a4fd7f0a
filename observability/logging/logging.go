// Package logging configures the dposchain process's structured logger.
package logging

import (
	"log"
	"log/slog"
	"os"
	"strings"
)

// logLevelEnv overrides the level Setup picks from env when set, to one of
// debug/info/warn/error, independent of a redeploy.
const logLevelEnv = "DPOSCHAIN_LOG_LEVEL"

// Setup builds the process-wide slog.Logger for service running in env,
// installs it as the slog default, and bridges the standard library log
// package to it so call sites that haven't migrated to slog still land in
// the same stream.
//
// "dev" (the CLI demo's default) renders human-readable text to stderr at
// debug level, matching how operators run dposchain-cli interactively.
// Any other env value is treated as a deployed environment: JSON to
// stdout with source locations attached, and the minimum level raised to
// info unless DPOSCHAIN_LOG_LEVEL names a different one.
func Setup(service, env string) *slog.Logger {
	service = strings.TrimSpace(service)
	env = strings.TrimSpace(env)
	dev := env == "" || env == "dev"

	level := slog.LevelInfo
	if dev {
		level = slog.LevelDebug
	}
	if override, ok := parseLevel(os.Getenv(logLevelEnv)); ok {
		level = override
	}

	replace := func(groups []string, attr slog.Attr) slog.Attr {
		switch attr.Key {
		case slog.TimeKey:
			return slog.Attr{Key: "timestamp", Value: attr.Value}
		case slog.LevelKey:
			return slog.String("severity", strings.ToUpper(attr.Value.String()))
		case slog.MessageKey:
			return slog.Attr{Key: "message", Value: attr.Value}
		}
		return attr
	}

	var handler slog.Handler
	if dev {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: replace,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource:   true,
			Level:       level,
			ReplaceAttr: replace,
		})
	}

	attrs := []slog.Attr{slog.String("service", service), slog.Int("pid", os.Getpid())}
	if env != "" {
		attrs = append(attrs, slog.String("env", env))
	}
	withArgs := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		withArgs = append(withArgs, attr)
	}

	base := slog.New(handler).With(withArgs...)
	slog.SetDefault(base)

	stdBridge := slog.NewLogLogger(handler.WithAttrs(attrs), level)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}

func parseLevel(raw string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}
