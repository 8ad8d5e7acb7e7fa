// Package logger provides a structured, levelled logger built on log/slog.
//
// The key extension over plain slog is WithCtx: it creates a logger with the
// request ID already attached, so every log line from a handler is
// automatically correlated:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("stock reserved", "product_id", id, "qty", qty)
//	// → time=... level=INFO msg="stock reserved" request_id=a1b2c3d4 product_id=... qty=2
package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/lopataa/schoolshop/config"
)

var L *slog.Logger

func init() {
	var level slog.Level
	var handler slog.Handler

	opts := &slog.HandlerOptions{Level: level}

	switch config.AppEnv() {
	case "production", "prod":
		level = slog.LevelInfo
		opts.Level = level
		handler = slog.NewJSONHandler(os.Stdout, opts) // structured JSON for log aggregators
	default:
		level = slog.LevelDebug
		opts.Level = level
		handler = slog.NewTextHandler(os.Stdout, opts) // human-readable for dev
	}

	L = slog.New(handler)
	slog.SetDefault(L)
}

// UseMongoSink tees log records into the async MongoDB handler in addition to
// the stdout handler. Called from server boot when LOG_TO_MONGO=true.
func UseMongoSink(h *MongoHandler) {
	L = slog.New(tee{stdout: L.Handler(), mongo: h})
	slog.SetDefault(L)
}

type tee struct {
	stdout slog.Handler
	mongo  *MongoHandler
}

func (t tee) Enabled(ctx context.Context, lvl slog.Level) bool {
	return t.stdout.Enabled(ctx, lvl)
}

func (t tee) Handle(ctx context.Context, r slog.Record) error {
	_ = t.mongo.Handle(ctx, r)
	return t.stdout.Handle(ctx, r)
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return tee{stdout: t.stdout.WithAttrs(attrs), mongo: t.mongo.WithAttrs(attrs).(*MongoHandler)}
}

func (t tee) WithGroup(name string) slog.Handler {
	return tee{stdout: t.stdout.WithGroup(name), mongo: t.mongo}
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

// ctxKey is the unexported key used to store a per-request *slog.Logger.
type ctxKey struct{}

// WithCtx returns the *slog.Logger injected for this request, pre-tagged with
// its request_id. Falls back to the base logger when none is present.
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
// Called by the Logger middleware — not usually needed in application code.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
