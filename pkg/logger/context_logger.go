package logger

import (
	"context"
	"time"

	ctxutil "github.com/wavelink/authcore/pkg/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogBuilder accumulates structured fields before emitting a single entry.
// Context metadata (request id, client ip, module, function) is extracted
// automatically so call sites only add operation-specific fields.
type LogBuilder struct {
	level   zapcore.Level
	message string
	fields  []zap.Field
}

func newBuilder(ctx context.Context, level zapcore.Level, message string) *LogBuilder {
	b := &LogBuilder{
		level:   level,
		message: message,
		fields:  make([]zap.Field, 0, 8),
	}
	b.extractContextFields(ctx)
	return b
}

func (b *LogBuilder) extractContextFields(ctx context.Context) {
	if ctx == nil {
		return
	}

	if requestID := ctxutil.GetRequestID(ctx); requestID != "" {
		b.fields = append(b.fields, zap.String("request_id", requestID))
	}
	if clientIP := ctxutil.GetClientIP(ctx); clientIP != "" {
		b.fields = append(b.fields, zap.String("client_ip", clientIP))
	}
	if userAgent := ctxutil.GetUserAgent(ctx); userAgent != "" {
		b.fields = append(b.fields, zap.String("user_agent", userAgent))
	}
	if userID := ctxutil.GetUserID(ctx); userID != "" {
		b.fields = append(b.fields, zap.String("user_id", userID))
	}
	if tenantID := ctxutil.GetTenantID(ctx); tenantID != "" {
		b.fields = append(b.fields, zap.String("tenant_id", tenantID))
	}
	if module := ctxutil.GetModule(ctx); module != "" {
		b.fields = append(b.fields, zap.String("module", module))
	}
	if function := ctxutil.GetFunction(ctx); function != "" {
		b.fields = append(b.fields, zap.String("function", function))
	}
}

// DebugWithContext starts a debug-level log entry
func DebugWithContext(ctx context.Context, message string) *LogBuilder {
	return newBuilder(ctx, zapcore.DebugLevel, message)
}

// InfoWithContext starts an info-level log entry
func InfoWithContext(ctx context.Context, message string) *LogBuilder {
	return newBuilder(ctx, zapcore.InfoLevel, message)
}

// WarnWithContext starts a warn-level log entry
func WarnWithContext(ctx context.Context, message string) *LogBuilder {
	return newBuilder(ctx, zapcore.WarnLevel, message)
}

// ErrorWithContext starts an error-level log entry
func ErrorWithContext(ctx context.Context, message string) *LogBuilder {
	return newBuilder(ctx, zapcore.ErrorLevel, message)
}

// Field methods
func (b *LogBuilder) String(key, value string) *LogBuilder {
	b.fields = append(b.fields, zap.String(key, value))
	return b
}

func (b *LogBuilder) Int(key string, value int) *LogBuilder {
	b.fields = append(b.fields, zap.Int(key, value))
	return b
}

func (b *LogBuilder) Int64(key string, value int64) *LogBuilder {
	b.fields = append(b.fields, zap.Int64(key, value))
	return b
}

func (b *LogBuilder) Bool(key string, value bool) *LogBuilder {
	b.fields = append(b.fields, zap.Bool(key, value))
	return b
}

func (b *LogBuilder) Time(key string, value time.Time) *LogBuilder {
	b.fields = append(b.fields, zap.Time(key, value))
	return b
}

func (b *LogBuilder) Duration(value time.Duration) *LogBuilder {
	b.fields = append(b.fields, zap.Duration("duration", value))
	return b
}

func (b *LogBuilder) Err(err error) *LogBuilder {
	b.fields = append(b.fields, zap.Error(err))
	return b
}

// Log emits the accumulated entry
func (b *LogBuilder) Log() {
	switch b.level {
	case zapcore.DebugLevel:
		GetLogger().Debug(b.message, b.fields...)
	case zapcore.InfoLevel:
		GetLogger().Info(b.message, b.fields...)
	case zapcore.WarnLevel:
		GetLogger().Warn(b.message, b.fields...)
	case zapcore.ErrorLevel:
		GetLogger().Error(b.message, b.fields...)
	}
}
