// Package logger wraps zap's SugaredLogger with key/value helpers. In production mode
// user identifiers are pseudonymised before they reach the log sink.
package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type Logger struct {
	SugaredLogger *zap.SugaredLogger
	hashIDs       bool
}

// New builds a logger for the given mode ("prod"/"production" or anything else for development).
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	prod := false
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		prod = true
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zapLogger.Sugar(), hashIDs: prod}, nil
}

// Wrap adapts an existing zap logger; hashIDs enables user ID pseudonymisation.
func Wrap(z *zap.Logger, hashIDs bool) *Logger {
	return &Logger{SugaredLogger: z.Sugar(), hashIDs: hashIDs}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

// Debug logs msg with alternating keys and values.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, l.sanitize(keysAndValues)...)
}

// Info logs msg with alternating keys and values.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, l.sanitize(keysAndValues)...)
}

// Warn logs msg with alternating keys and values.
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, l.sanitize(keysAndValues)...)
}

// Error logs msg with alternating keys and values.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, l.sanitize(keysAndValues)...)
}

// Fatal logs msg and exits the process.
func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, l.sanitize(keysAndValues)...)
}

// With returns a child logger that adds keysAndValues to every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(l.sanitize(keysAndValues)...), hashIDs: l.hashIDs}
}

func (l *Logger) sanitize(kv []interface{}) []interface{} {
	if !l.hashIDs || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		key := fmt.Sprint(kv[i])
		val := kv[i+1]
		if strings.EqualFold(key, "user_id") {
			val = hashValue(val)
		}
		out = append(out, key, val)
	}
	return out
}

// hashValue keeps the first 12 hex digits of the SHA-256 of v: enough to correlate
// entries for one user without exposing the identifier.
func hashValue(v interface{}) string {
	sum := sha256.Sum256([]byte(fmt.Sprint(v)))
	return "h:" + hex.EncodeToString(sum[:])[:12]
}
