// Package fetchlog provides the optional structured-logging adapter used
// by package fetch to report redirect hops, decode selection, and
// timeouts, trimmed to the handful of fields a fetch client actually
// has reason to log.
package fetchlog

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Canonical field names, following a consistent
// FieldMethod/FieldStatusCode/FieldDurationMs naming convention.
const (
	FieldURL           = "url"
	FieldMethod        = "method"
	FieldStatusCode    = "status_code"
	FieldRedirectCount = "redirect_count"
	FieldDurationMs    = "duration_ms"
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
)

// Component is the fixed component tag fetch attaches to every record.
const Component = "fetch"

// New builds a zap.Logger with the given level ("debug", "info", "warn",
// "error") and format ("json" or "console"), writing to stdout. Library
// callers who already run zap are expected to pass their own *zap.Logger
// to fetch.Options instead of calling this; it exists for callers who
// want a ready-made logger without wiring zap themselves.
func New(level, format string) (*zap.Logger, error) {
	var lvl zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	default:
		lvl = zapcore.InfoLevel
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
	}

	var encoder zapcore.Encoder
	if strings.ToLower(format) == "console" {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stdout)), lvl)
	return zap.New(core).With(zap.String(FieldComponent, Component)), nil
}
