// Package statuslog adapts videosource.StatusUpdate events onto a zap
// logger, mapping Severity to the matching zap log level and Payload
// entries to structured fields.
package statuslog

import (
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mverra/videosource"
)

// Listener is a videosource.StatusListener backed by a *zap.Logger.
type Listener struct {
	logger *zap.Logger
}

// New builds a Listener. logger must not be nil.
func New(logger *zap.Logger) *Listener {
	return &Listener{logger: logger}
}

// OnStatusUpdate logs u at the zap level matching u.Severity, under
// u.EventType, with u.Context and every Payload entry as fields.
func (l *Listener) OnStatusUpdate(u videosource.StatusUpdate) {
	fields := make([]zap.Field, 0, len(u.Payload)+2)
	fields = append(fields, zap.String("context", u.Context), zap.Time("event_time", u.Timestamp))
	fields = append(fields, payloadFields(u.Payload)...)

	switch u.Severity {
	case videosource.SeverityDebug:
		l.logger.Debug(u.EventType, fields...)
	case videosource.SeverityWarn:
		l.logger.Warn(u.EventType, fields...)
	case videosource.SeverityError:
		l.logger.Error(u.EventType, fields...)
	default:
		l.logger.Info(u.EventType, fields...)
	}
}

// payloadFields converts a StatusUpdate.Payload map to zap.Field values in
// deterministic key order, so log lines are stable for tests and grep.
func payloadFields(payload map[string]any) []zap.Field {
	if len(payload) == 0 {
		return nil
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, zap.Any(k, payload[k]))
	}
	return fields
}

// Level maps a videosource.Severity to a zapcore.Level, for callers that
// want to filter or reconfigure the underlying core per severity.
func Level(s videosource.Severity) zapcore.Level {
	switch s {
	case videosource.SeverityDebug:
		return zapcore.DebugLevel
	case videosource.SeverityWarn:
		return zapcore.WarnLevel
	case videosource.SeverityError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
