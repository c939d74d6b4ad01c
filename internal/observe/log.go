package observe

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// LogObserver writes span boundaries to a zap logger at debug level and failures at warn.
type LogObserver struct {
	log *zap.Logger
}

// NewLogObserver creates a LogObserver. A nil logger discards everything.
func NewLogObserver(l *zap.Logger) *LogObserver {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogObserver{log: l.Named("span")}
}

func (o *LogObserver) fields(span Span) []zap.Field {
	fields := []zap.Field{
		zap.String("task", span.Name),
		zap.Int("n", span.N),
	}
	if !span.Trace.IsZero() {
		fields = append(fields,
			zap.String("trace_id", span.Trace.TraceID),
			zap.Any("trace_headers", span.Trace.Headers()))
	}
	if span.HasWorker {
		fields = append(fields, zap.String("worker", fmt.Sprintf("%s/%d", span.Worker.Pool, span.Worker.ID)))
	}
	return fields
}

func (o *LogObserver) Begin(span Span) {
	o.log.Debug("span begin", o.fields(span)...)
}

func (o *LogObserver) End(span Span, _ any, elapsed time.Duration) {
	o.log.Debug("span end", append(o.fields(span), zap.Duration("elapsed", elapsed))...)
}

func (o *LogObserver) Error(span Span, err error, elapsed time.Duration) {
	o.log.Warn("span failed", append(o.fields(span), zap.Duration("elapsed", elapsed), zap.Error(err))...)
}
