package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	createSpanName  = "todos.create"
	createEventName = "todos.create.metrics"
	createRoute     = "/api/todos"
)

// createRequestMetrics measures the stages of the create/enhance path and
// emits one structured log event plus a span per request.
type createRequestMetrics struct {
	logger          *log.Logger
	span            trace.Span
	start           time.Time
	insertDuration  time.Duration
	enhanceDuration time.Duration
	updateDuration  time.Duration
	enhanced        bool
	enhanceFailed   bool
	errorStage      string
}

func newCreateRequestMetrics(ctx context.Context, logger *log.Logger) (*createRequestMetrics, context.Context) {
	m := &createRequestMetrics{
		logger: logger,
		start:  time.Now(),
	}
	spanCtx, span := otel.Tracer("todo-api/api").Start(ctx, createSpanName)
	m.span = span
	return m, spanCtx
}

func (m *createRequestMetrics) ObserveInsert(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.insertDuration = duration
}

func (m *createRequestMetrics) ObserveEnhance(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.enhanceDuration = duration
}

func (m *createRequestMetrics) ObserveUpdate(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.updateDuration = duration
}

func (m *createRequestMetrics) SetEnhanced(enhanced bool) {
	m.enhanced = enhanced
}

func (m *createRequestMetrics) SetEnhanceFailed(failed bool) {
	m.enhanceFailed = failed
}

func (m *createRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *createRequestMetrics) Log(status int, err error) {
	if m == nil || m.logger == nil {
		return
	}

	fields := log.Fields{
		"route":          createRoute,
		"status":         status,
		"total_ms":       durationToMillis(time.Since(m.start)),
		"enhanced":       m.enhanced,
		"enhance_failed": m.enhanceFailed,
	}

	if m.insertDuration > 0 {
		fields["insert_ms"] = durationToMillis(m.insertDuration)
	}
	if m.enhanceDuration > 0 {
		fields["enhance_ms"] = durationToMillis(m.enhanceDuration)
	}
	if m.updateDuration > 0 {
		fields["update_ms"] = durationToMillis(m.updateDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	if m.span != nil {
		m.span.SetAttributes(
			attribute.String("http.route", createRoute),
			attribute.Int("http.status_code", status),
			attribute.Bool("todos.enhanced", m.enhanced),
			attribute.Bool("todos.enhance_failed", m.enhanceFailed),
		)
		if m.errorStage != "" {
			m.span.SetAttributes(attribute.String("todos.error_stage", m.errorStage))
		}
		if err != nil || status >= http.StatusInternalServerError {
			m.span.SetStatus(codes.Error, m.errorStage)
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
		}
		m.span.End()
	}

	m.logger.WithFields(fields).Info(createEventName)
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
