package valkey

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/pior/valkey"

var dbSystemAttr = attribute.String("db.system", "valkey")

func (c *Client) startSpan(ctx context.Context, cmd Command) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, cmd.Name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			dbSystemAttr,
			attribute.String("db.operation", cmd.Name),
		),
	)
}

func endSpan(span trace.Span, err *Error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Message)
		span.SetAttributes(attribute.String("valkey.error.kind", err.Kind.String()))
	}
	span.End()
}
