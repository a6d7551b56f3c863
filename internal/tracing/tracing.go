package tracing

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/assist-by/conduit"

// Setup은 stdout 익스포터를 사용하는 TracerProvider를 전역으로 등록합니다.
// 반환된 함수로 종료합니다. Setup을 호출하지 않으면 span은 no-op입니다.
func Setup(ctx context.Context, w io.Writer, serviceName string) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// StartSpan은 거래소 요청 하나에 대한 span을 시작합니다
func StartSpan(ctx context.Context, venue, op string) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, venue+"."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("venue", venue),
			attribute.String("op", op),
		),
	)
}

// End는 에러 상태를 기록하고 span을 종료합니다
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
