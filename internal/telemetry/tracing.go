package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Ключи атрибутов span'ов.
const (
	AttrFlowID      = attribute.Key("toolflow.flow.id")
	AttrExecutionID = attribute.Key("toolflow.execution.id")
	AttrTrigger     = attribute.Key("toolflow.trigger")
	AttrDepth       = attribute.Key("toolflow.depth")
	AttrNodeID      = attribute.Key("toolflow.node.id")
	AttrNodeType    = attribute.Key("toolflow.node.type")
	AttrStatus      = attribute.Key("toolflow.status")
)

// SetupTracing настраивает глобальный TracerProvider с OTLP/HTTP экспортом.
// Endpoint берётся из стандартных переменных OTEL_EXPORTER_OTLP_*.
// Возвращает функцию остановки, которая сбрасывает накопленные span'ы.
func SetupTracing(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}))

	return tp.Shutdown, nil
}

// Tracer возвращает tracer из глобального провайдера.
// Без SetupTracing span'ы не записываются.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// SetSpanError отмечает span ошибкой.
func SetSpanError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
}
