package infra

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/tnqbao/gau-datagen-service/config"
)

// LoggerClient is the shared logging/telemetry handle: slog fanned out to
// stdout and, when an OTLP endpoint is configured, to the Grafana stack,
// with metric and trace providers registered globally.
type LoggerClient struct {
	Logger *slog.Logger

	loggerProvider *sdklog.LoggerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
}

func InitLoggerClient(cfg *config.EnvConfig) *LoggerClient {
	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.Grafana.ServiceName),
			attribute.String("deployment.environment", cfg.Environment.Mode),
			attribute.String("group", cfg.Environment.Group),
		),
	)
	if err != nil {
		panic(fmt.Sprintf("Failed to build telemetry resource: %v", err))
	}

	client := &LoggerClient{}
	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
	}

	if cfg.Grafana.OTLPEndpoint != "" {
		logExporter, err := otlploghttp.New(ctx,
			otlploghttp.WithEndpoint(cfg.Grafana.OTLPEndpoint),
		)
		if err != nil {
			panic(fmt.Sprintf("Failed to initialize OTLP log exporter: %v", err))
		}
		client.loggerProvider = sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
			sdklog.WithResource(res),
		)
		handlers = append(handlers, otelslog.NewHandler(cfg.Grafana.ServiceName,
			otelslog.WithLoggerProvider(client.loggerProvider)))

		metricExporter, err := otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(cfg.Grafana.OTLPEndpoint),
		)
		if err != nil {
			panic(fmt.Sprintf("Failed to initialize OTLP metric exporter: %v", err))
		}
		client.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
				sdkmetric.WithInterval(30*time.Second))),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(client.meterProvider)
		if err := runtime.Start(runtime.WithMeterProvider(client.meterProvider)); err != nil {
			panic(fmt.Sprintf("Failed to start runtime instrumentation: %v", err))
		}

		traceExporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint(cfg.Grafana.OTLPEndpoint),
		))
		if err != nil {
			panic(fmt.Sprintf("Failed to initialize OTLP trace exporter: %v", err))
		}
		client.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(client.tracerProvider)
	}

	client.Logger = slog.New(slogmulti.Fanout(handlers...))
	return client
}

func (l *LoggerClient) InfoWithContextf(ctx context.Context, format string, args ...any) {
	l.Logger.InfoContext(ctx, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) WarningWithContextf(ctx context.Context, format string, args ...any) {
	l.Logger.WarnContext(ctx, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) ErrorWithContextf(ctx context.Context, err error, format string, args ...any) {
	if err != nil {
		l.Logger.ErrorContext(ctx, fmt.Sprintf(format, args...), slog.Any("error", err))
		return
	}
	l.Logger.ErrorContext(ctx, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) Shutdown(ctx context.Context) {
	if l.loggerProvider != nil {
		_ = l.loggerProvider.Shutdown(ctx)
	}
	if l.meterProvider != nil {
		_ = l.meterProvider.Shutdown(ctx)
	}
	if l.tracerProvider != nil {
		_ = l.tracerProvider.Shutdown(ctx)
	}
}
