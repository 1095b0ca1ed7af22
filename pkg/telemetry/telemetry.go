package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"

	"github.com/d60-Lab/ideahub/config"
	"github.com/d60-Lab/ideahub/pkg/apperr"
	"github.com/d60-Lab/ideahub/pkg/logger"
)

// Init sets up tracing and error reporting. Both are optional: with no OTLP
// endpoint the global no-op tracer stays in place, with no Sentry DSN
// CaptureError only logs. The returned function flushes and shuts down.
func Init(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	var shutdowns []func(context.Context) error

	if strings.TrimSpace(cfg.Telemetry.OTLPEndpoint) != "" {
		tp, err := newTracerProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
		shutdowns = append(shutdowns, tp.Shutdown)
	}

	if strings.TrimSpace(cfg.Telemetry.SentryDSN) != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Telemetry.SentryDSN,
			Environment: cfg.Telemetry.Environment,
			ServerName:  cfg.Telemetry.ServiceName,
		}); err != nil {
			return nil, err
		}
		shutdowns = append(shutdowns, func(context.Context) error {
			sentry.Flush(2 * time.Second)
			return nil
		})
	}

	return func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdowns {
			if err := fn(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}, nil
}

func newTracerProvider(ctx context.Context, cfg *config.Config) (*sdktrace.TracerProvider, error) {
	var exp *otlptrace.Exporter
	exp, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Telemetry.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(cfg.Telemetry.ServiceName),
		semconv.DeploymentEnvironment(cfg.Telemetry.Environment),
	))
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	), nil
}

// CaptureError reports a collaborator failure. Expected user-level outcomes
// (not found, forbidden, already rated, validation) are logged but not sent.
func CaptureError(err error, op string, fields ...zap.Field) {
	if err == nil {
		return
	}
	fields = append(fields, zap.String("op", op), zap.Error(err))
	switch apperr.KindOf(err) {
	case apperr.KindNotFound, apperr.KindForbidden, apperr.KindAlreadyRated, apperr.KindValidation, apperr.KindUnauthenticated:
		logger.Info("collaborator rejected request", fields...)
		return
	}
	logger.Error("collaborator call failed", fields...)
	if hub := sentry.CurrentHub(); hub != nil && hub.Client() != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("op", op)
			hub.CaptureException(err)
		})
	}
}
