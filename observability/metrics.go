package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"diamondpay/config"
)

// MetricsProvider manages OpenTelemetry metrics for the ledger service.
// A nil provider is valid and records nothing.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	ledgerOpsCounter       metric.Int64Counter
	walletOpsCounter       metric.Int64Counter
	withdrawalsCounter     metric.Int64Counter
	eventsPublishedCounter metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{config: cfg}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}
	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
	case "otlp":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		exporter, err = otlpmetricgrpc.New(dialCtx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create otlp exporter: %w", err)
		}
	default:
		return fmt.Errorf("unknown otel exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(30*time.Second))),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter(MetricPrefix)

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.WithField("exporter", mp.config.OTelExporterType).Info("Metrics provider initialized")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.ledgerOpsCounter, err = mp.meter.Int64Counter(LedgerOperationsTotal,
		metric.WithDescription("Total diamond ledger operations"))
	if err != nil {
		return err
	}
	mp.walletOpsCounter, err = mp.meter.Int64Counter(WalletOperationsTotal,
		metric.WithDescription("Total wallet operations"))
	if err != nil {
		return err
	}
	mp.withdrawalsCounter, err = mp.meter.Int64Counter(WithdrawalTransitionsTotal,
		metric.WithDescription("Total withdrawal state transitions"))
	if err != nil {
		return err
	}
	mp.eventsPublishedCounter, err = mp.meter.Int64Counter(EventsPublishedTotal,
		metric.WithDescription("Total events published to the bus"))
	if err != nil {
		return err
	}
	return nil
}

// RecordLedgerOp counts a diamond ledger operation by kind.
func (mp *MetricsProvider) RecordLedgerOp(ctx context.Context, operation string) {
	if mp == nil || mp.ledgerOpsCounter == nil {
		return
	}
	mp.ledgerOpsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(LabelOperation, operation)))
}

// RecordWalletOp counts a wallet operation by kind.
func (mp *MetricsProvider) RecordWalletOp(ctx context.Context, operation string) {
	if mp == nil || mp.walletOpsCounter == nil {
		return
	}
	mp.walletOpsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(LabelOperation, operation)))
}

// RecordWithdrawalTransition counts a withdrawal review decision.
func (mp *MetricsProvider) RecordWithdrawalTransition(ctx context.Context, action string) {
	if mp == nil || mp.withdrawalsCounter == nil {
		return
	}
	mp.withdrawalsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(LabelAction, action)))
}

// RecordEventPublished counts a published event by type.
func (mp *MetricsProvider) RecordEventPublished(ctx context.Context, eventType string) {
	if mp == nil || mp.eventsPublishedCounter == nil {
		return
	}
	mp.eventsPublishedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(LabelEventType, eventType)))
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.meterProvider == nil {
		return nil
	}
	return mp.meterProvider.Shutdown(ctx)
}
