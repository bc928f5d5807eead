// Package metrics exports envelope encryption metrics through OpenTelemetry in the
// Prometheus exposition format.
//
// Operations are counted per provider and per outcome class, remote key management
// calls per RPC and status code, and data key cache counters per provider.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"gocloud.dev/gcerrors"
	"google.golang.org/grpc/status"

	cryptoDomain "github.com/suryadisoft/cipher/internal/crypto/domain"
)

// Operation names a provider operation.
type Operation string

const (
	OperationEncrypt Operation = "encrypt"
	OperationDecrypt Operation = "decrypt"
	OperationHash    Operation = "hash"
)

// Outcome classes reported in the "outcome" label of the operation counter.
const (
	OutcomeOK            = "ok"
	OutcomeCanceled      = "canceled"
	OutcomeCryptoFailure = "crypto_failure"
	OutcomeMalformed     = "malformed"
	OutcomeInvalidSalt   = "invalid_salt"
	OutcomeProviderInit  = "provider_init"
	OutcomeRemoteFailure = "remote_failure"
	OutcomeError         = "error"
)

// Recorder observes provider operations.
type Recorder interface {
	// ObserveOperation records one operation. payloadSize is the plaintext length and is
	// only recorded for successful operations.
	ObserveOperation(
		ctx context.Context,
		provider cryptoDomain.ProviderType,
		operation Operation,
		payloadSize int,
		elapsed time.Duration,
		err error,
	)
}

var (
	// Crypto operations on small payloads finish in microseconds; remote unwraps take milliseconds.
	durationBuckets = []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}
	payloadBuckets  = []float64{64, 256, 1 << 10, 4 << 10, 16 << 10, 64 << 10, 256 << 10, 1 << 20, 4 << 20}
)

// Metrics owns a meter provider backed by a private Prometheus registry. The embedding
// program mounts Handler on its own server; this package never listens.
type Metrics struct {
	namespace     string
	registry      *prometheus.Registry
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter

	operations     metric.Int64Counter
	operationTime  metric.Float64Histogram
	payloadSize    metric.Int64Histogram
	remoteCalls    metric.Int64Counter
	remoteCallTime metric.Float64Histogram
}

// New creates the exporter and every instrument. namespace prefixes every metric name.
func New(namespace string) (*Metrics, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	m := &Metrics{
		namespace:     namespace,
		registry:      registry,
		meterProvider: meterProvider,
		meter:         meterProvider.Meter(namespace),
	}
	if err := m.createInstruments(); err != nil {
		_ = meterProvider.Shutdown(context.Background())
		return nil, err
	}
	return m, nil
}

func (m *Metrics) createInstruments() error {
	var err error

	m.operations, err = m.meter.Int64Counter(
		m.name("envelope_operations_total"),
		metric.WithDescription("Envelope encryption operations by provider and outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create operation counter: %w", err)
	}

	m.operationTime, err = m.meter.Float64Histogram(
		m.name("envelope_operation_duration_seconds"),
		metric.WithDescription("Duration of envelope encryption operations"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create operation duration histogram: %w", err)
	}

	m.payloadSize, err = m.meter.Int64Histogram(
		m.name("envelope_payload_size"),
		metric.WithDescription("Plaintext size in bytes of successful operations"),
		metric.WithExplicitBucketBoundaries(payloadBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create payload size histogram: %w", err)
	}

	m.remoteCalls, err = m.meter.Int64Counter(
		m.name("kms_requests_total"),
		metric.WithDescription("Wrap and unwrap calls to the remote key management service"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create kms request counter: %w", err)
	}

	m.remoteCallTime, err = m.meter.Float64Histogram(
		m.name("kms_request_duration_seconds"),
		metric.WithDescription("Duration of remote key management calls, quota wait included"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create kms request duration histogram: %w", err)
	}

	return nil
}

func (m *Metrics) name(suffix string) string {
	if m.namespace == "" {
		return suffix
	}
	return m.namespace + "_" + suffix
}

// ObserveOperation implements Recorder.
func (m *Metrics) ObserveOperation(
	ctx context.Context,
	provider cryptoDomain.ProviderType,
	operation Operation,
	payloadSize int,
	elapsed time.Duration,
	err error,
) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider.String()),
		attribute.String("operation", string(operation)),
	)

	m.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider.String()),
		attribute.String("operation", string(operation)),
		attribute.String("outcome", Outcome(err)),
	))
	m.operationTime.Record(ctx, elapsed.Seconds(), attrs)
	if err == nil {
		m.payloadSize.Record(ctx, int64(payloadSize), attrs)
	}
}

// ObserveRemoteCall records one call to the remote key management service. It satisfies
// the call observer of the remote client decorator.
func (m *Metrics) ObserveRemoteCall(ctx context.Context, rpc string, elapsed time.Duration, err error) {
	m.remoteCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("rpc", rpc),
		attribute.String("code", RemoteCode(err)),
	))
	m.remoteCallTime.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("rpc", rpc),
	))
}

// Handler serves the Prometheus exposition of every instrument.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.meterProvider.Shutdown(ctx)
}

// Outcome classifies an operation error by the sentinel it matches. An undecodable
// segment matches both ErrCryptoFailure and ErrMalformedCipherText and counts as a
// crypto failure.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	case errors.Is(err, cryptoDomain.ErrCryptoFailure):
		return OutcomeCryptoFailure
	case errors.Is(err, cryptoDomain.ErrMalformedCipherText):
		return OutcomeMalformed
	case errors.Is(err, cryptoDomain.ErrInvalidSalt):
		return OutcomeInvalidSalt
	case errors.Is(err, cryptoDomain.ErrProviderInit):
		return OutcomeProviderInit
	case errors.Is(err, cryptoDomain.ErrRemoteProvider):
		return OutcomeRemoteFailure
	default:
		return OutcomeError
	}
}

// RemoteCode returns the status code name of a remote call error. Keeper errors carry a
// gocloud.dev code, Cloud KMS SDK errors a gRPC status.
func RemoteCode(err error) string {
	if code := gcerrors.Code(err); code != gcerrors.Unknown {
		return code.String()
	}
	if s, ok := status.FromError(err); ok {
		return s.Code().String()
	}
	return gcerrors.Unknown.String()
}
