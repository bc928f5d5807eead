package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/suryadisoft/cipher/internal/cache"
	cryptoDomain "github.com/suryadisoft/cipher/internal/crypto/domain"
)

// ObserveCache exports the data key cache counters of provider, read from stats at
// collection time. Unregister the returned registration before the cache goes away.
func (m *Metrics) ObserveCache(
	provider cryptoDomain.ProviderType,
	stats func() cache.Stats,
) (metric.Registration, error) {
	hits, err := m.meter.Int64ObservableCounter(
		m.name("data_key_cache_hits_total"),
		metric.WithDescription("Decrypts served by a cached data key"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache hits counter: %w", err)
	}

	misses, err := m.meter.Int64ObservableCounter(
		m.name("data_key_cache_misses_total"),
		metric.WithDescription("Decrypts that found no cached data key"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache misses counter: %w", err)
	}

	resolutions, err := m.meter.Int64ObservableCounter(
		m.name("data_key_cache_resolutions_total"),
		metric.WithDescription("Data keys unwrapped by the master key backend"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache resolutions counter: %w", err)
	}

	evictions, err := m.meter.Int64ObservableCounter(
		m.name("data_key_cache_evictions_total"),
		metric.WithDescription("Data keys evicted by capacity or idle expiry"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache evictions counter: %w", err)
	}

	size, err := m.meter.Int64ObservableGauge(
		m.name("data_key_cache_size"),
		metric.WithDescription("Data keys currently cached"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache size gauge: %w", err)
	}

	attrs := metric.WithAttributes(attribute.String("provider", provider.String()))

	return m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := stats()
		o.ObserveInt64(hits, int64(s.Hits), attrs)
		o.ObserveInt64(misses, int64(s.Misses), attrs)
		o.ObserveInt64(resolutions, int64(s.Resolutions), attrs)
		o.ObserveInt64(evictions, int64(s.Evictions), attrs)
		o.ObserveInt64(size, int64(s.Size), attrs)
		return nil
	}, hits, misses, resolutions, evictions, size)
}
