package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	cryptoDomain "github.com/suryadisoft/cipher/internal/crypto/domain"
)

func newTestMetrics(t *testing.T, namespace string) *Metrics {
	t.Helper()
	m, err := New(namespace)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, m.Shutdown(context.Background()))
	})
	return m
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

// assertMetricLine matches name{...labels...} value, tolerating the scope labels the
// exporter adds between sorted attribute labels.
func assertMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	assert.Regexp(t, name+`\{[^}]*`+labels+`[^}]*\} `+value, output)
}

func TestNew(t *testing.T) {
	t.Run("with namespace", func(t *testing.T) {
		m := newTestMetrics(t, "test_app")
		assert.NotNil(t, m.Handler())
		assert.Equal(t, "test_app_kms_requests_total", m.name("kms_requests_total"))
	})

	t.Run("empty namespace", func(t *testing.T) {
		m := newTestMetrics(t, "")
		assert.Equal(t, "kms_requests_total", m.name("kms_requests_total"))
	})
}

func TestMetrics_ObserveOperation(t *testing.T) {
	ctx := context.Background()
	m := newTestMetrics(t, "op_test")

	m.ObserveOperation(ctx, cryptoDomain.ProviderLocal, OperationEncrypt, 11, time.Millisecond, nil)
	m.ObserveOperation(ctx, cryptoDomain.ProviderLocal, OperationDecrypt, 11, time.Millisecond, nil)
	m.ObserveOperation(ctx, cryptoDomain.ProviderLocal, OperationDecrypt, 11, time.Millisecond, nil)
	m.ObserveOperation(ctx, cryptoDomain.ProviderLocal, OperationDecrypt, 0, time.Millisecond, cryptoDomain.ErrCryptoFailure)
	m.ObserveOperation(ctx, cryptoDomain.ProviderGoogleKMS, OperationEncrypt, 5, time.Millisecond,
		fmt.Errorf("%w: unavailable", cryptoDomain.ErrRemoteProvider))
	m.ObserveOperation(ctx, cryptoDomain.ProviderGoogleKMS, OperationHash, 3, time.Millisecond, nil)

	output := scrape(t, m)

	assertMetricLine(t, output, `op_test_envelope_operations_total`,
		`operation="decrypt".*outcome="ok".*provider="LOCAL"`, `2`)
	assertMetricLine(t, output, `op_test_envelope_operations_total`,
		`operation="decrypt".*outcome="crypto_failure".*provider="LOCAL"`, `1`)
	assertMetricLine(t, output, `op_test_envelope_operations_total`,
		`operation="encrypt".*outcome="remote_failure".*provider="GOOGLE_KMS"`, `1`)
	assertMetricLine(t, output, `op_test_envelope_operations_total`,
		`operation="hash".*outcome="ok".*provider="GOOGLE_KMS"`, `1`)

	// failures contribute to latency but not to payload size
	assertMetricLine(t, output, `op_test_envelope_operation_duration_seconds_count`,
		`operation="decrypt".*provider="LOCAL"`, `3`)
	assertMetricLine(t, output, `op_test_envelope_payload_size_count`,
		`operation="decrypt".*provider="LOCAL"`, `2`)
	assertMetricLine(t, output, `op_test_envelope_payload_size_sum`,
		`operation="decrypt".*provider="LOCAL"`, `22`)
}

func TestMetrics_ObserveRemoteCall(t *testing.T) {
	ctx := context.Background()
	m := newTestMetrics(t, "rpc_test")

	m.ObserveRemoteCall(ctx, "encrypt", 20*time.Millisecond, nil)
	m.ObserveRemoteCall(ctx, "decrypt", 20*time.Millisecond, nil)
	m.ObserveRemoteCall(ctx, "decrypt", 20*time.Millisecond, status.Error(codes.PermissionDenied, "denied"))

	output := scrape(t, m)

	assertMetricLine(t, output, `rpc_test_kms_requests_total`, `code="OK".*rpc="decrypt"`, `1`)
	assertMetricLine(t, output, `rpc_test_kms_requests_total`, `code="PermissionDenied".*rpc="decrypt"`, `1`)
	assertMetricLine(t, output, `rpc_test_kms_requests_total`, `code="OK".*rpc="encrypt"`, `1`)
	assertMetricLine(t, output, `rpc_test_kms_request_duration_seconds_count`, `rpc="decrypt"`, `2`)
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: OutcomeOK},
		{name: "crypto failure", err: cryptoDomain.ErrCryptoFailure, want: OutcomeCryptoFailure},
		{
			name: "undecodable segment",
			err:  fmt.Errorf("%w: %w: x", cryptoDomain.ErrCryptoFailure, cryptoDomain.ErrMalformedCipherText),
			want: OutcomeCryptoFailure,
		},
		{name: "malformed", err: cryptoDomain.ErrMalformedCipherText, want: OutcomeMalformed},
		{name: "invalid salt", err: fmt.Errorf("%w: bad", cryptoDomain.ErrInvalidSalt), want: OutcomeInvalidSalt},
		{name: "provider init", err: cryptoDomain.ErrProviderInit, want: OutcomeProviderInit},
		{name: "remote failure", err: cryptoDomain.ErrRemoteProvider, want: OutcomeRemoteFailure},
		{
			name: "canceled remote call",
			err:  fmt.Errorf("%w: %w", cryptoDomain.ErrRemoteProvider, context.Canceled),
			want: OutcomeCanceled,
		},
		{name: "deadline", err: context.DeadlineExceeded, want: OutcomeCanceled},
		{name: "other", err: errors.New("boom"), want: OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}

func TestRemoteCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: "OK"},
		{name: "grpc status", err: status.Error(codes.NotFound, "no such key"), want: "NotFound"},
		{
			name: "wrapped grpc status",
			err:  fmt.Errorf("decrypt: %w", status.Error(codes.ResourceExhausted, "quota")),
			want: "ResourceExhausted",
		},
		{name: "context canceled", err: context.Canceled, want: "Canceled"},
		{name: "plain error", err: errors.New("boom"), want: "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemoteCode(tt.err))
		})
	}
}
