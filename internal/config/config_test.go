package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/suryadisoft/cipher/internal/errors"
)

const testMasterKey = "ERERERERERERERERERERERERERERERERERERERERERE:IiIiIiIiIiIiIiIiIiIiIg"

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "load default configuration",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
				assert.Equal(t, "LOCAL", cfg.Provider)
				assert.Equal(t, "AES", cfg.Algorithm)
				assert.Equal(t, "AES/GCM/NoPadding", cfg.Transformation)
				assert.Equal(t, "SHA3-256", cfg.HashAlgorithm)
				assert.Equal(t, 16, cfg.CacheInitialCapacity)
				assert.Equal(t, 4, cfg.CacheConcurrencyLevel)
				assert.Equal(t, 100, cfg.CacheMaximumSize)
				assert.Equal(t, 10*time.Second, cfg.CacheExpireDuration)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.False(t, cfg.MetricsEnabled)
				assert.Equal(t, "cipher", cfg.MetricsNamespace)
			},
		},
		{
			name: "load custom cache configuration",
			envVars: map[string]string{
				"CACHE_INITIAL_CAPACITY":   "32",
				"CACHE_CONCURRENCY_LEVEL":  "8",
				"CACHE_MAXIMUM_SIZE":       "500",
				"CACHE_EXPIRE_DURATION_MS": "2500",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 32, cfg.CacheInitialCapacity)
				assert.Equal(t, 8, cfg.CacheConcurrencyLevel)
				assert.Equal(t, 500, cfg.CacheMaximumSize)
				assert.Equal(t, 2500*time.Millisecond, cfg.CacheExpireDuration)
			},
		},
		{
			name: "load google kms configuration",
			envVars: map[string]string{
				"CIPHER_PROVIDER":            "google_kms",
				"GOOGLE_KMS_PROJECT_ID":      "project",
				"GOOGLE_KMS_LOCATION_ID":     "global",
				"GOOGLE_KMS_KEY_RING_ID":     "ring",
				"GOOGLE_KMS_KEY_ID":          "key",
				"GOOGLE_KMS_CREDENTIAL_FILE": "/etc/creds.json",
				"KMS_RATE_LIMIT":             "25.5",
				"KMS_RATE_LIMIT_BURST":       "5",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "GOOGLE_KMS", cfg.Provider)
				assert.Equal(t, "project", cfg.GoogleKMSProjectID)
				assert.Equal(t, "global", cfg.GoogleKMSLocationID)
				assert.Equal(t, "ring", cfg.GoogleKMSKeyRingID)
				assert.Equal(t, "key", cfg.GoogleKMSKeyID)
				assert.Equal(t, "/etc/creds.json", cfg.GoogleKMSCredentialFile)
				assert.Equal(t, 25.5, cfg.KMSRateLimit)
				assert.Equal(t, 5, cfg.KMSRateLimitBurst)
			},
		},
		{
			name: "load custom algorithms and master key",
			envVars: map[string]string{
				"CIPHER_ALGORITHM":      "AES_128",
				"CIPHER_HASH_ALGORITHM": "SHA-512",
				"CIPHER_MASTER_KEY":     testMasterKey,
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "AES_128", cfg.Algorithm)
				assert.Equal(t, "SHA-512", cfg.HashAlgorithm)
				assert.Equal(t, testMasterKey, cfg.MasterKey)
			},
		},
		{
			name: "load custom log level and metrics",
			envVars: map[string]string{
				"LOG_LEVEL":         "DEBUG",
				"METRICS_ENABLED":   "true",
				"METRICS_NAMESPACE": "app",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.True(t, cfg.MetricsEnabled)
				assert.Equal(t, "app", cfg.MetricsNamespace)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment variables
			for key, value := range tt.envVars {
				err := os.Setenv(key, value)
				require.NoError(t, err)
			}

			// Load configuration
			cfg := Load()

			// Validate
			tt.validate(t, cfg)
		})
	}
}

func TestFromProperties(t *testing.T) {
	t.Run("original property names", func(t *testing.T) {
		cfg, err := FromProperties(map[string]string{
			"provider":         "google_kms",
			"algorithm":        "AES_256",
			"transformation":   "AES/GCM/NoPadding",
			"hashAlgorithm":    "BLAKE2B-512",
			"initialCapacity":  "8",
			"concurrencyLevel": "2",
			"maximumSize":      "50",
			"expireDuration":   "500",
			"projectId":        "project",
			"locationId":       "us-east1",
			"keyRingId":        "ring",
			"keyId":            "key",
			"credentialFile":   "creds.json",
			"unknownProperty":  "ignored",
		})
		require.NoError(t, err)

		assert.Equal(t, "GOOGLE_KMS", cfg.Provider)
		assert.Equal(t, "AES_256", cfg.Algorithm)
		assert.Equal(t, "BLAKE2B-512", cfg.HashAlgorithm)
		assert.Equal(t, 8, cfg.CacheInitialCapacity)
		assert.Equal(t, 2, cfg.CacheConcurrencyLevel)
		assert.Equal(t, 50, cfg.CacheMaximumSize)
		assert.Equal(t, 500*time.Millisecond, cfg.CacheExpireDuration)
		assert.Equal(t, "project", cfg.GoogleKMSProjectID)
		assert.Equal(t, "us-east1", cfg.GoogleKMSLocationID)
		assert.Equal(t, "ring", cfg.GoogleKMSKeyRingID)
		assert.Equal(t, "key", cfg.GoogleKMSKeyID)
		assert.Equal(t, "creds.json", cfg.GoogleKMSCredentialFile)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing properties keep defaults", func(t *testing.T) {
		cfg, err := FromProperties(map[string]string{"masterKey": testMasterKey, "maximumSize": " "})
		require.NoError(t, err)

		expected := Default()
		expected.MasterKey = testMasterKey
		assert.Equal(t, expected, cfg)
	})

	t.Run("invalid numbers", func(t *testing.T) {
		for _, props := range []map[string]string{
			{"maximumSize": "many"},
			{"expireDuration": "10s"},
			{"kmsRateLimit": "fast"},
			{"metricsEnabled": "yes please"},
		} {
			cfg, err := FromProperties(props)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "%v", props)
			assert.Nil(t, cfg)
		}
	})
}

func TestLoadProperties(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cipher.properties")
	content := "# cipher configuration\n" +
		"provider=LOCAL\n" +
		"masterKey=" + testMasterKey + "\n" +
		"maximumSize=10\n" +
		"expireDuration=2000\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadProperties(path)
	require.NoError(t, err)
	assert.Equal(t, "LOCAL", cfg.Provider)
	assert.Equal(t, testMasterKey, cfg.MasterKey)
	assert.Equal(t, 10, cfg.CacheMaximumSize)
	assert.Equal(t, 2*time.Second, cfg.CacheExpireDuration)

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadProperties(filepath.Join(dir, "missing.properties"))
		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "valid master key", mutate: func(c *Config) { c.MasterKey = testMasterKey }},
		{name: "unknown provider", mutate: func(c *Config) { c.Provider = "AWS" }, wantErr: "Provider"},
		{name: "blank algorithm", mutate: func(c *Config) { c.Algorithm = "  " }, wantErr: "Algorithm"},
		{name: "zero maximum size", mutate: func(c *Config) { c.CacheMaximumSize = 0 }, wantErr: "CacheMaximumSize"},
		{name: "negative initial capacity", mutate: func(c *Config) { c.CacheInitialCapacity = -1 }, wantErr: "CacheInitialCapacity"},
		{name: "zero expiry", mutate: func(c *Config) { c.CacheExpireDuration = 0 }, wantErr: "CacheExpireDuration"},
		{name: "malformed master key", mutate: func(c *Config) { c.MasterKey = "abc" }, wantErr: "MasterKey"},
		{
			name:    "google kms without identity",
			mutate:  func(c *Config) { c.Provider = "GOOGLE_KMS" },
			wantErr: "GoogleKMSProjectID",
		},
		{
			name: "google kms through keeper uri",
			mutate: func(c *Config) {
				c.Provider = "GOOGLE_KMS"
				c.KMSKeyURI = "base64key://smGbjm71Nxd1Ig5FS0wj9SlbzAIrnolCz9bQQ6uAhl4="
			},
		},
		{name: "negative rate limit", mutate: func(c *Config) { c.KMSRateLimit = -1 }, wantErr: "KMSRateLimit"},
		{
			name: "rate limit without burst",
			mutate: func(c *Config) {
				c.KMSRateLimit = 5
				c.KMSRateLimitBurst = 0
			},
			wantErr: "KMSRateLimitBurst",
		},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "LogLevel"},
		{
			name: "metrics without namespace",
			mutate: func(c *Config) {
				c.MetricsEnabled = true
				c.MetricsNamespace = ""
			},
			wantErr: "MetricsNamespace",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
