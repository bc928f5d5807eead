// Package config provides library configuration through environment variables or a
// properties file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"
	"github.com/joho/godotenv"

	cryptoDomain "github.com/suryadisoft/cipher/internal/crypto/domain"
	apperrors "github.com/suryadisoft/cipher/internal/errors"
	appValidation "github.com/suryadisoft/cipher/internal/validation"
)

// Default values.
const (
	DefaultProvider              = string(cryptoDomain.ProviderLocal)
	DefaultAlgorithm             = cryptoDomain.DefaultAlgorithm
	DefaultTransformation        = cryptoDomain.DefaultTransformation
	DefaultHashAlgorithm         = cryptoDomain.DefaultHashAlgorithm
	DefaultCacheInitialCapacity  = 16
	DefaultCacheConcurrencyLevel = 4
	DefaultCacheMaximumSize      = 100
	DefaultCacheExpireMillis     = 10000
	DefaultKMSRateLimitBurst     = 10
	DefaultLogLevel              = "info"
	DefaultMetricsNamespace      = "cipher"
)

// Config holds all library configuration.
type Config struct {
	// Provider is the master-key backend: "LOCAL" or "GOOGLE_KMS".
	Provider string

	// Algorithm is the data key generator algorithm (e.g., "AES", "AES_128").
	Algorithm string
	// Transformation is the cipher configuration. Only "AES/GCM/NoPadding" is supported.
	Transformation string
	// HashAlgorithm is the digest used by Hash (e.g., "SHA3-256", "SHA-512").
	HashAlgorithm string

	// CacheInitialCapacity is a sizing hint for the data key cache.
	CacheInitialCapacity int
	// CacheConcurrencyLevel is a sizing hint for the data key cache.
	CacheConcurrencyLevel int
	// CacheMaximumSize is the number of unwrapped data keys kept in memory.
	CacheMaximumSize int
	// CacheExpireDuration evicts a cached data key that has not been read for this long.
	CacheExpireDuration time.Duration

	// MasterKey is the printable master key "dataKey:nonce" of the LOCAL provider.
	MasterKey string

	// GoogleKMSProjectID is the Google Cloud project holding the key ring.
	GoogleKMSProjectID string
	// GoogleKMSLocationID is the key ring location (e.g., "global").
	GoogleKMSLocationID string
	// GoogleKMSKeyRingID is the key ring name.
	GoogleKMSKeyRingID string
	// GoogleKMSKeyID is the CryptoKey name.
	GoogleKMSKeyID string
	// GoogleKMSCredentialFile is a service account JSON file. Empty uses application default credentials.
	GoogleKMSCredentialFile string

	// KMSKeyURI, when set, reaches the remote master key through a gocloud.dev keeper
	// (gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://).
	KMSKeyURI string
	// KMSRateLimit is the number of remote KMS calls allowed per second. Zero disables limiting.
	KMSRateLimit float64
	// KMSRateLimitBurst is the burst size for remote KMS calls.
	KMSRateLimitBurst int

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the prefix of every metric name.
	MetricsNamespace string
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Provider:              DefaultProvider,
		Algorithm:             DefaultAlgorithm,
		Transformation:        DefaultTransformation,
		HashAlgorithm:         DefaultHashAlgorithm,
		CacheInitialCapacity:  DefaultCacheInitialCapacity,
		CacheConcurrencyLevel: DefaultCacheConcurrencyLevel,
		CacheMaximumSize:      DefaultCacheMaximumSize,
		CacheExpireDuration:   DefaultCacheExpireMillis * time.Millisecond,
		KMSRateLimitBurst:     DefaultKMSRateLimitBurst,
		LogLevel:              DefaultLogLevel,
		MetricsNamespace:      DefaultMetricsNamespace,
	}
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Provider and algorithms
		Provider:       strings.ToUpper(env.GetString("CIPHER_PROVIDER", DefaultProvider)),
		Algorithm:      env.GetString("CIPHER_ALGORITHM", DefaultAlgorithm),
		Transformation: env.GetString("CIPHER_TRANSFORMATION", DefaultTransformation),
		HashAlgorithm:  env.GetString("CIPHER_HASH_ALGORITHM", DefaultHashAlgorithm),

		// Data key cache
		CacheInitialCapacity:  env.GetInt("CACHE_INITIAL_CAPACITY", DefaultCacheInitialCapacity),
		CacheConcurrencyLevel: env.GetInt("CACHE_CONCURRENCY_LEVEL", DefaultCacheConcurrencyLevel),
		CacheMaximumSize:      env.GetInt("CACHE_MAXIMUM_SIZE", DefaultCacheMaximumSize),
		CacheExpireDuration:   env.GetDuration("CACHE_EXPIRE_DURATION_MS", DefaultCacheExpireMillis, time.Millisecond),

		// Local master key
		MasterKey: env.GetString("CIPHER_MASTER_KEY", ""),

		// Google Cloud KMS
		GoogleKMSProjectID:      env.GetString("GOOGLE_KMS_PROJECT_ID", ""),
		GoogleKMSLocationID:     env.GetString("GOOGLE_KMS_LOCATION_ID", ""),
		GoogleKMSKeyRingID:      env.GetString("GOOGLE_KMS_KEY_RING_ID", ""),
		GoogleKMSKeyID:          env.GetString("GOOGLE_KMS_KEY_ID", ""),
		GoogleKMSCredentialFile: env.GetString("GOOGLE_KMS_CREDENTIAL_FILE", ""),

		// Remote KMS transport
		KMSKeyURI:         env.GetString("KMS_KEY_URI", ""),
		KMSRateLimit:      env.GetFloat64("KMS_RATE_LIMIT", 0),
		KMSRateLimitBurst: env.GetInt("KMS_RATE_LIMIT_BURST", DefaultKMSRateLimitBurst),

		// Logging
		LogLevel: strings.ToLower(env.GetString("LOG_LEVEL", DefaultLogLevel)),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", false),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", DefaultMetricsNamespace),
	}
}

// LoadProperties reads a "key=value" properties file. Lines starting with '#' are comments.
func LoadProperties(path string) (*Config, error) {
	props, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read properties file %s: %w", path, err)
	}
	return FromProperties(props)
}

// FromProperties builds a configuration from property names such as "provider",
// "maximumSize" or "masterKey". Missing properties keep their defaults and unknown
// properties are ignored.
func FromProperties(props map[string]string) (*Config, error) {
	cfg := Default()
	p := properties(props)

	stringProps := []struct {
		key    string
		target *string
	}{
		{"provider", &cfg.Provider},
		{"algorithm", &cfg.Algorithm},
		{"transformation", &cfg.Transformation},
		{"hashAlgorithm", &cfg.HashAlgorithm},
		{"masterKey", &cfg.MasterKey},
		{"projectId", &cfg.GoogleKMSProjectID},
		{"locationId", &cfg.GoogleKMSLocationID},
		{"keyRingId", &cfg.GoogleKMSKeyRingID},
		{"keyId", &cfg.GoogleKMSKeyID},
		{"credentialFile", &cfg.GoogleKMSCredentialFile},
		{"kmsKeyUri", &cfg.KMSKeyURI},
		{"logLevel", &cfg.LogLevel},
		{"metricsNamespace", &cfg.MetricsNamespace},
	}
	for _, sp := range stringProps {
		p.getString(sp.key, sp.target)
	}

	intProps := []struct {
		key    string
		target *int
	}{
		{"initialCapacity", &cfg.CacheInitialCapacity},
		{"concurrencyLevel", &cfg.CacheConcurrencyLevel},
		{"maximumSize", &cfg.CacheMaximumSize},
		{"kmsRateLimitBurst", &cfg.KMSRateLimitBurst},
	}
	for _, ip := range intProps {
		if err := p.getInt(ip.key, ip.target); err != nil {
			return nil, err
		}
	}

	var expireMillis int
	if err := p.getInt("expireDuration", &expireMillis); err != nil {
		return nil, err
	}
	if expireMillis != 0 {
		cfg.CacheExpireDuration = time.Duration(expireMillis) * time.Millisecond
	}

	if err := p.getFloat("kmsRateLimit", &cfg.KMSRateLimit); err != nil {
		return nil, err
	}
	if err := p.getBool("metricsEnabled", &cfg.MetricsEnabled); err != nil {
		return nil, err
	}

	cfg.Provider = strings.ToUpper(cfg.Provider)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	return cfg, nil
}

// Validate checks the configuration for values that would fail at first use.
func (c *Config) Validate() error {
	kmsIdentityRequired := c.Provider == cryptoDomain.ProviderGoogleKMS.String() && c.KMSKeyURI == ""

	err := validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required, appValidation.ProviderType),
		validation.Field(&c.Algorithm, validation.Required, appValidation.NotBlank),
		validation.Field(&c.Transformation, validation.Required, appValidation.NotBlank),
		validation.Field(&c.HashAlgorithm, validation.Required, appValidation.NotBlank),
		validation.Field(&c.CacheInitialCapacity, validation.Required, validation.Min(1)),
		validation.Field(&c.CacheConcurrencyLevel, validation.Required, validation.Min(1)),
		validation.Field(&c.CacheMaximumSize, validation.Required, validation.Min(1)),
		validation.Field(&c.CacheExpireDuration, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.MasterKey, appValidation.NoWhitespace, appValidation.KeyMaterial),
		validation.Field(&c.GoogleKMSProjectID, validation.When(kmsIdentityRequired, validation.Required)),
		validation.Field(&c.GoogleKMSLocationID, validation.When(kmsIdentityRequired, validation.Required)),
		validation.Field(&c.GoogleKMSKeyRingID, validation.When(kmsIdentityRequired, validation.Required)),
		validation.Field(&c.GoogleKMSKeyID, validation.When(kmsIdentityRequired, validation.Required)),
		validation.Field(&c.KMSRateLimit, validation.Min(0.0)),
		validation.Field(&c.KMSRateLimitBurst, validation.When(c.KMSRateLimit > 0, validation.Required, validation.Min(1))),
		validation.Field(&c.LogLevel, validation.Required, appValidation.LogLevel),
		validation.Field(&c.MetricsNamespace, validation.When(c.MetricsEnabled, validation.Required)),
	)
	return appValidation.WrapValidationError(err)
}

// properties reads typed values from a property map.
type properties map[string]string

func (p properties) lookup(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (p properties) getString(key string, target *string) {
	if v, ok := p.lookup(key); ok {
		*target = v
	}
}

func (p properties) getInt(key string, target *int) error {
	v, ok := p.lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "property %s: %q is not an integer", key, v)
	}
	*target = n
	return nil
}

func (p properties) getFloat(key string, target *float64) error {
	v, ok := p.lookup(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "property %s: %q is not a number", key, v)
	}
	*target = f
	return nil
}

func (p properties) getBool(key string, target *bool) error {
	v, ok := p.lookup(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "property %s: %q is not a boolean", key, v)
	}
	*target = b
	return nil
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
