package config

import (
	"encoding/hex"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string   `mapstructure:"PORT"`
	Env               string   `mapstructure:"ENV"`
	DatabaseURL       string   `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32    `mapstructure:"DB_MIN_CONNS"`
	AuthIssuer        string   `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL       string   `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience      string   `mapstructure:"AUTH_AUDIENCE"`
	DefaultClinic     string   `mapstructure:"DEFAULT_CLINIC"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`
	CertEncryptionKey string   `mapstructure:"CERT_ENCRYPTION_KEY"`
	SOAPTimeoutSecs   int      `mapstructure:"SOAP_DEFAULT_TIMEOUT"`
	CodigoPrestador   string   `mapstructure:"CODIGO_PRESTADOR"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DEFAULT_CLINIC", "default")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SOAP_DEFAULT_TIMEOUT", 30)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("DEFAULT_CLINIC")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("CERT_ENCRYPTION_KEY")
	v.BindEnv("SOAP_DEFAULT_TIMEOUT")
	v.BindEnv("CODIGO_PRESTADOR")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active; all requests get admin access.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: Set ENV=production and configure AUTH_ISSUER for production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// EncryptionKey decodes CERT_ENCRYPTION_KEY into the 32 raw bytes the
// certificate store expects.
func (c *Config) EncryptionKey() ([]byte, error) {
	keyBytes, err := hex.DecodeString(c.CertEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("CERT_ENCRYPTION_KEY is not valid hex: %w", err)
	}
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("CERT_ENCRYPTION_KEY must be 32 bytes (64 hex chars), got %d bytes", len(keyBytes))
	}
	return keyBytes, nil
}

// Validate checks that the configuration is safe to run. In production
// real JWT authentication must be configured and the certificate
// encryption key must be present and well formed.
func (c *Config) Validate() error {
	if c.IsProduction() && c.AuthIssuer == "" && c.AuthJWKSURL == "" {
		return fmt.Errorf(
			"AUTH_ISSUER or AUTH_JWKS_URL must be set in production. " +
				"Refusing to start without authentication configuration")
	}

	if c.IsProduction() && c.CertEncryptionKey == "" {
		return fmt.Errorf("CERT_ENCRYPTION_KEY is required in production")
	}
	if c.CertEncryptionKey != "" {
		if _, err := c.EncryptionKey(); err != nil {
			return err
		}
	}

	if c.SOAPTimeoutSecs <= 0 {
		return fmt.Errorf("SOAP_DEFAULT_TIMEOUT must be positive, got %d", c.SOAPTimeoutSecs)
	}

	return nil
}
