// Package config builds the service configuration from environment
// variables so main stays lean.
package config

import (
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"realmgate/internal/realm"
)

// Config is the full service configuration.
type Config struct {
	Addr     string
	LogLevel string

	// DatabaseURL selects the PostgreSQL-backed stores when set; empty
	// falls back to in-memory stores for development.
	DatabaseURL string

	Redis RedisConfig

	// FallbackSigningSecret is the HS256 secret used only when a realm's
	// RSA key material cannot be loaded.
	FallbackSigningSecret string

	BcryptCost      int
	AuditBufferSize int
	ShutdownTimeout time.Duration

	// Realms seeds the registry at startup.
	Realms []realm.Realm
}

// RedisConfig captures the revocation list backend. Empty URL disables the
// shared list; a process-local one is used instead.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables, with development
// defaults for everything but secrets.
func FromEnv() Config {
	return Config{
		Addr:                  envStr("REALMGATE_ADDR", ":8080"),
		LogLevel:              envStr("LOG_LEVEL", "info"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		FallbackSigningSecret: os.Getenv("JWT_FALLBACK_SECRET"),
		BcryptCost:            envInt("BCRYPT_COST", bcrypt.DefaultCost),
		AuditBufferSize:       envInt("AUDIT_BUFFER_SIZE", 256),
		ShutdownTimeout:       envDur("SHUTDOWN_TIMEOUT", 10*time.Second),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDur("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDur("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDur("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Realms: seedRealms(),
	}
}

// seedRealms builds the startup realm set. The default realm always exists;
// a second service-facing realm is seeded alongside it so machine clients
// can be issued longer-lived tokens without touching the default policy.
func seedRealms() []realm.Realm {
	issuer := envStr("REALM_ISSUER", "https://realmgate.local")
	privateKeyPath := envStr("JWT_PRIVATE_KEY_PATH", "keys/private.pem")
	publicKeyPath := envStr("JWT_PUBLIC_KEY_PATH", "keys/public.pem")

	return []realm.Realm{
		{
			Name:            realm.DefaultName,
			Issuer:          issuer + "/realms/" + realm.DefaultName,
			Audience:        realm.DefaultName,
			AccessTokenTTL:  envStr("ACCESS_TOKEN_TTL", "15m"),
			RefreshTokenTTL: envStr("REFRESH_TOKEN_TTL", "7d"),
			PrivateKeyPath:  privateKeyPath,
			PublicKeyPath:   publicKeyPath,
		},
		{
			Name:            "users-api",
			Issuer:          issuer + "/realms/users-api",
			Audience:        "users-api",
			AccessTokenTTL:  envStr("USERS_API_ACCESS_TOKEN_TTL", "1h"),
			RefreshTokenTTL: envStr("USERS_API_REFRESH_TOKEN_TTL", "30d"),
			PrivateKeyPath:  privateKeyPath,
			PublicKeyPath:   publicKeyPath,
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
