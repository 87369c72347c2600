package config

import (
	"os"
	"strconv"
	"time"

	infraconfig "fxconvert-service/internal/infrastructure/config"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port           string
	RequestTimeout time.Duration
	SubmitQueue    int
	// Program
	ProgramID         string
	ConfigAccount     string
	ConfigAccountSize int
	// Storage
	Storage     string
	LevelDBPath string
	DatabaseURL string
	PGMaxConns  int
	PGMinConns  int
	// Feed
	Provider     string
	FeedAccount  string
	SolanaRPCURL string
	FeedPoll     time.Duration
	FeedEmbedded bool
	FakePrice    int64
	FakeExponent int32
	// Idempotency
	IdempotencyBackend string
	IdempotencyTTL     time.Duration
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func boolDef(key string, def bool) bool {
	b, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(def)))
	if err != nil {
		return def
	}
	return b
}

func msDef(key string, defMS int) time.Duration {
	return time.Duration(atoiDef(getEnv(key, strconv.Itoa(defMS)), defMS)) * time.Millisecond
}

// Load reads environment variables and applies defaults.
func Load() Config {
	return Config{
		Env:                getEnv("ENV", "local"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Port:               getEnv("PORT", infraconfig.DefaultHTTPPort),
		RequestTimeout:     msDef("REQUEST_TIMEOUT_MS", int(infraconfig.DefaultRequestTimeout/time.Millisecond)),
		SubmitQueue:        atoiDef(getEnv("SUBMIT_QUEUE", ""), infraconfig.DefaultSubmitQueue),
		ProgramID:          getEnv("PROGRAM_ID", ""),
		ConfigAccount:      getEnv("CONFIG_ACCOUNT", ""),
		ConfigAccountSize:  atoiDef(getEnv("CONFIG_ACCOUNT_SIZE", ""), infraconfig.DefaultConfigAccountSize),
		Storage:            getEnv("STORAGE", "memory"),
		LevelDBPath:        getEnv("LEVELDB_PATH", "data/accounts"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		PGMaxConns:         atoiDef(getEnv("PG_MAX_CONNS", ""), infraconfig.DefaultPGMaxConns),
		PGMinConns:         atoiDef(getEnv("PG_MIN_CONNS", ""), infraconfig.DefaultPGMinConns),
		Provider:           getEnv("PROVIDER", "fake"),
		FeedAccount:        getEnv("FEED_ACCOUNT", ""),
		SolanaRPCURL:       getEnv("SOLANA_RPC_URL", infraconfig.DefaultSolanaRPC),
		FeedPoll:           msDef("FEED_POLL_MS", int(infraconfig.DefaultFeedPoll/time.Millisecond)),
		FeedEmbedded:       boolDef("FEED_SYNC_EMBEDDED", true),
		FakePrice:          int64(atoiDef(getEnv("FAKE_PRICE", ""), infraconfig.DefaultFakePrice)),
		FakeExponent:       int32(atoiDef(getEnv("FAKE_EXPONENT", ""), infraconfig.DefaultFakeExponent)),
		IdempotencyBackend: getEnv("IDEMPOTENCY_BACKEND", "memory"),
		IdempotencyTTL:     msDef("IDEMPOTENCY_TTL_MS", 86400000),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            atoiDef(getEnv("REDIS_DB", "0"), 0),
	}
}
