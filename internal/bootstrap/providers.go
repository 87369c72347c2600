package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/config"
	"fxconvert-service/internal/domain"
	"fxconvert-service/internal/infrastructure/feedrpc"
	httpserver "fxconvert-service/internal/infrastructure/http"
	"fxconvert-service/internal/infrastructure/httpx"
	"fxconvert-service/internal/infrastructure/levelstore"
	"fxconvert-service/internal/infrastructure/logx"
	"fxconvert-service/internal/infrastructure/metrics"
	"fxconvert-service/internal/infrastructure/pg"
	"fxconvert-service/internal/infrastructure/pyth"
	redisstore "fxconvert-service/internal/infrastructure/redis"
	"fxconvert-service/internal/infrastructure/worker"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrMissingProgramID = errors.New("PROGRAM_ID is required")
	ErrMissingDBURL     = errors.New("DATABASE_URL is required for STORAGE=pg")
	ErrMissingFeed      = errors.New("FEED_ACCOUNT is required for PROVIDER=rpc")
	ErrSharedStorage    = errors.New("a separate worker process needs STORAGE=pg")
)

// Identities are the well-known keys of one deployment.
type Identities struct {
	Authority domain.Identity
	Config    domain.Identity
	Feed      domain.Identity
}

// Storage bundles the account store with its transaction scope and
// readiness probe.
type Storage struct {
	Accounts application.AccountStore
	UoW      application.UnitOfWork
	Ping     func(ctx context.Context) error
}

// API is everything cmd/api runs. Sync is nil unless the feed is refreshed
// in-process.
type API struct {
	Config config.Config
	Server *httpserver.Server
	Serial *worker.Serial
	Sync   *worker.FeedSync
}

func ProvideLogger() *zap.Logger { return logx.L() }

func ProvideConfig() config.Config { return config.Load() }

// ProvideIdentities parses the configured keys. The config and fake feed
// accounts default to addresses derived from the program ID.
func ProvideIdentities(cfg config.Config) (Identities, error) {
	if cfg.ProgramID == "" {
		return Identities{}, ErrMissingProgramID
	}
	program, err := domain.ParseIdentity(cfg.ProgramID)
	if err != nil {
		return Identities{}, fmt.Errorf("PROGRAM_ID: %w", err)
	}
	ids := Identities{Authority: program}
	if ids.Config, err = keyOrDerived(cfg.ConfigAccount, "config", program); err != nil {
		return Identities{}, fmt.Errorf("CONFIG_ACCOUNT: %w", err)
	}
	if cfg.FeedAccount == "" && cfg.Provider == "rpc" {
		return Identities{}, ErrMissingFeed
	}
	if ids.Feed, err = keyOrDerived(cfg.FeedAccount, "feed", program); err != nil {
		return Identities{}, fmt.Errorf("FEED_ACCOUNT: %w", err)
	}
	return ids, nil
}

func keyOrDerived(raw, seed string, program domain.Identity) (domain.Identity, error) {
	if raw != "" {
		return domain.ParseIdentity(raw)
	}
	key, _, err := solana.FindProgramAddress([][]byte{[]byte(seed)}, program)
	return key, err
}

func ProvideStorage(ctx context.Context, log *zap.Logger, cfg config.Config) (Storage, func(), error) {
	switch cfg.Storage {
	case "memory", "":
		store, err := levelstore.OpenMemory()
		if err != nil {
			return Storage{}, func() {}, err
		}
		return Storage{Accounts: store, UoW: application.NoopUoW{}, Ping: store.Ping}, func() { _ = store.Close() }, nil
	case "leveldb":
		store, err := levelstore.Open(cfg.LevelDBPath)
		if err != nil {
			return Storage{}, func() {}, err
		}
		cleanup := func() {
			log.Info("storage.close", zap.String("backend", "leveldb"))
			_ = store.Close()
		}
		return Storage{Accounts: store, UoW: application.NoopUoW{}, Ping: store.Ping}, cleanup, nil
	case "pg":
		if cfg.DatabaseURL == "" {
			return Storage{}, func() {}, ErrMissingDBURL
		}
		db, err := pg.Connect(ctx, cfg.DatabaseURL, pg.PoolOptions{
			MaxConns: int32(cfg.PGMaxConns),
			MinConns: int32(cfg.PGMinConns),
		})
		if err != nil {
			return Storage{}, func() {}, err
		}
		if err := pg.RunMigrations(ctx, db, log.Named("pg")); err != nil {
			db.Close()
			return Storage{}, func() {}, err
		}
		cleanup := func() {
			log.Info("storage.close", zap.String("backend", "pg"))
			db.Close()
		}
		return Storage{Accounts: pg.NewAccountRepo(db), UoW: &pg.UnitOfWork{Pool: db.Pool}, Ping: db.Ping}, cleanup, nil
	default:
		return Storage{}, func() {}, fmt.Errorf("unsupported STORAGE=%q", cfg.Storage)
	}
}

// ProvideIdempotency picks the replay reservation store. The TTL never drops
// below twice the submission window.
// ProvideSharedStorage is the storage of a process that runs beside the API.
// Memory storage is private to one process and LevelDB holds an exclusive
// file lock, so only pg can be shared.
func ProvideSharedStorage(ctx context.Context, log *zap.Logger, cfg config.Config) (Storage, func(), error) {
	if cfg.Storage != "pg" {
		return Storage{}, func() {}, fmt.Errorf("%w, got STORAGE=%q (use FEED_SYNC_EMBEDDED=true instead)", ErrSharedStorage, cfg.Storage)
	}
	return ProvideStorage(ctx, log, cfg)
}

func ProvideIdempotency(cfg config.Config) (application.IdempotencyStore, func(), error) {
	ttl := max(cfg.IdempotencyTTL, 2*application.SubmissionWindow)
	switch cfg.IdempotencyBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return redisstore.New(client, ttl), func() { _ = client.Close() }, nil
	case "memory", "":
		return application.NewMemoryIdempotency(ttl, application.SystemClock{}), func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unsupported IDEMPOTENCY_BACKEND=%q", cfg.IdempotencyBackend)
	}
}

func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func ProvideRecorder(reg *prometheus.Registry) application.Recorder { return metrics.New(reg) }

func ProvideProcessor(ids Identities, st Storage, log *zap.Logger) *application.Processor {
	return application.NewProcessor(ids.Authority, pyth.Decoder{}, st.Accounts,
		application.WithProcessorLogger(log.Named("processor")))
}

// ProvideInstructionService also creates the config account when missing.
func ProvideInstructionService(
	ctx context.Context,
	cfg config.Config,
	ids Identities,
	proc *application.Processor,
	st Storage,
	idem application.IdempotencyStore,
	rec application.Recorder,
	log *zap.Logger,
) (*application.InstructionService, error) {
	svc := application.NewInstructionService(ids.Config, proc, st.Accounts,
		application.WithUnitOfWork(st.UoW),
		application.WithIdempotency(idem),
		application.WithRecorder(rec),
		application.WithLogger(log.Named("service")),
	)
	if err := svc.EnsureConfigAccount(ctx, cfg.ConfigAccountSize); err != nil {
		return nil, fmt.Errorf("ensure config account: %w", err)
	}
	return svc, nil
}

func ProvideSerial(svc *application.InstructionService, cfg config.Config) *worker.Serial {
	return worker.NewSerial(svc, cfg.SubmitQueue)
}

func ProvideServer(cfg config.Config, serial *worker.Serial, svc *application.InstructionService, st Storage, reg *prometheus.Registry) *httpserver.Server {
	srv := httpserver.NewServer(serial, svc)
	srv.SetReadyCheck(st.Ping)
	srv.SetGatherer(reg)
	srv.SetTimeout(cfg.RequestTimeout)
	return srv
}

func ProvideFeedSource(cfg config.Config, log *zap.Logger) (application.FeedSource, error) {
	switch cfg.Provider {
	case "rpc":
		client := &httpx.Client{
			HTTP:   &http.Client{Timeout: cfg.RequestTimeout},
			Logger: log.Named("feedrpc"),
		}
		return feedrpc.NewClient(cfg.SolanaRPCURL, client), nil
	case "fake", "":
		return feedrpc.NewFake(cfg.FakePrice, cfg.FakeExponent, application.SystemClock{}), nil
	default:
		return nil, fmt.Errorf("unsupported PROVIDER=%q", cfg.Provider)
	}
}

func ProvideFeedSync(cfg config.Config, ids Identities, src application.FeedSource, st Storage, rec application.Recorder, log *zap.Logger) *worker.FeedSync {
	return &worker.FeedSync{
		Source:    src,
		Store:     st.Accounts,
		Decoder:   pyth.Decoder{},
		Recorder:  rec,
		Feed:      ids.Feed,
		PollEvery: cfg.FeedPoll,
		Log:       log.Named("feed_sync"),
	}
}

func ProvideAPI(cfg config.Config, srv *httpserver.Server, serial *worker.Serial, sync *worker.FeedSync) *API {
	api := &API{Config: cfg, Server: srv, Serial: serial}
	if cfg.FeedEmbedded {
		api.Sync = sync
	}
	return api
}
