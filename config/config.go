// Package config wires cachewrap from environment variables: the manager and
// its storage root, the byte provider, the codec and the logger.
package config

import (
	"context"
	"fmt"
	stdslog "log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/cachewrap"
	c "github.com/unkn0wn-root/cachewrap/codec"
	gen "github.com/unkn0wn-root/cachewrap/genstore"
	logruslog "github.com/unkn0wn-root/cachewrap/log/logrus"
	slogadapter "github.com/unkn0wn-root/cachewrap/log/slog"
	zaplog "github.com/unkn0wn-root/cachewrap/log/zap"
	pr "github.com/unkn0wn-root/cachewrap/provider"
	"github.com/unkn0wn-root/cachewrap/provider/bigcache"
	"github.com/unkn0wn-root/cachewrap/provider/file"
	"github.com/unkn0wn-root/cachewrap/provider/redis"
	"github.com/unkn0wn-root/cachewrap/provider/ristretto"
	"github.com/unkn0wn-root/cachewrap/store"
)

const (
	BackendFile      = "file"
	BackendRedis     = "redis"
	BackendBigcache  = "bigcache"
	BackendRistretto = "ristretto"
)

// Config is read from CACHEWRAP_* variables.
type Config struct {
	Root    string `env:"CACHEWRAP_ROOT" envDefault:".cache"`
	Backend string `env:"CACHEWRAP_BACKEND" envDefault:"file"`
	Codec   string `env:"CACHEWRAP_CODEC" envDefault:"json"` // json|msgpack|cbor|csv|protobuf
	// MaxDecodeBytes caps persisted payloads on load; 0 disables.
	MaxDecodeBytes int `env:"CACHEWRAP_MAX_DECODE_BYTES" envDefault:"0"`

	Compression int `env:"CACHEWRAP_COMPRESSION" envDefault:"0"` // zstd level for the file backend

	RedisAddr     string        `env:"CACHEWRAP_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB       int           `env:"CACHEWRAP_REDIS_DB" envDefault:"0"`
	RedisPassword string        `env:"CACHEWRAP_REDIS_PASSWORD"`
	GenTTL        time.Duration `env:"CACHEWRAP_GEN_TTL" envDefault:"0s"`

	RistrettoMaxCost int64 `env:"CACHEWRAP_RISTRETTO_MAX_COST" envDefault:"67108864"`

	Logger   string `env:"CACHEWRAP_LOGGER" envDefault:"nop"` // nop|slog|zap|logrus
	LogLevel string `env:"CACHEWRAP_LOG_LEVEL" envDefault:"info"`
}

// FromEnv parses Config from the environment.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Manager returns a registry rooted at cfg.Root.
func (cfg Config) Manager() *cachewrap.Manager {
	return cachewrap.NewManager(cfg.Root)
}

// NewLogger builds the configured logger adapter.
func (cfg Config) NewLogger() (cachewrap.Logger, error) {
	switch cfg.Logger {
	case "", "nop":
		return cachewrap.NopLogger{}, nil
	case "slog":
		var lvl stdslog.Level
		if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
		}
		h := stdslog.NewJSONHandler(os.Stderr, &stdslog.HandlerOptions{Level: lvl})
		return slogadapter.Logger{L: stdslog.New(h)}, nil
	case "zap":
		lvl, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
		}
		zc := zap.NewProductionConfig()
		zc.Level = lvl
		l, err := zc.Build()
		if err != nil {
			return nil, err
		}
		return zaplog.New(l), nil
	case "logrus":
		lvl, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
		}
		l := logrus.New()
		l.SetLevel(lvl)
		l.SetFormatter(&logrus.JSONFormatter{})
		return logruslog.New(l), nil
	default:
		return nil, fmt.Errorf("config: unknown logger %q", cfg.Logger)
	}
}

// Persistence is a provider together with the generation store that belongs
// to it (nil for process-local backends without one).
type Persistence struct {
	Provider pr.Provider
	GenStore gen.GenStore
}

// NewPersistence builds the configured backend. The caller owns the result;
// store.Store.Close releases it.
func (cfg Config) NewPersistence(ctx context.Context) (Persistence, error) {
	switch cfg.Backend {
	case "", BackendFile:
		p, err := file.New(file.Config{CompressionLevel: cfg.Compression})
		if err != nil {
			return Persistence{}, err
		}
		return Persistence{Provider: p}, nil
	case BackendRedis:
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			DB:       cfg.RedisDB,
			Password: cfg.RedisPassword,
		})
		p, err := redis.New(redis.Config{Client: rdb, CloseClient: true})
		if err != nil {
			return Persistence{}, err
		}
		gs, err := gen.NewRedis(gen.RedisConfig{Client: rdb, Namespace: cfg.Root, TTL: cfg.GenTTL})
		if err != nil {
			return Persistence{}, err
		}
		return Persistence{Provider: p, GenStore: gs}, nil
	case BackendBigcache:
		p, err := bigcache.New(ctx, bigcache.Config{})
		if err != nil {
			return Persistence{}, err
		}
		return Persistence{Provider: p, GenStore: gen.NewLocal(time.Hour, 30*24*time.Hour)}, nil
	case BackendRistretto:
		p, err := ristretto.New(ristretto.Config{
			NumCounters: 1e5,
			MaxCost:     cfg.RistrettoMaxCost,
			BufferItems: 64,
		})
		if err != nil {
			return Persistence{}, err
		}
		return Persistence{Provider: p, GenStore: gen.NewLocal(time.Hour, 30*24*time.Hour)}, nil
	default:
		return Persistence{}, fmt.Errorf("config: unknown backend %q", cfg.Backend)
	}
}

// NewCodec returns the configured codec for map[K]V contents.
func NewCodec[K comparable, V any](cfg Config) (c.Codec[map[K]V], error) {
	var cd c.Codec[map[K]V]
	switch cfg.Codec {
	case "", "json":
		cd = c.JSON[map[K]V]{}
	case "msgpack":
		cd = c.Msgpack[map[K]V]{}
	case "cbor":
		cb, err := c.NewCBOR[map[K]V](c.CBOROptions{Canonical: true})
		if err != nil {
			return nil, err
		}
		cd = cb
	case "csv":
		if _, ok := any(map[K]V(nil)).(map[string]string); !ok {
			return nil, fmt.Errorf("config: csv codec needs map[string]string contents, have %T", map[K]V(nil))
		}
		cd = c.CSV[K, V]{}
	case "protobuf":
		pb, ok := any(c.Struct{}).(c.Codec[map[K]V])
		if !ok {
			return nil, fmt.Errorf("config: protobuf codec needs map[string]any contents, have %T", map[K]V(nil))
		}
		cd = pb
	default:
		return nil, fmt.Errorf("config: unknown codec %q", cfg.Codec)
	}
	if cfg.MaxDecodeBytes > 0 {
		cd = c.Limit[map[K]V]{Inner: cd, MaxDecode: cfg.MaxDecodeBytes}
	}
	return cd, nil
}

// NewStore assembles a store.Store from cfg.
func NewStore[K comparable, V any](ctx context.Context, cfg Config, log cachewrap.Logger, hooks cachewrap.Hooks) (*store.Store[K, V], error) {
	cd, err := NewCodec[K, V](cfg)
	if err != nil {
		return nil, err
	}
	p, err := cfg.NewPersistence(ctx)
	if err != nil {
		return nil, err
	}
	return store.New(store.Options[K, V]{
		Provider: p.Provider,
		Codec:    cd,
		GenStore: p.GenStore,
		Logger:   log,
		Hooks:    hooks,
	})
}
