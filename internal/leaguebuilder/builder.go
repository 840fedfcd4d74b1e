package leaguebuilder

import (
    "context"
    "errors"
    "fmt"
    "math/rand/v2"
    "os"
    "path/filepath"
    "strings"

    "github.com/park285/autobattler-league/internal/archive"
    "github.com/park285/autobattler-league/internal/config"
    "github.com/park285/autobattler-league/internal/league"
    "github.com/park285/autobattler-league/internal/msgcat"
    "github.com/park285/autobattler-league/internal/obslog"
    "github.com/park285/autobattler-league/internal/render"
    "github.com/park285/autobattler-league/internal/roster"
    "go.uber.org/zap"
)

type Deps struct {
    Store      roster.Store
    Registry   *roster.Registry
    Archive    archive.Repository
    Catalog    *msgcat.Catalog
    Controller *league.Controller
    Renderer   render.StatusRenderer

    closers []func() error
}

// New wires the league from configuration and loads the roster.
func New(ctx context.Context, cfg *config.AppConfig) (*Deps, error) {
    if cfg == nil {
        return nil, fmt.Errorf("nil config")
    }
    d := &Deps{}

    store, err := d.openStore(ctx, cfg)
    if err != nil {
        return nil, err
    }
    d.Store = store

    d.Registry = roster.NewRegistry(store)
    if err := d.Registry.Load(ctx); err != nil {
        _ = d.Close()
        return nil, fmt.Errorf("load roster: %w", err)
    }

    // Archive (Postgres optional)
    if strings.TrimSpace(cfg.DatabaseURL) != "" {
        repo, err := archive.OpenPostgres(ctx, cfg.DatabaseURL)
        if err != nil {
            _ = d.Close()
            return nil, fmt.Errorf("init archive: %w", err)
        }
        d.Archive = repo
        d.closers = append(d.closers, repo.Close)
    } else {
        obslog.L().Info("league_archive_memory", zap.String("reason", "DATABASE_URL not set"))
        d.Archive = archive.NewMemoryRepository()
    }

    d.Catalog, err = msgcat.New(cfg.MessagesDir)
    if err != nil {
        _ = d.Close()
        return nil, fmt.Errorf("load messages: %w", err)
    }
    noticeKeys := make([]string, 0, len(league.NoticeKinds))
    for _, k := range league.NoticeKinds {
        noticeKeys = append(noticeKeys, league.NoticeKey(k))
    }
    if err := d.Catalog.Require(noticeKeys...); err != nil {
        _ = d.Close()
        return nil, fmt.Errorf("load messages: %w", err)
    }

    opts := []league.Option{
        league.WithArchiver(d.Archive),
        league.WithPhrasebook(d.Catalog),
    }
    if cfg.PairingSeed != 0 {
        opts = append(opts, league.WithRand(SeededRand(cfg.PairingSeed)))
    }
    d.Controller = league.NewController(d.Registry, opts...)

    if cfg.StatusImage {
        d.Renderer = render.NewStatusRenderer()
    }

    obslog.L().Info("league_ready",
        zap.String("roster_backend", cfg.RosterBackend),
        zap.Int("players", d.Registry.Len()),
        zap.Bool("archive_postgres", strings.TrimSpace(cfg.DatabaseURL) != ""),
        zap.Bool("status_image", cfg.StatusImage),
    )
    return d, nil
}

func (d *Deps) openStore(ctx context.Context, cfg *config.AppConfig) (roster.Store, error) {
    switch cfg.RosterBackend {
    case config.RosterMemory:
        return roster.NewMemoryStore(), nil
    case config.RosterRedis:
        s, err := roster.OpenRedisStore(ctx, cfg.RedisURL, cfg.RosterKey)
        if err != nil {
            return nil, fmt.Errorf("init redis roster: %w", err)
        }
        d.closers = append(d.closers, s.Close)
        return s, nil
    case config.RosterSQLite, "":
        if dir := filepath.Dir(cfg.RosterSQLitePath); dir != "" && dir != "." {
            if err := os.MkdirAll(dir, 0o755); err != nil {
                return nil, fmt.Errorf("create roster dir: %w", err)
            }
        }
        s, err := roster.OpenSQLiteStore(cfg.RosterSQLitePath, cfg.RosterKey)
        if err != nil {
            return nil, fmt.Errorf("init sqlite roster: %w", err)
        }
        d.closers = append(d.closers, s.Close)
        return s, nil
    default:
        return nil, fmt.Errorf("unknown roster backend %q", cfg.RosterBackend)
    }
}

// SeededRand returns a deterministic pairing source for seed.
func SeededRand(seed uint64) *rand.Rand {
    return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Close releases store and archive connections in reverse order.
func (d *Deps) Close() error {
    if d == nil {
        return nil
    }
    var errs []error
    for i := len(d.closers) - 1; i >= 0; i-- {
        if err := d.closers[i](); err != nil {
            errs = append(errs, err)
        }
    }
    d.closers = nil
    return errors.Join(errs...)
}
