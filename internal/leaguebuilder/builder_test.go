package leaguebuilder

import (
    "context"
    "os"
    "path/filepath"
    "strings"
    "testing"

    "github.com/alicebob/miniredis/v2"
    "github.com/park285/autobattler-league/internal/config"
    "github.com/park285/autobattler-league/internal/league"
)

func TestNewWithSQLiteRoster(t *testing.T) {
    path := filepath.Join(t.TempDir(), "nested", "league.db")
    cfg := &config.AppConfig{
        RosterBackend:    config.RosterSQLite,
        RosterSQLitePath: path,
        RosterKey:        "autoBattlerPlayers",
        StatusImage:      true,
        PairingSeed:      9,
    }
    d, err := New(context.Background(), cfg)
    if err != nil {
        t.Fatalf("New: %v", err)
    }
    defer d.Close()

    if _, err := d.Registry.Register(context.Background(), "ann"); err != nil {
        t.Fatalf("Register: %v", err)
    }
    if d.Renderer == nil || d.Controller.Phase() != league.PhaseIdle {
        t.Fatalf("deps not wired: %+v", d)
    }
    if err := d.Close(); err != nil {
        t.Fatalf("Close: %v", err)
    }

    again, err := New(context.Background(), cfg)
    if err != nil {
        t.Fatalf("reopen: %v", err)
    }
    defer again.Close()
    if again.Registry.Len() != 1 {
        t.Fatalf("roster not persisted, len=%d", again.Registry.Len())
    }
}

func TestNewWithRedisRoster(t *testing.T) {
    mr := miniredis.RunT(t)
    cfg := &config.AppConfig{
        RosterBackend: config.RosterRedis,
        RedisURL:      "redis://" + mr.Addr() + "/0",
        RosterKey:     "league:test",
    }
    d, err := New(context.Background(), cfg)
    if err != nil {
        t.Fatalf("New: %v", err)
    }
    defer d.Close()
    if _, err := d.Registry.Register(context.Background(), "ben"); err != nil {
        t.Fatalf("Register: %v", err)
    }
    if !mr.Exists("league:test") {
        t.Fatalf("roster key not written")
    }
    if d.Renderer != nil {
        t.Fatalf("renderer should be off")
    }
}

func TestNewRejectsUnknownBackend(t *testing.T) {
    if _, err := New(context.Background(), &config.AppConfig{RosterBackend: "mongo"}); err == nil {
        t.Fatalf("expected error")
    }
}

func TestNewRejectsBrokenMessages(t *testing.T) {
    dir := t.TempDir()
    doc := "league:\n  notice:\n    champion: \"{{.Name\"\n"
    if err := os.WriteFile(filepath.Join(dir, "league.yaml"), []byte(doc), 0o644); err != nil {
        t.Fatalf("write: %v", err)
    }
    cfg := &config.AppConfig{RosterBackend: config.RosterMemory, MessagesDir: dir}
    if _, err := New(context.Background(), cfg); err == nil || !strings.Contains(err.Error(), "load messages") {
        t.Fatalf("expected message load error, got %v", err)
    }
}

func TestSeededRandDeterministic(t *testing.T) {
    a, b := SeededRand(42), SeededRand(42)
    for i := 0; i < 5; i++ {
        if a.IntN(1000) != b.IntN(1000) {
            t.Fatalf("seeded sources diverged")
        }
    }
}
