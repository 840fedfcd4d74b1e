package roster

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestNewPlayerRejectsBlankName(t *testing.T) {
	if _, err := NewPlayer("   "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	p, err := NewPlayer("  Alice ")
	if err != nil { t.Fatalf("NewPlayer: %v", err) }
	if p.Name != "Alice" || p.ID == "" { t.Fatalf("unexpected player: %+v", p) }
	for rank := 1; rank <= MaxPlacement; rank++ {
		if n, ok := p.Stats.Placements[rank]; !ok || n != 0 {
			t.Fatalf("placement %d not initialised: %v", rank, p.Stats.Placements)
		}
	}
}

func TestDocumentFieldNames(t *testing.T) {
	p := Player{ID: "p1", Name: "Alice", Stats: newStats()}
	p.Stats.Record(intPtr(2), intPtr(3))
	raw, err := encodeDocument([]Player{p})
	if err != nil { t.Fatalf("encode: %v", err) }

	var doc []map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil { t.Fatalf("unmarshal: %v", err) }
	stats, ok := doc[0]["stats"].(map[string]any)
	if !ok { t.Fatalf("missing stats object: %s", raw) }
	if stats["gamesPlayed"].(float64) != 1 { t.Fatalf("gamesPlayed: %v", stats["gamesPlayed"]) }
	placements := stats["placements"].(map[string]any)
	if placements["2"].(float64) != 1 || placements["8"].(float64) != 0 {
		t.Fatalf("placements: %v", placements)
	}
	rounds := stats["eliminationRounds"].(map[string]any)
	if rounds["3"].(float64) != 1 { t.Fatalf("eliminationRounds: %v", rounds) }
}

func TestDecodeLegacyNumericIDs(t *testing.T) {
	raw := []byte(`[{"id":1712345678901,"name":"Bob","stats":{"gamesPlayed":2,"placements":{"1":1,"2":1},"eliminationRounds":{"4":1}}}]`)
	players, err := decodeDocument(raw)
	if err != nil { t.Fatalf("decode: %v", err) }
	if len(players) != 1 || players[0].ID != "1712345678901" {
		t.Fatalf("unexpected id: %+v", players)
	}
	if players[0].Stats.Wins() != 1 || players[0].Stats.EliminationRounds[4] != 1 {
		t.Fatalf("stats not decoded: %+v", players[0].Stats)
	}
}

func TestStatsSummaries(t *testing.T) {
	s := newStats()
	if _, ok := s.WinRate(); ok { t.Fatalf("win rate should be unavailable without games") }
	if _, ok := s.AvgPlacement(); ok { t.Fatalf("avg placement should be unavailable without games") }
	s.Record(intPtr(1), nil)
	s.Record(intPtr(4), intPtr(2))
	rate, ok := s.WinRate()
	if !ok || rate != 0.5 { t.Fatalf("win rate = %v, %v", rate, ok) }
	avg, ok := s.AvgPlacement()
	if !ok || avg != 2.5 { t.Fatalf("avg placement = %v, %v", avg, ok) }
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil { t.Fatalf("miniredis: %v", err) }
	t.Cleanup(mr.Close)
	ctx := context.Background()

	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	t.Cleanup(func() { _ = store.Close() })

	got, err := store.Load(ctx)
	if err != nil || got != nil { t.Fatalf("empty load: %v %v", got, err) }

	p, _ := NewPlayer("Carol")
	if err := store.Save(ctx, []Player{p}); err != nil { t.Fatalf("Save: %v", err) }
	if !mr.Exists(DefaultKey) { t.Fatalf("expected document under %s", DefaultKey) }
	if ttl := mr.TTL(DefaultKey); ttl != 0 { t.Fatalf("roster key must not expire, ttl=%v", ttl) }

	got, err = store.Load(ctx)
	if err != nil { t.Fatalf("Load: %v", err) }
	if len(got) != 1 || got[0].ID != p.ID || got[0].Name != "Carol" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestOpenRedisStoreFromURL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil { t.Fatalf("miniredis: %v", err) }
	t.Cleanup(mr.Close)

	store, err := OpenRedisStore(context.Background(), "redis://"+mr.Addr()+"/0", "league:roster")
	if err != nil { t.Fatalf("OpenRedisStore: %v", err) }
	defer store.Close()
	if err := store.Save(context.Background(), nil); err != nil { t.Fatalf("Save: %v", err) }
	if v, _ := mr.Get("league:roster"); v != "[]" { t.Fatalf("expected empty array document, got %q", v) }

	if _, err := OpenRedisStore(context.Background(), "http://"+mr.Addr(), ""); err == nil {
		t.Fatalf("expected unsupported scheme error")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.db")
	store, err := OpenSQLiteStore(path, "")
	if err != nil { t.Fatalf("OpenSQLiteStore: %v", err) }
	ctx := context.Background()

	got, err := store.Load(ctx)
	if err != nil || got != nil { t.Fatalf("empty load: %v %v", got, err) }

	a, _ := NewPlayer("Dana")
	b, _ := NewPlayer("Eve")
	if err := store.Save(ctx, []Player{a}); err != nil { t.Fatalf("Save#1: %v", err) }
	if err := store.Save(ctx, []Player{a, b}); err != nil { t.Fatalf("Save#2: %v", err) }
	if err := store.Close(); err != nil { t.Fatalf("Close: %v", err) }

	reopened, err := OpenSQLiteStore(path, "")
	if err != nil { t.Fatalf("reopen: %v", err) }
	defer reopened.Close()
	got, err = reopened.Load(ctx)
	if err != nil { t.Fatalf("Load: %v", err) }
	if len(got) != 2 || got[1].Name != "Eve" { t.Fatalf("unexpected roster: %+v", got) }
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	store := NewMemoryStore()
	reg := NewRegistry(store)
	ctx := context.Background()
	if err := reg.Load(ctx); err != nil { t.Fatalf("Load: %v", err) }

	if _, err := reg.Register(ctx, ""); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	alice, err := reg.Register(ctx, "Alice")
	if err != nil { t.Fatalf("Register: %v", err) }
	if store.Saves() != 1 { t.Fatalf("register should save immediately, saves=%d", store.Saves()) }

	if p, err := reg.Lookup("alice"); err != nil || p.ID != alice.ID {
		t.Fatalf("lookup by name: %+v %v", p, err)
	}
	if p, err := reg.Lookup(alice.ID.String()); err != nil || p.Name != "Alice" {
		t.Fatalf("lookup by id: %+v %v", p, err)
	}
	if _, err := reg.Register(ctx, "ALICE"); err != nil { t.Fatalf("Register dup name: %v", err) }
	if _, err := reg.Lookup("Alice"); !errors.Is(err, ErrAmbiguousName) {
		t.Fatalf("expected ErrAmbiguousName, got %v", err)
	}
	if _, err := reg.Lookup("nobody"); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestRegistryRecordResults(t *testing.T) {
	a, _ := NewPlayer("A")
	b, _ := NewPlayer("B")
	store := NewMemoryStore(a, b)
	reg := NewRegistry(store)
	ctx := context.Background()
	if err := reg.Load(ctx); err != nil { t.Fatalf("Load: %v", err) }

	err := reg.RecordResults(ctx, []Result{
		{PlayerID: a.ID, Placement: intPtr(1)},
		{PlayerID: b.ID, Placement: intPtr(2), EliminationRound: intPtr(5)},
		{PlayerID: "ghost-of-nobody", Placement: intPtr(3)},
	})
	if err != nil { t.Fatalf("RecordResults: %v", err) }

	stored, _ := store.Load(ctx)
	if stored[0].Stats.GamesPlayed != 1 || stored[0].Stats.Placements[1] != 1 {
		t.Fatalf("winner stats: %+v", stored[0].Stats)
	}
	if stored[1].Stats.Placements[2] != 1 || stored[1].Stats.EliminationRounds[5] != 1 {
		t.Fatalf("runner-up stats: %+v", stored[1].Stats)
	}
	if len(reg.Players()) != 2 { t.Fatalf("unknown ids must not add players") }
}

type failingStore struct{ Store }

func (failingStore) Save(context.Context, []Player) error { return errors.New("disk full") }

func TestRegistryKeepsStateWhenSaveFails(t *testing.T) {
	a, _ := NewPlayer("A")
	mem := NewMemoryStore(a)
	reg := NewRegistry(failingStore{Store: mem})
	ctx := context.Background()
	if err := reg.Load(ctx); err != nil { t.Fatalf("Load: %v", err) }

	if err := reg.RecordResults(ctx, []Result{{PlayerID: a.ID, Placement: intPtr(1)}}); err == nil {
		t.Fatalf("expected save error")
	}
	got, _ := reg.Get(a.ID)
	if got.Stats.GamesPlayed != 0 { t.Fatalf("failed save must not change roster: %+v", got.Stats) }
	if _, err := reg.Register(ctx, "B"); err == nil { t.Fatalf("expected register save error") }
	if reg.Len() != 1 { t.Fatalf("failed register must not add player") }
}

func intPtr(v int) *int { return &v }
