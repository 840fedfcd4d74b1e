package archive

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "strings"
    "time"

    _ "github.com/lib/pq"
    "github.com/park285/autobattler-league/internal/domain"
)

var ErrNilRecord = errors.New("nil tournament record")

// Repository stores finished tournaments.
type Repository interface {
    Archive(ctx context.Context, rec *domain.TournamentRecord) error
    Recent(ctx context.Context, limit int) ([]*domain.TournamentRecord, error)
    Close() error
}

const schema = `CREATE TABLE IF NOT EXISTS league_tournaments (
    id            BIGSERIAL PRIMARY KEY,
    session_uuid  TEXT NOT NULL UNIQUE,
    mode          TEXT NOT NULL,
    room_hash     TEXT NOT NULL DEFAULT '',
    champion_id   TEXT NOT NULL DEFAULT '',
    champion_name TEXT NOT NULL DEFAULT '',
    rounds        INTEGER NOT NULL,
    battles       INTEGER NOT NULL,
    final_hand    INTEGER NOT NULL,
    standings     JSONB NOT NULL,
    started_at    TIMESTAMPTZ NOT NULL,
    ended_at      TIMESTAMPTZ NOT NULL,
    duration_ms   BIGINT NOT NULL
)`

type pgRepository struct {
    db *sql.DB
}

// OpenPostgres connects to DATABASE_URL, pings it and ensures the table.
func OpenPostgres(ctx context.Context, databaseURL string) (Repository, error) {
    if strings.TrimSpace(databaseURL) == "" {
        return nil, fmt.Errorf("DATABASE_URL is required")
    }
    db, err := sql.Open("postgres", databaseURL)
    if err != nil {
        return nil, fmt.Errorf("open postgres: %w", err)
    }
    db.SetMaxOpenConns(4)
    db.SetMaxIdleConns(2)
    db.SetConnMaxLifetime(30 * time.Minute)

    pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    if err := db.PingContext(pctx); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("ping postgres: %w", err)
    }
    if _, err := db.ExecContext(pctx, schema); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("create league_tournaments: %w", err)
    }
    return &pgRepository{db: db}, nil
}

func (r *pgRepository) Close() error {
    if r == nil || r.db == nil { return nil }
    return r.db.Close()
}

// Archive upserts by session uuid and stores the assigned id on rec.
func (r *pgRepository) Archive(ctx context.Context, rec *domain.TournamentRecord) error {
    if rec == nil { return ErrNilRecord }
    standings, err := json.Marshal(rec.Standings)
    if err != nil {
        return fmt.Errorf("marshal standings: %w", err)
    }

    const q = `INSERT INTO league_tournaments (
        session_uuid, mode, room_hash, champion_id, champion_name,
        rounds, battles, final_hand, standings,
        started_at, ended_at, duration_ms
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
      ) ON CONFLICT (session_uuid) DO UPDATE SET
        mode=EXCLUDED.mode,
        room_hash=EXCLUDED.room_hash,
        champion_id=EXCLUDED.champion_id,
        champion_name=EXCLUDED.champion_name,
        rounds=EXCLUDED.rounds,
        battles=EXCLUDED.battles,
        final_hand=EXCLUDED.final_hand,
        standings=EXCLUDED.standings,
        started_at=EXCLUDED.started_at,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms
      RETURNING id`

    var id int64
    err = r.db.QueryRowContext(ctx, q,
        rec.SessionUUID, rec.Mode, rec.RoomHash, rec.ChampionID, rec.ChampionName,
        rec.Rounds, rec.Battles, rec.FinalHand, string(standings),
        rec.StartedAt, rec.EndedAt, durationMillis(rec.Duration),
    ).Scan(&id)
    if err != nil {
        return fmt.Errorf("upsert tournament %s: %w", rec.SessionUUID, err)
    }
    rec.ID = id
    return nil
}

func (r *pgRepository) Recent(ctx context.Context, limit int) ([]*domain.TournamentRecord, error) {
    if limit <= 0 { limit = DefaultRecentLimit }
    const q = `SELECT id, session_uuid, mode, room_hash, champion_id, champion_name,
        rounds, battles, final_hand, standings, started_at, ended_at, duration_ms
      FROM league_tournaments
      ORDER BY ended_at DESC, id DESC
      LIMIT $1`
    rows, err := r.db.QueryContext(ctx, q, limit)
    if err != nil {
        return nil, fmt.Errorf("query tournaments: %w", err)
    }
    defer rows.Close()

    out := make([]*domain.TournamentRecord, 0, limit)
    for rows.Next() {
        var (
            rec        domain.TournamentRecord
            standings  []byte
            durationMS int64
        )
        if err := rows.Scan(
            &rec.ID, &rec.SessionUUID, &rec.Mode, &rec.RoomHash, &rec.ChampionID, &rec.ChampionName,
            &rec.Rounds, &rec.Battles, &rec.FinalHand, &standings, &rec.StartedAt, &rec.EndedAt, &durationMS,
        ); err != nil {
            return nil, fmt.Errorf("scan tournament: %w", err)
        }
        if len(standings) > 0 {
            if err := json.Unmarshal(standings, &rec.Standings); err != nil {
                return nil, fmt.Errorf("decode standings %s: %w", rec.SessionUUID, err)
            }
        }
        rec.Duration = time.Duration(durationMS) * time.Millisecond
        out = append(out, &rec)
    }
    return out, rows.Err()
}

func durationMillis(d time.Duration) int64 {
    if d < 0 { return 0 }
    return d.Milliseconds()
}
