package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// NewPostgresService connects to Postgres and creates the journal tables
// when they are missing.
func NewPostgresService(dsn string) (Service, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("empty postgres dsn")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensurePostgresSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Println("[Journal] Postgres journal connected")
	return &sqlService{db: db, numbered: true}, nil
}

func ensurePostgresSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS exchanges (
    id BIGSERIAL PRIMARY KEY,
    session_id TEXT NOT NULL,
    rotation INTEGER NOT NULL,
    number INTEGER NOT NULL,
    character_id TEXT NOT NULL,
    location_id TEXT NOT NULL,
    option_id INTEGER NOT NULL,
    player_line TEXT NOT NULL,
    reply TEXT NOT NULL,
    score INTEGER NOT NULL,
    mood TEXT NOT NULL,
    fallback BOOLEAN NOT NULL DEFAULT FALSE,
    at_ms BIGINT NOT NULL
)`)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS rotations (
    id BIGSERIAL PRIMARY KEY,
    session_id TEXT NOT NULL,
    number INTEGER NOT NULL,
    from_character TEXT NOT NULL,
    to_character TEXT NOT NULL,
    location_id TEXT NOT NULL,
    at_ms BIGINT NOT NULL
)`)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS exchanges_session_idx ON exchanges (session_id)`)
	return err
}
