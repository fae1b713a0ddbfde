// Package journal keeps an append-only record of exchanges and rotations.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"dialogue_ai/config"
	"dialogue_ai/dialogue"
	"dialogue_ai/personality"
	"dialogue_ai/story"
)

// Service records what happened in each session and reads it back.
type Service interface {
	story.Recorder
	Exchanges(ctx context.Context, sessionID string) ([]story.Exchange, error)
	Rotations(ctx context.Context, sessionID string) ([]story.Rotation, error)
	Close() error
}

// New opens the journal selected by cfg.JournalDriver. The "none" driver
// returns a nil Service.
func New(cfg config.Config) (Service, error) {
	switch cfg.JournalDriver {
	case config.JournalSQLite:
		return NewSQLiteService(cfg.JournalDSN)
	case config.JournalPostgres:
		return NewPostgresService(cfg.JournalDSN)
	case config.JournalNone:
		log.Println("[Journal] Disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown journal driver %q", dialogue.ErrInvalidConfiguration, cfg.JournalDriver)
	}
}

const opTimeout = 3 * time.Second

// sqlService is shared by both drivers. Queries are written with '?'
// placeholders and rebound for drivers that number them.
type sqlService struct {
	db       *sql.DB
	numbered bool
}

func (s *sqlService) q(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqlService) RecordExchange(ctx context.Context, e story.Exchange) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, s.q(`
INSERT INTO exchanges (
    session_id, rotation, number, character_id, location_id, option_id,
    player_line, reply, score, mood, fallback, at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`), e.SessionID, e.Rotation, e.Number, e.CharacterID, e.LocationID, e.OptionID,
		e.PlayerLine, e.Reply, e.Score, string(e.Mood), e.Fallback, e.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

func (s *sqlService) RecordRotation(ctx context.Context, r story.Rotation) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, s.q(`
INSERT INTO rotations (session_id, number, from_character, to_character, location_id, at_ms)
VALUES (?, ?, ?, ?, ?, ?)
`), r.SessionID, r.Number, r.FromCharacter, r.ToCharacter, r.LocationID, r.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert rotation: %w", err)
	}
	return nil
}

func (s *sqlService) Exchanges(ctx context.Context, sessionID string) ([]story.Exchange, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.q(`
SELECT rotation, number, character_id, location_id, option_id,
       player_line, reply, score, mood, fallback, at_ms
FROM exchanges
WHERE session_id = ?
ORDER BY id
`), sessionID)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	var out []story.Exchange
	for rows.Next() {
		e := story.Exchange{SessionID: sessionID}
		var mood string
		var atMs int64
		if err := rows.Scan(&e.Rotation, &e.Number, &e.CharacterID, &e.LocationID, &e.OptionID,
			&e.PlayerLine, &e.Reply, &e.Score, &mood, &e.Fallback, &atMs); err != nil {
			return nil, err
		}
		e.Mood = personality.Mood(mood)
		e.At = time.UnixMilli(atMs).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqlService) Rotations(ctx context.Context, sessionID string) ([]story.Rotation, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.q(`
SELECT number, from_character, to_character, location_id, at_ms
FROM rotations
WHERE session_id = ?
ORDER BY id
`), sessionID)
	if err != nil {
		return nil, fmt.Errorf("query rotations: %w", err)
	}
	defer rows.Close()

	var out []story.Rotation
	for rows.Next() {
		r := story.Rotation{SessionID: sessionID}
		var atMs int64
		if err := rows.Scan(&r.Number, &r.FromCharacter, &r.ToCharacter, &r.LocationID, &atMs); err != nil {
			return nil, err
		}
		r.At = time.UnixMilli(atMs).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
