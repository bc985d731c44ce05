// Package store persists conversation transcripts in postgres. It is the
// durable alternative to the in-memory and redis session stores.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/orbitcrm/assist/internal/assistant/session"
)

// TranscriptStore implements session.Store over a transcripts table with
// one jsonb row per session key. The key already encodes the effective
// role, so a reset or re-login under another role never mixes logs.
type TranscriptStore struct {
	DB *sql.DB
}

// Open connects to postgres and verifies the connection.
func Open(dsn string) (*TranscriptStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &TranscriptStore{DB: db}, nil
}

func (s *TranscriptStore) Close() error { return s.DB.Close() }

func (s *TranscriptStore) Save(ctx context.Context, key string, messages []session.ChatMessage) error {
	if messages == nil {
		messages = []session.ChatMessage{}
	}
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal transcript %s: %w", key, err)
	}
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO transcripts (session_key, messages, created_at, updated_at)
VALUES ($1,$2,NOW(),NOW())
ON CONFLICT (session_key) DO UPDATE SET
  messages   = EXCLUDED.messages,
  updated_at = NOW();
`, key, payload)
	if err != nil {
		return fmt.Errorf("save transcript %s: %w", key, err)
	}
	return nil
}

func (s *TranscriptStore) Load(ctx context.Context, key string) ([]session.ChatMessage, error) {
	var raw []byte
	err := s.DB.QueryRowContext(ctx, `
SELECT messages
FROM transcripts
WHERE session_key=$1
`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load transcript %s: %w", key, err)
	}
	var msgs []session.ChatMessage
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, fmt.Errorf("decode transcript %s: %w", key, err)
	}
	return msgs, nil
}
