package store

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/orbitcrm/assist/internal/assistant/session"
)

func TestSaveTranscriptUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &TranscriptStore{DB: db}
	msgs := []session.ChatMessage{
		{ID: "m1", Role: session.RoleUser, Content: "hi", Timestamp: time.Now().UTC()},
		{ID: "m2", Role: session.RoleAssistant, Content: "Hello!", Timestamp: time.Now().UTC()},
	}
	payload, _ := json.Marshal(msgs)

	query := regexp.QuoteMeta(`
INSERT INTO transcripts (session_key, messages, created_at, updated_at)
VALUES ($1,$2,NOW(),NOW())
ON CONFLICT (session_key) DO UPDATE SET
  messages   = EXCLUDED.messages,
  updated_at = NOW();
`)
	mock.ExpectExec(query).
		WithArgs("customer:alice", payload).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := st.Save(context.Background(), "customer:alice", msgs); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveTranscriptNilMessagesStoresEmptyArray(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &TranscriptStore{DB: db}
	mock.ExpectExec("INSERT INTO transcripts").
		WithArgs("customer:bob", []byte("[]")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := st.Save(context.Background(), "customer:bob", nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLoadTranscript(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &TranscriptStore{DB: db}
	stored := []session.ChatMessage{
		{ID: "m1", Role: session.RoleUser, Content: "where are my deals", Timestamp: time.Now().UTC().Truncate(time.Second)},
	}
	payload, _ := json.Marshal(stored)

	query := regexp.QuoteMeta(`
SELECT messages
FROM transcripts
WHERE session_key=$1
`)
	mock.ExpectQuery(query).
		WithArgs("employee:carol").
		WillReturnRows(sqlmock.NewRows([]string{"messages"}).AddRow(payload))

	got, err := st.Load(context.Background(), "employee:carol")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].Content != "where are my deals" || got[0].Role != session.RoleUser {
		t.Fatalf("loaded = %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLoadTranscriptMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &TranscriptStore{DB: db}
	mock.ExpectQuery("SELECT messages").
		WithArgs("customer:nobody").
		WillReturnRows(sqlmock.NewRows([]string{"messages"}))

	got, err := st.Load(context.Background(), "customer:nobody")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Fatalf("missing transcript must load as nil, got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
