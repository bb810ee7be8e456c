package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"dashchat/models"
)

// PostgresStore persists conversations in a single table, one row per
// conversation with the message log held as JSONB so a Put stays atomic per
// key like the other backends.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle and ensures the schema
// exists.
func NewPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			scenario TEXT NOT NULL,
			messages JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			last_updated TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create conversations table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	var messages []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, scenario, messages, created_at, last_updated FROM conversations WHERE id = $1",
		id).Scan(&conv.ID, &conv.Title, &conv.Scenario, &messages, &conv.CreatedAt, &conv.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation: %w", err)
	}
	if err := json.Unmarshal(messages, &conv.Messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return &conv, nil
}

func (s *PostgresStore) Put(ctx context.Context, conv *models.Conversation) error {
	messages, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, title, scenario, messages, created_at, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			scenario = EXCLUDED.scenario,
			messages = EXCLUDED.messages,
			last_updated = EXCLUDED.last_updated`,
		conv.ID, conv.Title, conv.Scenario, messages, conv.CreatedAt, conv.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to write conversation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM conversations WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM conversations"); err != nil {
		return fmt.Errorf("failed to clear conversations: %w", err)
	}
	return nil
}

// List reads summary columns only; message bodies stay in the database.
func (s *PostgresStore) List(ctx context.Context) ([]models.ConversationSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, scenario, last_updated, jsonb_array_length(messages)
		FROM conversations ORDER BY last_updated DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	summaries := []models.ConversationSummary{}
	for rows.Next() {
		var sum models.ConversationSummary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Scenario, &sum.LastUpdated, &sum.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan conversation summary: %w", err)
		}
		sum.Icon = Icon(sum.Scenario)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}
