// Package store persists conversation history keyed by conversation id.
//
// Three backends implement the same contract: an in-memory map, a flat JSON
// file, and Postgres. Writes are atomic per conversation id; there is no
// cross-key transactional guarantee.
package store

import (
	"context"
	"errors"

	"dashchat/models"
)

// ErrNotFound is returned when a conversation id has no backing record.
// Callers must treat it as "start fresh", never as fatal.
var ErrNotFound = errors.New("conversation not found")

// Store is the conversation history contract.
type Store interface {
	// Get returns the conversation for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Conversation, error)
	// Put durably writes the conversation under its id.
	Put(ctx context.Context, conv *models.Conversation) error
	// Delete removes the conversation, returning ErrNotFound if absent.
	Delete(ctx context.Context, id string) error
	// DeleteAll removes every conversation.
	DeleteAll(ctx context.Context) error
	// List returns summaries of all conversations, most recently
	// updated first.
	List(ctx context.Context) ([]models.ConversationSummary, error)
}

// Icon returns the sidebar icon class for a scenario.
func Icon(scenario string) string {
	if scenario == models.ScenarioAIPainting {
		return "fas fa-palette"
	}
	return "fas fa-comments"
}

func summarize(conv *models.Conversation) models.ConversationSummary {
	return models.ConversationSummary{
		ID:           conv.ID,
		Title:        conv.Title,
		Scenario:     conv.Scenario,
		LastUpdated:  conv.LastUpdated,
		MessageCount: len(conv.Messages),
		Icon:         Icon(conv.Scenario),
	}
}
