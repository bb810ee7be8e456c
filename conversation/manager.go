// Package conversation resolves, mutates and commits conversation records.
package conversation

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"dashchat/models"
	"dashchat/store"
)

const (
	titleLimit      = 30
	imageTitleLimit = 25
	imageTitleTag   = " (AI Painting)"
)

// Manager owns the conversation lifecycle over a history store. It is
// stateless between calls; all state lives in the store and in the
// Conversation values it hands out.
type Manager struct {
	store store.Store
	now   func() time.Time
}

// NewManager creates a manager over the given store.
func NewManager(st store.Store) *Manager {
	return &Manager{store: st, now: time.Now}
}

// Resolve returns the conversation for id, or mints a new one when id is
// empty, unknown, or refers to a record with no messages. The returned bool
// reports whether the conversation is new (and therefore not yet persisted).
func (m *Manager) Resolve(ctx context.Context, id, scenario, firstMessage string) (*models.Conversation, bool, error) {
	if id != "" {
		conv, err := m.store.Get(ctx, id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			log.Printf("Conversation %s not found, starting a new conversation", id)
		case err != nil:
			return nil, false, err
		case len(conv.Messages) == 0:
			// An empty record is not a valid target for id reuse.
			log.Printf("Conversation %s has no messages, starting a new conversation", id)
		default:
			m.reconcileScenario(conv, scenario)
			return conv, false, nil
		}
	}

	if scenario == "" {
		scenario = models.ScenarioGeneral
	}
	now := m.now()
	conv := &models.Conversation{
		ID:          uuid.NewString(),
		Title:       deriveTitle(firstMessage, scenario),
		Scenario:    scenario,
		Messages:    []models.Message{},
		CreatedAt:   now,
		LastUpdated: now,
	}
	return conv, true, nil
}

// reconcileScenario applies the requested scenario to an existing record.
// The recorded scenario is never silently replaced: records predating
// scenario tracking adopt the requested one, the image scenario is stamped
// with a warning since image replies render only there, and any other
// mismatch keeps the recorded value.
func (m *Manager) reconcileScenario(conv *models.Conversation, requested string) {
	if requested == "" || requested == conv.Scenario {
		return
	}
	if conv.Scenario == "" {
		conv.Scenario = requested
		return
	}
	if requested == models.ScenarioAIPainting {
		log.Printf("Continuing conversation %s with image generation, though its original scenario was %s", conv.ID, conv.Scenario)
		conv.Scenario = models.ScenarioAIPainting
		return
	}
	log.Printf("Conversation %s keeps scenario %s, ignoring requested %s", conv.ID, conv.Scenario, requested)
}

// AppendUserTurn records a user message.
func (m *Manager) AppendUserTurn(conv *models.Conversation, text, msgType string) {
	conv.Append(models.SenderUser, text, msgType, m.now())
}

// AppendAiTurn records an AI reply.
func (m *Manager) AppendAiTurn(conv *models.Conversation, text, msgType string) {
	conv.Append(models.SenderAI, text, msgType, m.now())
}

// Commit refreshes LastUpdated and writes the conversation, so it sorts
// first in subsequent List calls.
func (m *Manager) Commit(ctx context.Context, conv *models.Conversation) error {
	conv.LastUpdated = m.now()
	return m.store.Put(ctx, conv)
}

// RollbackLastUserTurn removes the most recently appended user message after
// a failed provider call. New conversations are never committed, so for them
// the rollback amounts to discarding the value.
func (m *Manager) RollbackLastUserTurn(conv *models.Conversation, isNew bool) {
	if isNew {
		conv.Messages = conv.Messages[:0]
		return
	}
	n := len(conv.Messages)
	if n > 0 && conv.Messages[n-1].Sender == models.SenderUser {
		conv.Messages = conv.Messages[:n-1]
	}
}

// deriveTitle builds a conversation title from the first message. Image
// conversations get a shorter cut plus a tag, matching the history sidebar.
func deriveTitle(firstMessage, scenario string) string {
	if scenario == models.ScenarioAIPainting {
		return truncate(firstMessage, imageTitleLimit) + imageTitleTag
	}
	return truncate(firstMessage, titleLimit)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
