package store

import (
	"context"
	"sort"
	"sync"

	"dashchat/models"
)

// MemoryStore keeps conversations in a map. It backs tests and has no
// durability.
type MemoryStore struct {
	mu    sync.RWMutex
	convs map[string]models.Conversation
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{convs: make(map[string]models.Conversation)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.convs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneConversation(&conv), nil
}

func (s *MemoryStore) Put(_ context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.convs[conv.ID] = *cloneConversation(conv)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.convs[id]; !ok {
		return ErrNotFound
	}
	delete(s.convs, id)
	return nil
}

func (s *MemoryStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.convs = make(map[string]models.Conversation)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]models.ConversationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]models.ConversationSummary, 0, len(s.convs))
	for id := range s.convs {
		conv := s.convs[id]
		summaries = append(summaries, summarize(&conv))
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastUpdated.After(summaries[j].LastUpdated)
	})
	return summaries, nil
}

func cloneConversation(conv *models.Conversation) *models.Conversation {
	clone := *conv
	clone.Messages = make([]models.Message, len(conv.Messages))
	copy(clone.Messages, conv.Messages)
	return &clone
}
