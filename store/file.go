package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"dashchat/models"
)

// FileStore persists all conversations as a single JSON array file, the
// default backend when no database is configured.
//
// The whole file is rewritten on every mutation via a temp file and rename,
// so a crash mid-write never leaves a truncated history behind. A process
// mutex serializes mutations; concurrent processes sharing one file are not
// supported.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by the JSON file at path. The file is
// created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get(_ context.Context, id string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range convs {
		if convs[i].ID == id {
			return &convs[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *FileStore) Put(_ context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs, err := s.load()
	if err != nil {
		return err
	}
	// Replace in place, or prepend so the newest conversation leads the file.
	replaced := false
	for i := range convs {
		if convs[i].ID == conv.ID {
			convs[i] = *conv
			replaced = true
			break
		}
	}
	if !replaced {
		convs = append([]models.Conversation{*conv}, convs...)
	}
	return s.save(convs)
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs, err := s.load()
	if err != nil {
		return err
	}
	kept := convs[:0]
	for i := range convs {
		if convs[i].ID != id {
			kept = append(kept, convs[i])
		}
	}
	if len(kept) == len(convs) {
		return ErrNotFound
	}
	return s.save(kept)
}

func (s *FileStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save([]models.Conversation{})
}

func (s *FileStore) List(_ context.Context) ([]models.ConversationSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs, err := s.load()
	if err != nil {
		return nil, err
	}
	summaries := make([]models.ConversationSummary, 0, len(convs))
	for i := range convs {
		summaries = append(summaries, summarize(&convs[i]))
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastUpdated.After(summaries[j].LastUpdated)
	})
	return summaries, nil
}

// load reads the history file. A missing or unreadable file yields an empty
// history rather than an error.
func (s *FileStore) load() ([]models.Conversation, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("History file unreadable, starting fresh: %v", err)
		}
		return []models.Conversation{}, nil
	}
	var convs []models.Conversation
	if err := json.Unmarshal(data, &convs); err != nil {
		log.Printf("History file corrupt, starting fresh: %v", err)
		return []models.Conversation{}, nil
	}
	return convs, nil
}

func (s *FileStore) save(convs []models.Conversation) error {
	data, err := json.MarshalIndent(convs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".chat_history-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close history file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace history file: %w", err)
	}
	return nil
}
