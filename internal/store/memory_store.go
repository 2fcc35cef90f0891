package store

import (
	"context"
	"sync"

	"dexscreener-extractor/internal/domain"
)

// MemoryStore is an in-process Store used when no Redis is needed, and by tests.
type MemoryStore struct {
	mu       sync.Mutex
	settings domain.StoredSettings
	history  []domain.ExtractionRecord
	subs     map[chan domain.SettingsChange]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[chan domain.SettingsChange]struct{})}
}

func (s *MemoryStore) LoadSettings(ctx context.Context) (domain.StoredSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, nil
}

func (s *MemoryStore) SaveSettings(ctx context.Context, patch domain.SettingsPatch) error {
	if patch.Empty() {
		return nil
	}
	s.mu.Lock()
	s.settings = patch.Apply(s.settings)
	change := domain.SettingsChange{Keys: patch.Keys()}
	for ch := range s.subs {
		select {
		case ch <- change:
		default:
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) AppendHistory(ctx context.Context, rec domain.ExtractionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = domain.AppendHistory(s.history, rec)
	return nil
}

func (s *MemoryStore) History(ctx context.Context) ([]domain.ExtractionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ExtractionRecord(nil), s.history...), nil
}

func (s *MemoryStore) LastRecord(ctx context.Context) (domain.ExtractionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return domain.ExtractionRecord{}, ErrNoHistory
	}
	return s.history[len(s.history)-1], nil
}

func (s *MemoryStore) Subscribe(ctx context.Context) (<-chan domain.SettingsChange, error) {
	ch := make(chan domain.SettingsChange, 16)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.mu.Unlock()
	}()
	return ch, nil
}
