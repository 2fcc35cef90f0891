package store

import (
	"context"
	"errors"

	"dexscreener-extractor/internal/domain"
)

// ErrNoHistory is returned by LastRecord when nothing has been extracted yet.
var ErrNoHistory = errors.New("no extraction history")

// Store is the shared persistent configuration and history. Writes are
// last-writer-wins; every settings write is announced to subscribers.
type Store interface {
	LoadSettings(ctx context.Context) (domain.StoredSettings, error)
	SaveSettings(ctx context.Context, patch domain.SettingsPatch) error
	AppendHistory(ctx context.Context, rec domain.ExtractionRecord) error
	History(ctx context.Context) ([]domain.ExtractionRecord, error)
	LastRecord(ctx context.Context) (domain.ExtractionRecord, error)
	// Subscribe delivers settings changes until ctx is cancelled.
	Subscribe(ctx context.Context) (<-chan domain.SettingsChange, error)
}

// Settings loads and resolves settings, filling defaults for anything unset.
func Settings(ctx context.Context, s Store) (domain.Settings, error) {
	stored, err := s.LoadSettings(ctx)
	if err != nil {
		return domain.DefaultSettings(), err
	}
	return stored.Resolve(), nil
}
