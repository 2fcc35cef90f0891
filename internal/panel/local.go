package panel

import (
	"context"

	"dexscreener-extractor/internal/domain"
	"dexscreener-extractor/internal/store"
)

type storeConfig struct {
	store store.Store
}

// FromStore serves panel settings straight from the shared store.
func FromStore(st store.Store) Config {
	return storeConfig{store: st}
}

func (c storeConfig) Settings(ctx context.Context) (domain.Settings, error) {
	return store.Settings(ctx, c.store)
}

func (c storeConfig) SaveSettings(ctx context.Context, patch domain.SettingsPatch) error {
	return c.store.SaveSettings(ctx, patch)
}

func (c storeConfig) LastRecord(ctx context.Context) (domain.ExtractionRecord, error) {
	return c.store.LastRecord(ctx)
}
