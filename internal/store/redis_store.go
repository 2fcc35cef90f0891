package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"dexscreener-extractor/internal/domain"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

const (
	KeyPrefix      = "dexextract:"
	ChangesChannel = KeyPrefix + "changes"
)

type RedisClient interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	MSet(ctx context.Context, values ...interface{}) *redis.StatusCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	LIndex(ctx context.Context, key string, index int64) *redis.StringCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

type RedisStore struct {
	client RedisClient
}

func NewRedisStore(client RedisClient) *RedisStore {
	return &RedisStore{client: client}
}

func key(name string) string { return KeyPrefix + name }

func (s *RedisStore) LoadSettings(ctx context.Context) (domain.StoredSettings, error) {
	vals, err := s.client.MGet(ctx,
		key(domain.KeyWebhookURL),
		key(domain.KeyAutoExtractEnabled),
		key(domain.KeyExtractInterval),
		key(domain.KeyIsPanelVisible),
	).Result()
	if err != nil {
		return domain.StoredSettings{}, fmt.Errorf("load settings: %w", err)
	}

	var out domain.StoredSettings
	if v, ok := stringAt(vals, 0); ok {
		out.WebhookURL = &v
	}
	if v, ok := stringAt(vals, 1); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			out.AutoExtractEnabled = &b
		}
	}
	if v, ok := stringAt(vals, 2); ok {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			d := time.Duration(ms) * time.Millisecond
			out.ExtractInterval = &d
		}
	}
	if v, ok := stringAt(vals, 3); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			out.IsPanelVisible = &b
		}
	}
	return out, nil
}

func stringAt(vals []interface{}, i int) (string, bool) {
	if i >= len(vals) || vals[i] == nil {
		return "", false
	}
	s, ok := vals[i].(string)
	return s, ok
}

func (s *RedisStore) SaveSettings(ctx context.Context, patch domain.SettingsPatch) error {
	if patch.Empty() {
		return nil
	}

	var pairs []interface{}
	if patch.WebhookURL != nil {
		pairs = append(pairs, key(domain.KeyWebhookURL), *patch.WebhookURL)
	}
	if patch.AutoExtractEnabled != nil {
		pairs = append(pairs, key(domain.KeyAutoExtractEnabled), strconv.FormatBool(*patch.AutoExtractEnabled))
	}
	if patch.ExtractInterval != nil {
		pairs = append(pairs, key(domain.KeyExtractInterval), strconv.FormatInt(patch.ExtractInterval.Milliseconds(), 10))
	}
	if patch.IsPanelVisible != nil {
		pairs = append(pairs, key(domain.KeyIsPanelVisible), strconv.FormatBool(*patch.IsPanelVisible))
	}

	if err := s.client.MSet(ctx, pairs...).Err(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	msg, err := json.Marshal(domain.SettingsChange{Keys: patch.Keys()})
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, ChangesChannel, msg).Err(); err != nil {
		// The write itself succeeded; only listeners miss this change.
		log.Warn("publish settings change failed", "err", err)
	}
	return nil
}

func (s *RedisStore) AppendHistory(ctx context.Context, rec domain.ExtractionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	histKey := key(domain.KeyExtractionHistory)
	if err := s.client.RPush(ctx, histKey, data).Err(); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	if err := s.client.LTrim(ctx, histKey, -domain.HistoryCapacity, -1).Err(); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return nil
}

func (s *RedisStore) History(ctx context.Context) ([]domain.ExtractionRecord, error) {
	vals, err := s.client.LRange(ctx, key(domain.KeyExtractionHistory), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	history := make([]domain.ExtractionRecord, 0, len(vals))
	for _, v := range vals {
		var rec domain.ExtractionRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			log.Warn("skipping malformed history entry", "err", err)
			continue
		}
		history = append(history, rec)
	}
	return history, nil
}

func (s *RedisStore) LastRecord(ctx context.Context) (domain.ExtractionRecord, error) {
	v, err := s.client.LIndex(ctx, key(domain.KeyExtractionHistory), -1).Result()
	if errors.Is(err, redis.Nil) {
		return domain.ExtractionRecord{}, ErrNoHistory
	}
	if err != nil {
		return domain.ExtractionRecord{}, fmt.Errorf("load last record: %w", err)
	}
	var rec domain.ExtractionRecord
	if err := json.Unmarshal([]byte(v), &rec); err != nil {
		return domain.ExtractionRecord{}, fmt.Errorf("decode last record: %w", err)
	}
	return rec, nil
}

func (s *RedisStore) Subscribe(ctx context.Context) (<-chan domain.SettingsChange, error) {
	ps := s.client.Subscribe(ctx, ChangesChannel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", ChangesChannel, err)
	}

	out := make(chan domain.SettingsChange, 16)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				change, err := decodeChange(msg.Payload)
				if err != nil {
					log.Warn("ignoring malformed settings change", "payload", msg.Payload, "err", err)
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func decodeChange(payload string) (domain.SettingsChange, error) {
	var change domain.SettingsChange
	err := json.Unmarshal([]byte(payload), &change)
	return change, err
}
