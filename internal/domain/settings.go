package domain

import (
	"encoding/json"
	"time"
)

// Persisted setting keys. They double as the names carried in change notifications.
const (
	KeyWebhookURL         = "webhookUrl"
	KeyAutoExtractEnabled = "autoExtractEnabled"
	KeyExtractInterval    = "extractInterval"
	KeyIsPanelVisible     = "isPanelVisible"
	KeyExtractionHistory  = "extractionHistory"
)

const (
	DefaultWebhookURL      = "http://localhost:3000/webhook"
	DefaultExtractInterval = time.Hour
)

// Settings is the single shared configuration instance.
type Settings struct {
	WebhookURL         string
	AutoExtractEnabled bool
	ExtractInterval    time.Duration
	IsPanelVisible     bool
}

// DefaultSettings returns the values written on first install.
func DefaultSettings() Settings {
	return Settings{
		WebhookURL:         DefaultWebhookURL,
		AutoExtractEnabled: true,
		ExtractInterval:    DefaultExtractInterval,
		IsPanelVisible:     true,
	}
}

type settingsJSON struct {
	WebhookURL         string `json:"webhookUrl"`
	AutoExtractEnabled bool   `json:"autoExtractEnabled"`
	ExtractInterval    int64  `json:"extractInterval"`
	IsPanelVisible     bool   `json:"isPanelVisible"`
}

// MarshalJSON encodes the interval as integer milliseconds.
func (s Settings) MarshalJSON() ([]byte, error) {
	return json.Marshal(settingsJSON{
		WebhookURL:         s.WebhookURL,
		AutoExtractEnabled: s.AutoExtractEnabled,
		ExtractInterval:    s.ExtractInterval.Milliseconds(),
		IsPanelVisible:     s.IsPanelVisible,
	})
}

func (s *Settings) UnmarshalJSON(data []byte) error {
	var raw settingsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Settings{
		WebhookURL:         raw.WebhookURL,
		AutoExtractEnabled: raw.AutoExtractEnabled,
		ExtractInterval:    time.Duration(raw.ExtractInterval) * time.Millisecond,
		IsPanelVisible:     raw.IsPanelVisible,
	}
	return nil
}

// StoredSettings is what the store actually holds. A nil field was never written.
type StoredSettings struct {
	WebhookURL         *string
	AutoExtractEnabled *bool
	ExtractInterval    *time.Duration
	IsPanelVisible     *bool
}

// Resolve fills unset or empty values with defaults.
func (s StoredSettings) Resolve() Settings {
	out := DefaultSettings()
	if s.WebhookURL != nil && *s.WebhookURL != "" {
		out.WebhookURL = *s.WebhookURL
	}
	if s.AutoExtractEnabled != nil {
		out.AutoExtractEnabled = *s.AutoExtractEnabled
	}
	if s.ExtractInterval != nil && *s.ExtractInterval > 0 {
		out.ExtractInterval = *s.ExtractInterval
	}
	if s.IsPanelVisible != nil {
		out.IsPanelVisible = *s.IsPanelVisible
	}
	return out
}

// InstallDefaults returns the patch needed to initialize absent settings, and
// whether anything is missing at all.
func (s StoredSettings) InstallDefaults() (SettingsPatch, bool) {
	var patch SettingsPatch
	defaults := DefaultSettings()
	if s.AutoExtractEnabled == nil {
		patch.AutoExtractEnabled = &defaults.AutoExtractEnabled
	}
	if s.ExtractInterval == nil || *s.ExtractInterval <= 0 {
		patch.ExtractInterval = &defaults.ExtractInterval
	}
	if s.WebhookURL == nil || *s.WebhookURL == "" {
		patch.WebhookURL = &defaults.WebhookURL
	}
	return patch, !patch.Empty()
}

// SettingsPatch is a partial settings update. Only non-nil fields are written.
type SettingsPatch struct {
	WebhookURL         *string
	AutoExtractEnabled *bool
	ExtractInterval    *time.Duration
	IsPanelVisible     *bool
}

// PatchFromSettings builds a patch that writes the three user-editable values.
func PatchFromSettings(s Settings) SettingsPatch {
	return SettingsPatch{
		WebhookURL:         &s.WebhookURL,
		AutoExtractEnabled: &s.AutoExtractEnabled,
		ExtractInterval:    &s.ExtractInterval,
	}
}

type patchJSON struct {
	WebhookURL         *string `json:"webhookUrl,omitempty"`
	AutoExtractEnabled *bool   `json:"autoExtractEnabled,omitempty"`
	ExtractInterval    *int64  `json:"extractInterval,omitempty"`
	IsPanelVisible     *bool   `json:"isPanelVisible,omitempty"`
}

// MarshalJSON writes only the fields present in the patch, interval in ms.
func (p SettingsPatch) MarshalJSON() ([]byte, error) {
	raw := patchJSON{
		WebhookURL:         p.WebhookURL,
		AutoExtractEnabled: p.AutoExtractEnabled,
		IsPanelVisible:     p.IsPanelVisible,
	}
	if p.ExtractInterval != nil {
		ms := p.ExtractInterval.Milliseconds()
		raw.ExtractInterval = &ms
	}
	return json.Marshal(raw)
}

func (p *SettingsPatch) UnmarshalJSON(data []byte) error {
	var raw patchJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = SettingsPatch{
		WebhookURL:         raw.WebhookURL,
		AutoExtractEnabled: raw.AutoExtractEnabled,
		IsPanelVisible:     raw.IsPanelVisible,
	}
	if raw.ExtractInterval != nil {
		d := time.Duration(*raw.ExtractInterval) * time.Millisecond
		p.ExtractInterval = &d
	}
	return nil
}

func (p SettingsPatch) Empty() bool {
	return p.WebhookURL == nil && p.AutoExtractEnabled == nil &&
		p.ExtractInterval == nil && p.IsPanelVisible == nil
}

// Keys lists the persisted keys the patch touches.
func (p SettingsPatch) Keys() []string {
	var keys []string
	if p.WebhookURL != nil {
		keys = append(keys, KeyWebhookURL)
	}
	if p.AutoExtractEnabled != nil {
		keys = append(keys, KeyAutoExtractEnabled)
	}
	if p.ExtractInterval != nil {
		keys = append(keys, KeyExtractInterval)
	}
	if p.IsPanelVisible != nil {
		keys = append(keys, KeyIsPanelVisible)
	}
	return keys
}

// Apply writes the patch over stored settings.
func (p SettingsPatch) Apply(s StoredSettings) StoredSettings {
	if p.WebhookURL != nil {
		v := *p.WebhookURL
		s.WebhookURL = &v
	}
	if p.AutoExtractEnabled != nil {
		v := *p.AutoExtractEnabled
		s.AutoExtractEnabled = &v
	}
	if p.ExtractInterval != nil {
		v := *p.ExtractInterval
		s.ExtractInterval = &v
	}
	if p.IsPanelVisible != nil {
		v := *p.IsPanelVisible
		s.IsPanelVisible = &v
	}
	return s
}

// SettingsChange is published after a write and names the keys that changed.
type SettingsChange struct {
	Keys []string `json:"keys"`
}

// Touches reports whether any of keys changed.
func (c SettingsChange) Touches(keys ...string) bool {
	for _, changed := range c.Keys {
		for _, k := range keys {
			if changed == k {
				return true
			}
		}
	}
	return false
}

// IntervalChoices are the periods offered by the control panels.
var IntervalChoices = []time.Duration{
	5 * time.Minute,
	15 * time.Minute,
	30 * time.Minute,
	time.Hour,
	2 * time.Hour,
	4 * time.Hour,
	12 * time.Hour,
	24 * time.Hour,
}
