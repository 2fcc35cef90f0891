package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidCommand = errors.New("invalid command")

// Action names as they appear on the wire.
const (
	ActionExtract               = "extract"
	ActionRefresh               = "refresh"
	ActionUpdateWebhook         = "updateWebhook"
	ActionUpdateAutoExtract     = "updateAutoExtract"
	ActionUpdateExtractInterval = "updateExtractInterval"
	ActionGetStatus             = "getStatus"
)

// Command is the closed set of requests a page agent understands.
type Command interface {
	Action() string
}

type Extract struct {
	// AutoClose marks a scheduler-opened page; the run counts as automatic.
	AutoClose bool
}

type Refresh struct{}

type UpdateWebhook struct {
	WebhookURL string
}

type UpdateAutoExtract struct {
	Enabled bool
}

type UpdateExtractInterval struct {
	Interval time.Duration
}

type GetStatus struct{}

func (Extract) Action() string               { return ActionExtract }
func (Refresh) Action() string               { return ActionRefresh }
func (UpdateWebhook) Action() string         { return ActionUpdateWebhook }
func (UpdateAutoExtract) Action() string     { return ActionUpdateAutoExtract }
func (UpdateExtractInterval) Action() string { return ActionUpdateExtractInterval }
func (GetStatus) Action() string             { return ActionGetStatus }

// Result is the typed response to a Command. Every result reports success.
type Result interface {
	OK() bool
}

type ExtractResult struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Error   string `json:"error,omitempty"`
}

type RefreshResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type UpdateWebhookResult struct {
	Success bool `json:"success"`
}

type UpdateAutoExtractResult struct {
	Success            bool `json:"success"`
	AutoExtractEnabled bool `json:"autoExtractEnabled"`
}

type UpdateExtractIntervalResult struct {
	Success         bool  `json:"success"`
	ExtractInterval int64 `json:"extractInterval"`
}

type StatusResult struct {
	Success            bool    `json:"success"`
	AutoExtractEnabled bool    `json:"autoExtractEnabled"`
	ExtractInterval    int64   `json:"extractInterval"`
	WebhookURL         string  `json:"webhookUrl"`
	NextExtraction     *string `json:"nextExtraction"`
}

func (r ExtractResult) OK() bool               { return r.Success }
func (r RefreshResult) OK() bool               { return r.Success }
func (r UpdateWebhookResult) OK() bool         { return r.Success }
func (r UpdateAutoExtractResult) OK() bool     { return r.Success }
func (r UpdateExtractIntervalResult) OK() bool { return r.Success }
func (r StatusResult) OK() bool                { return r.Success }

// NextExtractionTime parses NextExtraction. ok is false when the local timer is disarmed.
func (r StatusResult) NextExtractionTime() (t time.Time, ok bool) {
	if r.NextExtraction == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, *r.NextExtraction)
	return t, err == nil
}

// Envelope is the wire form of a Command.
type Envelope struct {
	Action     string  `json:"action"`
	WebhookURL *string `json:"webhookUrl,omitempty"`
	Enabled    *bool   `json:"enabled,omitempty"`
	Interval   *int64  `json:"interval,omitempty"`
	AutoClose  *bool   `json:"autoClose,omitempty"`
}

// Decode validates the envelope and returns the matching Command.
func (e Envelope) Decode() (Command, error) {
	switch e.Action {
	case ActionExtract:
		return Extract{AutoClose: e.AutoClose != nil && *e.AutoClose}, nil
	case ActionRefresh:
		return Refresh{}, nil
	case ActionUpdateWebhook:
		if e.WebhookURL == nil || *e.WebhookURL == "" {
			return nil, fmt.Errorf("%w: %s requires webhookUrl", ErrInvalidCommand, e.Action)
		}
		return UpdateWebhook{WebhookURL: *e.WebhookURL}, nil
	case ActionUpdateAutoExtract:
		if e.Enabled == nil {
			return nil, fmt.Errorf("%w: %s requires enabled", ErrInvalidCommand, e.Action)
		}
		return UpdateAutoExtract{Enabled: *e.Enabled}, nil
	case ActionUpdateExtractInterval:
		if e.Interval == nil || *e.Interval <= 0 {
			return nil, fmt.Errorf("%w: %s requires a positive interval", ErrInvalidCommand, e.Action)
		}
		return UpdateExtractInterval{Interval: time.Duration(*e.Interval) * time.Millisecond}, nil
	case ActionGetStatus:
		return GetStatus{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidCommand, e.Action)
	}
}

// Encode returns the wire form of cmd.
func Encode(cmd Command) Envelope {
	env := Envelope{Action: cmd.Action()}
	switch c := cmd.(type) {
	case Extract:
		if c.AutoClose {
			env.AutoClose = &c.AutoClose
		}
	case UpdateWebhook:
		env.WebhookURL = &c.WebhookURL
	case UpdateAutoExtract:
		env.Enabled = &c.Enabled
	case UpdateExtractInterval:
		ms := c.Interval.Milliseconds()
		env.Interval = &ms
	}
	return env
}

// DecodeResult decodes the JSON response to cmd into its typed Result.
func DecodeResult(cmd Command, data []byte) (Result, error) {
	switch cmd.(type) {
	case Extract:
		var r ExtractResult
		err := json.Unmarshal(data, &r)
		return r, err
	case Refresh:
		var r RefreshResult
		err := json.Unmarshal(data, &r)
		return r, err
	case UpdateWebhook:
		var r UpdateWebhookResult
		err := json.Unmarshal(data, &r)
		return r, err
	case UpdateAutoExtract:
		var r UpdateAutoExtractResult
		err := json.Unmarshal(data, &r)
		return r, err
	case UpdateExtractInterval:
		var r UpdateExtractIntervalResult
		err := json.Unmarshal(data, &r)
		return r, err
	case GetStatus:
		var r StatusResult
		err := json.Unmarshal(data, &r)
		return r, err
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidCommand, cmd)
	}
}
