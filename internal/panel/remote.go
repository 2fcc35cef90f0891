package panel

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dexscreener-extractor/internal/agent"
	"dexscreener-extractor/internal/browser"
	"dexscreener-extractor/internal/domain"
	"dexscreener-extractor/internal/job"
	"dexscreener-extractor/internal/repository"
	"dexscreener-extractor/internal/store"

	"github.com/go-resty/resty/v2"
)

// knownErrors are the sentinels the control API reports by message. They
// are restored so callers can keep using errors.Is across the wire.
var knownErrors = []error{
	agent.ErrNoActivePage,
	agent.ErrNothingToExport,
	agent.ErrBusy,
	agent.ErrInvalidCommand,
	browser.ErrPageNotFound,
	store.ErrNoHistory,
}

type apiError struct {
	Error string `json:"error"`
}

// Remote talks to a running daemon over its HTTP control API. It satisfies
// both Config and Tabs, so a Panel can run in another process.
type Remote struct {
	http *resty.Client
}

func NewRemote(baseURL, apiKey string, client *resty.Client) *Remote {
	if client == nil {
		client = resty.New().SetTimeout(30 * time.Second)
	}
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	if apiKey != "" {
		client.SetHeader("X-API-Key", apiKey)
	}
	return &Remote{http: client}
}

func (r *Remote) do(ctx context.Context, method, path string, body, out any) (*resty.Response, error) {
	req := r.http.R().SetContext(ctx).SetError(&apiError{})
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return resp, responseError(resp)
	}
	return resp, nil
}

func responseError(resp *resty.Response) error {
	msg := ""
	if e, ok := resp.Error().(*apiError); ok {
		msg = e.Error
	}
	if msg == "" {
		return fmt.Errorf("control api responded with %d", resp.StatusCode())
	}
	for _, known := range knownErrors {
		if strings.HasPrefix(msg, known.Error()) {
			return fmt.Errorf("%w%s", known, strings.TrimPrefix(msg, known.Error()))
		}
	}
	return errors.New(msg)
}

func pagePath(id, suffix string) string {
	return "/api/pages/" + id + suffix
}

func (r *Remote) Settings(ctx context.Context) (domain.Settings, error) {
	var s domain.Settings
	_, err := r.do(ctx, http.MethodGet, "/api/settings", nil, &s)
	return s, err
}

func (r *Remote) SaveSettings(ctx context.Context, patch domain.SettingsPatch) error {
	_, err := r.do(ctx, http.MethodPut, "/api/settings", patch, nil)
	return err
}

func (r *Remote) History(ctx context.Context) ([]domain.ExtractionRecord, error) {
	var out struct {
		History []domain.ExtractionRecord `json:"history"`
	}
	_, err := r.do(ctx, http.MethodGet, "/api/history", nil, &out)
	return out.History, err
}

func (r *Remote) LastRecord(ctx context.Context) (domain.ExtractionRecord, error) {
	history, err := r.History(ctx)
	if err != nil {
		return domain.ExtractionRecord{}, err
	}
	if len(history) == 0 {
		return domain.ExtractionRecord{}, store.ErrNoHistory
	}
	return history[len(history)-1], nil
}

func (r *Remote) Archive(ctx context.Context, limit int) ([]repository.ArchivedBatch, error) {
	var out struct {
		Batches []repository.ArchivedBatch `json:"batches"`
	}
	_, err := r.do(ctx, http.MethodGet, "/api/archive?limit="+strconv.Itoa(limit), nil, &out)
	return out.Batches, err
}

func (r *Remote) Pages(ctx context.Context) ([]agent.PageInfo, error) {
	var out struct {
		Pages []agent.PageInfo `json:"pages"`
	}
	_, err := r.do(ctx, http.MethodGet, "/api/pages", nil, &out)
	return out.Pages, err
}

func (r *Remote) Active(ctx context.Context) (agent.PageInfo, error) {
	var info agent.PageInfo
	_, err := r.do(ctx, http.MethodGet, pagePath(agent.ActivePageID, ""), nil, &info)
	return info, err
}

func (r *Remote) OpenPage(ctx context.Context, url string, background bool) (agent.PageInfo, error) {
	var info agent.PageInfo
	body := map[string]any{"url": url, "background": background}
	_, err := r.do(ctx, http.MethodPost, "/api/pages", body, &info)
	return info, err
}

func (r *Remote) Activate(ctx context.Context, id string) error {
	_, err := r.do(ctx, http.MethodPost, pagePath(id, "/activate"), nil, nil)
	return err
}

func (r *Remote) Send(ctx context.Context, id string, cmd agent.Command) (agent.Result, error) {
	resp, err := r.do(ctx, http.MethodPost, pagePath(id, "/commands"), agent.Encode(cmd), nil)
	if err != nil {
		return nil, err
	}
	return agent.DecodeResult(cmd, resp.Body())
}

func (r *Remote) Reload(ctx context.Context, id string) error {
	_, err := r.do(ctx, http.MethodPost, pagePath(id, "/reload"), nil, nil)
	return err
}

func (r *Remote) Navigate(ctx context.Context, id, url string) error {
	_, err := r.do(ctx, http.MethodPost, pagePath(id, "/navigate"), map[string]string{"url": url}, nil)
	return err
}

func (r *Remote) Close(ctx context.Context, id string) error {
	_, err := r.do(ctx, http.MethodDelete, pagePath(id, ""), nil, nil)
	return err
}

// PanelState returns the on-page panel of page id.
func (r *Remote) PanelState(ctx context.Context, id string) (agent.PanelState, error) {
	var state agent.PanelState
	_, err := r.do(ctx, http.MethodGet, pagePath(id, "/panel"), nil, &state)
	return state, err
}

// PanelAction presses one of the on-page controls: extract, auto-extract,
// visibility or webhook. webhookURL is only used by the webhook control.
func (r *Remote) PanelAction(ctx context.Context, id, action, webhookURL string) (agent.PanelState, error) {
	var body any
	if action == "webhook" {
		body = map[string]string{"webhookUrl": webhookURL}
	}
	var state agent.PanelState
	_, err := r.do(ctx, http.MethodPost, pagePath(id, "/panel/"+action), body, &state)
	return state, err
}

// Export downloads the last manual batch of page id.
func (r *Remote) Export(ctx context.Context, id string) (name string, data []byte, err error) {
	resp, err := r.do(ctx, http.MethodGet, pagePath(id, "/export"), nil, nil)
	if err != nil {
		return "", nil, err
	}
	if _, params, perr := mime.ParseMediaType(resp.Header().Get("Content-Disposition")); perr == nil {
		name = params["filename"]
	}
	return name, resp.Body(), nil
}

// SchedulerStatus reports the daemon's recurring alarm.
func (r *Remote) SchedulerStatus(ctx context.Context) (job.AlarmStatus, error) {
	var status job.AlarmStatus
	_, err := r.do(ctx, http.MethodGet, "/api/scheduler", nil, &status)
	return status, err
}
