package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dexscreener-extractor/internal/agent"
	"dexscreener-extractor/internal/domain"
	"dexscreener-extractor/internal/job"
	"dexscreener-extractor/internal/panel"
	"dexscreener-extractor/internal/repository"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// controlAPI is the part of panel.Remote the tools use.
type controlAPI interface {
	panel.Config
	panel.Tabs
	History(ctx context.Context) ([]domain.ExtractionRecord, error)
	Archive(ctx context.Context, limit int) ([]repository.ArchivedBatch, error)
	Pages(ctx context.Context) ([]agent.PageInfo, error)
	OpenPage(ctx context.Context, url string, background bool) (agent.PageInfo, error)
	SchedulerStatus(ctx context.Context) (job.AlarmStatus, error)
}

type settingsOutput struct {
	WebhookURL             string `json:"webhookUrl"`
	AutoExtractEnabled     bool   `json:"autoExtractEnabled"`
	ExtractIntervalMinutes int    `json:"extractIntervalMinutes"`
}

type updateSettingsInput struct {
	WebhookURL             *string `json:"webhookUrl,omitempty" jsonschema:"Webhook URL extraction batches are POSTed to"`
	AutoExtractEnabled     *bool   `json:"autoExtractEnabled,omitempty" jsonschema:"Whether the recurring extraction runs"`
	ExtractIntervalMinutes *int    `json:"extractIntervalMinutes,omitempty" jsonschema:"Minutes between recurring extractions"`
}

type historyInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Return only the most recent N entries"`
}

type historyOutput struct {
	History []domain.ExtractionRecord `json:"history"`
}

type archiveInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Number of batches, default 20"`
}

type archivedBatch struct {
	ID         int64  `json:"id"`
	CapturedAt string `json:"capturedAt"`
	Source     string `json:"source"`
	Automatic  bool   `json:"isAutomatic"`
	RowCount   int    `json:"rowCount"`
}

type archiveOutput struct {
	Batches []archivedBatch `json:"batches"`
}

type pagesOutput struct {
	Pages []agent.PageInfo `json:"pages"`
}

type openPageInput struct {
	URL        string `json:"url,omitempty" jsonschema:"URL to open, the configured DEXScreener page when empty"`
	Background bool   `json:"background,omitempty" jsonschema:"Open without making the page active"`
}

type pageInput struct {
	PageID string `json:"pageId,omitempty" jsonschema:"Page id, the active page when empty"`
}

type extractOutput struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Error   string `json:"error,omitempty"`
}

type statusOutput struct {
	AutoExtractEnabled     bool   `json:"autoExtractEnabled"`
	ExtractIntervalMinutes int    `json:"extractIntervalMinutes"`
	WebhookURL             string `json:"webhookUrl"`
	NextExtraction         string `json:"nextExtraction,omitempty"`
}

type refreshOutput struct {
	Message string `json:"message"`
}

type schedulerOutput struct {
	Armed         bool   `json:"armed"`
	PeriodMinutes int    `json:"periodMinutes"`
	Next          string `json:"next,omitempty"`
}

type panelInput struct {
	Action string `json:"action,omitempty" jsonschema:"One of open, extract, refresh. Defaults to open"`
}

type panelOutput struct {
	WebhookURL             string `json:"webhookUrl"`
	AutoExtractEnabled     bool   `json:"autoExtractEnabled"`
	ExtractIntervalMinutes int    `json:"extractIntervalMinutes"`
	Status                 string `json:"status"`
	NextExtraction         string `json:"nextExtraction,omitempty"`
	LastExtraction         string `json:"lastExtraction,omitempty"`
}

type tools struct {
	api controlAPI
}

func minutes(d time.Duration) int { return int(d / time.Minute) }

func pageID(id string) string {
	if id == "" {
		return agent.ActivePageID
	}
	return id
}

func (t *tools) getSettings(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, settingsOutput, error) {
	s, err := t.api.Settings(ctx)
	if err != nil {
		return nil, settingsOutput{}, err
	}
	return nil, settingsOutput{
		WebhookURL:             s.WebhookURL,
		AutoExtractEnabled:     s.AutoExtractEnabled,
		ExtractIntervalMinutes: minutes(s.ExtractInterval),
	}, nil
}

func (t *tools) updateSettings(ctx context.Context, req *mcp.CallToolRequest, in updateSettingsInput) (*mcp.CallToolResult, settingsOutput, error) {
	var patch domain.SettingsPatch
	if in.WebhookURL != nil {
		if *in.WebhookURL == "" {
			return nil, settingsOutput{}, errors.New("webhookUrl cannot be empty")
		}
		patch.WebhookURL = in.WebhookURL
	}
	patch.AutoExtractEnabled = in.AutoExtractEnabled
	if in.ExtractIntervalMinutes != nil {
		if *in.ExtractIntervalMinutes <= 0 {
			return nil, settingsOutput{}, errors.New("extractIntervalMinutes must be positive")
		}
		d := time.Duration(*in.ExtractIntervalMinutes) * time.Minute
		patch.ExtractInterval = &d
	}
	if patch.Empty() {
		return nil, settingsOutput{}, errors.New("nothing to update")
	}
	if err := t.api.SaveSettings(ctx, patch); err != nil {
		return nil, settingsOutput{}, err
	}
	return t.getSettings(ctx, req, struct{}{})
}

func (t *tools) getHistory(ctx context.Context, _ *mcp.CallToolRequest, in historyInput) (*mcp.CallToolResult, historyOutput, error) {
	history, err := t.api.History(ctx)
	if err != nil {
		return nil, historyOutput{}, err
	}
	if in.Limit > 0 && len(history) > in.Limit {
		history = history[len(history)-in.Limit:]
	}
	if history == nil {
		history = []domain.ExtractionRecord{}
	}
	return nil, historyOutput{History: history}, nil
}

func (t *tools) getArchive(ctx context.Context, _ *mcp.CallToolRequest, in archiveInput) (*mcp.CallToolResult, archiveOutput, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = 20
	}
	batches, err := t.api.Archive(ctx, limit)
	if err != nil {
		return nil, archiveOutput{}, err
	}
	out := archiveOutput{Batches: make([]archivedBatch, 0, len(batches))}
	for _, b := range batches {
		out.Batches = append(out.Batches, archivedBatch{
			ID:         b.ID,
			CapturedAt: domain.FormatTimestamp(b.CapturedAt),
			Source:     b.Source,
			Automatic:  b.Automatic,
			RowCount:   b.RowCount,
		})
	}
	return nil, out, nil
}

func (t *tools) listPages(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, pagesOutput, error) {
	pages, err := t.api.Pages(ctx)
	if err != nil {
		return nil, pagesOutput{}, err
	}
	if pages == nil {
		pages = []agent.PageInfo{}
	}
	return nil, pagesOutput{Pages: pages}, nil
}

func (t *tools) openPage(ctx context.Context, _ *mcp.CallToolRequest, in openPageInput) (*mcp.CallToolResult, agent.PageInfo, error) {
	info, err := t.api.OpenPage(ctx, in.URL, in.Background)
	return nil, info, err
}

func (t *tools) extract(ctx context.Context, _ *mcp.CallToolRequest, in pageInput) (*mcp.CallToolResult, extractOutput, error) {
	res, err := t.api.Send(ctx, pageID(in.PageID), agent.Extract{})
	if err != nil {
		return nil, extractOutput{}, err
	}
	r, ok := res.(agent.ExtractResult)
	if !ok {
		return nil, extractOutput{}, fmt.Errorf("unexpected extract result %T", res)
	}
	return nil, extractOutput{Success: r.Success, Count: r.Count, Error: r.Error}, nil
}

func (t *tools) getStatus(ctx context.Context, _ *mcp.CallToolRequest, in pageInput) (*mcp.CallToolResult, statusOutput, error) {
	res, err := t.api.Send(ctx, pageID(in.PageID), agent.GetStatus{})
	if err != nil {
		return nil, statusOutput{}, err
	}
	r, ok := res.(agent.StatusResult)
	if !ok {
		return nil, statusOutput{}, fmt.Errorf("unexpected status result %T", res)
	}
	out := statusOutput{
		AutoExtractEnabled:     r.AutoExtractEnabled,
		ExtractIntervalMinutes: minutes(time.Duration(r.ExtractInterval) * time.Millisecond),
		WebhookURL:             r.WebhookURL,
	}
	if r.NextExtraction != nil {
		out.NextExtraction = *r.NextExtraction
	}
	return nil, out, nil
}

func (t *tools) refreshPage(ctx context.Context, _ *mcp.CallToolRequest, in pageInput) (*mcp.CallToolResult, refreshOutput, error) {
	id := pageID(in.PageID)
	if id == agent.ActivePageID {
		page, err := t.api.Active(ctx)
		if err != nil {
			return nil, refreshOutput{}, err
		}
		id = page.ID
	}
	if err := t.api.Reload(ctx, id); err != nil {
		return nil, refreshOutput{}, err
	}
	return nil, refreshOutput{Message: "Page refreshed"}, nil
}

func (t *tools) getScheduler(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, schedulerOutput, error) {
	status, err := t.api.SchedulerStatus(ctx)
	if err != nil {
		return nil, schedulerOutput{}, err
	}
	out := schedulerOutput{
		Armed:         status.Armed,
		PeriodMinutes: minutes(time.Duration(status.PeriodMS) * time.Millisecond),
	}
	if status.Next != nil {
		out.Next = domain.FormatTimestamp(*status.Next)
	}
	return nil, out, nil
}

func (t *tools) controlPanel(ctx context.Context, _ *mcp.CallToolRequest, in panelInput) (*mcp.CallToolResult, panelOutput, error) {
	p := panel.New(t.api, t.api, 0)
	defer p.Close()

	v, err := p.Open(ctx)
	if err != nil {
		return nil, panelOutput{}, err
	}
	switch in.Action {
	case "", "open":
	case "extract":
		v = p.Extract(ctx)
	case "refresh":
		v = p.Refresh(ctx)
	default:
		return nil, panelOutput{}, fmt.Errorf("unknown action %q", in.Action)
	}
	return nil, panelOutput{
		WebhookURL:             v.WebhookURL,
		AutoExtractEnabled:     v.AutoExtractEnabled,
		ExtractIntervalMinutes: minutes(v.ExtractInterval),
		Status:                 v.Status,
		NextExtraction:         v.NextExtraction,
		LastExtraction:         v.LastExtraction,
	}, nil
}

func newServer(api controlAPI) *mcp.Server {
	t := &tools{api: api}
	server := mcp.NewServer(&mcp.Implementation{Name: "dexscreener-extractor", Version: "1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{Name: "get_settings", Description: "Read the shared extractor settings."}, t.getSettings)
	mcp.AddTool(server, &mcp.Tool{Name: "update_settings", Description: "Change the webhook URL, auto-extract flag or interval. Omitted fields keep their value."}, t.updateSettings)
	mcp.AddTool(server, &mcp.Tool{Name: "get_history", Description: "Recorded extractions, oldest first."}, t.getHistory)
	mcp.AddTool(server, &mcp.Tool{Name: "get_archive", Description: "Recently archived batches. Fails when the archive is not configured."}, t.getArchive)
	mcp.AddTool(server, &mcp.Tool{Name: "list_pages", Description: "Pages the extractor has open."}, t.listPages)
	mcp.AddTool(server, &mcp.Tool{Name: "open_page", Description: "Open a DEXScreener page and attach an agent to it."}, t.openPage)
	mcp.AddTool(server, &mcp.Tool{Name: "extract", Description: "Extract the pair table of a page and POST it to the webhook."}, t.extract)
	mcp.AddTool(server, &mcp.Tool{Name: "get_status", Description: "Auto-extract state and next scheduled run of a page."}, t.getStatus)
	mcp.AddTool(server, &mcp.Tool{Name: "refresh_page", Description: "Reload a page."}, t.refreshPage)
	mcp.AddTool(server, &mcp.Tool{Name: "get_scheduler", Description: "Whether the recurring extraction is armed and when it fires next."}, t.getScheduler)
	mcp.AddTool(server, &mcp.Tool{Name: "control_panel", Description: "Open the control panel, optionally pressing extract or refresh."}, t.controlPanel)
	return server
}
