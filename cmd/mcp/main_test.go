package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"dexscreener-extractor/internal/agent"
	"dexscreener-extractor/internal/config"
	"dexscreener-extractor/internal/domain"
	"dexscreener-extractor/internal/job"
	"dexscreener-extractor/internal/repository"
	"dexscreener-extractor/internal/store"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	settings domain.Settings
	history  []domain.ExtractionRecord
	active   *agent.PageInfo
	patches  []domain.SettingsPatch
	sent     []string
	reloaded []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		settings: domain.Settings{WebhookURL: "http://hook", AutoExtractEnabled: true, ExtractInterval: time.Hour},
		active:   &agent.PageInfo{ID: "page-1", Active: true},
	}
}

func (f *fakeAPI) Settings(ctx context.Context) (domain.Settings, error) { return f.settings, nil }

func (f *fakeAPI) SaveSettings(ctx context.Context, patch domain.SettingsPatch) error {
	f.patches = append(f.patches, patch)
	stored := patch.Apply(domain.StoredSettings{
		WebhookURL:         &f.settings.WebhookURL,
		AutoExtractEnabled: &f.settings.AutoExtractEnabled,
		ExtractInterval:    &f.settings.ExtractInterval,
	})
	f.settings = stored.Resolve()
	return nil
}

func (f *fakeAPI) LastRecord(ctx context.Context) (domain.ExtractionRecord, error) {
	if len(f.history) == 0 {
		return domain.ExtractionRecord{}, store.ErrNoHistory
	}
	return f.history[len(f.history)-1], nil
}

func (f *fakeAPI) History(ctx context.Context) ([]domain.ExtractionRecord, error) {
	return f.history, nil
}

func (f *fakeAPI) Archive(ctx context.Context, limit int) ([]repository.ArchivedBatch, error) {
	return []repository.ArchivedBatch{{ID: 3, CapturedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), RowCount: 9}}, nil
}

func (f *fakeAPI) Pages(ctx context.Context) ([]agent.PageInfo, error) { return nil, nil }

func (f *fakeAPI) OpenPage(ctx context.Context, url string, background bool) (agent.PageInfo, error) {
	return agent.PageInfo{ID: "page-2", URL: url, Active: !background}, nil
}

func (f *fakeAPI) Active(ctx context.Context) (agent.PageInfo, error) {
	if f.active == nil {
		return agent.PageInfo{}, agent.ErrNoActivePage
	}
	return *f.active, nil
}

func (f *fakeAPI) Send(ctx context.Context, id string, cmd agent.Command) (agent.Result, error) {
	f.sent = append(f.sent, id+":"+cmd.Action())
	switch cmd.(type) {
	case agent.Extract:
		f.history = append(f.history, domain.ExtractionRecord{Timestamp: "2025-01-01T00:00:00.000Z", RowsExtracted: 4})
		return agent.ExtractResult{Success: true, Count: 4}, nil
	case agent.GetStatus:
		next := "2025-01-01T01:00:00.000Z"
		return agent.StatusResult{Success: true, AutoExtractEnabled: true, ExtractInterval: 3600000, WebhookURL: "http://hook", NextExtraction: &next}, nil
	}
	return nil, errors.New("unexpected command")
}

func (f *fakeAPI) Reload(ctx context.Context, id string) error {
	f.reloaded = append(f.reloaded, id)
	return nil
}

func (f *fakeAPI) SchedulerStatus(ctx context.Context) (job.AlarmStatus, error) {
	next := time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)
	return job.AlarmStatus{Armed: true, PeriodMS: 3600000, Next: &next}, nil
}

func TestMainRunsStdio(t *testing.T) {
	origLoadEnv, origLoadConfig, origLogging, origRun := loadEnvFunc, loadConfigFunc, setupLoggingFunc, runStdioFunc
	defer func() {
		loadEnvFunc, loadConfigFunc, setupLoggingFunc, runStdioFunc = origLoadEnv, origLoadConfig, origLogging, origRun
	}()

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{MCPTransport: "stdio", ControlAPIURL: "http://localhost:8080"}
	}
	setupLoggingFunc = func(string) *log.Logger { return log.Default() }
	ran := false
	runStdioFunc = func(ctx context.Context, s *mcp.Server) error {
		ran = s != nil
		return nil
	}

	main()
	require.True(t, ran)
}

func TestUpdateSettingsPatchesOnlyGivenFields(t *testing.T) {
	api := newFakeAPI()
	tl := &tools{api: api}

	minutes := 15
	_, out, err := tl.updateSettings(context.Background(), nil, updateSettingsInput{ExtractIntervalMinutes: &minutes})
	require.NoError(t, err)
	require.Equal(t, 15, out.ExtractIntervalMinutes)
	require.Equal(t, "http://hook", out.WebhookURL)
	require.Len(t, api.patches, 1)
	require.Nil(t, api.patches[0].WebhookURL)

	_, _, err = tl.updateSettings(context.Background(), nil, updateSettingsInput{})
	require.ErrorContains(t, err, "nothing to update")

	zero := 0
	_, _, err = tl.updateSettings(context.Background(), nil, updateSettingsInput{ExtractIntervalMinutes: &zero})
	require.Error(t, err)
	require.Len(t, api.patches, 1)
}

func TestExtractStatusAndRefreshDefaultToActivePage(t *testing.T) {
	api := newFakeAPI()
	tl := &tools{api: api}
	ctx := context.Background()

	_, ex, err := tl.extract(ctx, nil, pageInput{})
	require.NoError(t, err)
	require.Equal(t, extractOutput{Success: true, Count: 4}, ex)

	_, st, err := tl.getStatus(ctx, nil, pageInput{PageID: "page-1"})
	require.NoError(t, err)
	require.Equal(t, 60, st.ExtractIntervalMinutes)
	require.Equal(t, "2025-01-01T01:00:00.000Z", st.NextExtraction)

	_, _, err = tl.refreshPage(ctx, nil, pageInput{})
	require.NoError(t, err)
	require.Equal(t, []string{"active:extract", "page-1:getStatus"}, api.sent)
	require.Equal(t, []string{"page-1"}, api.reloaded)

	api.active = nil
	_, _, err = tl.refreshPage(ctx, nil, pageInput{})
	require.ErrorIs(t, err, agent.ErrNoActivePage)
}

func TestHistoryLimitAndArchive(t *testing.T) {
	api := newFakeAPI()
	api.history = []domain.ExtractionRecord{{RowsExtracted: 1}, {RowsExtracted: 2}, {RowsExtracted: 3}}
	tl := &tools{api: api}

	_, h, err := tl.getHistory(context.Background(), nil, historyInput{Limit: 2})
	require.NoError(t, err)
	require.Len(t, h.History, 2)
	require.Equal(t, 3, h.History[1].RowsExtracted)

	_, a, err := tl.getArchive(context.Background(), nil, archiveInput{})
	require.NoError(t, err)
	require.Equal(t, "2025-01-02T03:04:05.000Z", a.Batches[0].CapturedAt)

	_, s, err := tl.getScheduler(context.Background(), nil, struct{}{})
	require.NoError(t, err)
	require.Equal(t, schedulerOutput{Armed: true, PeriodMinutes: 60, Next: "2025-01-01T01:00:00.000Z"}, s)
}

func TestControlPanelTool(t *testing.T) {
	api := newFakeAPI()
	tl := &tools{api: api}

	_, out, err := tl.controlPanel(context.Background(), nil, panelInput{Action: "extract"})
	require.NoError(t, err)
	require.Equal(t, "Extracted 4 items", out.Status)
	require.Contains(t, out.LastExtraction, "(4 rows)")

	_, _, err = tl.controlPanel(context.Background(), nil, panelInput{Action: "dance"})
	require.ErrorContains(t, err, "unknown action")
}

func TestNewServerRegistersTools(t *testing.T) {
	require.NotNil(t, newServer(newFakeAPI()))
}
