package panel

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dexscreener-extractor/internal/agent"
	"dexscreener-extractor/internal/browser"
	"dexscreener-extractor/internal/domain"
	"dexscreener-extractor/internal/store"

	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRemoteTalksToControlAPI(t *testing.T) {
	var savedBody string
	var command agent.Envelope
	mux := http.NewServeMux()
	mux.HandleFunc("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing X-API-Key header"})
			return
		}
		if r.Method == http.MethodPut {
			body, _ := io.ReadAll(r.Body)
			savedBody = string(body)
			writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
			return
		}
		writeJSON(w, http.StatusOK, domain.Settings{WebhookURL: "http://h", AutoExtractEnabled: true, ExtractInterval: 30 * time.Minute})
	})
	mux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"history": []domain.ExtractionRecord{{RowsExtracted: 1}, {RowsExtracted: 2}}})
	})
	mux.HandleFunc("/api/pages/active", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, agent.PageInfo{ID: "page-3", Active: true})
	})
	mux.HandleFunc("/api/pages/page-3/commands", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&command)
		writeJSON(w, http.StatusOK, agent.ExtractResult{Success: true, Count: 4})
	})
	mux.HandleFunc("/api/pages/page-9/commands", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "page not found: page-9"})
	})
	mux.HandleFunc("/api/pages/page-3/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="dexscreener_data_x.json"`)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	remote := NewRemote(srv.URL+"/", "secret", nil)
	ctx := context.Background()

	settings, err := remote.Settings(ctx)
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, settings.ExtractInterval)

	interval := time.Hour
	require.NoError(t, remote.SaveSettings(ctx, domain.SettingsPatch{ExtractInterval: &interval}))
	require.JSONEq(t, `{"extractInterval":3600000}`, savedBody)

	last, err := remote.LastRecord(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, last.RowsExtracted)

	page, err := remote.Active(ctx)
	require.NoError(t, err)
	res, err := remote.Send(ctx, page.ID, agent.Extract{AutoClose: true})
	require.NoError(t, err)
	require.Equal(t, agent.ExtractResult{Success: true, Count: 4}, res)
	require.Equal(t, agent.ActionExtract, command.Action)
	require.True(t, *command.AutoClose)

	_, err = remote.Send(ctx, "page-9", agent.GetStatus{})
	require.ErrorIs(t, err, browser.ErrPageNotFound)

	name, data, err := remote.Export(ctx, "page-3")
	require.NoError(t, err)
	require.Equal(t, "dexscreener_data_x.json", name)
	require.Equal(t, "[]", string(data))
}

func TestRemoteMapsSentinelErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/pages/active":
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active page"})
		case "/api/history":
			writeJSON(w, http.StatusOK, map[string]any{"history": []domain.ExtractionRecord{}})
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	remote := NewRemote(srv.URL, "", nil)
	ctx := context.Background()

	_, err := remote.Active(ctx)
	require.ErrorIs(t, err, agent.ErrNoActivePage)

	_, err = remote.LastRecord(ctx)
	require.ErrorIs(t, err, store.ErrNoHistory)

	_, err = remote.Pages(ctx)
	require.EqualError(t, err, "control api responded with 502")
}

func TestPanelOverRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/settings":
			writeJSON(w, http.StatusOK, domain.DefaultSettings())
		case "/api/history":
			writeJSON(w, http.StatusOK, map[string]any{"history": []domain.ExtractionRecord{}})
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active page"})
		}
	}))
	defer srv.Close()

	remote := NewRemote(srv.URL, "", nil)
	p := New(remote, remote, 0)
	view, err := p.Open(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.DefaultWebhookURL, view.WebhookURL)
	require.Empty(t, view.LastExtraction)
	require.Equal(t, StatusNoTab, p.Extract(context.Background()).Status)
}
