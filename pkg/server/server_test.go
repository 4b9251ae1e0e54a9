package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/channelmgr/internal/catalog"
	"github.com/openclaw/channelmgr/internal/store"
	"github.com/openclaw/channelmgr/pkg/browser"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.SQLiteStore) {
	t.Helper()

	db, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	channels := catalog.Default()
	require.NoError(t, db.SeedCatalog(context.Background(), channels))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	launcher := browser.New("true", "openclaw", logger)
	srv := New(db, channels, launcher, logger, 0, 15*time.Minute)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, db
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(v))
	}
	return res
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	var body map[string]string
	res := getJSON(t, ts.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestChannelsListing(t *testing.T) {
	ts, _ := newTestServer(t)

	var body struct {
		Data []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
		Count           int   `json:"count"`
		CheckIntervalMS int64 `json:"check_interval_ms"`
	}
	res := getJSON(t, ts.URL+"/api/channels", &body)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, len(catalog.Default()), body.Count)
	assert.Equal(t, int64(15*60*1000), body.CheckIntervalMS)
	for _, ch := range body.Data {
		assert.Equal(t, "unknown", ch.Status, ch.ID)
	}
}

func TestLeadsListingWithCounts(t *testing.T) {
	ts, db := newTestServer(t)

	_, err := db.InsertLead(context.Background(), &store.Lead{
		Source: "trademe", Title: "Deck repaint", URL: "https://t/1", HotLead: true,
	})
	require.NoError(t, err)

	var body struct {
		Counts store.LeadCounts `json:"counts"`
		Leads  []store.Lead     `json:"leads"`
	}
	res := getJSON(t, ts.URL+"/api/leads", &body)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 1, body.Counts.Total)
	assert.Equal(t, 1, body.Counts.Hot)
	require.Len(t, body.Leads, 1)
	assert.Equal(t, "Deck repaint", body.Leads[0].Title)
}

func TestConfirmRequiresChannelID(t *testing.T) {
	ts, _ := newTestServer(t)

	res := getJSON(t, ts.URL+"/api/confirm", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestConfirmMarksSessionConnected(t *testing.T) {
	ts, db := newTestServer(t)

	var body struct {
		Success   bool   `json:"success"`
		ChannelID string `json:"channelId"`
		Status    string `json:"status"`
	}
	res := getJSON(t, ts.URL+"/api/confirm?channelId=trademe", &body)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, body.Success)
	assert.Equal(t, "connected", body.Status)

	rec, err := db.GetSession(context.Background(), "trademe")
	require.NoError(t, err)
	assert.Equal(t, "connected", string(rec.Status))
	assert.NotNil(t, rec.LastAuthenticatedAt)
}

func TestBrowserLoginUnknownChannel(t *testing.T) {
	ts, _ := newTestServer(t)

	res := getJSON(t, ts.URL+"/api/browser-login?channelId=nope", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestBrowserLoginRespondsWithoutWaiting(t *testing.T) {
	ts, _ := newTestServer(t)

	var body struct {
		Success  bool   `json:"success"`
		LoginURL string `json:"loginUrl"`
	}
	res := getJSON(t, ts.URL+"/api/browser-login?channelId=trademe", &body)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, body.Success)
	assert.Equal(t, "https://www.trademe.co.nz/a/login", body.LoginURL)
}

func TestConsolePage(t *testing.T) {
	ts, _ := newTestServer(t)

	res, err := http.Get(ts.URL + "/console")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/html")

	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Channel Manager")
}
