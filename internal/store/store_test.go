package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/channelmgr/internal/catalog"
	"github.com/openclaw/channelmgr/internal/session"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedTrademe(t *testing.T, s *SQLiteStore) {
	t.Helper()
	ch, ok := catalog.ByID(catalog.Default(), "trademe")
	require.True(t, ok)
	require.NoError(t, s.UpsertChannel(context.Background(), ch))
}

func TestSeedCatalogIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	channels := catalog.Default()
	require.NoError(t, s.SeedCatalog(ctx, channels))
	require.NoError(t, s.SeedCatalog(ctx, channels))

	listed, err := s.ListChannels(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, len(channels))
}

func TestUpsertChannelOverwritesMutableFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ch := catalog.Channel{ID: "trademe", Name: "TradeMe", LoginURL: "https://old", Tier: catalog.TierSession}
	require.NoError(t, s.UpsertChannel(ctx, &ch))

	ch.LoginURL = "https://new"
	ch.Tier = catalog.TierPublic
	require.NoError(t, s.UpsertChannel(ctx, &ch))

	listed, err := s.ListChannels(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "https://new", listed[0].LoginURL)
	assert.Equal(t, catalog.TierPublic, listed[0].Tier)
}

func TestListChannelsDefaultsToUnknownWithoutSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedTrademe(t, s)

	listed, err := s.ListChannels(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, session.StatusUnknown, listed[0].Status)
	assert.Equal(t, 0, listed[0].FailureCount)
	assert.Nil(t, listed[0].LastAuthenticatedAt)
	assert.NotEmpty(t, listed[0].MonitorURLs)
}

func TestGetSessionNotFound(t *testing.T) {
	s := newTestStore(t)
	seedTrademe(t, s)

	_, err := s.GetSession(context.Background(), "trademe")
	assert.ErrorIs(t, err, ErrNotFound)
}

// Status lifecycle from the original scrape flow: login wall reported,
// then a manual login confirmed.
func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedTrademe(t, s)

	rec, err := s.UpdateSessionStatus(ctx, "trademe", session.StatusExpired, "login wall")
	require.NoError(t, err)
	assert.Equal(t, session.StatusExpired, rec.Status)
	assert.Equal(t, 1, rec.FailureCount)
	assert.Nil(t, rec.LastAuthenticatedAt)

	rec, err = s.UpdateSessionStatus(ctx, "trademe", session.StatusConnected, "manual login")
	require.NoError(t, err)
	assert.Equal(t, session.StatusConnected, rec.Status)
	assert.Equal(t, 0, rec.FailureCount)
	require.NotNil(t, rec.LastAuthenticatedAt)

	got, err := s.GetSession(ctx, "trademe")
	require.NoError(t, err)
	assert.Equal(t, session.StatusConnected, got.Status)
	assert.Equal(t, 0, got.FailureCount)
	require.NotNil(t, got.LastAuthenticatedAt)
}

func TestRepeatedConnectedKeepsResettingAuthTime(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedTrademe(t, s)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := base
	s.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		clock = base.Add(time.Duration(i) * time.Hour)
		rec, err := s.UpdateSessionStatus(ctx, "trademe", session.StatusConnected, "")
		require.NoError(t, err)
		assert.Equal(t, 0, rec.FailureCount)
		require.NotNil(t, rec.LastAuthenticatedAt)
		assert.True(t, rec.LastAuthenticatedAt.Equal(clock))
	}
}

func TestNonConnectedUpdatesIncrementFailures(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedTrademe(t, s)

	_, err := s.UpdateSessionStatus(ctx, "trademe", session.StatusConnected, "")
	require.NoError(t, err)

	// Every non-connected update counts, including blocked -> unknown.
	for i, st := range []session.Status{session.StatusBlocked, session.StatusUnknown, session.StatusRateLimited} {
		rec, err := s.UpdateSessionStatus(ctx, "trademe", st, "")
		require.NoError(t, err)
		assert.Equal(t, i+1, rec.FailureCount)
		require.NotNil(t, rec.LastAuthenticatedAt, "auth time preserved across failures")
	}
}

func TestInsertLeadDeduplicatesByURL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	res, err := s.InsertLead(ctx, &Lead{Source: "reddit", Title: "X", URL: "https://a/1"})
	require.NoError(t, err)
	assert.True(t, res.Inserted)
	assert.Equal(t, int64(1), res.ID)

	// Same URL, different title: not inserted, no new row.
	res, err = s.InsertLead(ctx, &Lead{Source: "reddit", Title: "Y", URL: "https://a/1"})
	require.NoError(t, err)
	assert.False(t, res.Inserted)
	assert.Zero(t, res.ID)

	counts, err := s.CountLeads(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Total)
}

func TestInsertLeadLiteralURLsAreDistinct(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// No URL normalization: a trailing slash makes a new lead.
	res, err := s.InsertLead(ctx, &Lead{Source: "seek", Title: "A", URL: "https://a/1"})
	require.NoError(t, err)
	assert.True(t, res.Inserted)

	res, err = s.InsertLead(ctx, &Lead{Source: "seek", Title: "A", URL: "https://a/1/"})
	require.NoError(t, err)
	assert.True(t, res.Inserted)
}

func TestCountLeads(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := s.InsertLead(ctx, &Lead{Source: "trademe", Title: "hot", URL: "https://a/1", HotLead: true, Timestamp: now})
	require.NoError(t, err)
	_, err = s.InsertLead(ctx, &Lead{Source: "trademe", Title: "old", URL: "https://a/2", Timestamp: now.AddDate(0, 0, -3)})
	require.NoError(t, err)

	counts, err := s.CountLeads(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Total)
	assert.Equal(t, 1, counts.Hot)
	assert.Equal(t, 1, counts.Today)
}

func TestArchiveOldLeadsByTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := s.InsertLead(ctx, &Lead{Source: "seek", Title: "stale", URL: "https://a/1", Timestamp: now.AddDate(0, 0, -31)})
	require.NoError(t, err)
	_, err = s.InsertLead(ctx, &Lead{Source: "seek", Title: "fresh", URL: "https://a/2", Timestamp: now.AddDate(0, 0, -29)})
	require.NoError(t, err)

	changed, err := s.ArchiveOldLeads(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	leads, err := s.ListRecentLeads(ctx, LeadListOpts{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "fresh", leads[0].Title)

	counts, err := s.CountLeads(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Total)

	// Archiving again changes nothing.
	changed, err = s.ArchiveOldLeads(ctx, 30)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestListRecentLeadsOrderingFilterAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for i, src := range []string{"trademe", "reddit", "trademe"} {
		_, err := s.InsertLead(ctx, &Lead{
			Source:    src,
			Title:     src,
			URL:       "https://a/" + string(rune('1'+i)),
			Timestamp: now.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	leads, err := s.ListRecentLeads(ctx, LeadListOpts{})
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.True(t, leads[0].Timestamp.After(leads[2].Timestamp), "newest first")

	leads, err = s.ListRecentLeads(ctx, LeadListOpts{Source: "trademe"})
	require.NoError(t, err)
	assert.Len(t, leads, 2)

	leads, err = s.ListRecentLeads(ctx, LeadListOpts{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestActivityAppendAndPrune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	channelID := "trademe"
	require.NoError(t, s.AppendActivity(ctx, &channelID, "login_required", "expired", ""))
	require.NoError(t, s.AppendActivity(ctx, nil, "lead_store", "new", "https://a/1"))

	// Nothing old enough yet.
	removed, err := s.PruneActivity(ctx, 30)
	require.NoError(t, err)
	assert.Zero(t, removed)

	// Backdate the clock so both rows age out.
	s.now = func() time.Time { return time.Now().UTC().AddDate(0, 0, 40) }
	removed, err = s.PruneActivity(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
}

func TestErrNotFoundSentinel(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetSession(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}
