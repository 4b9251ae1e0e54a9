package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/openclaw/channelmgr/internal/catalog"
	"github.com/openclaw/channelmgr/internal/session"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Lead is a scraped opportunity record, deduplicated by URL.
type Lead struct {
	ID        int64     `db:"id" json:"id"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	Source    string    `db:"source" json:"source"`
	Title     string    `db:"title" json:"title"`
	URL       string    `db:"url" json:"url"`
	Budget    string    `db:"budget" json:"budget"`
	Location  string    `db:"location" json:"location"`
	HotLead   bool      `db:"hot_lead" json:"hot_lead"`
	Notes     string    `db:"notes" json:"notes"`
	Archived  bool      `db:"archived" json:"-"`
}

// InsertResult reports the outcome of a lead insertion. A duplicate
// URL is a soft outcome, not an error: Inserted is false and ID is 0.
type InsertResult struct {
	Inserted bool  `json:"inserted"`
	ID       int64 `json:"id,omitempty"`
}

// LeadCounts aggregates non-archived leads.
type LeadCounts struct {
	Total int `json:"total"`
	Hot   int `json:"hot"`
	Today int `json:"today"`
}

// LeadListOpts controls lead listing.
type LeadListOpts struct {
	Source string
	Limit  int
}

// ChannelStatus is one channel joined with its current session state.
// Channels without a session row report status "unknown".
type ChannelStatus struct {
	catalog.Channel
	Status              session.Status `json:"status"`
	LastCheckedAt       *time.Time     `json:"last_checked_at"`
	LastAuthenticatedAt *time.Time     `json:"last_authenticated_at"`
	FailureCount        int            `json:"failure_count"`
}

// Store is the persistence interface.
type Store interface {
	UpsertChannel(ctx context.Context, ch *catalog.Channel) error
	ListChannels(ctx context.Context) ([]ChannelStatus, error)

	UpdateSessionStatus(ctx context.Context, channelID string, status session.Status, notes string) (*session.Record, error)
	GetSession(ctx context.Context, channelID string) (*session.Record, error)

	InsertLead(ctx context.Context, lead *Lead) (InsertResult, error)
	ListRecentLeads(ctx context.Context, opts LeadListOpts) ([]Lead, error)
	CountLeads(ctx context.Context) (LeadCounts, error)
	ArchiveOldLeads(ctx context.Context, olderThanDays int) (int64, error)

	AppendActivity(ctx context.Context, channelID *string, action, result, notes string) error
	PruneActivity(ctx context.Context, olderThanDays int) (int64, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// New opens a SQLite database at path and creates the schema.
// Parent directories are created as needed.
func New(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir %s: %w", dir, err)
		}
	}

	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SeedCatalog upserts every channel of the given catalog. Idempotent;
// run once at startup.
func (s *SQLiteStore) SeedCatalog(ctx context.Context, channels []catalog.Channel) error {
	for i := range channels {
		if err := s.UpsertChannel(ctx, &channels[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) UpsertChannel(ctx context.Context, ch *catalog.Channel) error {
	urlsJSON, _ := json.Marshal(ch.MonitorURLs)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO channels (id, name, login_url, logged_in_indicator, login_page_indicator, tier, monitor_urls)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			login_url = excluded.login_url,
			logged_in_indicator = excluded.logged_in_indicator,
			login_page_indicator = excluded.login_page_indicator,
			tier = excluded.tier,
			monitor_urls = excluded.monitor_urls
	`, ch.ID, ch.Name, ch.LoginURL, ch.LoggedInIndicator, ch.LoginPageIndicator,
		ch.Tier, string(urlsJSON))
	if err != nil {
		return fmt.Errorf("upsert channel %s: %w", ch.ID, err)
	}
	return nil
}

// channelRow is the LEFT JOIN scan target; session columns are NULL
// for channels that have never been checked.
type channelRow struct {
	catalog.Channel
	Status              sql.NullString `db:"status"`
	LastCheckedAt       *time.Time     `db:"last_checked_at"`
	LastAuthenticatedAt *time.Time     `db:"last_authenticated_at"`
	FailureCount        sql.NullInt64  `db:"failure_count"`
}

func (s *SQLiteStore) ListChannels(ctx context.Context) ([]ChannelStatus, error) {
	var rows []channelRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT c.id, c.name, c.login_url, c.logged_in_indicator, c.login_page_indicator,
		       c.tier, c.monitor_urls,
		       s.status, s.last_checked_at, s.last_authenticated_at, s.failure_count
		FROM channels c
		LEFT JOIN sessions s ON c.id = s.channel_id
		ORDER BY c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}

	out := make([]ChannelStatus, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		json.Unmarshal([]byte(r.MonitorURLsJSON), &r.MonitorURLs)

		cs := ChannelStatus{
			Channel:             r.Channel,
			Status:              session.StatusUnknown,
			LastCheckedAt:       r.LastCheckedAt,
			LastAuthenticatedAt: r.LastAuthenticatedAt,
		}
		if r.Status.Valid {
			cs.Status = session.Status(r.Status.String)
		}
		if r.FailureCount.Valid {
			cs.FailureCount = int(r.FailureCount.Int64)
		}
		out = append(out, cs)
	}
	return out, nil
}

// UpdateSessionStatus applies the session transition rule to the
// previous record and overwrites the stored row with the result.
func (s *SQLiteStore) UpdateSessionStatus(ctx context.Context, channelID string, status session.Status, notes string) (*session.Record, error) {
	prev, err := s.GetSession(ctx, channelID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := s.now()
	next := session.Next(prev, channelID, status, notes, now)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (channel_id, status, last_checked_at, last_authenticated_at, failure_count, notes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(channel_id) DO UPDATE SET
			status = excluded.status,
			last_checked_at = excluded.last_checked_at,
			last_authenticated_at = excluded.last_authenticated_at,
			failure_count = excluded.failure_count,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`, next.ChannelID, next.Status, next.LastCheckedAt, next.LastAuthenticatedAt,
		next.FailureCount, next.Notes, now)
	if err != nil {
		return nil, fmt.Errorf("update session %s: %w", channelID, err)
	}
	return &next, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, channelID string) (*session.Record, error) {
	var rec session.Record
	err := s.db.GetContext(ctx, &rec, `
		SELECT channel_id, status, last_checked_at, last_authenticated_at, failure_count, notes
		FROM sessions WHERE channel_id = ?
	`, channelID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", channelID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", channelID, err)
	}
	return &rec, nil
}

// InsertLead attempts insertion. A duplicate URL leaves the table
// unchanged and reports Inserted=false; any other failure is an error.
func (s *SQLiteStore) InsertLead(ctx context.Context, lead *Lead) (InsertResult, error) {
	if lead.Timestamp.IsZero() {
		lead.Timestamp = s.now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO leads (timestamp, source, title, url, budget, location, hot_lead, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING
	`, lead.Timestamp, lead.Source, lead.Title, lead.URL,
		lead.Budget, lead.Location, lead.HotLead, lead.Notes)
	if err != nil {
		return InsertResult{}, fmt.Errorf("insert lead %s: %w", lead.URL, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return InsertResult{}, fmt.Errorf("insert lead %s: %w", lead.URL, err)
	}
	if n == 0 {
		return InsertResult{Inserted: false}, nil
	}

	id, _ := res.LastInsertId()
	lead.ID = id
	return InsertResult{Inserted: true, ID: id}, nil
}

func (s *SQLiteStore) ListRecentLeads(ctx context.Context, opts LeadListOpts) ([]Lead, error) {
	query := "SELECT id, timestamp, source, title, url, budget, location, hot_lead, notes, archived FROM leads WHERE archived = 0"
	var args []any

	if opts.Source != "" {
		query += " AND source = ?"
		args = append(args, opts.Source)
	}

	query += " ORDER BY timestamp DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var leads []Lead
	if err := s.db.SelectContext(ctx, &leads, query, args...); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

func (s *SQLiteStore) CountLeads(ctx context.Context) (LeadCounts, error) {
	var counts LeadCounts

	if err := s.db.GetContext(ctx, &counts.Total,
		"SELECT COUNT(*) FROM leads WHERE archived = 0"); err != nil {
		return counts, fmt.Errorf("count leads: %w", err)
	}
	if err := s.db.GetContext(ctx, &counts.Hot,
		"SELECT COUNT(*) FROM leads WHERE hot_lead = 1 AND archived = 0"); err != nil {
		return counts, fmt.Errorf("count hot leads: %w", err)
	}

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if err := s.db.GetContext(ctx, &counts.Today,
		"SELECT COUNT(*) FROM leads WHERE timestamp >= ? AND archived = 0", dayStart); err != nil {
		return counts, fmt.Errorf("count today leads: %w", err)
	}
	return counts, nil
}

// ArchiveOldLeads soft-archives non-archived leads whose timestamp is
// older than the threshold. Age is measured from the lead timestamp,
// not insertion time.
func (s *SQLiteStore) ArchiveOldLeads(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -olderThanDays)
	res, err := s.db.ExecContext(ctx,
		"UPDATE leads SET archived = 1 WHERE archived = 0 AND timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("archive old leads: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) AppendActivity(ctx context.Context, channelID *string, action, result, notes string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (timestamp, channel_id, action, result, notes)
		VALUES (?, ?, ?, ?, ?)
	`, s.now(), channelID, action, result, notes)
	if err != nil {
		return fmt.Errorf("append activity %s: %w", action, err)
	}
	return nil
}

// PruneActivity hard-deletes activity entries older than the threshold.
func (s *SQLiteStore) PruneActivity(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -olderThanDays)
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM activity_log WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune activity log: %w", err)
	}
	return res.RowsAffected()
}
