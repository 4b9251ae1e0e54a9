// Package tools exposes the channel-manager surface as MCP tools for
// the scraping agent: session health queries, login reports, and lead
// storage/search.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openclaw/channelmgr/internal/session"
	"github.com/openclaw/channelmgr/internal/store"
)

// Service registers the tool surface against a store.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

// New creates a tool Service.
func New(s store.Store, logger *slog.Logger) *Service {
	return &Service{store: s, logger: logger}
}

// Register adds all six tools to an MCP server.
func (s *Service) Register(srv *mcp.Server) {
	s.registerChannelStatus(srv)
	s.registerReportLogin(srv)
	s.registerConfirmLogin(srv)
	s.registerLeadStore(srv)
	s.registerLeadSearch(srv)
	s.registerLeadStats(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// logActivity is a fire-and-forget audit write. A failed append must
// never mask the outcome of the operation it accompanies.
func (s *Service) logActivity(ctx context.Context, channelID *string, action, result, notes string) {
	if err := s.store.AppendActivity(ctx, channelID, action, result, notes); err != nil {
		s.logger.Warn("activity append failed", "action", action, "error", err)
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}

// --- channel_status ---

type channelStatusReq struct {
	ChannelID string `json:"channelId"`
}

func (s *Service) registerChannelStatus(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "channel_status",
		Description: "Check the session status of one or all channels. Call this before attempting to scrape a session-required site. Returns status (connected/expired/blocked/unknown/rate_limited), last auth time, and failure count.",
		InputSchema: inputSchema(map[string]any{
			"channelId": map[string]any{"type": "string", "description": "Channel ID (e.g. 'trademe', 'reddit'). Omit for all channels."},
		}, nil),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r channelStatusReq
		if err := decodeArgs(req, &r); err != nil {
			return errorResult(err), nil
		}

		if r.ChannelID != "" {
			rec, err := s.store.GetSession(ctx, r.ChannelID)
			if store.IsNotFound(err) {
				return textResult(fmt.Sprintf("Channel '%s' not found or no session recorded. Call channel_status without an id to list channels.", r.ChannelID)), nil
			}
			if err != nil {
				return errorResult(err), nil
			}
			return jsonResult(rec)
		}

		channels, err := s.store.ListChannels(ctx)
		if err != nil {
			return errorResult(err), nil
		}

		type channelSummary struct {
			ID       string         `json:"id"`
			Name     string         `json:"name"`
			Tier     string         `json:"tier"`
			Status   session.Status `json:"status"`
			LastAuth any            `json:"last_auth"`
			Failures int            `json:"failures"`
		}
		summary := make([]channelSummary, 0, len(channels))
		for _, ch := range channels {
			summary = append(summary, channelSummary{
				ID:       ch.ID,
				Name:     ch.Name,
				Tier:     string(ch.Tier),
				Status:   ch.Status,
				LastAuth: ch.LastAuthenticatedAt,
				Failures: ch.FailureCount,
			})
		}
		return jsonResult(summary)
	})
}

// --- channel_report_login ---

type reportLoginReq struct {
	ChannelID string `json:"channelId"`
	URL       string `json:"url"`
	Notes     string `json:"notes"`
}

func (s *Service) registerReportLogin(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "channel_report_login",
		Description: "Report that a channel requires re-login. Call this when you hit a login wall while scraping. This marks the session as expired and logs the event for manual handling.",
		InputSchema: inputSchema(map[string]any{
			"channelId": map[string]any{"type": "string", "description": "Channel ID (e.g. 'trademe')"},
			"url":       map[string]any{"type": "string", "description": "URL where login was encountered"},
			"notes":     map[string]any{"type": "string", "description": "Additional notes about the failure"},
		}, []string{"channelId"}),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r reportLoginReq
		if err := decodeArgs(req, &r); err != nil {
			return errorResult(err), nil
		}

		notes := r.Notes
		if notes == "" {
			at := r.URL
			if at == "" {
				at = "unknown URL"
			}
			notes = "Login required at " + at
		}

		if _, err := s.store.UpdateSessionStatus(ctx, r.ChannelID, session.StatusExpired, notes); err != nil {
			return errorResult(err), nil
		}
		s.logActivity(ctx, &r.ChannelID, "login_required", "expired", r.URL)

		return textResult(fmt.Sprintf("Session for '%s' marked as expired. Re-login manually and confirm.", r.ChannelID)), nil
	})
}

// --- channel_confirm_login ---

type confirmLoginReq struct {
	ChannelID string `json:"channelId"`
}

func (s *Service) registerConfirmLogin(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "channel_confirm_login",
		Description: "Confirm that a channel login was successful (called after manual login or session verification).",
		InputSchema: inputSchema(map[string]any{
			"channelId": map[string]any{"type": "string", "description": "Channel ID"},
		}, []string{"channelId"}),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r confirmLoginReq
		if err := decodeArgs(req, &r); err != nil {
			return errorResult(err), nil
		}

		if _, err := s.store.UpdateSessionStatus(ctx, r.ChannelID, session.StatusConnected, "Manual login confirmed"); err != nil {
			return errorResult(err), nil
		}
		s.logActivity(ctx, &r.ChannelID, "login_confirmed", "connected", "")

		return textResult(fmt.Sprintf("Session for '%s' marked as connected.", r.ChannelID)), nil
	})
}

// --- lead_store ---

type leadStoreReq struct {
	Source   string `json:"source"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Budget   string `json:"budget"`
	Location string `json:"location"`
	HotLead  bool   `json:"hotLead"`
	Notes    string `json:"notes"`
}

func (s *Service) registerLeadStore(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "lead_store",
		Description: "Store a new lead in the database. Automatically deduplicates by URL. Returns whether the lead was new or already existed.",
		InputSchema: inputSchema(map[string]any{
			"source":   map[string]any{"type": "string", "description": "Where the lead came from (e.g. 'trademe', 'reddit', 'seek')"},
			"title":    map[string]any{"type": "string", "description": "Lead title or description"},
			"url":      map[string]any{"type": "string", "description": "URL of the listing/post"},
			"budget":   map[string]any{"type": "string", "description": "Budget or price"},
			"location": map[string]any{"type": "string", "description": "Location"},
			"hotLead":  map[string]any{"type": "boolean", "description": "Is this a hot lead?"},
			"notes":    map[string]any{"type": "string", "description": "Additional notes"},
		}, []string{"source", "title", "url"}),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r leadStoreReq
		if err := decodeArgs(req, &r); err != nil {
			return errorResult(err), nil
		}

		lead := &store.Lead{
			Source:   r.Source,
			Title:    r.Title,
			URL:      r.URL,
			Budget:   r.Budget,
			Location: r.Location,
			HotLead:  r.HotLead,
			Notes:    r.Notes,
		}
		result, err := s.store.InsertLead(ctx, lead)
		if err != nil {
			return errorResult(err), nil
		}

		outcome := "duplicate"
		if result.Inserted {
			outcome = "new"
		}
		s.logActivity(ctx, &r.Source, "lead_store", outcome, r.URL)

		if !result.Inserted {
			return textResult(fmt.Sprintf("Lead already exists (duplicate URL: %s)", r.URL)), nil
		}
		text := fmt.Sprintf("Lead stored (ID: %d)", result.ID)
		if r.HotLead {
			text += " — HOT LEAD flagged"
		}
		return textResult(text), nil
	})
}

// --- lead_search ---

type leadSearchReq struct {
	Source string `json:"source"`
	Limit  int    `json:"limit"`
}

func (s *Service) registerLeadSearch(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "lead_search",
		Description: "Search recent leads. Returns the most recent leads, optionally filtered by source.",
		InputSchema: inputSchema(map[string]any{
			"source": map[string]any{"type": "string", "description": "Filter by source (e.g. 'trademe')"},
			"limit":  map[string]any{"type": "number", "description": "Number of results (default 20)"},
		}, nil),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r leadSearchReq
		if err := decodeArgs(req, &r); err != nil {
			return errorResult(err), nil
		}

		leads, err := s.store.ListRecentLeads(ctx, store.LeadListOpts{Source: r.Source, Limit: r.Limit})
		if err != nil {
			return errorResult(err), nil
		}
		counts, err := s.store.CountLeads(ctx)
		if err != nil {
			return errorResult(err), nil
		}

		data, err := json.MarshalIndent(leads, "", "  ")
		if err != nil {
			return errorResult(err), nil
		}
		return textResult(fmt.Sprintf("Leads: %d total, %d hot, %d today\n\n%s",
			counts.Total, counts.Hot, counts.Today, data)), nil
	})
}

// --- lead_stats ---

func (s *Service) registerLeadStats(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "lead_stats",
		Description: "Get a quick summary of lead counts.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		counts, err := s.store.CountLeads(ctx)
		if err != nil {
			return errorResult(err), nil
		}
		return textResult(fmt.Sprintf("Total leads: %d\nHot leads: %d\nToday: %d",
			counts.Total, counts.Hot, counts.Today)), nil
	})
}

func decodeArgs(req *mcp.CallToolRequest, v any) error {
	if req.Params.Arguments == nil {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(err), nil
	}
	return textResult(string(data)), nil
}
