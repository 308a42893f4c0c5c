package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mbecker/study/internal/engine"
	"github.com/mbecker/study/internal/models"
	"github.com/mbecker/study/internal/report"
	"github.com/mbecker/study/internal/sessions"
	"github.com/mbecker/study/internal/store"
)

// Server wraps the study data layer and exposes it as MCP tools.
type Server struct {
	store     store.Store
	sessions  *sessions.Manager
	reportCfg report.Config
}

// NewServer creates the MCP server wrapper with all required dependencies.
func NewServer(s store.Store, mgr *sessions.Manager, reportCfg report.Config) *Server {
	return &Server{
		store:     s,
		sessions:  mgr,
		reportCfg: reportCfg,
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("study", "1.0.0", server.WithToolCapabilities(true))

	// Register all tools
	srv.AddTool(s.logSessionTool())
	srv.AddTool(s.listSessionsTool())
	srv.AddTool(s.getSessionTool())
	srv.AddTool(s.weeklyReportTool())
	srv.AddTool(s.statsTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// study_log_session
func (s *Server) logSessionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("study_log_session",
		mcp.WithDescription("Log a completed study session and analyze it. Returns the full analysis as JSON: relevance and focus scores, topic drift and overconfidence verdicts, revision tasks, and a next-session plan."),
		mcp.WithString("topic", mcp.Required(), mcp.Description("What the session was meant to cover")),
		mcp.WithNumber("planned_minutes", mcp.Required(), mcp.Description("How long the session was planned to run")),
		mcp.WithNumber("actual_minutes", mcp.Required(), mcp.Description("How long the session actually ran")),
		mcp.WithString("start_time", mcp.Description("Session start in RFC3339 format (default: actual_minutes ago)")),
		mcp.WithArray("notes", mcp.Description("Up to 5 free-text notes on what was learned"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithNumber("self_rating", mcp.Description("Self-assessed understanding from 1 to 5")),
	)
	return tool, s.handleLogSession
}

func (s *Server) handleLogSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic, err := request.RequireString("topic")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: topic"), nil
	}
	planned, err := request.RequireFloat("planned_minutes")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: planned_minutes"), nil
	}
	actual, err := request.RequireFloat("actual_minutes")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: actual_minutes"), nil
	}

	start := time.Now().UTC().Add(-time.Duration(actual * float64(time.Minute)))
	if v := request.GetString("start_time", ""); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid start_time (want RFC3339): %v", err)), nil
		}
		start = t
	}

	in := engine.Input{
		Topic:          topic,
		PlannedMinutes: planned,
		ActualMinutes:  actual,
		StartTime:      start,
		EndTime:        start.Add(time.Duration(actual * float64(time.Minute))),
		Notes:          request.GetStringSlice("notes", nil),
	}
	if rating := request.GetInt("self_rating", 0); rating != 0 {
		in.SelfRating = &rating
	}

	session, err := s.sessions.Log(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to log session: %v", err)), nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal session: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// study_list_sessions
func (s *Server) listSessionsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("study_list_sessions",
		mcp.WithDescription("List logged study sessions, most recent first. Returns a JSON array with id, topic, date, minutes, scores, and the number of issues detected per session."),
		mcp.WithString("topic", mcp.Description("Filter by exact topic")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of sessions to return (default 10)")),
	)
	return tool, s.handleListSessions
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := store.SessionFilter{
		Topic: request.GetString("topic", ""),
		Limit: request.GetInt("limit", 10),
	}

	list, err := s.store.ListSessions(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list sessions: %v", err)), nil
	}

	type sessionOut struct {
		ID             string  `json:"id"`
		Topic          string  `json:"topic"`
		Date           string  `json:"date"`
		PlannedMinutes float64 `json:"planned_minutes"`
		ActualMinutes  float64 `json:"actual_minutes"`
		RelevanceScore float64 `json:"relevance_score"`
		FocusScore     float64 `json:"focus_score"`
		Issues         int     `json:"issues"`
	}

	out := make([]sessionOut, len(list))
	for i, sess := range list {
		out[i] = sessionOut{
			ID:             sess.ID,
			Topic:          sess.Topic,
			Date:           sess.StartTime.UTC().Format("2006-01-02"),
			PlannedMinutes: sess.PlannedMinutes,
			ActualMinutes:  sess.ActualMinutes,
			RelevanceScore: sess.TopicRelevanceScore,
			FocusScore:     sess.FocusScore,
			Issues:         sess.IssueCount(),
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal sessions: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// study_get_session
func (s *Server) getSessionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("study_get_session",
		mcp.WithDescription("Get the full analysis for a single session by ID (full ULID or unique prefix). Returns the complete session record as JSON."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID (full ULID or unique prefix)")),
	)
	return tool, s.handleGetSession
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal session: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// study_weekly_report
func (s *Server) weeklyReportTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("study_weekly_report",
		mcp.WithDescription("Generate the weekly study report: totals, week-over-week changes, daily breakdown, per-topic analysis, duration-bucket retention, problem areas, recommendations, score, and grade."),
		mcp.WithString("date", mcp.Description("Reference date YYYY-MM-DD; the report covers that date's Monday-to-Sunday week (default today)")),
	)
	return tool, s.handleWeeklyReport
}

func (s *Server) handleWeeklyReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reference := time.Now().UTC()
	if v := request.GetString("date", ""); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return mcp.NewToolResultError("invalid date (want YYYY-MM-DD)"), nil
		}
		reference = t
	}

	list, err := s.store.ListSessions(ctx, store.SessionFilter{})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list sessions: %v", err)), nil
	}

	data, err := json.Marshal(report.Build(s.reportCfg, list, reference))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal report: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// study_stats
func (s *Server) statsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("study_stats",
		mcp.WithDescription("Get all-time study statistics: total sessions, minutes and hours, unique topics, average relevance and focus, issues found, and the current daily streak."),
	)
	return tool, s.handleStats
}

func (s *Server) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.store.ListSessions(ctx, store.SessionFilter{})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list sessions: %v", err)), nil
	}

	data, err := json.Marshal(report.BuildStats(list, time.Now().UTC()))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal stats: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// findSession finds a session by full ID or unique prefix.
func (s *Server) findSession(ctx context.Context, id string) (*models.Session, error) {
	// Try exact match first
	if session, err := s.store.GetSession(ctx, id); err == nil {
		return session, nil
	}

	// Try prefix match - list all and filter
	upper := strings.ToUpper(id)
	list, err := s.store.ListSessions(ctx, store.SessionFilter{})
	if err != nil {
		return nil, err
	}

	var matches []*models.Session
	for _, session := range list {
		if strings.HasPrefix(session.ID, upper) {
			matches = append(matches, session)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("session not found: %s", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous session ID %s: matches %d sessions", id, len(matches))
	}
}
