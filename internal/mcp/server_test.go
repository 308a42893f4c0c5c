package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbecker/study/internal/engine"
	"github.com/mbecker/study/internal/models"
	"github.com/mbecker/study/internal/report"
	"github.com/mbecker/study/internal/sessions"
	"github.com/mbecker/study/internal/store"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockStore implements store.Store for testing.
type mockStore struct {
	sessions []*models.Session

	// Track calls for verification.
	createdSessions []*models.Session
	updatedSessions []*models.Session

	// Optional error injection.
	listSessionsErr  error
	createSessionErr error
}

func (m *mockStore) CreateSession(_ context.Context, s *models.Session) error {
	if m.createSessionErr != nil {
		return m.createSessionErr
	}
	if s.ID == "" {
		s.ID = fmt.Sprintf("01SESSION%03d", len(m.sessions)+1)
	}
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	m.sessions = append(m.sessions, s)
	m.createdSessions = append(m.createdSessions, s)
	return nil
}

func (m *mockStore) GetSession(_ context.Context, id string) (*models.Session, error) {
	for _, s := range m.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("session %s: %w", id, store.ErrNotFound)
}

func (m *mockStore) ListSessions(_ context.Context, filter store.SessionFilter) ([]*models.Session, error) {
	if m.listSessionsErr != nil {
		return nil, m.listSessionsErr
	}
	var result []*models.Session
	for _, s := range m.sessions {
		if filter.Topic != "" && s.Topic != filter.Topic {
			continue
		}
		if !filter.From.IsZero() && s.StartTime.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !s.StartTime.Before(filter.To) {
			continue
		}
		result = append(result, s)
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	return result, nil
}

func (m *mockStore) UpdateSession(_ context.Context, s *models.Session) error {
	for idx, existing := range m.sessions {
		if existing.ID == s.ID {
			m.sessions[idx] = s
			m.updatedSessions = append(m.updatedSessions, s)
			return nil
		}
	}
	return fmt.Errorf("session %s: %w", s.ID, store.ErrNotFound)
}

func (m *mockStore) DeleteSession(_ context.Context, id string) error {
	for idx, s := range m.sessions {
		if s.ID == id {
			m.sessions = append(m.sessions[:idx], m.sessions[idx+1:]...)
			return nil
		}
	}
	return fmt.Errorf("session %s: %w", id, store.ErrNotFound)
}

func (m *mockStore) CountSessionsForTopic(_ context.Context, topic string, before time.Time) (int, error) {
	count := 0
	for _, s := range m.sessions {
		if s.Topic == topic && s.StartTime.Before(before) {
			count++
		}
	}
	return count, nil
}

func (m *mockStore) ActiveDays(_ context.Context, from, to time.Time) (int, error) {
	days := make(map[string]bool)
	for _, s := range m.sessions {
		if !s.StartTime.Before(from) && s.StartTime.Before(to) {
			days[s.StartTime.UTC().Format("2006-01-02")] = true
		}
	}
	return len(days), nil
}

func (m *mockStore) Migrate(_ context.Context) error { return nil }
func (m *mockStore) Close() error                    { return nil }

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// newTestServer creates a Server over a mock store and a real engine.
func newTestServer(t *testing.T) (*Server, *mockStore) {
	t.Helper()

	ms := &mockStore{}
	mgr := sessions.NewManager(ms, engine.New(engine.DefaultConfig(), nil))
	srv := NewServer(ms, mgr, report.DefaultConfig())
	require.NotNil(t, srv)

	return srv, ms
}

// callToolReq builds a mcpgo.CallToolRequest with the given name and arguments.
func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		tc, ok := c.(mcpgo.TextContent)
		if ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// resultJSON parses the text result as JSON into the provided target.
func resultJSON(t *testing.T, result *mcpgo.CallToolResult, target any) {
	t.Helper()
	text := resultText(t, result)
	err := json.Unmarshal([]byte(text), target)
	require.NoError(t, err, "failed to parse result JSON: %s", text)
}

// seedSession adds an analyzed session to the mock store and returns it.
func seedSession(t *testing.T, ms *mockStore, id, topic string, start time.Time) *models.Session {
	t.Helper()
	s := &models.Session{
		ID:                  id,
		Topic:               topic,
		PlannedMinutes:      25,
		ActualMinutes:       24,
		StartTime:           start,
		EndTime:             start.Add(24 * time.Minute),
		Notes:               []string{"worked through practice problems"},
		AISummary:           fmt.Sprintf("Worked on %s.", topic),
		TopicRelevanceScore: 80,
		FocusScore:          75,
		FocusFeedback:       "Solid focus.",
		Completed:           false,
		RevisionTasks:       []string{"Redo one problem"},
		NextSessionPlan:     fmt.Sprintf("Continue with %s.", topic),
		CreatedAt:           start,
		UpdatedAt:           start,
	}
	ms.sessions = append(ms.sessions, s)
	return s
}

// ---------------------------------------------------------------------------
// Tests: MCPServer registration
// ---------------------------------------------------------------------------

func TestNewServer(t *testing.T) {
	srv, _ := newTestServer(t)
	mcpSrv := srv.MCPServer()
	require.NotNil(t, mcpSrv, "MCPServer() should return non-nil")
}

// ---------------------------------------------------------------------------
// Tests: study_log_session
// ---------------------------------------------------------------------------

func TestHandleLogSession(t *testing.T) {
	srv, ms := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("study_log_session", map[string]any{
		"topic":           "Binary Search",
		"planned_minutes": float64(25),
		"actual_minutes":  float64(24),
		"start_time":      "2026-08-20T09:00:00Z",
		"notes":           []any{"implemented binary search in python", "tested edge cases"},
		"self_rating":     float64(4),
	})

	result, err := srv.handleLogSession(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	var session models.Session
	resultJSON(t, result, &session)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "Binary Search", session.Topic)
	assert.Greater(t, session.TopicRelevanceScore, 0.0)
	assert.NotEmpty(t, session.NextSessionPlan)
	require.NotNil(t, session.SelfRating)
	assert.Equal(t, 4, *session.SelfRating)

	require.Len(t, ms.createdSessions, 1)
}

func TestHandleLogSession_MissingTopic(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("study_log_session", map[string]any{
		"planned_minutes": float64(25),
		"actual_minutes":  float64(24),
	})

	result, err := srv.handleLogSession(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError, "should error when topic is missing")
	assert.Contains(t, resultText(t, result), "topic")
}

func TestHandleLogSession_InvalidStartTime(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("study_log_session", map[string]any{
		"topic":           "Calculus",
		"planned_minutes": float64(25),
		"actual_minutes":  float64(24),
		"start_time":      "yesterday",
	})

	result, err := srv.handleLogSession(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "start_time")
}

func TestHandleLogSession_ValidationFailure(t *testing.T) {
	srv, ms := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("study_log_session", map[string]any{
		"topic":           "Calculus",
		"planned_minutes": float64(-5),
		"actual_minutes":  float64(24),
	})

	result, err := srv.handleLogSession(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "planned_minutes")
	assert.Len(t, ms.createdSessions, 0)
}

func TestHandleLogSession_StoreError(t *testing.T) {
	srv, ms := newTestServer(t)
	ctx := context.Background()

	ms.createSessionErr = fmt.Errorf("disk full")

	req := callToolReq("study_log_session", map[string]any{
		"topic":           "Calculus",
		"planned_minutes": float64(25),
		"actual_minutes":  float64(24),
	})

	result, err := srv.handleLogSession(ctx, req)
	require.NoError(t, err, "handler should not return Go error; should wrap in result")
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "disk full")
}

// ---------------------------------------------------------------------------
// Tests: study_list_sessions
// ---------------------------------------------------------------------------

func TestHandleListSessions_Empty(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("study_list_sessions", nil)
	result, err := srv.handleListSessions(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.NotEmpty(t, text, "should return some output even with no sessions")
}

func TestHandleListSessions_WithSessions(t *testing.T) {
	srv, ms := newTestServer(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	seedSession(t, ms, "01AAAAAAAA01", "Algebra", base)
	seedSession(t, ms, "01BBBBBBBB02", "Chemistry", base.AddDate(0, 0, 1))

	req := callToolReq("study_list_sessions", nil)
	result, err := srv.handleListSessions(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Algebra")
	assert.Contains(t, text, "Chemistry")
}

func TestHandleListSessions_TopicFilter(t *testing.T) {
	srv, ms := newTestServer(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	seedSession(t, ms, "01AAAAAAAA01", "Algebra", base)
	seedSession(t, ms, "01BBBBBBBB02", "Chemistry", base.AddDate(0, 0, 1))

	req := callToolReq("study_list_sessions", map[string]any{"topic": "Algebra"})
	result, err := srv.handleListSessions(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Algebra")
	assert.NotContains(t, text, "Chemistry")
}

func TestHandleListSessions_StoreError(t *testing.T) {
	srv, ms := newTestServer(t)
	ctx := context.Background()

	ms.listSessionsErr = fmt.Errorf("database locked")

	req := callToolReq("study_list_sessions", nil)
	result, err := srv.handleListSessions(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "database locked")
}

// ---------------------------------------------------------------------------
// Tests: study_get_session
// ---------------------------------------------------------------------------

func TestHandleGetSession_ExactID(t *testing.T) {
	srv, ms := newTestServer(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	seedSession(t, ms, "01AAAAAAAA01", "Algebra", base)

	req := callToolReq("study_get_session", map[string]any{"session_id": "01AAAAAAAA01"})
	result, err := srv.handleGetSession(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	var session models.Session
	resultJSON(t, result, &session)
	assert.Equal(t, "01AAAAAAAA01", session.ID)
	assert.Equal(t, "Algebra", session.Topic)
}

func TestHandleGetSession_Prefix(t *testing.T) {
	srv, ms := newTestServer(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	seedSession(t, ms, "01AAAAAAAA01", "Algebra", base)
	seedSession(t, ms, "01BBBBBBBB02", "Chemistry", base)

	req := callToolReq("study_get_session", map[string]any{"session_id": "01bbb"})
	result, err := srv.handleGetSession(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	var session models.Session
	resultJSON(t, result, &session)
	assert.Equal(t, "01BBBBBBBB02", session.ID)
}

func TestHandleGetSession_Ambiguous(t *testing.T) {
	srv, ms := newTestServer(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	seedSession(t, ms, "01AAAAAAAA01", "Algebra", base)
	seedSession(t, ms, "01AAAAAAAA02", "Chemistry", base)

	req := callToolReq("study_get_session", map[string]any{"session_id": "01AAA"})
	result, err := srv.handleGetSession(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "ambiguous")
}

func TestHandleGetSession_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("study_get_session", map[string]any{"session_id": "nonexistent"})
	result, err := srv.handleGetSession(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not found")
}

func TestHandleGetSession_MissingID(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("study_get_session", nil)
	result, err := srv.handleGetSession(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError, "should error when session_id is missing")
}

// ---------------------------------------------------------------------------
// Tests: study_weekly_report
// ---------------------------------------------------------------------------

func TestHandleWeeklyReport(t *testing.T) {
	srv, ms := newTestServer(t)
	ctx := context.Background()

	// 2026-08-20 is a Thursday; its week runs Mon 08-17 to Sun 08-23.
	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	seedSession(t, ms, "01AAAAAAAA01", "Algebra", base)

	req := callToolReq("study_weekly_report", map[string]any{"date": "2026-08-20"})
	result, err := srv.handleWeeklyReport(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	var rep models.WeeklyReport
	resultJSON(t, result, &rep)
	assert.Equal(t, "2026-08-17", rep.PeriodStart)
	assert.Equal(t, "2026-08-23", rep.PeriodEnd)
	assert.Equal(t, 1, rep.ThisWeek.Sessions)
}

func TestHandleWeeklyReport_InvalidDate(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("study_weekly_report", map[string]any{"date": "next tuesday"})
	result, err := srv.handleWeeklyReport(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "YYYY-MM-DD")
}

// ---------------------------------------------------------------------------
// Tests: study_stats
// ---------------------------------------------------------------------------

func TestHandleStats(t *testing.T) {
	srv, ms := newTestServer(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	seedSession(t, ms, "01AAAAAAAA01", "Algebra", base)
	seedSession(t, ms, "01BBBBBBBB02", "Algebra", base.AddDate(0, 0, 1))

	req := callToolReq("study_stats", nil)
	result, err := srv.handleStats(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	var stats report.Stats
	resultJSON(t, result, &stats)
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 1, stats.UniqueTopics)
	assert.Equal(t, 48.0, stats.TotalMinutes)
}

// ---------------------------------------------------------------------------
// Tests: Integration -- verify all tools are registered via HandleMessage
// ---------------------------------------------------------------------------

func TestMCPIntegration_ListTools(t *testing.T) {
	srv, _ := newTestServer(t)

	mcpSrv := srv.MCPServer()
	require.NotNil(t, mcpSrv)

	// Call tools/list via HandleMessage to verify registration.
	ctx := context.Background()
	reqJSON := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	respMsg := mcpSrv.HandleMessage(ctx, reqJSON)
	require.NotNil(t, respMsg)

	respBytes, err := json.Marshal(respMsg)
	require.NoError(t, err)

	var rpcResp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	err = json.Unmarshal(respBytes, &rpcResp)
	require.NoError(t, err)

	toolNames := make(map[string]bool)
	for _, tool := range rpcResp.Result.Tools {
		toolNames[tool.Name] = true
	}

	expectedTools := []string{
		"study_log_session",
		"study_list_sessions",
		"study_get_session",
		"study_weekly_report",
		"study_stats",
	}
	for _, name := range expectedTools {
		assert.True(t, toolNames[name], "expected tool %q to be registered", name)
	}
}

// Compile-time interface check for the mock.
var _ store.Store = (*mockStore)(nil)

// Reference mcpserver to keep the import active (used by MCPServer return type).
var _ = (*mcpserver.MCPServer)(nil)
