// Package mcp exposes the assistant over the Model Context Protocol so MCP
// clients can route requests, manage tasks, and search memory as tools.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/thomasbaier2/SecondBrain/internal/orchestrator"
	"github.com/thomasbaier2/SecondBrain/internal/storage"
	"github.com/thomasbaier2/SecondBrain/internal/types"
)

// Server wraps the orchestrator and the brain store as MCP tools.
type Server struct {
	server *gomcp.Server
	orch   *orchestrator.Orchestrator
	store  *storage.BrainStore
}

// NewServer builds the MCP server. store may be nil; task and memory tools
// then report an error result instead of panicking.
func NewServer(orch *orchestrator.Orchestrator, store *storage.BrainStore, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{orch: orch, store: store}
	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "second-brain", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves MCP over stdio, blocking until the client disconnects or the
// context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type processRequestInput struct {
	Message string `json:"message" jsonschema:"required,the natural-language request to route"`
}

type processRequestOutput struct {
	Text      string         `json:"text"`
	UIPayload map[string]any `json:"ui_payload,omitempty"`
	SessionID string         `json:"session_id"`
}

type addTaskInput struct {
	Title       string `json:"title" jsonschema:"required,short task title"`
	Description string `json:"description,omitempty" jsonschema:"optional longer description"`
	Deadline    string `json:"deadline,omitempty" jsonschema:"optional deadline as RFC 3339 timestamp"`
	Importance  int    `json:"importance,omitempty" jsonschema:"importance score 1-10"`
	Urgency     int    `json:"urgency,omitempty" jsonschema:"urgency score 1-10"`
	Category    string `json:"category,omitempty" jsonschema:"free-form category"`
}

type taskOutput struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Type     string `json:"type,omitempty"`
	Deadline string `json:"deadline,omitempty"`
	Quadrant string `json:"quadrant,omitempty"`
}

type listTasksInput struct {
	Status string `json:"status,omitempty" jsonschema:"filter by status (open, completed) or all"`
	Window string `json:"window,omitempty" jsonschema:"prioritized view window (today, week, month, all); when set the list is Eisenhower-ranked"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type memorySearchInput struct {
	Query string `json:"query" jsonschema:"required,free-text search over stored memory"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum results, default 3"`
}

type memoryHit struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

type memorySearchOutput struct {
	Hits  []memoryHit `json:"hits"`
	Count int         `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "process_request",
		Description: "Route a natural-language request through the assistant: intent classification, domain agents, and response synthesis.",
	}, s.handleProcessRequest)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_task",
		Description: "Store a task in the brain. Type (todo, aufgabe, termin, event) is derived from the fields.",
	}, s.handleAddTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List stored tasks, optionally filtered by status or ranked by Eisenhower quadrant for a time window.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "memory_search",
		Description: "Search conversational memory by similarity and return the best-matching snippets.",
	}, s.handleMemorySearch)
}

// --- Tool handlers ---

func (s *Server) handleProcessRequest(ctx context.Context, _ *gomcp.CallToolRequest, input processRequestInput) (*gomcp.CallToolResult, processRequestOutput, error) {
	if input.Message == "" {
		return errorResult("message is required"), processRequestOutput{}, nil
	}

	resp := s.orch.ProcessRequest(ctx, input.Message)
	out := processRequestOutput{
		Text:      resp.Text,
		UIPayload: resp.UIPayload,
		SessionID: resp.Session.SessionID,
	}
	return nil, out, nil
}

func (s *Server) handleAddTask(ctx context.Context, _ *gomcp.CallToolRequest, input addTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if s.store == nil {
		return errorResult("task store not available"), taskOutput{}, nil
	}
	if input.Title == "" {
		return errorResult("title is required"), taskOutput{}, nil
	}

	task := types.Task{
		Title:         input.Title,
		Description:   input.Description,
		ImportanceScr: input.Importance,
		UrgencyScr:    input.Urgency,
		Category:      input.Category,
	}
	if input.Deadline != "" {
		deadline, err := time.Parse(time.RFC3339, input.Deadline)
		if err != nil {
			return errorResult(fmt.Sprintf("parsing deadline: %s", err)), taskOutput{}, nil
		}
		task.DeadlineAt = &deadline
	}

	stored, err := s.store.StoreTask(ctx, task)
	if err != nil {
		return errorResult(fmt.Sprintf("storing task: %s", err)), taskOutput{}, nil
	}
	return nil, taskToOutput(stored, ""), nil
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	if s.store == nil {
		return errorResult("task store not available"), listTasksOutput{}, nil
	}

	if input.Window != "" {
		window := types.Window(input.Window)
		scored := s.store.EisenhowerMatrix(window, time.Now())
		out := listTasksOutput{Tasks: make([]taskOutput, len(scored)), Count: len(scored)}
		for i, st := range scored {
			out.Tasks[i] = taskToOutput(st.Task, string(st.Quadrant))
		}
		return nil, out, nil
	}

	tasks := s.store.Tasks(storage.TaskFilter{Status: input.Status})
	out := listTasksOutput{Tasks: make([]taskOutput, len(tasks)), Count: len(tasks)}
	for i, task := range tasks {
		out.Tasks[i] = taskToOutput(task, "")
	}
	return nil, out, nil
}

func (s *Server) handleMemorySearch(ctx context.Context, _ *gomcp.CallToolRequest, input memorySearchInput) (*gomcp.CallToolResult, memorySearchOutput, error) {
	if s.store == nil {
		return errorResult("memory not available"), memorySearchOutput{}, nil
	}
	if input.Query == "" {
		return errorResult("query is required"), memorySearchOutput{}, nil
	}

	hits := s.store.Query(ctx, input.Query, input.Limit)
	out := memorySearchOutput{Hits: make([]memoryHit, len(hits)), Count: len(hits)}
	for i, hit := range hits {
		out.Hits[i] = memoryHit{Text: hit.Text, Score: hit.Score}
	}
	return nil, out, nil
}

// --- Helpers ---

func taskToOutput(t types.Task, quadrant string) taskOutput {
	out := taskOutput{
		ID:       t.ID,
		Title:    t.Title,
		Status:   string(t.Status),
		Priority: string(t.Priority),
		Type:     t.Type,
		Quadrant: quadrant,
	}
	if t.DeadlineAt != nil {
		out.Deadline = t.DeadlineAt.Format(time.RFC3339)
	}
	return out
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
