// Package types provides shared type definitions used across SecondBrain packages.
// This package exists to break import cycles between the orchestrator, agents,
// priority, and storage packages. Types here should be foundational data
// structures with no complex dependencies.
package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// DOMAINS
// =============================================================================

// Domain identifies a source a request can be routed to.
type Domain string

const (
	DomainGmail      Domain = "gmail"
	DomainMsGraph    Domain = "ms_graph"
	DomainSalesforce Domain = "salesforce"
	DomainTasks      Domain = "tasks"
)

// KnownDomains returns the closed set of routable domains.
func KnownDomains() []Domain {
	return []Domain{DomainGmail, DomainMsGraph, DomainSalesforce, DomainTasks}
}

// Valid reports whether d is one of the known domains.
func (d Domain) Valid() bool {
	switch d {
	case DomainGmail, DomainMsGraph, DomainSalesforce, DomainTasks:
		return true
	default:
		return false
	}
}

// =============================================================================
// TASKS
// =============================================================================

// TaskStatus is the lifecycle state of a stored task.
type TaskStatus string

const (
	StatusOpen      TaskStatus = "open"
	StatusCompleted TaskStatus = "completed"
	StatusDeferred  TaskStatus = "deferred"
)

// Priority is the coarse user-facing priority label of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Task is a stored work item. Scores are on a 1-10 scale; zero means unset
// and is defaulted by the priority engine at classification time.
//
// DependencyID may reference another task's ID. Cycles can occur in raw data;
// consumers must only ever resolve the direct parent, never the transitive
// chain.
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	ImportanceScr int        `json:"importance_score,omitempty"`
	UrgencyScr    int        `json:"urgency_score,omitempty"`
	DeadlineAt    *time.Time `json:"deadline_at,omitempty"`
	ProcessAt     *time.Time `json:"process_at,omitempty"`
	TerminAt      *time.Time `json:"termin_at,omitempty"`
	EventAt       *time.Time `json:"event_at,omitempty"`
	DurationH     int        `json:"duration_h,omitempty"`
	DurationM     int        `json:"duration_m,omitempty"`
	DependencyID  string     `json:"dependency_id,omitempty"`
	Status        TaskStatus `json:"status"`
	Priority      Priority   `json:"priority"`
	Type          string     `json:"type,omitempty"`
	Category      string     `json:"category,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// FixedTime reports whether the task is a fixed-time/calendar item.
func (t Task) FixedTime() bool {
	return t.TerminAt != nil || t.EventAt != nil || t.Type == "termin" || t.Type == "event"
}

// Quadrant is the Eisenhower bucket of a scored task. Q1 is "do first",
// Q4 is "eliminate". Not to be confused with InboxQuadrant, which numbers
// its buckets independently.
type Quadrant string

const (
	QuadrantQ1 Quadrant = "Q1" // do first
	QuadrantQ2 Quadrant = "Q2" // schedule
	QuadrantQ3 Quadrant = "Q3" // delegate
	QuadrantQ4 Quadrant = "Q4" // eliminate
)

// Label returns the human-readable action for the quadrant.
func (q Quadrant) Label() string {
	switch q {
	case QuadrantQ1:
		return "do first"
	case QuadrantQ2:
		return "schedule"
	case QuadrantQ3:
		return "delegate"
	case QuadrantQ4:
		return "eliminate"
	default:
		return "unknown"
	}
}

// ScoredTask is a Task annotated with derived urgency/importance and its
// quadrant. Always computed on read, never persisted.
type ScoredTask struct {
	Task
	CalculatedUrgency    int      `json:"calculated_urgency"`
	CalculatedImportance int      `json:"calculated_importance"`
	Quadrant             Quadrant `json:"quadrant"`
}

// Window is a time horizon for filtering scored tasks.
type Window string

const (
	WindowAll   Window = "all"
	WindowToday Window = "today"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
)

// =============================================================================
// INBOX ITEMS (keyword classifier)
// =============================================================================

// InboxItem is an ungrouped item (typically a mail) classified purely by
// keyword matching, independent of the stored-task scoring path.
type InboxItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Labels    []string  `json:"labels,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// InboxQuadrant numbers keyword-classified buckets 1-4 where 1 is the most
// actionable. This ordering is inverted relative to Quadrant's Q1..Q4 labels
// and the two schemes are deliberately kept apart: call sites rely on each
// independently.
type InboxQuadrant int

// InboxClassification is the outcome of keyword-based triage.
type InboxClassification struct {
	Quadrant  InboxQuadrant `json:"quadrant"`
	Urgent    bool          `json:"urgent"`
	Important bool          `json:"important"`
}

// =============================================================================
// AGENT RESULTS
// =============================================================================

// ResultKind discriminates the tagged agent result union.
type ResultKind int

const (
	ResultOK ResultKind = iota
	ResultError
	ResultAuthRequired
)

// Result is the uniform outcome every domain agent returns. It replaces the
// loose {success, data, error, auth_required} convention with a closed union:
// exactly one of OK-with-data, error-with-message, or auth-required.
type Result struct {
	Kind ResultKind
	Data any
	Err  string
}

// OK builds a successful result carrying data.
func OK(data any) Result {
	return Result{Kind: ResultOK, Data: data}
}

// Errf builds a failed result with a formatted message.
func Errf(format string, args ...any) Result {
	return Result{Kind: ResultError, Err: fmt.Sprintf(format, args...)}
}

// AuthRequired builds a result signalling the domain needs authentication.
// Auth-required results are never successful.
func AuthRequired(msg string) Result {
	if msg == "" {
		msg = "Authentication required"
	}
	return Result{Kind: ResultAuthRequired, Err: msg}
}

// Success reports whether the result carries data.
func (r Result) Success() bool { return r.Kind == ResultOK }

// NeedsAuth reports whether the domain requires authentication.
func (r Result) NeedsAuth() bool { return r.Kind == ResultAuthRequired }

// Failed reports whether the result is an error of any kind.
func (r Result) Failed() bool { return r.Kind != ResultOK }

// resultWire is the legacy wire contract consumed by callers.
type resultWire struct {
	Success      bool   `json:"success"`
	Data         any    `json:"data"`
	Error        string `json:"error,omitempty"`
	AuthRequired bool   `json:"auth_required"`
}

// MarshalJSON emits the uniform {success, data, error, auth_required} shape.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultWire{
		Success:      r.Kind == ResultOK,
		Data:         r.Data,
		Error:        r.Err,
		AuthRequired: r.Kind == ResultAuthRequired,
	})
}

// UnmarshalJSON accepts the wire shape back into the tagged union.
func (r *Result) UnmarshalJSON(data []byte) error {
	var w resultWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.AuthRequired:
		*r = Result{Kind: ResultAuthRequired, Err: w.Error, Data: w.Data}
	case w.Success:
		*r = Result{Kind: ResultOK, Data: w.Data}
	default:
		*r = Result{Kind: ResultError, Err: w.Error, Data: w.Data}
	}
	return nil
}

// =============================================================================
// AGENT TASKS
// =============================================================================

// AgentTask is the per-domain work descriptor built by the dispatcher.
type AgentTask struct {
	Action  string              `json:"action"`
	Days    int                 `json:"days,omitempty"`
	Message string              `json:"message,omitempty"`
	Details *AppointmentDetails `json:"details,omitempty"`
}

// AppointmentDetails is the constrained shape extracted from free text when
// the user asks to create a calendar entry. Start/End are RFC 3339 strings as
// produced by the extraction prompt; End, Location and Description may be
// empty.
type AppointmentDetails struct {
	Subject     string `json:"subject"`
	Start       string `json:"start"`
	End         string `json:"end,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// =============================================================================
// POLICY & MEMORY
// =============================================================================

// PolicyResult is the outcome of validating a proposed action.
type PolicyResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// MemoryRecord is one indexed snippet of conversational memory. Immutable
// once written; the collection is append-only.
type MemoryRecord struct {
	Text      string         `json:"text"`
	Embedding []float32      `json:"embedding"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ScoredRecord is a memory record ranked against a query.
type ScoredRecord struct {
	MemoryRecord
	Score float64 `json:"score"`
}

// Preference is one learned user preference.
type Preference struct {
	Value      any       `json:"value"`
	Confidence float64   `json:"confidence"`
	LearnedAt  time.Time `json:"learned_at"`
}
