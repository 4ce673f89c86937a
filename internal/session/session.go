// Package session implements the per-request orchestration trace: an
// append-only, in-memory log of the steps taken while servicing one request.
// A session lives exactly as long as its request and is never persisted.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Step is one recorded orchestration step. Immutable once appended.
type Step struct {
	Timestamp time.Time `json:"timestamp"`
	Agent     string    `json:"agent"`
	Action    string    `json:"action"`
	Data      any       `json:"data,omitempty"`
}

// Summary is the wire-facing condensed view of a completed session.
type Summary struct {
	SessionID  string   `json:"sessionId"`
	Steps      int      `json:"steps"`
	Duration   string   `json:"duration"`
	AgentsUsed []string `json:"agentsUsed"`
}

// Session owns the ordered step sequence for one request. Appends are safe
// from concurrent agent goroutines.
type Session struct {
	mu        sync.Mutex
	id        string
	steps     []Step
	startTime time.Time
	endTime   time.Time
	final     any
	logger    *zap.Logger
}

// New opens a session with a fresh ID.
func New(logger *zap.Logger) *Session {
	return &Session{
		id:        uuid.NewString(),
		startTime: time.Now(),
		logger:    logger,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// AddStep appends one step to the trace. data may be nil.
func (s *Session) AddStep(agent, action string, data any) Step {
	step := Step{
		Timestamp: time.Now(),
		Agent:     agent,
		Action:    action,
		Data:      data,
	}

	s.mu.Lock()
	s.steps = append(s.steps, step)
	s.mu.Unlock()

	s.logger.Debug("session step",
		zap.String("session", s.id),
		zap.String("agent", agent),
		zap.String("action", action))
	return step
}

// Complete closes the session with the final response.
func (s *Session) Complete(finalResponse any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endTime = time.Now()
	s.final = finalResponse
}

// Final returns the response the session was completed with, or nil while
// the session is still open.
func (s *Session) Final() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.final
}

// Steps returns a copy of the recorded steps in append order.
func (s *Session) Steps() []Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Step, len(s.steps))
	copy(out, s.steps)
	return out
}

// Summary condenses the session for the response envelope. Agents are listed
// in order of first appearance.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	end := s.endTime
	if end.IsZero() {
		end = time.Now()
	}

	seen := make(map[string]bool)
	var agents []string
	for _, st := range s.steps {
		if !seen[st.Agent] {
			seen[st.Agent] = true
			agents = append(agents, st.Agent)
		}
	}

	return Summary{
		SessionID:  s.id,
		Steps:      len(s.steps),
		Duration:   end.Sub(s.startTime).Round(time.Millisecond).String(),
		AgentsUsed: agents,
	}
}
