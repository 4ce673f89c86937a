// Package priority implements Eisenhower-style scoring over stored tasks and
// an independent keyword-based triage classifier for inbox items.
//
// The two classifiers use separately numbered quadrant schemes by design:
// ScoredTask quadrants are labelled Q1..Q4, inbox quadrants are 1..4 with 1
// being the most actionable. They are never reconciled.
package priority

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/thomasbaier2/SecondBrain/internal/config"
	"github.com/thomasbaier2/SecondBrain/internal/types"
)

const (
	defaultScore      = 5  // used when a stored score is absent (zero)
	maxScore          = 10
	quadrantThreshold = 5 // inclusive on the high side, midpoint of 1-10
	dependencyFloor   = 8 // minimum urgency when a hot dependency exists
)

// Engine scores tasks and triages inbox items. Scoring is pure; the only
// state is the triage keyword sets, which are swappable at runtime.
type Engine struct {
	mu        sync.RWMutex
	urgent    []string
	important []string
}

// NewEngine creates an engine with the given triage keyword sets.
func NewEngine(cfg config.TriageConfig) *Engine {
	e := &Engine{}
	e.UpdateTriage(cfg)
	return e
}

// UpdateTriage swaps the triage keyword sets (config hot-reload).
func (e *Engine) UpdateTriage(cfg config.TriageConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.urgent = lowerAll(cfg.UrgentKeywords)
	e.important = lowerAll(cfg.ImportantKeywords)
}

// =============================================================================
// STORED-TASK SCORING
// =============================================================================

// Classify derives the scored view of one task at the given instant. byID is
// the id->task index used to resolve the direct dependency parent; only one
// hop is ever taken, so cycles in raw data cannot recurse.
func (e *Engine) Classify(task types.Task, byID map[string]types.Task, now time.Time) types.ScoredTask {
	urgency := deadlineAdjustedUrgency(task, now)
	importance := task.ImportanceScr
	if importance == 0 {
		importance = defaultScore
	}

	// Dependency propagation: a task blocked on something hot is itself hot.
	// The parent's urgency is its own deadline-adjusted score; the parent's
	// dependencies are deliberately not followed.
	if task.DependencyID != "" {
		if parent, ok := byID[task.DependencyID]; ok {
			if deadlineAdjustedUrgency(parent, now) > 7 || parent.FixedTime() {
				if urgency < dependencyFloor {
					urgency = dependencyFloor
				}
			}
		}
	}

	return types.ScoredTask{
		Task:                 task,
		CalculatedUrgency:    urgency,
		CalculatedImportance: importance,
		Quadrant:             quadrantFor(urgency, importance),
	}
}

// ClassifyAll scores a task list, resolving dependencies within the list.
func (e *Engine) ClassifyAll(tasks []types.Task, now time.Time) []types.ScoredTask {
	byID := make(map[string]types.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	scored := make([]types.ScoredTask, 0, len(tasks))
	for _, t := range tasks {
		scored = append(scored, e.Classify(t, byID, now))
	}
	return scored
}

// FilterByWindow keeps the scored tasks visible in the given horizon. Tasks
// without a deadline are included only when their calculated urgency clears
// the window's threshold.
func FilterByWindow(scored []types.ScoredTask, window types.Window, now time.Time) []types.ScoredTask {
	if window == types.WindowAll || window == "" {
		return scored
	}

	var days int
	var minUrgency int
	switch window {
	case types.WindowToday:
		days, minUrgency = 1, 8
	case types.WindowWeek:
		days, minUrgency = 7, 6
	case types.WindowMonth:
		days, minUrgency = 30, 4
	default:
		return scored
	}

	cutoff := now.Add(time.Duration(days) * 24 * time.Hour)
	var out []types.ScoredTask
	for _, st := range scored {
		if st.DeadlineAt != nil && !st.DeadlineAt.After(cutoff) {
			out = append(out, st)
			continue
		}
		if st.CalculatedUrgency >= minUrgency {
			out = append(out, st)
		}
	}
	return out
}

// deadlineAdjustedUrgency applies the deadline rules to a task's base urgency:
// past deadline forces 10, within one day adds 4, within three days adds 2.
func deadlineAdjustedUrgency(task types.Task, now time.Time) int {
	urgency := task.UrgencyScr
	if urgency == 0 {
		urgency = defaultScore
	}

	if task.DeadlineAt == nil {
		return urgency
	}

	until := task.DeadlineAt.Sub(now)
	switch {
	case until < 0:
		return maxScore // overdue
	case until <= 24*time.Hour:
		urgency += 4
	case until <= 3*24*time.Hour:
		urgency += 2
	}

	if urgency > maxScore {
		urgency = maxScore
	}
	return urgency
}

func quadrantFor(urgency, importance int) types.Quadrant {
	highU := urgency >= quadrantThreshold
	highI := importance >= quadrantThreshold
	switch {
	case highU && highI:
		return types.QuadrantQ1
	case !highU && highI:
		return types.QuadrantQ2
	case highU && !highI:
		return types.QuadrantQ3
	default:
		return types.QuadrantQ4
	}
}

// =============================================================================
// KEYWORD TRIAGE (inbox items)
// =============================================================================

// ClassifyKeywords triages an inbox item purely by keyword matching over its
// concatenated title, body, and labels.
func (e *Engine) ClassifyKeywords(item types.InboxItem) types.InboxClassification {
	parts := append([]string{item.Title, item.Body}, item.Labels...)
	text := strings.ToLower(strings.Join(parts, " "))

	e.mu.RLock()
	urgent := containsAny(text, e.urgent)
	important := containsAny(text, e.important)
	e.mu.RUnlock()

	var quadrant types.InboxQuadrant
	switch {
	case urgent && important:
		quadrant = 1 // do first
	case !urgent && important:
		quadrant = 2 // schedule
	case urgent && !important:
		quadrant = 3 // delegate
	default:
		quadrant = 4 // don't do
	}

	return types.InboxClassification{Quadrant: quadrant, Urgent: urgent, Important: important}
}

// PrioritizeItems returns a new list sorted by quadrant ascending, then
// timestamp descending within a quadrant. The input list is not mutated.
func (e *Engine) PrioritizeItems(items []types.InboxItem) []types.InboxItem {
	type ranked struct {
		item     types.InboxItem
		quadrant types.InboxQuadrant
	}

	rankedItems := make([]ranked, len(items))
	for i, item := range items {
		rankedItems[i] = ranked{item: item, quadrant: e.ClassifyKeywords(item).Quadrant}
	}

	sort.SliceStable(rankedItems, func(i, j int) bool {
		if rankedItems[i].quadrant != rankedItems[j].quadrant {
			return rankedItems[i].quadrant < rankedItems[j].quadrant
		}
		return rankedItems[i].item.Timestamp.After(rankedItems[j].item.Timestamp)
	})

	out := make([]types.InboxItem, len(rankedItems))
	for i, r := range rankedItems {
		out[i] = r.item
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
