package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/thomasbaier2/SecondBrain/internal/config"
	"github.com/thomasbaier2/SecondBrain/internal/types"
)

func newTestSynthesizer(llm *fakeLLM) *Synthesizer {
	if llm == nil {
		return NewSynthesizer(config.DefaultConfig().Intents, nil, zap.NewNop())
	}
	return NewSynthesizer(config.DefaultConfig().Intents, llm, zap.NewNop())
}

// payloadBlock extracts and parses the fenced json block from the response
// text, the shape a text-only transport would see.
func payloadBlock(t *testing.T, text string) gjson.Result {
	t.Helper()
	_, rest, found := strings.Cut(text, "```json\n")
	require.True(t, found, "text should contain a fenced json block: %q", text)
	encoded, _, found := strings.Cut(rest, "\n```")
	require.True(t, found)
	require.True(t, gjson.Valid(encoded), "payload block must be valid JSON")
	return gjson.Parse(encoded)
}

func flatMails(mails ...map[string]any) types.Result {
	return types.OK(map[string]any{"count": len(mails), "mails": mails})
}

func TestSynthesize_AuthGate(t *testing.T) {
	s := newTestSynthesizer(nil)

	resp := s.Synthesize(context.Background(), "sync", IntentAnalysis{}, map[string]types.Result{
		"gmail":      types.AuthRequired("login required"),
		"salesforce": types.OK(map[string]any{"count": 1}),
	})

	assert.Equal(t, "auth_redirect", resp.UIPayload["ui_type"])
	assert.Equal(t, "gmail", resp.UIPayload["domain"])
	assert.Contains(t, resp.Text, "/api/auth/google/login")

	block := payloadBlock(t, resp.Text)
	assert.Equal(t, "auth_redirect", block.Get("ui_type").String())
}

func TestSynthesize_MailListOutsideSyncMode(t *testing.T) {
	s := newTestSynthesizer(nil)

	resp := s.Synthesize(context.Background(), "zeig mir meine mails", IntentAnalysis{}, map[string]types.Result{
		"gmail": flatMails(
			map[string]any{"id": "gm1", "sender": "Investment Bank", "subject": "Budget approval required", "date": "2026-02-03"},
			map[string]any{"id": "gm2", "sender": "HR Dept", "subject": "New Hire Onboarding", "date": "2026-02-04"},
		),
	})

	assert.Equal(t, "mail_list", resp.UIPayload["ui_type"])
	assert.Equal(t, 2, resp.UIPayload["count"])

	block := payloadBlock(t, resp.Text)
	// Newest first.
	assert.Equal(t, "New Hire Onboarding", block.Get("mails.0.subject").String())
	assert.Equal(t, "Budget approval required", block.Get("mails.1.subject").String())
	assert.Equal(t, "Investment Bank", block.Get("mails.1.from").String())
}

func TestSynthesize_MailAggregationAcrossNestingShapes(t *testing.T) {
	s := newTestSynthesizer(nil)

	resp := s.Synthesize(context.Background(), "mails bitte", IntentAnalysis{}, map[string]types.Result{
		"gmail": flatMails(
			map[string]any{"id": "gm1", "sender": "Investment Bank", "subject": "Budget approval required", "date": "2026-02-03"},
		),
		"ms_graph": types.OK(map[string]any{
			"mails": map[string]any{
				"count": 1,
				"mails": []map[string]any{
					{"id": "ol1", "from": "Procurement", "subject": "Vendor contract renewal", "date": "2026-02-04"},
				},
			},
		}),
	})

	block := payloadBlock(t, resp.Text)
	assert.Equal(t, int64(2), block.Get("count").Int())
	assert.Equal(t, "Vendor contract renewal", block.Get("mails.0.subject").String())
	assert.Equal(t, "Procurement", block.Get("mails.0.from").String())
}

func TestSynthesize_MailMissingSubjectDoesNotDropList(t *testing.T) {
	s := newTestSynthesizer(nil)

	resp := s.Synthesize(context.Background(), "mails bitte", IntentAnalysis{}, map[string]types.Result{
		"gmail": flatMails(
			map[string]any{"id": "gm1", "sender": "Noreply", "date": "2026-02-03"},
			map[string]any{"id": "gm2", "sender": "HR Dept", "subject": "New Hire Onboarding", "date": "2026-02-04"},
		),
	})

	require.Equal(t, "mail_list", resp.UIPayload["ui_type"])
	block := payloadBlock(t, resp.Text)
	assert.Equal(t, int64(2), block.Get("count").Int())
	assert.Equal(t, "New Hire Onboarding", block.Get("mails.0.subject").String())
	assert.Equal(t, "Noreply", block.Get("mails.1.from").String())
}

func TestSynthesize_SyncBriefingWithSections(t *testing.T) {
	llm := &fakeLLM{text: "Eine Mail zum Budget wartet auf Freigabe."}
	s := newTestSynthesizer(llm)

	resp := s.Synthesize(context.Background(), "sync", IntentAnalysis{}, map[string]types.Result{
		"gmail": flatMails(
			map[string]any{"id": "gm1", "sender": "Investment Bank", "subject": "Budget approval required", "date": "2026-02-03"},
		),
		"ms_graph": types.OK(map[string]any{
			"calendar": map[string]any{"count": 1, "events": []map[string]any{
				{"id": "ev1", "subject": "Projekt Delta Review", "start": "2026-02-04T14:00:00"},
			}},
			"tasks": map[string]any{"count": 1, "tasks": []map[string]any{
				{"id": "ms1", "task": "Review Project Delta Docs"},
			}},
		}),
	})

	assert.Equal(t, "routine_briefing", resp.UIPayload["ui_type"])
	assert.Contains(t, resp.Text, "Eine Mail zum Budget wartet auf Freigabe.")

	block := payloadBlock(t, resp.Text)
	sections := block.Get("sections")
	require.True(t, sections.IsArray())

	byType := map[string]gjson.Result{}
	for _, section := range sections.Array() {
		byType[section.Get("type").String()] = section
	}
	require.Contains(t, byType, "calendar")
	require.Contains(t, byType, "tasks")
	require.Contains(t, byType, "mails")
	assert.Equal(t, "Projekt Delta Review", byType["calendar"].Get("data.0.subject").String())
	assert.Equal(t, "Budget approval required", byType["mails"].Get("data.0.subject").String())
}

func TestSynthesize_SyncBriefingOmitsEmptySections(t *testing.T) {
	s := newTestSynthesizer(nil)

	resp := s.Synthesize(context.Background(), "sync", IntentAnalysis{}, map[string]types.Result{
		"ms_graph": types.OK(map[string]any{
			"calendar": map[string]any{"count": 1, "events": []map[string]any{
				{"id": "ev1", "subject": "Projekt Delta Review", "start": "2026-02-04T14:00:00"},
			}},
			"tasks": map[string]any{"count": 0, "tasks": []map[string]any{}},
		}),
	})

	block := payloadBlock(t, resp.Text)
	sections := block.Get("sections").Array()
	require.Len(t, sections, 1)
	assert.Equal(t, "calendar", sections[0].Get("type").String())
}

func TestSynthesize_EmptySyncSaysNothingPending(t *testing.T) {
	s := newTestSynthesizer(nil)

	resp := s.Synthesize(context.Background(), "sync", IntentAnalysis{}, map[string]types.Result{
		"gmail": flatMails(),
	})

	assert.Equal(t, "routine_briefing", resp.UIPayload["ui_type"])
	assert.Contains(t, resp.Text, "Aktuell ist nichts offen")
}

func TestSynthesize_SyncNamesFailingDomains(t *testing.T) {
	s := newTestSynthesizer(nil)

	resp := s.Synthesize(context.Background(), "sync", IntentAnalysis{}, map[string]types.Result{
		"gmail":    flatMails(),
		"ms_graph": types.Errf("graph timeout"),
	})

	assert.Contains(t, resp.Text, "Ich konnte heute leider nicht alle Daten abrufen.")
	assert.Contains(t, resp.Text, "Fehler bei: ms_graph")
}

func TestSynthesize_MailSummaryFallbackOnLLMError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("model unavailable")}
	s := newTestSynthesizer(llm)

	resp := s.Synthesize(context.Background(), "sync", IntentAnalysis{}, map[string]types.Result{
		"gmail": flatMails(
			map[string]any{"id": "gm1", "sender": "Investment Bank", "subject": "Budget approval required", "date": "2026-02-03"},
		),
	})

	assert.Contains(t, resp.Text, "Zusammenfassung")
	assert.Equal(t, "routine_briefing", resp.UIPayload["ui_type"])
}

func TestSynthesize_CalendarFallback(t *testing.T) {
	s := newTestSynthesizer(nil)

	resp := s.Synthesize(context.Background(), "was steht im kalender", IntentAnalysis{}, map[string]types.Result{
		"ms_graph": types.OK(map[string]any{"count": 2, "events": []map[string]any{
			{"id": "ev1", "subject": "Projekt Delta Review", "start": "2026-02-04T14:00:00"},
			{"id": "ev2", "subject": "1:1 mit CEO", "start": "2026-02-05T11:00:00"},
		}}),
	})

	assert.Equal(t, "calendar_list", resp.UIPayload["ui_type"])
	block := payloadBlock(t, resp.Text)
	assert.Equal(t, int64(2), block.Get("count").Int())
	assert.Equal(t, "1:1 mit CEO", block.Get("events.1.subject").String())
}

func TestSynthesize_TaskListFallback(t *testing.T) {
	s := newTestSynthesizer(nil)

	resp := s.Synthesize(context.Background(), "welche aufgabe ist offen", IntentAnalysis{}, map[string]types.Result{
		"tasks": types.OK(map[string]any{"count": 1, "tasks": []map[string]any{
			{"id": "t1", "title": "Prepare quarterly report"},
		}}),
	})

	assert.Equal(t, "task_list_v2", resp.UIPayload["ui_type"])
	block := payloadBlock(t, resp.Text)
	assert.Equal(t, "Prepare quarterly report", block.Get("tasks.0.title").String())
}

func TestSynthesize_DefaultClosingLine(t *testing.T) {
	s := newTestSynthesizer(nil)

	resp := s.Synthesize(context.Background(), "danke dir", IntentAnalysis{}, map[string]types.Result{
		"salesforce": types.OK(map[string]any{"count": 0, "opportunities": []any{}}),
	})

	assert.Nil(t, resp.UIPayload)
	assert.Contains(t, resp.Text, "Analyse abgeschlossen")
}
