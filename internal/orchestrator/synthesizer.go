package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/thomasbaier2/SecondBrain/internal/config"
	"github.com/thomasbaier2/SecondBrain/internal/llm"
	"github.com/thomasbaier2/SecondBrain/internal/types"
)

// Synthesizer folds the per-domain result map into one response. Synthesis is
// a fixed precedence chain: auth gate, mail aggregation, sync briefing,
// per-domain fallback, generic closing line. The structured payload is
// duplicated into the text as a fenced json block so transports that only
// carry text still deliver machine-readable data.
type Synthesizer struct {
	mu      sync.RWMutex
	intents config.IntentsConfig
	llm     llm.Client
	logger  *zap.Logger
}

// MailItem is the normalized mail shape used in payloads, independent of the
// nesting the producing agent chose.
type MailItem struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Snippet string `json:"snippet,omitempty"`
	Date    string `json:"date,omitempty"`
}

func NewSynthesizer(intents config.IntentsConfig, llmClient llm.Client, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{intents: intents, llm: llmClient, logger: logger}
}

// UpdateIntents swaps the keyword sets (config hot-reload).
func (s *Synthesizer) UpdateIntents(cfg config.IntentsConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents = cfg
}

// Synthesize builds the response text and UI payload from the raw results.
// The sync decision is recomputed from the raw message so the synthesizer
// stays correct even when called with a partial analysis.
func (s *Synthesizer) Synthesize(ctx context.Context, message string, analysis IntentAnalysis, results map[string]types.Result) Response {
	s.mu.RLock()
	intents := s.intents
	s.mu.RUnlock()

	// 1. Auth gate: any domain demanding login preempts everything else.
	for _, domain := range types.KnownDomains() {
		result, ok := results[string(domain)]
		if !ok || !result.NeedsAuth() {
			continue
		}
		loginURL := intents.LoginURLs[string(domain)]
		payload := map[string]any{
			"ui_type":   "auth_redirect",
			"domain":    string(domain),
			"login_url": loginURL,
		}
		text := fmt.Sprintf("Ich brauche Zugriff auf %s, um das zu erledigen. Bitte melde dich hier an: %s", domain, loginURL)
		return Response{Text: s.withPayloadBlock(text, payload), UIPayload: payload}
	}

	// 2. Mail aggregation across all domains and nesting shapes.
	mails, failed := collectMails(results)

	isSync := containsAny(strings.ToLower(message), intents.Sync)

	// 3. Sync briefing consumes the aggregation; outside sync mode a
	// non-empty mailbox becomes a plain mail list.
	if isSync {
		return s.briefing(ctx, results, mails, failed)
	}
	if len(mails) > 0 {
		payload := map[string]any{
			"ui_type": "mail_list",
			"count":   len(mails),
			"mails":   mails,
		}
		text := fmt.Sprintf("Ich habe %d relevante Mails gefunden:", len(mails))
		return Response{Text: s.withPayloadBlock(text, payload), UIPayload: payload}
	}

	// 4. Per-domain fallback: surface whichever structured list a single
	// domain produced.
	if events := collectEvents(results); len(events) > 0 {
		count := gjson.ParseBytes(events).Get("#").Int()
		payload := map[string]any{
			"ui_type": "calendar_list",
			"count":   count,
			"events":  json.RawMessage(events),
		}
		text := fmt.Sprintf("Hier sind deine %d anstehenden Termine:", count)
		return Response{Text: s.withPayloadBlock(text, payload), UIPayload: payload}
	}
	if tasks := collectTasks(results); len(tasks) > 0 {
		count := gjson.ParseBytes(tasks).Get("#").Int()
		payload := map[string]any{
			"ui_type": "task_list_v2",
			"count":   count,
			"tasks":   json.RawMessage(tasks),
		}
		text := fmt.Sprintf("Du hast %d offene Aufgaben:", count)
		return Response{Text: s.withPayloadBlock(text, payload), UIPayload: payload}
	}

	// 5. Nothing recognizably structured came back.
	return Response{Text: "Analyse abgeschlossen. Ich habe die angefragten Cluster geprüft."}
}

// briefing renders the sync-mode overview: one section per non-empty data
// kind, failing domains named, and an explicit all-clear when everything is
// empty.
func (s *Synthesizer) briefing(ctx context.Context, results map[string]types.Result, mails []MailItem, failed []string) Response {
	events := collectEvents(results)
	tasks := collectTasks(results)

	sectionsJSON := []byte("[]")
	addSection := func(sectionType, title string, raw []byte) {
		section, _ := json.Marshal(map[string]string{"type": sectionType, "title": title})
		section, _ = sjson.SetRawBytes(section, "data", raw)
		sectionsJSON, _ = sjson.SetRawBytes(sectionsJSON, "-1", section)
	}
	if len(events) > 0 {
		addSection("calendar", "Termine", events)
	}
	if len(tasks) > 0 {
		addSection("tasks", "Aufgaben", tasks)
	}
	if len(mails) > 0 {
		mailsJSON, _ := json.Marshal(mails)
		addSection("mails", "Neue Mails", mailsJSON)
	}

	payload := map[string]any{
		"ui_type":  "routine_briefing",
		"title":    "Dein Überblick",
		"sections": json.RawMessage(sectionsJSON),
	}

	var parts []string
	switch {
	case len(events) == 0 && len(tasks) == 0 && len(mails) == 0:
		parts = append(parts, "Aktuell ist nichts offen: keine Termine, keine Aufgaben, keine neuen Mails.")
	default:
		parts = append(parts, "Hier ist dein Überblick.")
		if len(mails) > 0 {
			parts = append(parts, s.summarizeMails(ctx, mails))
		}
	}
	if len(failed) > 0 {
		parts = append(parts, "Ich konnte heute leider nicht alle Daten abrufen.")
		for _, domain := range failed {
			parts = append(parts, "Fehler bei: "+domain)
		}
	}

	return Response{
		Text:      s.withPayloadBlock(strings.Join(parts, " "), payload),
		UIPayload: payload,
	}
}

// summarizeMails asks the generation capability for a short digest of the
// first mails. Generation failure falls back to a fixed apology so the
// briefing never breaks on a flaky model.
func (s *Synthesizer) summarizeMails(ctx context.Context, mails []MailItem) string {
	const fallback = "Eine Zusammenfassung der Mails konnte ich leider gerade nicht erstellen."
	if s.llm == nil {
		return fallback
	}

	sample := mails
	if len(sample) > 10 {
		sample = sample[:10]
	}
	var b strings.Builder
	b.WriteString("Fasse die folgenden Mails in zwei bis drei Sätzen auf Deutsch zusammen. Nenne nur, was wirklich wichtig ist.\n\n")
	for _, m := range sample {
		fmt.Fprintf(&b, "- Von %s: %s (%s)\n", m.From, m.Subject, m.Snippet)
	}

	summary, err := s.llm.Generate(ctx, b.String())
	if err != nil {
		s.logger.Warn("mail summary failed", zap.Error(err))
		return fallback
	}
	return strings.TrimSpace(summary)
}

// withPayloadBlock appends the payload to the text as a fenced json block.
func (s *Synthesizer) withPayloadBlock(text string, payload map[string]any) string {
	encoded, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("payload encoding failed", zap.Error(err))
		return text
	}
	return text + "\n\n```json\n" + string(encoded) + "\n```"
}

// collectMails pulls mail items out of every successful result, tolerating
// the known nesting shapes (a bare array, {mails: [...]}, and
// {mails: {mails: [...]}}), and returns them newest first. Failed domains are
// reported alongside so the briefing can name them.
func collectMails(results map[string]types.Result) (mails []MailItem, failed []string) {
	for _, domain := range types.KnownDomains() {
		result, ok := results[string(domain)]
		if !ok {
			continue
		}
		if result.Failed() {
			failed = append(failed, string(domain))
			continue
		}
		raw, err := jsonMarshal(result.Data)
		if err != nil {
			continue
		}
		arr := firstArray(raw, "@this", "mails", "mails.mails")
		for _, item := range arr {
			mails = append(mails, MailItem{
				ID:      item.Get("id").String(),
				From:    firstString(item, "from", "sender"),
				Subject: item.Get("subject").String(),
				Snippet: firstString(item, "snippet", "preview"),
				Date:    firstString(item, "date", "receivedAt"),
			})
		}
	}
	sort.SliceStable(mails, func(i, j int) bool {
		return mailDate(mails[i]).After(mailDate(mails[j]))
	})
	return mails, failed
}

// collectEvents returns the first calendar event array found in any
// successful result, as raw JSON, or nil.
func collectEvents(results map[string]types.Result) []byte {
	return collectArray(results, "calendar.events", "events")
}

// collectTasks returns the first task array found in any successful result.
func collectTasks(results map[string]types.Result) []byte {
	return collectArray(results, "tasks.tasks", "tasks")
}

func collectArray(results map[string]types.Result, paths ...string) []byte {
	for _, domain := range types.KnownDomains() {
		result, ok := results[string(domain)]
		if !ok || !result.Success() {
			continue
		}
		raw, err := jsonMarshal(result.Data)
		if err != nil {
			continue
		}
		for _, path := range paths {
			if v := gjson.GetBytes(raw, path); v.IsArray() && len(v.Array()) > 0 {
				return []byte(v.Raw)
			}
		}
	}
	return nil
}

// firstArray probes the paths in order and returns the elements of the first
// one that is a non-empty array of mail-like objects. "@this" matches data
// that is itself the array. Any element carrying a subject, from, or sender
// field qualifies the whole array, so one sparse item cannot drop the list.
func firstArray(raw []byte, paths ...string) []gjson.Result {
	for _, path := range paths {
		v := gjson.GetBytes(raw, path)
		if !v.IsArray() {
			continue
		}
		arr := v.Array()
		for _, item := range arr {
			if !item.IsObject() {
				break
			}
			if item.Get("subject").Exists() || item.Get("from").Exists() || item.Get("sender").Exists() {
				return arr
			}
		}
	}
	return nil
}

func firstString(item gjson.Result, paths ...string) string {
	for _, path := range paths {
		if v := item.Get(path); v.Exists() {
			return v.String()
		}
	}
	return ""
}

func mailDate(m MailItem) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, m.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}

func jsonMarshal(v any) ([]byte, error) {
	return json.Marshal(v)
}
