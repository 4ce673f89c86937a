package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestResult_WireShape(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   map[string]any
	}{
		{
			name:   "ok",
			result: OK(map[string]any{"count": float64(2)}),
			want: map[string]any{
				"success":       true,
				"data":          map[string]any{"count": float64(2)},
				"auth_required": false,
			},
		},
		{
			name:   "error",
			result: Errf("gmail: %s", "quota exceeded"),
			want: map[string]any{
				"success":       false,
				"data":          nil,
				"error":         "gmail: quota exceeded",
				"auth_required": false,
			},
		},
		{
			name:   "auth required",
			result: AuthRequired("login needed"),
			want: map[string]any{
				"success":       false,
				"data":          nil,
				"error":         "login needed",
				"auth_required": true,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := json.Marshal(tt.result)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var got map[string]any
			if err := json.Unmarshal(encoded, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("wire shape mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResult_WireRoundTrip(t *testing.T) {
	for _, original := range []Result{
		OK("done"),
		Errf("boom"),
		AuthRequired(""),
	} {
		encoded, err := json.Marshal(original)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var decoded Result
		if err := json.Unmarshal(encoded, &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if decoded.Kind != original.Kind {
			t.Errorf("kind changed over the wire: %v -> %v", original.Kind, decoded.Kind)
		}
	}
}

func TestAuthRequired_DefaultMessage(t *testing.T) {
	r := AuthRequired("")
	if r.Err != "Authentication required" {
		t.Errorf("unexpected default message %q", r.Err)
	}
	if r.Success() {
		t.Error("auth-required result must never be successful")
	}
}

func TestTask_FixedTime(t *testing.T) {
	at := time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"plain todo", Task{Title: "x"}, false},
		{"termin timestamp", Task{TerminAt: &at}, true},
		{"event timestamp", Task{EventAt: &at}, true},
		{"termin type only", Task{Type: "termin"}, true},
		{"event type only", Task{Type: "event"}, true},
		{"deadline is not fixed", Task{DeadlineAt: &at}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.FixedTime(); got != tt.want {
				t.Errorf("FixedTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDomain_Valid(t *testing.T) {
	for _, d := range KnownDomains() {
		if !d.Valid() {
			t.Errorf("known domain %q reported invalid", d)
		}
	}
	if Domain("facebook").Valid() {
		t.Error("unknown domain reported valid")
	}
}

func TestQuadrant_Label(t *testing.T) {
	if QuadrantQ1.Label() != "do first" {
		t.Errorf("Q1 label = %q", QuadrantQ1.Label())
	}
	if Quadrant("Q9").Label() != "unknown" {
		t.Errorf("unexpected label for bogus quadrant")
	}
}
