// Package agents implements the per-domain handlers dispatched by the
// orchestrator. Each agent sits on top of a connector seam so demo data and
// real provider clients are interchangeable.
package agents

import "context"

// Mail is one inbox item as a provider reports it. The field naming follows
// the provider: Gmail reports "sender", Microsoft Graph reports "from"; the
// synthesizer tolerates both.
type Mail struct {
	ID         string `json:"id"`
	Sender     string `json:"sender,omitempty"`
	From       string `json:"from,omitempty"`
	Subject    string `json:"subject"`
	Snippet    string `json:"snippet,omitempty"`
	Date       string `json:"date"`
	Importance int    `json:"importance,omitempty"`
}

// Event is one calendar entry.
type Event struct {
	ID       string `json:"id"`
	Subject  string `json:"subject"`
	Start    string `json:"start"`
	End      string `json:"end,omitempty"`
	Location string `json:"location,omitempty"`
}

// ProviderTask is one outstanding item from an external task source.
type ProviderTask struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Task   string `json:"task"`
	Due    string `json:"due,omitempty"`
}

// Opportunity is one CRM opportunity.
type Opportunity struct {
	ID          string `json:"id"`
	Account     string `json:"account"`
	Value       string `json:"value"`
	Stage       string `json:"stage"`
	Probability string `json:"probability"`
}

// GmailConnector fetches flagged mail. Authorized reports whether usable
// credentials are present; agents translate false into an auth-required
// result instead of calling Fetch.
type GmailConnector interface {
	Authorized() bool
	Mails(ctx context.Context, days int) ([]Mail, error)
}

// GraphConnector covers the Microsoft surface: calendar, to-dos and mail.
type GraphConnector interface {
	Authorized() bool
	Events(ctx context.Context, days int) ([]Event, error)
	Tasks(ctx context.Context) ([]ProviderTask, error)
	Mails(ctx context.Context, days int) ([]Mail, error)
}

// SalesforceConnector fetches high-value opportunities.
type SalesforceConnector interface {
	Authorized() bool
	Opportunities(ctx context.Context) ([]Opportunity, error)
}

// CreatedAppointment is the confirmation shape returned after scheduling a
// calendar entry. StartTime is surfaced top-level for policy rules.
type CreatedAppointment struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime,omitempty"`
	Location  string `json:"location,omitempty"`
}
