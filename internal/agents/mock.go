package agents

import "context"

// Mock connectors serve deterministic demo data so the whole pipeline can run
// without provider credentials. The records mirror a small fixed office
// scenario and are stable across runs.

// MockGmail is a GmailConnector over canned mail. The zero value is
// unauthorized; use NewMockGmail for the ready-to-use variant.
type MockGmail struct {
	authorized bool
}

func NewMockGmail() *MockGmail { return &MockGmail{authorized: true} }

// NewMockGmailUnauthorized simulates a missing or expired Google login.
func NewMockGmailUnauthorized() *MockGmail { return &MockGmail{} }

func (m *MockGmail) Authorized() bool { return m.authorized }

func (m *MockGmail) Mails(_ context.Context, _ int) ([]Mail, error) {
	return []Mail{
		{ID: "gm1", Sender: "Investment Bank", Subject: "Budget approval required", Date: "2026-02-03", Importance: 9},
		{ID: "gm2", Sender: "HR Dept", Subject: "New Hire Onboarding", Date: "2026-02-04", Importance: 5},
	}, nil
}

// MockGraph is a GraphConnector over canned Microsoft data.
type MockGraph struct {
	authorized bool
}

func NewMockGraph() *MockGraph { return &MockGraph{authorized: true} }

func NewMockGraphUnauthorized() *MockGraph { return &MockGraph{} }

func (m *MockGraph) Authorized() bool { return m.authorized }

func (m *MockGraph) Events(_ context.Context, _ int) ([]Event, error) {
	return []Event{
		{ID: "ev1", Subject: "Projekt Delta Review", Start: "2026-02-04T14:00:00", End: "2026-02-04T15:00:00", Location: "Teams"},
		{ID: "ev2", Subject: "1:1 mit CEO", Start: "2026-02-05T11:00:00", End: "2026-02-05T11:30:00"},
	}, nil
}

func (m *MockGraph) Tasks(_ context.Context) ([]ProviderTask, error) {
	return []ProviderTask{
		{ID: "ms1", Source: "Teams", Task: "Review Project Delta Docs", Due: "2026-02-04 18:00"},
		{ID: "ms2", Source: "Outlook", Task: "Reply to CEO message", Due: "2026-02-05"},
	}, nil
}

func (m *MockGraph) Mails(_ context.Context, _ int) ([]Mail, error) {
	return []Mail{
		{ID: "ol1", From: "Procurement", Subject: "Vendor contract renewal", Date: "2026-02-04", Snippet: "Contract expires end of month."},
	}, nil
}

// MockSalesforce is a SalesforceConnector over canned opportunities.
type MockSalesforce struct {
	authorized bool
}

func NewMockSalesforce() *MockSalesforce { return &MockSalesforce{authorized: true} }

func (m *MockSalesforce) Authorized() bool { return m.authorized }

func (m *MockSalesforce) Opportunities(_ context.Context) ([]Opportunity, error) {
	return []Opportunity{
		{ID: "sf1", Account: "Solar Tech AG", Value: "250.000€", Stage: "Negotiation", Probability: "80%"},
		{ID: "sf2", Account: "Wind Power Corp", Value: "110.000€", Stage: "Closing", Probability: "60%"},
	}, nil
}
