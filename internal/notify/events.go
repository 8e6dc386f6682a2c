package notify

import "time"

// ResultReadyEvent tells the notification layer that a new scored report
// is available for a respondent. Email, CSV, and spreadsheet consumers
// subscribe downstream; delivery mechanics live outside this service.
type ResultReadyEvent struct {
	Tenant      string `json:"tenant"`
	SurveyID    string `json:"survey_id"`
	ResponseID  string `json:"response_id"`
	To          string `json:"to,omitempty"`
	BCC         string `json:"bcc,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Country     string `json:"country,omitempty"`
}

// IndustryUpdatedEvent is published for every industry row refreshed by a
// roll-up run.
type IndustryUpdatedEvent struct {
	Tenant    string    `json:"tenant"`
	Industry  string    `json:"industry"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SyncFailedEvent surfaces an aborted sync cycle for operator visibility.
type SyncFailedEvent struct {
	Tenant string    `json:"tenant"`
	Error  string    `json:"error"`
	At     time.Time `json:"at"`
}
