package campaigns

import "time"

// Campaign is a reusable calling template: who it targets, what the call
// should achieve, and how the opening script reads. The feature flags
// toggle behaviors the assistant applies when the campaign drives a call.
type Campaign struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Industry      string `json:"industry"`
	Goal          string `json:"goal"`
	OpeningScript string `json:"openingScript"`

	LocalizeTone    bool `json:"localizeTone"`
	ComplianceCheck bool `json:"complianceCheck"`
	Cadence         bool `json:"cadence"`
	Quality         bool `json:"quality"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New is the creation payload.
type New struct {
	Name          string `json:"name"`
	Industry      string `json:"industry"`
	Goal          string `json:"goal"`
	OpeningScript string `json:"openingScript"`

	LocalizeTone    bool `json:"localizeTone"`
	ComplianceCheck bool `json:"complianceCheck"`
	Cadence         bool `json:"cadence"`
	Quality         bool `json:"quality"`
}
