package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ModelID selects which classification model the scoring backend runs.
type ModelID string

const (
	ModelPrimary   ModelID = "primary"
	ModelSecondary ModelID = "secondary"
)

// ParseModelID accepts the wire/form value for a model selector.
// Empty input falls back to the primary model.
func ParseModelID(s string) (ModelID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModelPrimary):
		return ModelPrimary, nil
	case string(ModelSecondary):
		return ModelSecondary, nil
	default:
		return "", fmt.Errorf("unknown model %q", s)
	}
}

// Label returns the human-readable model name shown in the UI and exports.
func (m ModelID) Label() string {
	if m == ModelSecondary {
		return "Secondary Model"
	}
	return "Primary Model"
}

// Classification is the raw scoring backend response for one URL.
type Classification struct {
	IsPhishing bool           `json:"is_phishing"`
	Confidence float64        `json:"confidence"`
	Features   map[string]any `json:"features"`
}

// Verdict is the classification outcome for one URL at one point in time.
// It is created once per completed scan and never mutated.
type Verdict struct {
	URL        string         `json:"url"`
	IsPhishing bool           `json:"is_phishing"`
	Confidence float64        `json:"confidence"`
	Model      ModelID        `json:"model"`
	Features   map[string]any `json:"features,omitempty"`
	ProducedAt time.Time      `json:"produced_at"`
}

// Label returns "Phishing" or "Safe" for display and CSV export.
func (v Verdict) Label() string {
	if v.IsPhishing {
		return "Phishing"
	}
	return "Safe"
}

// ConfidencePercent rounds the confidence to a whole-number percentage.
func (v Verdict) ConfidencePercent() int {
	return int(v.Confidence*100 + 0.5)
}

// HistoryEntry is a persisted Verdict owned by one user. Seq is the
// insertion sequence assigned by the ledger; it breaks creation-time ties
// so pagination stays deterministic.
type HistoryEntry struct {
	ID      uuid.UUID `json:"id"`
	OwnerID uuid.UUID `json:"owner_id"`
	Seq     int64     `json:"seq"`
	Verdict Verdict   `json:"verdict"`
}

// LabelFilter narrows a history query by verdict label.
type LabelFilter string

const (
	LabelAny      LabelFilter = "all"
	LabelPhishing LabelFilter = "phishing"
	LabelSafe     LabelFilter = "safe"
)

// ParseLabelFilter maps the history page's filter dropdown value.
func ParseLabelFilter(s string) LabelFilter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(LabelPhishing):
		return LabelPhishing
	case string(LabelSafe):
		return LabelSafe
	default:
		return LabelAny
	}
}

// HistoryFilter selects history entries. Text is a case-insensitive
// substring match on the URL; an empty filter matches everything.
type HistoryFilter struct {
	Text  string
	Label LabelFilter
}

// Matches reports whether the entry passes the filter. The Postgres ledger
// filters in SQL; this is the reference semantics used by in-memory views.
func (f HistoryFilter) Matches(e HistoryEntry) bool {
	if f.Text != "" && !strings.Contains(strings.ToLower(e.Verdict.URL), strings.ToLower(f.Text)) {
		return false
	}
	switch f.Label {
	case LabelPhishing:
		return e.Verdict.IsPhishing
	case LabelSafe:
		return !e.Verdict.IsPhishing
	}
	return true
}

// Page is an offset/limit window into a history listing.
// Limit <= 0 means "no limit".
type Page struct {
	Offset int
	Limit  int
}

// Stats are aggregate scan counts for one user, derived by scanning the
// ledger rows rather than by a backend grouping query.
type Stats struct {
	Total    int `json:"total"`
	Phishing int `json:"phishing"`
	Safe     int `json:"safe"`
}

// PhishingRate returns the phishing share in whole percent (0 when empty).
func (s Stats) PhishingRate() int {
	if s.Total == 0 {
		return 0
	}
	return int(float64(s.Phishing)/float64(s.Total)*100 + 0.5)
}

// User is the profile record kept by the persistence backend.
type User struct {
	ID           uuid.UUID      `json:"id"`
	Email        string         `json:"email"`
	FullName     string         `json:"full_name"`
	PasswordHash string         `json:"-"`
	Preferences  map[string]any `json:"preferences,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// DefaultModel reads the preferred model out of the profile preferences.
func (u User) DefaultModel() ModelID {
	if u.Preferences != nil {
		if v, ok := u.Preferences["default_model"].(string); ok {
			if m, err := ParseModelID(v); err == nil {
				return m
			}
		}
	}
	return ModelPrimary
}

// BackendStatus is the last observed health of the scoring backend,
// cached in Redis by the scheduler and shown on the dashboard.
type BackendStatus struct {
	Reachable bool      `json:"reachable"`
	LatencyMS int64     `json:"latency_ms"`
	CheckedAt time.Time `json:"checked_at"`
	Error     string    `json:"error,omitempty"`
}
