package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestParseModelID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ModelID
		wantErr bool
	}{
		{"Primary", "primary", ModelPrimary, false},
		{"Secondary", "secondary", ModelSecondary, false},
		{"EmptyDefaultsToPrimary", "", ModelPrimary, false},
		{"CaseInsensitive", "SECONDARY", ModelSecondary, false},
		{"Whitespace", "  primary  ", ModelPrimary, false},
		{"Unknown", "model3", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseModelID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseModelID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseModelID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestModelLabels(t *testing.T) {
	if ModelPrimary.Label() != "Primary Model" {
		t.Errorf("Unexpected primary label: %s", ModelPrimary.Label())
	}
	if ModelSecondary.Label() != "Secondary Model" {
		t.Errorf("Unexpected secondary label: %s", ModelSecondary.Label())
	}
}

func TestVerdictLabel(t *testing.T) {
	if (Verdict{IsPhishing: true}).Label() != "Phishing" {
		t.Error("Expected Phishing label")
	}
	if (Verdict{IsPhishing: false}).Label() != "Safe" {
		t.Error("Expected Safe label")
	}
}

func TestConfidencePercent(t *testing.T) {
	tests := []struct {
		confidence float64
		want       int
	}{
		{0, 0},
		{0.5, 50},
		{0.874, 87},
		{0.875, 88},
		{1, 100},
	}
	for _, tt := range tests {
		v := Verdict{Confidence: tt.confidence}
		if got := v.ConfidencePercent(); got != tt.want {
			t.Errorf("ConfidencePercent(%v) = %d, want %d", tt.confidence, got, tt.want)
		}
	}
}

func TestHistoryFilterMatches(t *testing.T) {
	entry := HistoryEntry{Verdict: Verdict{URL: "http://Bank-Login.example/path", IsPhishing: true}}

	tests := []struct {
		name   string
		filter HistoryFilter
		want   bool
	}{
		{"Empty", HistoryFilter{}, true},
		{"TextMatch", HistoryFilter{Text: "bank"}, true},
		{"TextCaseInsensitive", HistoryFilter{Text: "BANK-login"}, true},
		{"TextMiss", HistoryFilter{Text: "paypal"}, false},
		{"LabelMatch", HistoryFilter{Label: LabelPhishing}, true},
		{"LabelMiss", HistoryFilter{Label: LabelSafe}, false},
		{"LabelAny", HistoryFilter{Label: LabelAny}, true},
		{"Combined", HistoryFilter{Text: "bank", Label: LabelPhishing}, true},
		{"CombinedMiss", HistoryFilter{Text: "bank", Label: LabelSafe}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(entry); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLabelFilter(t *testing.T) {
	if ParseLabelFilter("phishing") != LabelPhishing {
		t.Error("Expected phishing filter")
	}
	if ParseLabelFilter("SAFE") != LabelSafe {
		t.Error("Expected safe filter")
	}
	if ParseLabelFilter("") != LabelAny {
		t.Error("Expected any filter for empty input")
	}
	if ParseLabelFilter("garbage") != LabelAny {
		t.Error("Expected any filter for unknown input")
	}
}

func TestUserDefaultModel(t *testing.T) {
	tests := []struct {
		name  string
		prefs map[string]any
		want  ModelID
	}{
		{"NoPreferences", nil, ModelPrimary},
		{"Secondary", map[string]any{"default_model": "secondary"}, ModelSecondary},
		{"UnknownValue", map[string]any{"default_model": "model9"}, ModelPrimary},
		{"WrongType", map[string]any{"default_model": 7}, ModelPrimary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := User{ID: uuid.New(), Preferences: tt.prefs}
			if got := u.DefaultModel(); got != tt.want {
				t.Errorf("DefaultModel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPhishingRateRounds(t *testing.T) {
	s := Stats{Total: 3, Phishing: 1, Safe: 2}
	if got := s.PhishingRate(); got != 33 {
		t.Errorf("Expected 33, got %d", got)
	}
	s = Stats{Total: 3, Phishing: 2, Safe: 1}
	if got := s.PhishingRate(); got != 67 {
		t.Errorf("Expected 67, got %d", got)
	}
}
