package dialog

import (
	"testing"

	"github.com/avaldivia/unidesk/internal/domain"
)

func TestValidateTextResponse(t *testing.T) {
	p := &domain.PendingPrompt{Kind: domain.PromptText}

	value, ok := ValidateResponse(p, "  Juan Pérez  ")
	if !ok || value != "Juan Pérez" {
		t.Errorf("Expected trimmed text accepted, got %v ok=%v", value, ok)
	}

	if _, ok := ValidateResponse(p, "   "); ok {
		t.Error("Expected blank text rejected")
	}
}

func TestValidateConfirmResponse(t *testing.T) {
	p := &domain.PendingPrompt{Kind: domain.PromptConfirm}

	tests := []struct {
		raw  string
		want bool
		ok   bool
	}{
		{"sí", true, true},
		{"Si", true, true},
		{"s", true, true},
		{"yes", true, true},
		{"claro", true, true},
		{"dale", true, true},
		{"1", true, true},
		{"no", false, true},
		{"NO", false, true},
		{"n", false, true},
		{"2", false, true},
		{"tal vez", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		value, ok := ValidateResponse(p, tt.raw)
		if ok != tt.ok {
			t.Errorf("parseConfirm(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			continue
		}
		if ok && value != tt.want {
			t.Errorf("parseConfirm(%q) = %v, want %v", tt.raw, value, tt.want)
		}
	}
}

func TestValidateChoiceResponse(t *testing.T) {
	p := &domain.PendingPrompt{
		Kind:    domain.PromptChoice,
		Choices: []string{"Académico", "Financiero", "Técnico"},
	}

	value, ok := ValidateResponse(p, "financiero")
	if !ok || value != "Financiero" {
		t.Errorf("Expected case-insensitive label match, got %v ok=%v", value, ok)
	}

	value, ok = ValidateResponse(p, "3")
	if !ok || value != "Técnico" {
		t.Errorf("Expected 1-based index match, got %v ok=%v", value, ok)
	}

	if _, ok := ValidateResponse(p, "0"); ok {
		t.Error("Expected index 0 rejected")
	}
	if _, ok := ValidateResponse(p, "4"); ok {
		t.Error("Expected out-of-range index rejected")
	}
	if _, ok := ValidateResponse(p, "Deportes"); ok {
		t.Error("Expected unknown label rejected")
	}
}

func TestRetryMessageFallsBackToGeneric(t *testing.T) {
	p := &domain.PendingPrompt{Kind: domain.PromptChoice, Choices: []string{"A", "B"}}

	m := retryMessage(p)
	if m.Text != genericRetryPrompt {
		t.Errorf("Expected generic retry text, got %q", m.Text)
	}
	if len(m.Choices) != 2 {
		t.Errorf("Expected choice retry to repeat the list, got %+v", m.Choices)
	}
}
