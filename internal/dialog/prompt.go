package dialog

import (
	"strconv"
	"strings"

	"github.com/avaldivia/unidesk/internal/domain"
)

// genericRetryPrompt is used when a prompt carries no retry message of its own.
const genericRetryPrompt = "Por favor, ingresa una respuesta válida."

// Text suspends the dialog awaiting free-form text. Any non-empty reply is
// accepted; semantic validation is the calling step's job.
func Text(prompt, retryPrompt string) Transition {
	return Transition{kind: transitionPrompt, prompt: &domain.PendingPrompt{
		Kind:        domain.PromptText,
		Prompt:      prompt,
		RetryPrompt: retryPrompt,
	}}
}

// Confirm suspends the dialog awaiting a yes/no reply, delivered to the step
// as a bool.
func Confirm(prompt, retryPrompt string) Transition {
	return Transition{kind: transitionPrompt, prompt: &domain.PendingPrompt{
		Kind:        domain.PromptConfirm,
		Prompt:      prompt,
		RetryPrompt: retryPrompt,
	}}
}

// Choice suspends the dialog awaiting a selection from choices, delivered to
// the step as the canonical label string.
func Choice(prompt string, choices []string, style domain.ListStyle) Transition {
	return Transition{kind: transitionPrompt, prompt: &domain.PendingPrompt{
		Kind:    domain.PromptChoice,
		Prompt:  prompt,
		Choices: choices,
		Style:   style,
	}}
}

// promptMessage renders the outbound message for a freshly issued prompt.
func promptMessage(p *domain.PendingPrompt) domain.Message {
	return domain.Message{Text: p.Prompt, Choices: p.Choices, Style: p.Style}
}

// retryMessage renders the outbound message re-issued after invalid input.
// Choice prompts repeat the selection list so the user can try again.
func retryMessage(p *domain.PendingPrompt) domain.Message {
	text := p.RetryPrompt
	if text == "" {
		text = genericRetryPrompt
	}
	return domain.Message{Text: text, Choices: p.Choices, Style: p.Style}
}

// ValidateResponse checks raw user input against a pending prompt and
// normalizes it: a string for text and choice prompts, a bool for confirm
// prompts. The second return is false when the input does not satisfy the
// prompt and the question must be re-issued.
func ValidateResponse(p *domain.PendingPrompt, raw string) (any, bool) {
	raw = strings.TrimSpace(raw)
	switch p.Kind {
	case domain.PromptText:
		if raw == "" {
			return nil, false
		}
		return raw, true
	case domain.PromptConfirm:
		return parseConfirm(raw)
	case domain.PromptChoice:
		return matchChoice(p.Choices, raw)
	default:
		return nil, false
	}
}

// parseConfirm normalizes locale-aware yes/no phrasing to a boolean.
func parseConfirm(raw string) (any, bool) {
	switch strings.ToLower(raw) {
	case "sí", "si", "s", "yes", "y", "claro", "ok", "dale", "1":
		return true, true
	case "no", "n", "nop", "2":
		return false, true
	}
	return nil, false
}

// matchChoice accepts the exact label (case-insensitive) or its 1-based
// position in the list, returning the canonical label.
func matchChoice(choices []string, raw string) (any, bool) {
	for _, choice := range choices {
		if strings.EqualFold(choice, raw) {
			return choice, true
		}
	}
	if idx, err := strconv.Atoi(raw); err == nil && idx >= 1 && idx <= len(choices) {
		return choices[idx-1], true
	}
	return nil, false
}
