package bot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/avaldivia/unidesk/internal/catalog"
	"github.com/avaldivia/unidesk/internal/dialog"
	"github.com/avaldivia/unidesk/internal/domain"
)

// Dialog IDs.
const (
	dialogIntake           = "intake"
	dialogRemoteLookup     = "remote_lookup"
	dialogSelfServiceGuide = "self_service_guide"
	dialogUserDecision     = "user_decision"
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// registerDialogs wires the intake waterfall and the three policy
// sub-dialogs into the engine. Every sub-dialog ends back into the intake
// follow-up step.
func (s *Service) registerDialogs() {
	s.engine.Register(&dialog.Dialog{ID: dialogIntake, Steps: []dialog.Step{
		s.stepAskName,
		s.stepAskID,
		s.stepAskCaseType,
		s.stepAskSubcase,
		s.stepDispatchPolicy,
		s.stepFollowUpPrompt,
		s.stepFollowUpResponse,
		s.stepFinalize,
	}})

	s.engine.Register(&dialog.Dialog{ID: dialogRemoteLookup, Steps: []dialog.Step{
		s.stepRemoteLookup,
	}})

	s.engine.Register(&dialog.Dialog{ID: dialogSelfServiceGuide, Steps: []dialog.Step{
		s.stepSelfServiceGuide,
	}})

	s.engine.Register(&dialog.Dialog{ID: dialogUserDecision, Steps: []dialog.Step{
		s.stepUserDecisionPrompt,
		s.stepUserDecisionResponse,
	}})
}

// stepAskName collects the user's full name, skipping the prompt when a
// previous run already stored it.
func (s *Service) stepAskName(c *dialog.Context, input any) (dialog.Transition, error) {
	if c.Profile.Name != "" {
		return dialog.Next(nil), nil
	}
	if input == nil {
		return dialog.Text(
			"😊 ¿Cuál es tu nombre completo?",
			"Por favor, ingresa tu nombre completo.",
		), nil
	}
	c.Profile.Name = input.(string)
	return dialog.Next(nil), nil
}

// stepAskID collects the student identifier and validates it is all digits.
// Invalid input re-prompts at this same step, so the raw value never leaks
// into the category selection.
func (s *Service) stepAskID(c *dialog.Context, input any) (dialog.Transition, error) {
	if c.Profile.ID != "" {
		return dialog.Next(nil), nil
	}
	if input == nil {
		return dialog.Text(
			fmt.Sprintf("%s, por favor ingresa tu ID de estudiante.", c.Profile.Name),
			"Por favor, ingresa un número de identificación válido.",
		), nil
	}

	id := strings.TrimSpace(input.(string))
	if !digitsOnly.MatchString(id) {
		c.Send("El ID debe contener solo números. Por favor, intenta de nuevo.")
		return dialog.Text(
			fmt.Sprintf("%s, ingresa tu ID de estudiante (solo números).", c.Profile.Name),
			"",
		), nil
	}

	c.Profile.ID = id
	return dialog.Next(nil), nil
}

// stepAskCaseType asks which area the user needs help with.
func (s *Service) stepAskCaseType(c *dialog.Context, input any) (dialog.Transition, error) {
	if input == nil {
		return dialog.Choice(
			fmt.Sprintf("%s, dime en qué área estás teniendo dificultades para poder ayudarte mejor:", c.Profile.Name),
			s.catalog.Areas(),
			domain.StyleList,
		), nil
	}
	c.Profile.CaseType = input.(string)
	return dialog.Next(nil), nil
}

// stepAskSubcase asks for the subcategory within the chosen area.
func (s *Service) stepAskSubcase(c *dialog.Context, input any) (dialog.Transition, error) {
	if input == nil {
		return dialog.Choice(
			fmt.Sprintf("%s, selecciona el subcaso para %s:", c.Profile.Name, c.Profile.CaseType),
			s.catalog.Subcases(c.Profile.CaseType),
			domain.StyleButtons,
		), nil
	}
	c.Profile.Subcase = input.(string)
	return dialog.Next(nil), nil
}

// stepDispatchPolicy resolves the case policy and hands control to its
// sub-dialog. A catalog miss ends the flow with an apology, not an error.
func (s *Service) stepDispatchPolicy(c *dialog.Context, _ any) (dialog.Transition, error) {
	policy, ok := s.catalog.Policy(c.Profile.CaseType, c.Profile.Subcase)
	if !ok {
		c.Send(fmt.Sprintf(
			"%s, lo siento, el caso '%s' no está implementado aún. Por favor, contacta al soporte.",
			c.Profile.Name, c.Profile.Subcase,
		))
		return dialog.End(nil), nil
	}

	// A remote lookup defers its message to the lookup result.
	if policy.Kind != catalog.RemoteLookup {
		c.Send(policy.Description)
	}

	switch policy.Kind {
	case catalog.RemoteLookup:
		return dialog.BeginChild(dialogRemoteLookup), nil
	case catalog.SelfServiceGuide:
		return dialog.BeginChild(dialogSelfServiceGuide), nil
	case catalog.UserDecision:
		return dialog.BeginChild(dialogUserDecision), nil
	}
	return dialog.Transition{}, fmt.Errorf("unhandled policy kind %v", policy.Kind)
}

// stepFollowUpPrompt is the shared convergence point after every policy
// sub-dialog: ask whether the case was resolved, then pass the boolean
// through unchanged.
func (s *Service) stepFollowUpPrompt(c *dialog.Context, input any) (dialog.Transition, error) {
	policy, ok := s.catalog.Policy(c.Profile.CaseType, c.Profile.Subcase)
	if !ok {
		return dialog.Transition{}, fmt.Errorf("policy vanished for %s/%s", c.Profile.CaseType, c.Profile.Subcase)
	}
	if input == nil {
		return dialog.Confirm(
			fmt.Sprintf("%s, %s", c.Profile.Name, policy.FollowUp.Question),
			"Por favor, selecciona 'Sí' o 'No'.",
		), nil
	}
	return dialog.Next(input), nil
}

// stepFollowUpResponse sends the outcome message, plus the escalation notice
// when the policy flags unresolved cases for escalation.
func (s *Service) stepFollowUpResponse(c *dialog.Context, input any) (dialog.Transition, error) {
	policy, ok := s.catalog.Policy(c.Profile.CaseType, c.Profile.Subcase)
	if !ok {
		return dialog.Transition{}, fmt.Errorf("policy vanished for %s/%s", c.Profile.CaseType, c.Profile.Subcase)
	}

	resolved, _ := input.(bool)
	if resolved {
		c.Send(policy.FollowUp.WhenResolved)
	} else {
		c.Send(policy.FollowUp.WhenUnresolved)
		if policy.FollowUp.Escalate {
			c.Send(fmt.Sprintf("%s, tu caso será escalado. Pronto recibirás más información.", c.Profile.Name))
		}
	}
	return dialog.Next(resolved), nil
}

// stepFinalize persists the case record and closes the flow. Remote failures
// become a user-visible notice; the profile is cleared either way so the
// next conversation starts fresh.
func (s *Service) stepFinalize(c *dialog.Context, input any) (dialog.Transition, error) {
	policy, ok := s.catalog.Policy(c.Profile.CaseType, c.Profile.Subcase)
	if !ok {
		return dialog.Transition{}, fmt.Errorf("policy vanished for %s/%s", c.Profile.CaseType, c.Profile.Subcase)
	}

	resolved := input == true
	name := c.Profile.Name

	record := BuildCaseRecord(policy, *c.Profile, resolved, time.Now(), NewInteractionID())
	if err := s.records.UpdateByExternalID(c.Ctx, c.Profile.ID, record); err != nil {
		s.logger.Error("failed to persist case record", "error", err, "session_id", c.Session.SessionID)
		c.Send(fmt.Sprintf("%s, error al registrar el caso: %v", name, err))
	} else {
		c.Send(fmt.Sprintf("%s, tu caso ha sido registrado exitosamente. ✅", name))
	}

	c.Profile.Clear()
	return dialog.End(nil), nil
}

// stepRemoteLookup fetches the student record and branches on the policy's
// numeric condition. A missing record or remote failure aborts the whole
// flow: there is nothing to finalize without the lookup.
func (s *Service) stepRemoteLookup(c *dialog.Context, _ any) (dialog.Transition, error) {
	policy, ok := s.catalog.Policy(c.Profile.CaseType, c.Profile.Subcase)
	if !ok || policy.Lookup == nil {
		return dialog.Transition{}, fmt.Errorf("remote lookup policy missing for %s/%s", c.Profile.CaseType, c.Profile.Subcase)
	}

	fields, err := s.records.FindByExternalID(c.Ctx, c.Profile.ID)
	if err != nil {
		s.logger.Error("remote lookup failed", "error", err, "session_id", c.Session.SessionID)
		c.Send(fmt.Sprintf("%s, error al consultar la información: %v", c.Profile.Name, err))
		return dialog.EndAll(), nil
	}
	if fields == nil {
		c.Send(fmt.Sprintf("%s, no se encontró información para tu ID. Por favor, verifica e intenta de nuevo.", c.Profile.Name))
		return dialog.EndAll(), nil
	}

	value := numericField(fields, policy.Lookup.Condition.Field)
	message := policy.Lookup.WhenNotMet
	if policy.Lookup.Condition.Holds(value) {
		message = policy.Lookup.WhenMet
	}

	c.Send(message)
	c.Profile.CaseResponse = message
	return dialog.End(nil), nil
}

// stepSelfServiceGuide sends the static guide and proceeds straight to the
// shared follow-up.
func (s *Service) stepSelfServiceGuide(c *dialog.Context, _ any) (dialog.Transition, error) {
	policy, ok := s.catalog.Policy(c.Profile.CaseType, c.Profile.Subcase)
	if !ok {
		return dialog.Transition{}, fmt.Errorf("guide policy missing for %s/%s", c.Profile.CaseType, c.Profile.Subcase)
	}
	c.Send(policy.Guide)
	c.Profile.CaseResponse = policy.Guide
	return dialog.End(nil), nil
}

// stepUserDecisionPrompt asks the policy's yes/no question.
func (s *Service) stepUserDecisionPrompt(c *dialog.Context, input any) (dialog.Transition, error) {
	policy, ok := s.catalog.Policy(c.Profile.CaseType, c.Profile.Subcase)
	if !ok || policy.Decision == nil {
		return dialog.Transition{}, fmt.Errorf("decision policy missing for %s/%s", c.Profile.CaseType, c.Profile.Subcase)
	}
	if input == nil {
		return dialog.Confirm(policy.Decision.Question, "Por favor, responde 'sí' o 'no'."), nil
	}
	return dialog.Next(input), nil
}

// stepUserDecisionResponse sends the variant matching the user's answer.
func (s *Service) stepUserDecisionResponse(c *dialog.Context, input any) (dialog.Transition, error) {
	policy, ok := s.catalog.Policy(c.Profile.CaseType, c.Profile.Subcase)
	if !ok || policy.Decision == nil {
		return dialog.Transition{}, fmt.Errorf("decision policy missing for %s/%s", c.Profile.CaseType, c.Profile.Subcase)
	}

	message := policy.Decision.WhenNo
	if yes, _ := input.(bool); yes {
		message = policy.Decision.WhenYes
	}

	c.Send(message)
	c.Profile.CaseResponse = message
	return dialog.End(nil), nil
}

// numericField extracts an integer from a remote field value, tolerating the
// numeric and string encodings the store is known to return. Missing or
// unparseable values come back as 0.
func numericField(fields map[string]any, name string) int {
	switch v := fields[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 0
}
