package bot

import (
	"fmt"
	"time"

	"github.com/avaldivia/unidesk/internal/catalog"
	"github.com/avaldivia/unidesk/internal/domain"
	"github.com/google/uuid"
)

const (
	// defaultAssignee receives unresolved cases whose policy names no one.
	defaultAssignee = "Coordinador Académico"

	// meetingLink is attached to unresolved cases so the assignee can pick
	// the follow-up conversation up directly.
	meetingLink = "https://teams.microsoft.com/l/meetup-join/5001e145-e78d-41db-875f-1f494ba0bc46"

	resolutionNotes = "Se indicó al usuario que realizara los pasos sugeridos para resolver su caso."
)

// BuildCaseRecord assembles the readable fields persisted for a finished
// case. Pure: catalog defaults merged with live conversation data and the
// follow-up outcome. Fields that would be null are simply absent.
func BuildCaseRecord(policy catalog.Policy, profile domain.UserProfile, resolved bool, now time.Time, interactionID string) map[string]any {
	date := now.Format("2006-01-02")

	title := policy.Record.Title
	if title == "" {
		title = "Caso de " + profile.Subcase
	}

	status := "En seguimiento"
	urgency := "Media"
	if resolved {
		status = "Finalizado"
		urgency = "Baja"
	}

	fields := map[string]any{
		"Título":               title,
		"TipoDeCaso":           profile.CaseType,
		"SubtipoDeCaso":        profile.Subcase,
		"Descripción":          policy.Description,
		"FechaSolicitud":       date,
		"Estado":               status,
		"Urgencia":             urgency,
		"FechaSeguimiento":     date,
		"IDInteracciónBot":     interactionID,
		"RequiereEscalamiento": !resolved,
		"NotasResolución":      resolutionNotes,
	}

	if !resolved {
		assignee := policy.Record.AssignedTo
		if assignee == "" {
			assignee = defaultAssignee
		}
		fields["AsignadoA"] = assignee
		fields["EnlaceReuniónVirtual"] = meetingLink
	}

	return fields
}

// NewInteractionID generates the bot interaction identifier stamped on each
// persisted record.
func NewInteractionID() string {
	return fmt.Sprintf("BOT-%s", uuid.NewString()[:8])
}
