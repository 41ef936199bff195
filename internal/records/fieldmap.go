package records

// fieldNames maps the remote store's opaque internal column names to the
// human-readable keys the rest of the system works with. The mapping is
// fixed and catalog-independent.
var fieldNames = map[string]string{
	"Title":    "Title",
	"field_2":  "CorreoInstitucional",
	"field_3":  "Nombre",
	"field_4":  "Apellido",
	"field_5":  "Carrera",
	"field_6":  "Semestre",
	"field_7":  "Título",
	"field_8":  "TipoDeCaso",
	"field_9":  "SubtipoDeCaso",
	"field_10": "Descripción",
	"field_11": "FechaSolicitud",
	"field_12": "Estado",
	"field_13": "Urgencia",
	"field_14": "AsignadoA",
	"field_15": "Adjunto",
	"field_16": "Notas",
	"field_17": "FechaSeguimiento",
	"field_18": "EnlaceReuniónVirtual",
	"field_19": "IDInteracciónBot",
	"field_20": "RequiereEscalamiento",
	"field_21": "NotasResolución",
}

var readableNames = invert(fieldNames)

func invert(m map[string]string) map[string]string {
	inv := make(map[string]string, len(m))
	for k, v := range m {
		inv[v] = k
	}
	return inv
}

// ToInternal translates readable field names to the remote store's internal
// names. Keys without a mapping are silently dropped, never errored.
func ToInternal(readable map[string]any) map[string]any {
	out := make(map[string]any, len(readable))
	for k, v := range readable {
		if internal, ok := readableNames[k]; ok {
			out[internal] = v
		}
	}
	return out
}

// ToReadable translates raw remote fields to readable names. Unmapped keys
// pass through unchanged so callers can still see extra columns.
func ToReadable(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if readable, ok := fieldNames[k]; ok {
			out[readable] = v
		} else {
			out[k] = v
		}
	}
	return out
}
