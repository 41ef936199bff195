package catalog

// Default returns the production catalog: the five-area case directory and
// the three fully configured cases.
func Default() *Catalog {
	areas := []Area{
		{Name: "Académico", Subcases: []string{"Cambio de grupo", "Revisión de nota", "Homologación", "Cambio de pensum"}},
		{Name: "Financiero", Subcases: []string{"Solicitud de beca", "Revisión de factura", "Deuda pendiente", "Error de pago"}},
		{Name: "Técnico", Subcases: []string{"Falla en plataforma", "Error en matrícula", "Acceso denegado", "Problema con el correo"}},
		{Name: "Administrativo", Subcases: []string{"Cambio de carrera", "Reingreso", "Certificado académico", "Carné universitario"}},
		{Name: "Otro", Subcases: []string{"Consulta general", "Sugerencia", "Queja"}},
	}

	policies := map[[2]string]Policy{
		{"Académico", "Cambio de pensum"}: {
			Kind:        RemoteLookup,
			Description: "Vamos a revisar tu semestre para indicarte los pasos correctos para el cambio de pensum.",
			Lookup: &Lookup{
				Condition: Condition{Field: "Semestre", Op: LessThan, Threshold: 6},
				WhenMet: "✅ ¡Excelente! Como estás en **semestre menor a 6**, puedes hacer el cambio de pensum de forma directa y sencilla. Aquí te explico cómo hacerlo paso a paso:\n\n" +
					"1️⃣ Ingresa al siguiente enlace oficial: https://ficticia.edu/cambio-pensum\n\n" +
					"2️⃣ Completa el formulario con tus datos personales y académicos. Asegúrate de que toda la información esté actualizada y sin errores.\n\n" +
					"3️⃣ Adjunta tu historial académico en formato PDF. Puedes descargarlo desde el portal de estudiantes.\n\n" +
					"4️⃣ Revisa bien toda la información antes de enviar y haz clic en 'Enviar solicitud'.\n\n" +
					"5️⃣ Una vez enviada, revisa tu correo institucional frecuentemente. Allí recibirás la confirmación o instrucciones adicionales si es necesario.\n\n" +
					"Si tienes dudas o necesitas ayuda con algún paso, estoy aquí para orientarte. 📩",
				WhenNotMet: "⚠️ Como estás en **semestre 6 o superior**, el cambio de pensum requiere una revisión personalizada con tu jefe de carrera. Para ello, sigue estos pasos detalladamente:\n\n" +
					"1️⃣ Ingresa al portal de citas: https://ficticia.edu/citas-jefecarrera\n\n" +
					"2️⃣ Selecciona tu carrera en el listado desplegable y escoge un horario disponible que te funcione.\n\n" +
					"3️⃣ Confirma la cita y toma nota de la fecha y hora asignada.\n\n" +
					"4️⃣ El día de la cita, presenta una justificación académica clara (por ejemplo: razones de organización curricular, materias pendientes, doble titulación, etc.).\n\n" +
					"Recuerda ser puntual y llevar toda la documentación necesaria. Si tienes preguntas antes de la cita, puedo ayudarte a prepararte. 📝",
			},
			FollowUp: FollowUp{
				Question:       "¿Lograste gestionar el cambio de pensum?",
				WhenResolved:   "📝 Perfecto. El cambio ha sido registrado.",
				WhenUnresolved: "⏳ Vamos a escalar tu caso con una reunión personalizada.",
				Escalate:       true,
			},
			Record: RecordTemplate{
				Title: "Problema académico respecto al cambio de pensum",
			},
		},
		{"Financiero", "Solicitud de beca"}: {
			Kind:        SelfServiceGuide,
			Description: "Aquí están los pasos para solicitar una beca institucional.",
			Guide: "🎓 **Pasos para solicitar la beca:**\n\n" +
				"1. Accede a https://ficticia.edu/becas\n\n" +
				"2. Llena el formulario de solicitud\n\n" +
				"3. Adjunta los documentos requeridos\n\n" +
				"4. Envíalo antes del 10 de junio\n\n" +
				"5. Revisa tu correo institucional frecuentemente\n\n",
			FollowUp: FollowUp{
				Question:       "¿Finalizaste correctamente el proceso de solicitud de beca?",
				WhenResolved:   "👍 Perfecto. Ahora debes esperar el resultado por correo.",
				WhenUnresolved: "📨 Te recomiendo contactar soporte financiero si presentas dificultades.",
			},
		},
		{"Técnico", "Problema con el correo"}: {
			Kind:        UserDecision,
			Description: "Vamos a ayudarte con el problema en tu correo institucional.",
			Decision: &Decision{
				Question: "¿Has cambiado tu contraseña en los últimos 3 meses?",
				WhenYes: "🔧 Como ya cambiaste tu contraseña recientemente:\n\n" +
					"1. Ve a https://ficticia.edu/soporte\n\n" +
					"2. Crea un ticket indicando 'Correo institucional bloqueado'\n\n" +
					"3. Adjunta evidencia del error\n\n" +
					"4. Te responderán al correo alternativo",
				WhenNo: "🔑 Para recuperar el acceso a tu correo institucional, sigue estos pasos con calma:\n\n" +
					"1️⃣ Entra al siguiente enlace: https://ficticia.edu/cambiar-clave\n\n" +
					"2️⃣ Escribe tu usuario institucional (sin @ficticia.edu).\n\n" +
					"3️⃣ Elige una nueva contraseña que sea segura. Asegúrate de incluir mayúsculas, números y símbolos para que cumpla con los requisitos.\n\n" +
					"4️⃣ Confirma la nueva contraseña y guarda los cambios.\n\n" +
					"5️⃣ Espera al menos 15 minutos. Este tiempo es necesario para que el sistema actualice tu acceso.\n\n" +
					"6️⃣ Luego, intenta ingresar nuevamente a tu correo con la nueva contraseña.\n\n" +
					"Si después de esto sigues teniendo problemas, avísame para ayudarte a escalar el caso. 💬",
			},
			FollowUp: FollowUp{
				Question:       "¿Lograste recuperar el acceso a tu correo?",
				WhenResolved:   "✅ Excelente. Me alegra haberte ayudado.",
				WhenUnresolved: "📅 Vamos a agendar una reunión con soporte técnico.",
			},
			Record: RecordTemplate{
				AssignedTo: "Coordinador Técnico",
			},
		},
	}

	return New(areas, policies)
}
