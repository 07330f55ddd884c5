package usecases

import (
	"fmt"
	"proyecto_reservas/internal/entities"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Prompts are Telegram Markdown. Values typed by users or configured per
// tenant go through escape before being embedded.

// Button labels. Inputs are matched against their normalized form, so a
// tenant using the numbered menu still accepts a tapped button and vice versa.
const (
	ButtonShowMenu = "📋 Ver carta"
	ButtonReserve  = "📅 Reservar"
	ButtonFAQ      = "❓ Preguntas frecuentes"
	ButtonAgent    = "👤 Hablar con alguien"
	ButtonCancel   = "Cancelar"
	ButtonYes      = "Sí"
	ButtonNo       = "No"
)

const (
	msgUnknown        = "🤔 No entendí tu mensaje."
	msgCancelled      = "❌ Operación cancelada."
	msgDeclined       = "Reserva cancelada. Puedes empezar de nuevo cuando quieras."
	msgConfirmed      = "✅ ¡Reserva recibida! Te contactaremos para confirmarla."
	msgMenuMissing    = "La carta aún no está disponible. Intenta más tarde."
	msgMenuCaption    = "📋 Nuestra carta"
	msgFAQPlaceholder = "Aún no hay preguntas frecuentes configuradas."
	msgAgentAck       = "👤 Un miembro del equipo te escribirá pronto."
	msgConfirmAgain   = "Responde *sí* para confirmar o *no* para cancelar."
)

var stagePrompts = map[entities.Stage]string{
	entities.StageAskDate:   "📅 ¿Para qué fecha es la reserva? (AAAA-MM-DD)",
	entities.StageAskTime:   "🕒 ¿A qué hora? (HH:MM)",
	entities.StageAskPeople: "👥 ¿Para cuántas personas?",
	entities.StageAskName:   "🙋 ¿A nombre de quién?",
	entities.StageAskPhone:  "📞 ¿Un teléfono de contacto?",
}

var stageRetries = map[entities.Stage]string{
	entities.StageAskDate:   "Fecha no válida. Escríbela como AAAA-MM-DD, por ejemplo 2026-01-10.",
	entities.StageAskTime:   "Hora no válida. Usa el formato HH:MM, por ejemplo 19:30.",
	entities.StageAskPeople: "Indica la cantidad de personas con un número entre 1 y 1000, por ejemplo 4.",
	entities.StageAskName:   "El nombre debe tener entre 2 y 255 caracteres.",
	entities.StageAskPhone:  "El teléfono debe tener entre 6 y 64 caracteres, por ejemplo +56911112222.",
}

// MainKeyboard is the top-level option set.
func MainKeyboard() *entities.Keyboard {
	return entities.NewKeyboard(
		[]string{ButtonShowMenu, ButtonReserve},
		[]string{ButtonFAQ, ButtonAgent},
	)
}

func cancelKeyboard() *entities.Keyboard {
	return entities.NewKeyboard([]string{ButtonCancel})
}

func confirmKeyboard() *entities.Keyboard {
	return entities.NewKeyboard([]string{ButtonYes, ButtonNo}, []string{ButtonCancel})
}

func greetingText(tenant entities.TenantConfig) string {
	return fmt.Sprintf("¡Hola! 👋 Bienvenido a %s.\nTe ayudo a reservar una mesa.", bold(tenant.Name()))
}

// menuPrompt renders the top-level menu in the tenant's configured surface.
func menuPrompt(tenant entities.TenantConfig, chatID string) entities.OutboundAction {
	if tenant.UsesButtons() {
		return entities.SendText(chatID, "¿Qué deseas hacer? Elige una opción:", MainKeyboard())
	}
	var sb strings.Builder
	sb.WriteString("¿Qué deseas hacer?\n\n")
	sb.WriteString("1. Ver carta\n")
	sb.WriteString("2. Reservar\n")
	sb.WriteString("3. Preguntas frecuentes\n")
	sb.WriteString("4. Hablar con alguien\n\n")
	sb.WriteString("_Responde con el número de la opción._")
	return entities.SendText(chatID, sb.String(), entities.RemoveKeyboard())
}

func summaryText(fields entities.FieldSet) string {
	return fmt.Sprintf("Revisa tu reserva:\n\n📅 Fecha: %s\n🕒 Hora: %s\n👥 Personas: %s\n🙋 Nombre: %s\n📞 Teléfono: %s\n\n¿Confirmas? (sí/no)",
		escape(fields[entities.FieldDate]), escape(fields[entities.FieldTime]), escape(fields[entities.FieldPeople]),
		escape(fields[entities.FieldName]), escape(fields[entities.FieldPhone]))
}

func reservationNotice(tenant entities.TenantConfig, chatID string, fields entities.FieldSet) string {
	return fmt.Sprintf("🆕 Nueva reserva (%s)\nChat: %s\nFecha: %s\nHora: %s\nPersonas: %s\nNombre: %s\nTeléfono: %s",
		escape(tenant.Name()), escape(chatID),
		escape(fields[entities.FieldDate]), escape(fields[entities.FieldTime]), escape(fields[entities.FieldPeople]),
		escape(fields[entities.FieldName]), escape(fields[entities.FieldPhone]))
}

func agentNotice(tenant entities.TenantConfig, chatID string) string {
	return fmt.Sprintf("👤 (%s) El chat %s pidió hablar con una persona.", escape(tenant.Name()), escape(chatID))
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// bold wraps s in bold markup. Markdown cannot escape inside an entity, so
// values with markup characters are only escaped.
func bold(s string) string {
	if strings.ContainsAny(s, "_*`[") {
		return escape(s)
	}
	return "*" + s + "*"
}
