package usecases

import (
	"fmt"
	"proyecto_reservas/internal/entities"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Outcome labels what a decision did, for logs and metrics.
type Outcome string

const (
	OutcomeStarted     Outcome = "started"
	OutcomeCancelled   Outcome = "cancelled"
	OutcomeShowMenu    Outcome = "show_menu"
	OutcomeFAQ         Outcome = "faq"
	OutcomeAgent       Outcome = "agent"
	OutcomeFlowStarted Outcome = "flow_started"
	OutcomeUnknown     Outcome = "unknown"
	OutcomeAdvanced    Outcome = "advanced"
	OutcomeInvalid     Outcome = "invalid"
	OutcomeConfirmed   Outcome = "confirmed"
	OutcomeDeclined    Outcome = "declined"
	OutcomeReset       Outcome = "reset"
)

// Decision is the result of one transition. Next == nil ends the session.
type Decision struct {
	Next        *entities.Session
	Actions     []entities.OutboundAction
	Outcome     Outcome
	Reservation *entities.Reservation // set when a reservation was confirmed
}

type intent int

const (
	intentNone intent = iota
	intentShowMenu
	intentReserve
	intentFAQ
	intentAgent
)

var idleIntents = buildIntents(map[intent][]string{
	intentShowMenu: {"1", "carta", "menu", "menú", "ver carta", ButtonShowMenu},
	intentReserve:  {"2", "reservar", "reserva", ButtonReserve},
	intentFAQ:      {"3", "faq", "preguntas", "preguntas frecuentes", ButtonFAQ},
	intentAgent:    {"4", "agente", "humano", "hablar con alguien", ButtonAgent},
})

var (
	cancelTokens      = tokenSet("cancelar", "/cancel", "/cancelar", ButtonCancel)
	affirmativeTokens = tokenSet("si", "sí", "ok", "confirmar", ButtonYes)
	negativeTokens    = tokenSet("no", "cancelar", ButtonNo)
)

// ConversationEngine decides the next prompt and state of a conversation.
// Handle performs no I/O; every side effect is returned as an action.
type ConversationEngine struct {
	now   func() time.Time
	newID func() string
}

func NewConversationEngine() *ConversationEngine {
	return &ConversationEngine{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Handle computes the transition for one inbound text. current is nil when the
// conversation has no active flow. current is never modified.
func (e *ConversationEngine) Handle(tenant entities.TenantConfig, chatID, text string, current *entities.Session) Decision {
	input := normalize(text)

	if isStartCommand(input) {
		return Decision{
			Outcome: OutcomeStarted,
			Actions: []entities.OutboundAction{
				entities.SendText(chatID, greetingText(tenant), nil),
				menuPrompt(tenant, chatID),
			},
		}
	}
	if cancelTokens[input] {
		return Decision{
			Outcome: OutcomeCancelled,
			Actions: []entities.OutboundAction{
				entities.SendText(chatID, msgCancelled, nil),
				menuPrompt(tenant, chatID),
			},
		}
	}

	if current == nil || current.Stage == entities.StageIdle {
		return e.handleIdle(tenant, chatID, input)
	}

	switch current.Stage {
	case entities.StageAskDate, entities.StageAskTime, entities.StageAskPeople,
		entities.StageAskName, entities.StageAskPhone:
		return e.handleField(chatID, text, current)
	case entities.StageConfirm:
		return e.handleConfirm(tenant, chatID, input, current)
	default:
		// Unreadable stored stage: drop the flow and show the menu again.
		return Decision{
			Outcome: OutcomeReset,
			Actions: []entities.OutboundAction{
				entities.SendText(chatID, msgUnknown, nil),
				menuPrompt(tenant, chatID),
			},
		}
	}
}

func (e *ConversationEngine) handleIdle(tenant entities.TenantConfig, chatID, input string) Decision {
	switch idleIntents[input] {
	case intentShowMenu:
		if strings.TrimSpace(tenant.MenuDocument) == "" {
			return Decision{
				Outcome: OutcomeShowMenu,
				Actions: []entities.OutboundAction{entities.SendText(chatID, msgMenuMissing, nil)},
			}
		}
		return Decision{
			Outcome: OutcomeShowMenu,
			Actions: []entities.OutboundAction{
				entities.SendDocument(chatID, tenant.MenuDocument, msgMenuCaption),
				menuPrompt(tenant, chatID),
			},
		}

	case intentFAQ:
		faq := tenant.FAQText
		if strings.TrimSpace(faq) == "" {
			faq = msgFAQPlaceholder
		}
		return Decision{
			Outcome: OutcomeFAQ,
			Actions: []entities.OutboundAction{
				entities.SendText(chatID, faq, nil),
				menuPrompt(tenant, chatID),
			},
		}

	case intentAgent:
		return Decision{
			Outcome: OutcomeAgent,
			Actions: []entities.OutboundAction{
				entities.SendText(chatID, msgAgentAck, nil),
				entities.NotifyAdmin(tenant.ID, agentNotice(tenant, chatID), nil),
			},
		}

	case intentReserve:
		return Decision{
			Outcome: OutcomeFlowStarted,
			Next:    entities.NewSession(entities.StageAskDate),
			Actions: []entities.OutboundAction{
				entities.SendText(chatID, stagePrompts[entities.StageAskDate], cancelKeyboard()),
			},
		}
	}

	return Decision{
		Outcome: OutcomeUnknown,
		Actions: []entities.OutboundAction{
			entities.SendText(chatID, msgUnknown, nil),
			menuPrompt(tenant, chatID),
		},
	}
}

func (e *ConversationEngine) handleField(chatID, text string, current *entities.Session) Decision {
	field := current.Stage.Field()
	value, err := ValidateField(field, text)
	if err != nil {
		return Decision{
			Outcome: OutcomeInvalid,
			Next:    current.Clone(),
			Actions: []entities.OutboundAction{
				entities.SendText(chatID, stageRetries[current.Stage], cancelKeyboard()),
			},
		}
	}

	next := current.Clone()
	next.Fields[field] = value
	next.Stage = current.Stage.Next()

	if next.Stage == entities.StageConfirm {
		return Decision{
			Outcome: OutcomeAdvanced,
			Next:    next,
			Actions: []entities.OutboundAction{
				entities.SendText(chatID, summaryText(next.Fields), confirmKeyboard()),
			},
		}
	}
	return Decision{
		Outcome: OutcomeAdvanced,
		Next:    next,
		Actions: []entities.OutboundAction{
			entities.SendText(chatID, stagePrompts[next.Stage], cancelKeyboard()),
		},
	}
}

func (e *ConversationEngine) handleConfirm(tenant entities.TenantConfig, chatID, input string, current *entities.Session) Decision {
	switch {
	case affirmativeTokens[input]:
		fields := current.Fields.Clone()
		return Decision{
			Outcome:     OutcomeConfirmed,
			Reservation: e.reservation(tenant.ID, chatID, fields),
			Actions: []entities.OutboundAction{
				entities.SendText(chatID, msgConfirmed, nil),
				entities.NotifyAdmin(tenant.ID, reservationNotice(tenant, chatID, fields), fields),
				menuPrompt(tenant, chatID),
			},
		}
	case negativeTokens[input]:
		return Decision{
			Outcome: OutcomeDeclined,
			Actions: []entities.OutboundAction{
				entities.SendText(chatID, msgDeclined, nil),
				menuPrompt(tenant, chatID),
			},
		}
	}
	return Decision{
		Outcome: OutcomeInvalid,
		Next:    current.Clone(),
		Actions: []entities.OutboundAction{
			entities.SendText(chatID, msgConfirmAgain, confirmKeyboard()),
		},
	}
}

func (e *ConversationEngine) reservation(tenantID, chatID string, fields entities.FieldSet) *entities.Reservation {
	people, _ := strconv.Atoi(fields[entities.FieldPeople])
	return &entities.Reservation{
		ID:             e.newID(),
		TenantID:       tenantID,
		ConversationID: chatID,
		Date:           fields[entities.FieldDate],
		Time:           fields[entities.FieldTime],
		People:         people,
		Name:           fields[entities.FieldName],
		Phone:          fields[entities.FieldPhone],
		CreatedAt:      e.now().UTC(),
	}
}

// normalize lower-cases and collapses whitespace so "  Ver   Carta " matches "ver carta".
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// isStartCommand accepts "/start", "/start@bot_name" and "/start <payload>".
func isStartCommand(input string) bool {
	if input == "/start" {
		return true
	}
	return strings.HasPrefix(input, "/start@") || strings.HasPrefix(input, "/start ")
}

func tokenSet(tokens ...string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[normalize(t)] = true
	}
	return set
}

func buildIntents(in map[intent][]string) map[string]intent {
	out := make(map[string]intent)
	for it, words := range in {
		for _, w := range words {
			key := normalize(w)
			if prev, dup := out[key]; dup && prev != it {
				panic(fmt.Sprintf("menu keyword %q bound to two intents", w))
			}
			out[key] = it
		}
	}
	return out
}
