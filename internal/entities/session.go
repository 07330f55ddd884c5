package entities

import (
	"fmt"
	"time"
)

// Stage is the position of a conversation in the reservation flow.
type Stage int

const (
	StageIdle Stage = iota
	StageAskDate
	StageAskTime
	StageAskPeople
	StageAskName
	StageAskPhone
	StageConfirm
)

// StageUnknown marks a stored stage that could not be decoded.
const StageUnknown Stage = -1

var stageNames = map[Stage]string{
	StageIdle:      "idle",
	StageAskDate:   "ask_date",
	StageAskTime:   "ask_time",
	StageAskPeople: "ask_people",
	StageAskName:   "ask_name",
	StageAskPhone:  "ask_phone",
	StageConfirm:   "confirm",
}

// Stages lists every stage in flow order.
func Stages() []Stage {
	return []Stage{StageIdle, StageAskDate, StageAskTime, StageAskPeople, StageAskName, StageAskPhone, StageConfirm}
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Valid reports whether s is one of the declared stages.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

// Next returns the stage that follows s. Idle starts the flow and Confirm
// ends it, returning to Idle.
func (s Stage) Next() Stage {
	switch s {
	case StageIdle:
		return StageAskDate
	case StageAskDate:
		return StageAskTime
	case StageAskTime:
		return StageAskPeople
	case StageAskPeople:
		return StageAskName
	case StageAskName:
		return StageAskPhone
	case StageAskPhone:
		return StageConfirm
	default:
		return StageIdle
	}
}

// Field returns the reservation field collected while in s, or "".
func (s Stage) Field() string {
	switch s {
	case StageAskDate:
		return FieldDate
	case StageAskTime:
		return FieldTime
	case StageAskPeople:
		return FieldPeople
	case StageAskName:
		return FieldName
	case StageAskPhone:
		return FieldPhone
	default:
		return ""
	}
}

func (s Stage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown stage %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	stage, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = stage
	return nil
}

// ParseStage maps a stored stage name back to its Stage.
func ParseStage(name string) (Stage, error) {
	for stage, n := range stageNames {
		if n == name {
			return stage, nil
		}
	}
	return StageUnknown, fmt.Errorf("unknown stage %q", name)
}

// Reservation field names.
const (
	FieldDate   = "date"
	FieldTime   = "time"
	FieldPeople = "people"
	FieldName   = "name"
	FieldPhone  = "phone"
)

// ReservationFields lists the collected fields in flow order.
var ReservationFields = []string{FieldDate, FieldTime, FieldPeople, FieldName, FieldPhone}

// FieldSet holds the answers collected so far.
type FieldSet map[string]string

// Clone returns an independent copy.
func (f FieldSet) Clone() FieldSet {
	out := make(FieldSet, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Session is the in-progress flow of one conversation.
type Session struct {
	Stage     Stage     `json:"stage"`
	Fields    FieldSet  `json:"fields"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession starts a flow at the given stage with no answers.
func NewSession(stage Stage) *Session {
	return &Session{Stage: stage, Fields: FieldSet{}}
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	return &Session{Stage: s.Stage, Fields: s.Fields.Clone(), UpdatedAt: s.UpdatedAt}
}

// SessionKey identifies one conversation of one tenant.
type SessionKey struct {
	TenantID       string
	ConversationID string
}

func (k SessionKey) String() string {
	return k.TenantID + ":" + k.ConversationID
}
