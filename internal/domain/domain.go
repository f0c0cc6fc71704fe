package domain

// Occurrence record statuses, persisted per (activity, reference date).
const (
	OccurrencePendente    = "PENDENTE"
	OccurrenceAtrasado    = "ATRASADO"
	OccurrenceEmAndamento = "EM_ANDAMENTO"
	OccurrenceProximas    = "PROXIMAS"
	OccurrenceFeito       = "FEITO"
	OccurrencePulado      = "PULADO"
)

// Day-level statuses, derived per request and never persisted. Board
// columns are partitioned by these values.
const (
	DayProximas    = "PROXIMAS"
	DayEmAndamento = "EM_ANDAMENTO"
	DayPendente    = "PENDENTE"
	DayHistorico   = "HISTORICO"
)

// Notification buckets, in precedence order.
const (
	NoticeOverdue = "overdue"
	NoticeDue     = "due"
	NoticePre     = "pre"
)

type Condominium struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	Status    string `json:"status" enum:"active,paused,archived"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// Activity is a recurring maintenance task owned by a condominium.
// ExpectedDate and CompletionDate are calendar days (YYYY-MM-DD); StartAt is
// a full timestamp. The scheduling anchor resolves with fixed precedence:
// ExpectedDate, then StartAt, then CreatedAt.
type Activity struct {
	ID             string  `json:"id"`
	CondoID        string  `json:"condo_id"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	Location       string  `json:"location,omitempty"`
	Responsible    *string `json:"responsible,omitempty"`
	Frequency      string  `json:"frequency"`
	ExpectedDate   *string `json:"expected_date,omitempty" format:"date"`
	StartAt        *string `json:"start_at,omitempty" format:"date-time"`
	CompletionDate *string `json:"completion_date,omitempty" format:"date"`
	Active         bool    `json:"active"`
	CreatedAt      string  `json:"created_at" format:"date-time"`
	UpdatedAt      string  `json:"updated_at" format:"date-time"`
}

// Occurrence is one scheduled instance of an activity, tied to a calendar
// day. (ActivityID, ReferenceDate) is unique and acts as the idempotency key
// for history advancement.
type Occurrence struct {
	ActivityID    string  `json:"activity_id"`
	ReferenceDate string  `json:"reference_date" format:"date"`
	Status        string  `json:"status" enum:"PENDENTE,ATRASADO,EM_ANDAMENTO,PROXIMAS,FEITO,PULADO"`
	CompletedAt   *string `json:"completed_at,omitempty" format:"date-time"`
	Notes         *string `json:"notes,omitempty"`
	CreatedAt     string  `json:"created_at" format:"date-time"`
	UpdatedAt     string  `json:"updated_at" format:"date-time"`
}

// Notification is a transient feed entry; it is derived on every read and
// never persisted.
type Notification struct {
	ActivityID string `json:"activity_id"`
	When       string `json:"when" enum:"pre,due,overdue"`
	DueDate    string `json:"due_date" format:"date"`
	Title      string `json:"title"`
	Details    string `json:"details,omitempty"`
	Location   string `json:"location,omitempty"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	CondoID    string `json:"condo_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
