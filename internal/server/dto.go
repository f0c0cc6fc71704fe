package server

import (
	"encoding/json"

	"zelador/internal/config"
	"zelador/internal/domain"
	"zelador/internal/engine"
)

// Request payloads

type CreateCondoRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

type UpdateCondoRequest struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
	Status  *string `json:"status,omitempty" enum:"active,paused,archived"`
}

type CreateActivityRequest struct {
	ID             *string `json:"id,omitempty"`
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	Location       *string `json:"location,omitempty"`
	Responsible    *string `json:"responsible,omitempty"`
	Frequency      string  `json:"frequency"`
	ExpectedDate   *string `json:"expected_date,omitempty" format:"date"`
	StartAt        *string `json:"start_at,omitempty" format:"date-time"`
	CompletionDate *string `json:"completion_date,omitempty" format:"date"`
}

type UpdateActivityRequest struct {
	Name           *string `json:"name,omitempty"`
	Description    *string `json:"description,omitempty"`
	Location       *string `json:"location,omitempty"`
	Responsible    *string `json:"responsible,omitempty"`
	Frequency      *string `json:"frequency,omitempty"`
	ExpectedDate   *string `json:"expected_date,omitempty" format:"date"`
	CompletionDate *string `json:"completion_date,omitempty" format:"date"`
	Active         *bool   `json:"active,omitempty"`
}

type SetOccurrenceRequest struct {
	Status string  `json:"status" enum:"PENDENTE,EM_ANDAMENTO,FEITO,PULADO"`
	Notes  *string `json:"notes,omitempty"`
}

// Response payloads

type CondoResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	Status    string `json:"status" enum:"active,paused,archived"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type ActivityResponse struct {
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

type OccurrenceResponse struct {
	ActivityID    string  `json:"activity_id"`
	ReferenceDate string  `json:"reference_date" format:"date"`
	Status        string  `json:"status" enum:"PENDENTE,ATRASADO,EM_ANDAMENTO,PROXIMAS,FEITO,PULADO"`
	CompletedAt   *string `json:"completed_at,omitempty" format:"date-time"`
	Notes         *string `json:"notes,omitempty"`
	CreatedAt     string  `json:"created_at" format:"date-time"`
	UpdatedAt     string  `json:"updated_at" format:"date-time"`
}

type ActivityStatusResponse struct {
	Activity ActivityResponse `json:"activity"`
	Status   string           `json:"status" enum:"PROXIMAS,EM_ANDAMENTO,PENDENTE,HISTORICO"`
	NextDue  *string          `json:"next_due,omitempty" format:"date"`
}

type AgendaEntryResponse struct {
	Activity ActivityResponse `json:"activity"`
	DueToday bool             `json:"due_today"`
	NextDue  *string          `json:"next_due,omitempty" format:"date"`
}

type NotificationResponse struct {
	ActivityID string `json:"activity_id"`
	When       string `json:"when" enum:"pre,due,overdue"`
	DueDate    string `json:"due_date" format:"date"`
	Title      string `json:"title"`
	Details    string `json:"details,omitempty"`
	Location   string `json:"location,omitempty"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	CondoID    string         `json:"condo_id,omitempty"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

// CondoConfigPayload serves both the config read and the config replace
// operations.
type CondoConfigPayload struct {
	Condo struct {
		ID   string `json:"id"`
		Name string `json:"name,omitempty"`
	} `json:"condo"`
	Scheduling struct {
		Timezone string `json:"timezone"`
	} `json:"scheduling"`
	Notifications struct {
		LeadDays int              `json:"lead_days"`
		ScanTime string           `json:"scan_time,omitempty"`
		Webhooks []WebhookPayload `json:"webhooks,omitempty"`
	} `json:"notifications"`
}

type WebhookPayload struct {
	URL     string `json:"url"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// Conversion helpers

func condoResponse(c domain.Condominium) CondoResponse {
	return CondoResponse(c)
}

func mapCondos(items []domain.Condominium) []CondoResponse {
	out := []CondoResponse{}
	for _, c := range items {
		out = append(out, condoResponse(c))
	}
	return out
}

func activityResponse(a domain.Activity) ActivityResponse {
	return ActivityResponse(a)
}

func mapActivities(items []domain.Activity) []ActivityResponse {
	out := []ActivityResponse{}
	for _, a := range items {
		out = append(out, activityResponse(a))
	}
	return out
}

func occurrenceResponse(o domain.Occurrence) OccurrenceResponse {
	return OccurrenceResponse(o)
}

func mapOccurrences(items []domain.Occurrence) []OccurrenceResponse {
	out := []OccurrenceResponse{}
	for _, o := range items {
		out = append(out, occurrenceResponse(o))
	}
	return out
}

func activityStatusResponse(s engine.ActivityStatus) ActivityStatusResponse {
	return ActivityStatusResponse{
		Activity: activityResponse(s.Activity),
		Status:   s.Status,
		NextDue:  s.NextDue,
	}
}

func agendaResponse(items []engine.AgendaEntry) []AgendaEntryResponse {
	out := []AgendaEntryResponse{}
	for _, it := range items {
		out = append(out, AgendaEntryResponse{
			Activity: activityResponse(it.Activity),
			DueToday: it.DueToday,
			NextDue:  it.NextDue,
		})
	}
	return out
}

func mapNotifications(items []domain.Notification) []NotificationResponse {
	out := []NotificationResponse{}
	for _, n := range items {
		out = append(out, NotificationResponse(n))
	}
	return out
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		CondoID:    e.CondoID,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    decodeJSONMap(e.Payload),
	}
}

func configResponse(cfg *config.Config) CondoConfigPayload {
	var p CondoConfigPayload
	p.Condo.ID = cfg.Condo.ID
	p.Condo.Name = cfg.Condo.Name
	p.Scheduling.Timezone = cfg.Scheduling.Timezone
	p.Notifications.LeadDays = cfg.Notifications.LeadDays
	p.Notifications.ScanTime = cfg.Notifications.ScanTime
	for _, h := range cfg.Notifications.Webhooks {
		p.Notifications.Webhooks = append(p.Notifications.Webhooks, WebhookPayload{URL: h.URL, Enabled: h.Enabled})
	}
	return p
}

func configFromPayload(p CondoConfigPayload) *config.Config {
	var cfg config.Config
	cfg.Condo.ID = p.Condo.ID
	cfg.Condo.Name = p.Condo.Name
	cfg.Scheduling.Timezone = p.Scheduling.Timezone
	cfg.Notifications.LeadDays = p.Notifications.LeadDays
	cfg.Notifications.ScanTime = p.Notifications.ScanTime
	for _, h := range p.Notifications.Webhooks {
		cfg.Notifications.Webhooks = append(cfg.Notifications.Webhooks, config.WebhookConfig{URL: h.URL, Enabled: h.Enabled})
	}
	return &cfg
}

// JSON helpers

func decodeJSONMap(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var tmp any
	if err := json.Unmarshal([]byte(raw), &tmp); err != nil {
		return nil
	}
	if obj, ok := tmp.(map[string]any); ok {
		return obj
	}
	return nil
}
