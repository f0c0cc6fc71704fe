package zeladorsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Zelador HTTP API client.
type Client struct {
	BaseURL    string
	CondoID    string
	ActorID    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL, condoID string) *Client {
	return &Client{
		BaseURL: baseURL,
		CondoID: condoID,
		Timeout: 10 * time.Second,
	}
}

// Activity represents the API activity model (partial).
type Activity struct {
	ID             string `json:"id"`
	CondoID        string `json:"condo_id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Location       string `json:"location,omitempty"`
	Frequency      string `json:"frequency"`
	ExpectedDate   string `json:"expected_date,omitempty"`
	CompletionDate string `json:"completion_date,omitempty"`
	Active         bool   `json:"active"`
}

// Occurrence represents one calendar instance of an activity.
type Occurrence struct {
	ActivityID    string `json:"activity_id"`
	ReferenceDate string `json:"reference_date"`
	Status        string `json:"status"`
	Notes         string `json:"notes,omitempty"`
	CompletedAt   string `json:"completed_at,omitempty"`
}

// Notification is one entry of the feed.
type Notification struct {
	ActivityID string `json:"activity_id"`
	When       string `json:"when"`
	DueDate    string `json:"due_date"`
	Title      string `json:"title"`
	Details    string `json:"details,omitempty"`
	Location   string `json:"location,omitempty"`
}

// AgendaEntry pairs an activity with its next due date.
type AgendaEntry struct {
	Activity Activity `json:"activity"`
	DueToday bool     `json:"due_today"`
	NextDue  *string  `json:"next_due"`
}

// Event represents a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	CondoID    string         `json:"condo_id"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateActivity creates a recurring activity.
func (c *Client) CreateActivity(ctx context.Context, name, frequency string) (Activity, error) {
	body := map[string]any{
		"name":      name,
		"frequency": frequency,
	}
	var resp Activity
	err := c.do(ctx, http.MethodPost, c.condoPath("activities"), body, &resp)
	return resp, err
}

// ListActivities returns the condominium's active activities.
func (c *Client) ListActivities(ctx context.Context) ([]Activity, error) {
	var resp []Activity
	err := c.do(ctx, http.MethodGet, c.condoPath("activities"), nil, &resp)
	return resp, err
}

// MarkDone records a completed occurrence for the given reference date.
// The server schedules the next occurrence as a side effect.
func (c *Client) MarkDone(ctx context.Context, activityID, referenceDate, notes string) (Occurrence, error) {
	return c.SetOccurrence(ctx, activityID, referenceDate, "FEITO", notes)
}

// Skip records a skipped occurrence without scheduling a successor.
func (c *Client) Skip(ctx context.Context, activityID, referenceDate, notes string) (Occurrence, error) {
	return c.SetOccurrence(ctx, activityID, referenceDate, "PULADO", notes)
}

// SetOccurrence sets the status of one occurrence.
func (c *Client) SetOccurrence(ctx context.Context, activityID, referenceDate, status, notes string) (Occurrence, error) {
	body := map[string]any{"status": status}
	if notes != "" {
		body["notes"] = notes
	}
	endpoint := c.condoPath(fmt.Sprintf("activities/%s/occurrences/%s",
		url.PathEscape(activityID), url.PathEscape(referenceDate)))
	var resp Occurrence
	err := c.do(ctx, http.MethodPatch, endpoint, body, &resp)
	return resp, err
}

// Agenda returns upcoming due dates, soonest first.
func (c *Client) Agenda(ctx context.Context) ([]AgendaEntry, error) {
	var resp []AgendaEntry
	err := c.do(ctx, http.MethodGet, c.condoPath("agenda"), nil, &resp)
	return resp, err
}

// Notifications returns the current feed. leadDays < 0 uses the server default.
func (c *Client) Notifications(ctx context.Context, leadDays int) ([]Notification, error) {
	endpoint := c.condoPath("notifications")
	if leadDays >= 0 {
		endpoint = fmt.Sprintf("%s?lead_days=%d", endpoint, leadDays)
	}
	var resp []Notification
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Events returns recent events, newest first.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := c.condoPath("events")
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.ActorID != "" {
		req.Header.Set("X-Actor-Id", c.ActorID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) condoPath(p string) string {
	condo := url.PathEscape(c.CondoID)
	return fmt.Sprintf("v1/condominiums/%s/%s", condo, strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
