package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"zelador/internal/config"
	"zelador/internal/domain"
	"zelador/internal/engine"
	"zelador/internal/events"
	"zelador/internal/schedule"
)

const deliveryTimeout = 5 * time.Second

// Scanner runs the daily notification sweep: it projects the notice feed
// for every condominium, records a scan event and pushes the feed to the
// configured webhooks.
type Scanner struct {
	Engine engine.Engine
	cron   *cron.Cron
	client *http.Client
}

func NewScanner(e engine.Engine) *Scanner {
	return &Scanner{
		Engine: e,
		cron:   cron.New(cron.WithLocation(e.Location), cron.WithSeconds()),
		client: &http.Client{Timeout: deliveryTimeout},
	}
}

// Start schedules the sweep at the configured HH:MM in the canonical
// timezone and launches the cron loop.
func (s *Scanner) Start() error {
	hour, minute, ok := s.Engine.Config.ScanSchedule()
	if !ok {
		return fmt.Errorf("invalid scan_time %q, expected HH:MM", s.Engine.Config.Notifications.ScanTime)
	}
	spec := fmt.Sprintf("0 %d %d * * *", minute, hour)
	if _, err := s.cron.AddFunc(spec, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			log.Printf("notify: scan failed: %v", err)
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scanner) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RunOnce sweeps every condominium immediately. Webhook delivery failures
// are logged and skipped; the scan itself keeps going.
func (s *Scanner) RunOnce(ctx context.Context) error {
	condos, err := s.Engine.Repo.ListCondominiums(ctx)
	if err != nil {
		return fmt.Errorf("list condominiums: %w", err)
	}
	for _, c := range condos {
		if c.Status != "active" {
			continue
		}
		if err := s.scanCondo(ctx, c.ID); err != nil {
			log.Printf("notify: condo %s: %v", c.ID, err)
		}
	}
	return nil
}

func (s *Scanner) scanCondo(ctx context.Context, condoID string) error {
	cfg := s.condoConfig(ctx, condoID)
	feed, err := s.Engine.Notifications(ctx, condoID, cfg.Notifications.LeadDays)
	if err != nil {
		return err
	}
	if err := s.recordScan(ctx, condoID, feed); err != nil {
		return err
	}
	if len(feed) == 0 {
		return nil
	}
	for _, hook := range cfg.Notifications.Webhooks {
		if hook.Enabled != nil && !*hook.Enabled {
			continue
		}
		if strings.TrimSpace(hook.URL) == "" {
			continue
		}
		if err := s.deliver(ctx, hook, condoID, feed); err != nil {
			log.Printf("notify: deliver to %s failed: %v", hook.URL, err)
		}
	}
	return nil
}

// condoConfig prefers the stored per-condo config and falls back to the
// engine's.
func (s *Scanner) condoConfig(ctx context.Context, condoID string) *config.Config {
	cfg, err := s.Engine.Repo.GetCondoConfig(ctx, condoID)
	if err != nil {
		if s.Engine.Config != nil {
			return s.Engine.Config
		}
		return config.Default(condoID)
	}
	return cfg
}

func (s *Scanner) recordScan(ctx context.Context, condoID string, feed []domain.Notification) error {
	counts := map[string]int{}
	for _, n := range feed {
		counts[n.When]++
	}
	tx, err := s.Engine.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := s.Engine.Events.Append(ctx, tx, "notify.scan", condoID, "notify", "", "scheduler", events.EventPayload{
		"total":  len(feed),
		"counts": counts,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

type feedDelivery struct {
	CondoID     string                `json:"condo_id"`
	GeneratedAt string                `json:"generated_at" format:"date-time"`
	Notices     []domain.Notification `json:"notices"`
}

func (s *Scanner) deliver(ctx context.Context, hook config.WebhookConfig, condoID string, feed []domain.Notification) error {
	body := feedDelivery{
		CondoID:     condoID,
		GeneratedAt: s.Engine.Today().UTC().Format(time.RFC3339),
		Notices:     feed,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Zelador-Event", "notify.feed")
	req.Header.Set("X-Zelador-Condo", condoID)
	req.Header.Set("X-Zelador-Date", schedule.FormatDay(s.Engine.Today()))
	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
