package engine_test

import (
	"context"
	"testing"
	"time"

	"zelador/internal/config"
	"zelador/internal/db"
	"zelador/internal/domain"
	"zelador/internal/engine"
	"zelador/internal/migrate"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

// newTestEnv pins the clock to Thursday 2025-07-10 in America/Sao_Paulo.
func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("condo-1")
	eng := engine.New(conn, cfg)
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	eng.Now = func() time.Time { return time.Date(2025, 7, 10, 9, 0, 0, 0, loc) }
	ctx := context.Background()
	if _, err := eng.InitCondominium(ctx, "condo-1", "Edifício Teste", "", "tester"); err != nil {
		t.Fatalf("init condominium: %v", err)
	}
	return testEnv{Engine: eng, Ctx: ctx}
}

func TestCreateActivitySeedsFirstOccurrence(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		expected string
		status   string
	}{
		{"2025-08-01", domain.OccurrenceProximas},
		{"2025-06-01", domain.OccurrenceAtrasado},
		{"2025-07-10", domain.OccurrencePendente},
	}
	for _, c := range cases {
		a, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
			CondoID:      "condo-1",
			Name:         "Limpeza " + c.expected,
			Frequency:    "Não se repete",
			ExpectedDate: c.expected,
			ActorID:      "tester",
		})
		if err != nil {
			t.Fatalf("create activity: %v", err)
		}
		occs, err := env.Engine.Repo.ListOccurrences(env.Ctx, a.ID)
		if err != nil {
			t.Fatalf("list occurrences: %v", err)
		}
		if len(occs) != 1 {
			t.Fatalf("expected one seeded occurrence, got %d", len(occs))
		}
		if occs[0].ReferenceDate != c.expected || occs[0].Status != c.status {
			t.Fatalf("expected %s/%s, got %s/%s", c.expected, c.status, occs[0].ReferenceDate, occs[0].Status)
		}
	}
}

func TestCompletionAdvancesHistory(t *testing.T) {
	env := newTestEnv(t)
	a, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
		CondoID:      "condo-1",
		Name:         "Teste de bombas",
		Frequency:    "A cada semana",
		ExpectedDate: "2025-07-10",
		ActorID:      "tester",
	})
	if err != nil {
		t.Fatalf("create activity: %v", err)
	}
	occ, err := env.Engine.SetOccurrenceStatus(env.Ctx, a.ID, "2025-07-10", domain.OccurrenceFeito, "", "tester")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if occ.CompletedAt == nil {
		t.Fatalf("expected completed_at set")
	}
	next, err := env.Engine.Repo.GetOccurrence(env.Ctx, a.ID, "2025-07-17")
	if err != nil {
		t.Fatalf("expected next occurrence: %v", err)
	}
	if next.Status != domain.OccurrencePendente {
		t.Fatalf("expected next PENDENTE, got %s", next.Status)
	}

	// completing the same day again must not duplicate the next record
	if _, err := env.Engine.SetOccurrenceStatus(env.Ctx, a.ID, "2025-07-10", domain.OccurrenceFeito, "", "tester"); err != nil {
		t.Fatalf("repeat complete: %v", err)
	}
	occs, err := env.Engine.Repo.ListOccurrences(env.Ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(occs) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(occs))
	}
}

func TestAdvancementStopsAtCompletionDate(t *testing.T) {
	env := newTestEnv(t)
	a, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
		CondoID:        "condo-1",
		Name:           "Dedetização",
		Frequency:      "A cada semana",
		ExpectedDate:   "2025-07-10",
		CompletionDate: "2025-07-15",
		ActorID:        "tester",
	})
	if err != nil {
		t.Fatalf("create activity: %v", err)
	}
	if _, err := env.Engine.SetOccurrenceStatus(env.Ctx, a.ID, "2025-07-10", domain.OccurrenceFeito, "", "tester"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	occs, err := env.Engine.Repo.ListOccurrences(env.Ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(occs) != 1 {
		t.Fatalf("expected cycle to end at completion date, got %d occurrences", len(occs))
	}
}

func TestSkipDoesNotAdvance(t *testing.T) {
	env := newTestEnv(t)
	a, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
		CondoID:      "condo-1",
		Name:         "Jardinagem",
		Frequency:    "A cada semana",
		ExpectedDate: "2025-07-10",
		ActorID:      "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.SetOccurrenceStatus(env.Ctx, a.ID, "2025-07-10", domain.OccurrencePulado, "feriado", "tester"); err != nil {
		t.Fatalf("skip: %v", err)
	}
	occs, err := env.Engine.Repo.ListOccurrences(env.Ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(occs) != 1 {
		t.Fatalf("skip must not schedule a successor, got %d occurrences", len(occs))
	}
	if occs[0].Status != domain.OccurrencePulado {
		t.Fatalf("expected PULADO, got %s", occs[0].Status)
	}
}

func TestBoardPartitioning(t *testing.T) {
	env := newTestEnv(t)
	mk := func(name, freq, expected string) string {
		t.Helper()
		a, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
			CondoID: "condo-1", Name: name, Frequency: freq, ExpectedDate: expected, ActorID: "tester",
		})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		return a.ID
	}
	pending := mk("pendente", "Todos os dias", "2025-07-01")
	upcoming := mk("proxima", "Não se repete", "2025-08-01")
	started := mk("andamento", "Todos os dias", "2025-07-01")
	done := mk("feita", "Não se repete", "2025-07-10")

	if _, err := env.Engine.SetOccurrenceStatus(env.Ctx, started, "2025-07-10", domain.OccurrenceEmAndamento, "", "tester"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.Engine.SetOccurrenceStatus(env.Ctx, done, "2025-07-10", domain.OccurrenceFeito, "", "tester"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	board, err := env.Engine.Board(env.Ctx, "condo-1")
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	find := func(column, id string) bool {
		for _, s := range board[column] {
			if s.Activity.ID == id {
				return true
			}
		}
		return false
	}
	if !find(domain.DayPendente, pending) {
		t.Errorf("expected %s in PENDENTE", pending)
	}
	if !find(domain.DayProximas, upcoming) {
		t.Errorf("expected %s in PROXIMAS", upcoming)
	}
	if !find(domain.DayEmAndamento, started) {
		t.Errorf("expected %s in EM_ANDAMENTO", started)
	}
	if !find(domain.DayHistorico, done) {
		t.Errorf("expected %s in HISTORICO", done)
	}
}

func TestUnknownFrequencyDegradesWithEvent(t *testing.T) {
	env := newTestEnv(t)
	a, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
		CondoID:      "condo-1",
		Name:         "misterio",
		Frequency:    "toda lua cheia",
		ExpectedDate: "2025-07-10",
		ActorID:      "tester",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// a single-shot: completion schedules nothing further
	if _, err := env.Engine.SetOccurrenceStatus(env.Ctx, a.ID, "2025-07-10", domain.OccurrenceFeito, "", "tester"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	occs, err := env.Engine.Repo.ListOccurrences(env.Ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(occs) != 1 {
		t.Fatalf("unknown frequency must not recur, got %d occurrences", len(occs))
	}
	var count int
	row := env.Engine.DB.QueryRowContext(env.Ctx, `SELECT count(*) FROM events WHERE type='activity.frequency.unknown' AND entity_id=?`, a.ID)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("query events: %v", err)
	}
	if count == 0 {
		t.Fatalf("expected unknown-frequency event")
	}
}

func TestAgendaOrdersBySoonestDue(t *testing.T) {
	env := newTestEnv(t)
	later, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
		CondoID: "condo-1", Name: "later", Frequency: "Não se repete", ExpectedDate: "2025-07-20", ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	sooner, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
		CondoID: "condo-1", Name: "sooner", Frequency: "Não se repete", ExpectedDate: "2025-07-12", ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	agenda, err := env.Engine.Agenda(env.Ctx, "condo-1")
	if err != nil {
		t.Fatalf("agenda: %v", err)
	}
	if len(agenda) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(agenda))
	}
	if agenda[0].Activity.ID != sooner.ID || agenda[1].Activity.ID != later.ID {
		t.Fatalf("expected sooner first, got %s then %s", agenda[0].Activity.Name, agenda[1].Activity.Name)
	}
	if agenda[0].NextDue == nil || *agenda[0].NextDue != "2025-07-12" {
		t.Fatalf("unexpected next due: %v", agenda[0].NextDue)
	}
}

func TestNotificationsFeed(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
		CondoID: "condo-1", Name: "vence logo", Frequency: "Não se repete", ExpectedDate: "2025-07-12", ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
		CondoID: "condo-1", Name: "vencida", Frequency: "Não se repete", ExpectedDate: "2025-07-01", ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}
	feed, err := env.Engine.Notifications(env.Ctx, "condo-1", -1)
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(feed))
	}
	// overdue entries rank ahead of pre-alerts
	if feed[0].When != domain.NoticeOverdue || feed[0].DueDate != "2025-07-01" {
		t.Fatalf("expected overdue first, got %+v", feed[0])
	}
	if feed[1].When != domain.NoticePre || feed[1].DueDate != "2025-07-12" {
		t.Fatalf("expected pre-alert, got %+v", feed[1])
	}
}

func TestCompletionFollowsClampedAnchorSequence(t *testing.T) {
	env := newTestEnv(t)
	a, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
		CondoID:      "condo-1",
		Name:         "Limpeza de caixa d'água",
		Frequency:    "A cada 3 meses",
		ExpectedDate: "2025-01-31",
		ActorID:      "tester",
	})
	if err != nil {
		t.Fatalf("create activity: %v", err)
	}
	if _, err := env.Engine.SetOccurrenceStatus(env.Ctx, a.ID, "2025-01-31", domain.OccurrenceFeito, "", "tester"); err != nil {
		t.Fatalf("complete anchor: %v", err)
	}
	if _, err := env.Engine.Repo.GetOccurrence(env.Ctx, a.ID, "2025-04-30"); err != nil {
		t.Fatalf("expected clamped April successor: %v", err)
	}
	// Completing the clamped day must restore the anchor's day-of-month, not
	// chain the clamp into Jul 30.
	if _, err := env.Engine.SetOccurrenceStatus(env.Ctx, a.ID, "2025-04-30", domain.OccurrenceFeito, "", "tester"); err != nil {
		t.Fatalf("complete clamped: %v", err)
	}
	if _, err := env.Engine.Repo.GetOccurrence(env.Ctx, a.ID, "2025-07-31"); err != nil {
		t.Fatalf("expected successor on 2025-07-31: %v", err)
	}
	if _, err := env.Engine.Repo.GetOccurrence(env.Ctx, a.ID, "2025-07-30"); err == nil {
		t.Fatal("2025-07-30 is off the anchor sequence and must not be scheduled")
	}
}

func TestReplayedCompletionSkipsScheduledEvent(t *testing.T) {
	env := newTestEnv(t)
	a, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
		CondoID:      "condo-1",
		Name:         "Teste de gerador",
		Frequency:    "A cada semana",
		ExpectedDate: "2025-07-10",
		ActorID:      "tester",
	})
	if err != nil {
		t.Fatalf("create activity: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := env.Engine.SetOccurrenceStatus(env.Ctx, a.ID, "2025-07-10", domain.OccurrenceFeito, "", "tester"); err != nil {
			t.Fatalf("complete #%d: %v", i+1, err)
		}
	}
	var count int
	row := env.Engine.DB.QueryRowContext(env.Ctx, `SELECT count(*) FROM events WHERE type='occurrence.scheduled' AND entity_id=?`, a.ID)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("query events: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one scheduled event for the replayed completion, got %d", count)
	}
}

func TestUpdateActivityRewritesFrequency(t *testing.T) {
	env := newTestEnv(t)
	a, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
		CondoID: "condo-1", Name: "troca", Frequency: "A cada semana", ExpectedDate: "2025-07-10", ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	freq := "A cada mês"
	a, err = env.Engine.UpdateActivity(env.Ctx, engine.ActivityUpdateOptions{ID: a.ID, Frequency: &freq, ActorID: "tester"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if a.Frequency != "A cada mês" {
		t.Fatalf("frequency not updated: %s", a.Frequency)
	}
	if _, err := env.Engine.SetOccurrenceStatus(env.Ctx, a.ID, "2025-07-10", domain.OccurrenceFeito, "", "tester"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	// the new rule governs advancement from the completed day
	if _, err := env.Engine.Repo.GetOccurrence(env.Ctx, a.ID, "2025-08-10"); err != nil {
		t.Fatalf("expected monthly successor: %v", err)
	}
}
