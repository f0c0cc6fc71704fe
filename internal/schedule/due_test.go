package schedule

import (
	"testing"
	"time"
)

func TestSingleShotDueExactlyOnce(t *testing.T) {
	rule, ok := ParseFrequency("Não se repete")
	if !ok {
		t.Fatal("label should be known")
	}
	anchor := day(t, "2025-07-10")
	for offset := -3; offset <= 30; offset++ {
		ref := AddDays(anchor, offset)
		due := IsDueOn(rule, anchor, ref)
		if offset == 0 && !due {
			t.Fatalf("expected due on anchor day")
		}
		if offset != 0 && due {
			t.Fatalf("due on anchor+%d, should only be due on anchor", offset)
		}
	}
	if _, ok := NextDue(rule, anchor, AddDays(anchor, 1)); ok {
		t.Fatal("no next occurrence should exist after the anchor")
	}
	if next, ok := NextDue(rule, anchor, AddDays(anchor, -5)); !ok || !next.Equal(anchor) {
		t.Fatalf("before the anchor the next due day is the anchor, got %v %v", next, ok)
	}
}

func TestDailyDueEveryDayFromAnchor(t *testing.T) {
	rule, _ := ParseFrequency("Todos os dias")
	anchor := day(t, "2025-07-10")
	if IsDueOn(rule, anchor, AddDays(anchor, -1)) {
		t.Fatal("not due before anchor")
	}
	for offset := 0; offset < 400; offset++ {
		if !IsDueOn(rule, anchor, AddDays(anchor, offset)) {
			t.Fatalf("daily activity not due at anchor+%d", offset)
		}
	}
}

func TestWeeklyEndToEndScenario(t *testing.T) {
	rule, _ := ParseFrequency("A cada semana")
	anchor := day(t, "2025-07-10")

	if !IsDueOn(rule, anchor, day(t, "2025-07-17")) {
		t.Fatal("expected due on 2025-07-17")
	}
	if IsDueOn(rule, anchor, day(t, "2025-07-18")) {
		t.Fatal("not due on 2025-07-18")
	}
	next, ok := NextDue(rule, anchor, day(t, "2025-07-18"))
	if !ok || FormatDay(next) != "2025-07-24" {
		t.Fatalf("next due after 2025-07-18 = %s, want 2025-07-24", FormatDay(next))
	}
}

func TestQuarterlyClampedSequence(t *testing.T) {
	rule, _ := ParseFrequency("A cada 3 meses")
	anchor := day(t, "2025-01-31")
	want := []string{"2025-01-31", "2025-04-30", "2025-07-31", "2025-10-31"}

	cur := anchor
	for i, expected := range want {
		if FormatDay(cur) != expected {
			t.Fatalf("occurrence %d = %s, want %s", i, FormatDay(cur), expected)
		}
		if !IsDueOn(rule, anchor, cur) {
			t.Fatalf("expected %s to be due", FormatDay(cur))
		}
		next, ok := NextAfter(rule, anchor, cur)
		if !ok {
			t.Fatal("quarterly rule must recur")
		}
		cur = next
	}

	// The clamp must not compound: Jul 30 is off-sequence even though a walk
	// chained from the clamped Apr 30 would land there.
	if IsDueOn(rule, anchor, day(t, "2025-07-30")) {
		t.Fatal("2025-07-30 is not in the Jan 31 quarterly sequence")
	}
}

func TestBusinessDayWalkDue(t *testing.T) {
	monFri, _ := ParseFrequency("Segunda a sexta")
	monSat, _ := ParseFrequency("Segunda a sábado")
	anchor := day(t, "2025-07-07") // Monday

	cases := []struct {
		date            string
		wantMonFri      bool
		wantWithSaturday bool
	}{
		{"2025-07-11", true, true},  // Friday
		{"2025-07-12", false, true}, // Saturday
		{"2025-07-13", false, false}, // Sunday
		{"2025-07-14", true, true},  // Monday
	}
	for _, tc := range cases {
		ref := day(t, tc.date)
		if got := IsDueOn(monFri, anchor, ref); got != tc.wantMonFri {
			t.Errorf("Mon-Fri due on %s = %v, want %v", tc.date, got, tc.wantMonFri)
		}
		if got := IsDueOn(monSat, anchor, ref); got != tc.wantWithSaturday {
			t.Errorf("Mon-Sat due on %s = %v, want %v", tc.date, got, tc.wantWithSaturday)
		}
	}

	next, ok := NextDue(monFri, anchor, day(t, "2025-07-12"))
	if !ok || FormatDay(next) != "2025-07-14" {
		t.Fatalf("Mon-Fri next due from Saturday = %s, want 2025-07-14", FormatDay(next))
	}
}

func TestNotYetStartedNeverDue(t *testing.T) {
	for _, label := range []string{"Todos os dias", "Segunda a sexta", "A cada mês", "A cada ano"} {
		rule, _ := ParseFrequency(label)
		anchor := day(t, "2025-07-10")
		if IsDueOn(rule, anchor, day(t, "2025-07-09")) {
			t.Errorf("%s: due before anchor", label)
		}
		next, ok := NextDue(rule, anchor, day(t, "2025-01-01"))
		if !ok || !next.Equal(anchor) {
			t.Errorf("%s: next due before anchor should be the anchor, got %s", label, FormatDay(next))
		}
	}
}

func TestSpecialRulesNeverSchedule(t *testing.T) {
	rule, ok := ParseFrequency("Conforme indicação do fornecedor")
	if !ok || rule.Kind != KindSpecial {
		t.Fatalf("expected special rule, got %+v known=%v", rule, ok)
	}
	anchor := day(t, "2025-07-10")
	if IsDueOn(rule, anchor, anchor) {
		t.Fatal("special rules are never due")
	}
	if _, ok := NextDue(rule, anchor, anchor); ok {
		t.Fatal("special rules have no next due date")
	}
	if _, ok := NextAfter(rule, anchor, anchor); ok {
		t.Fatal("special rules do not resolve a next occurrence")
	}
}

func TestUnknownLabelDegradesToNonRecurring(t *testing.T) {
	rule, known := ParseFrequency("A cada lua cheia")
	if known {
		t.Fatal("label should be unknown")
	}
	if rule.Kind != KindNone {
		t.Fatalf("unknown labels must not recur, got kind %v", rule.Kind)
	}
	base := day(t, "2025-07-10")
	if _, ok := NextAfter(rule, base, base); ok {
		t.Fatal("unknown label resolved a next occurrence")
	}
}

func TestMonthlyWalkBounded(t *testing.T) {
	rule, _ := ParseFrequency("A cada mês")
	anchor := day(t, "2025-01-31")
	// Far beyond the walk bound: the search must terminate and report none.
	ref := time.Date(2200, 1, 1, 0, 0, 0, 0, saoPaulo)
	if _, ok := NextDue(rule, anchor, ref); ok {
		t.Fatal("expected exhausted walk to report no due date")
	}
	if IsDueOn(rule, anchor, ref) {
		t.Fatal("expected exhausted walk to report not due")
	}
}

func TestResolverNextMatchesCategory(t *testing.T) {
	base := day(t, "2025-07-10") // Thursday
	cases := []struct {
		label string
		want  string
	}{
		{"Todos os dias", "2025-07-11"},
		{"A cada semana", "2025-07-17"},
		{"A cada 15 dias", "2025-07-25"},
		{"Segunda a sexta", "2025-07-11"},
		{"A cada mês", "2025-08-10"},
		{"A cada 3 meses", "2025-10-10"},
		{"A cada ano", "2026-07-10"},
	}
	for _, tc := range cases {
		rule, _ := ParseFrequency(tc.label)
		next, ok := NextAfter(rule, base, base)
		if !ok {
			t.Errorf("%s: expected a next occurrence", tc.label)
			continue
		}
		if FormatDay(next) != tc.want {
			t.Errorf("%s: next = %s, want %s", tc.label, FormatDay(next), tc.want)
		}
	}
}

func TestNextAfterReclampsFromAnchor(t *testing.T) {
	rule, _ := ParseFrequency("A cada 3 meses")
	anchor := day(t, "2025-01-31")

	// Completing the clamped April occurrence must land on Jul 31, the
	// anchor's day restored, not on Jul 30 chained from the clamp.
	next, ok := NextAfter(rule, anchor, day(t, "2025-04-30"))
	if !ok || FormatDay(next) != "2025-07-31" {
		t.Fatalf("next after 2025-04-30 = %s, want 2025-07-31", FormatDay(next))
	}
	next, ok = NextAfter(rule, anchor, next)
	if !ok || FormatDay(next) != "2025-10-31" {
		t.Fatalf("next after 2025-07-31 = %s, want 2025-10-31", FormatDay(next))
	}

	// Off-sequence completions advance to the next sequence day.
	next, ok = NextAfter(rule, anchor, day(t, "2025-05-15"))
	if !ok || FormatDay(next) != "2025-07-31" {
		t.Fatalf("next after 2025-05-15 = %s, want 2025-07-31", FormatDay(next))
	}
}
