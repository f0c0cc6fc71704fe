package config

import (
	"strings"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := Default("condo-1")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Scheduling.Timezone != "America/Sao_Paulo" {
		t.Fatalf("unexpected default timezone %s", cfg.Scheduling.Timezone)
	}
	if cfg.Notifications.LeadDays != 3 {
		t.Fatalf("unexpected default lead days %d", cfg.Notifications.LeadDays)
	}
	if _, err := cfg.Location(); err != nil {
		t.Fatalf("location: %v", err)
	}
}

func TestValidateRejectsBadTimezone(t *testing.T) {
	cfg := Default("condo-1")
	cfg.Scheduling.Timezone = "Mars/Olympus_Mons"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "timezone") {
		t.Fatalf("expected timezone error, got %v", err)
	}
}

func TestValidateRejectsBadScanTime(t *testing.T) {
	for _, bad := range []string{"8am", "25:00", "08:75", "08"} {
		cfg := Default("condo-1")
		cfg.Notifications.ScanTime = bad
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for scan time %q", bad)
		}
	}
}

func TestValidateRejectsNegativeLeadDays(t *testing.T) {
	cfg := Default("condo-1")
	cfg.Notifications.LeadDays = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected lead_days error")
	}
}

func TestFromYAMLRequiresCondoID(t *testing.T) {
	_, err := FromYAML([]byte("scheduling:\n  timezone: UTC\n"))
	if err == nil || !strings.Contains(err.Error(), "condo.id") {
		t.Fatalf("expected condo.id error, got %v", err)
	}
}

func TestScanSchedule(t *testing.T) {
	cfg := Default("condo-1")
	hour, minute, ok := cfg.ScanSchedule()
	if !ok || hour != 8 || minute != 0 {
		t.Fatalf("got %d:%d ok=%v, want 08:00", hour, minute, ok)
	}
	cfg.Notifications.ScanTime = ""
	if _, _, ok := cfg.ScanSchedule(); ok {
		t.Fatal("empty scan time must report not ok")
	}
}
