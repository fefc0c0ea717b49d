package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wolfman30/cashbarber-autobook/internal/apperr"
	"github.com/wolfman30/cashbarber-autobook/internal/cashbarber"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "LOG_FORMAT",
		"CASHBARBER_EMAIL", "CASHBARBER_PASSWORD", "CASHBARBER_BASE_URL", "CASHBARBER_AGE_ID_FILIAL",
		"CASHBARBER_SERVICOS", "CASHBARBER_BOOK_DELAY_MS", "CASHBARBER_MAX_BOOKING_DAYS",
		"CASHBARBER_HTTP_TIMEOUT", "CASHBARBER_TIMEZONE", "CASHBARBER_CYCLE", "CASHBARBER_CYCLE_REFERENCE",
		"CASHBARBER_LISTING_BEST_EFFORT", "CASHBARBER_DRY_RUN",
		"REDIS_ADDR", "RUN_LOCK_TTL", "TRIGGER_JWT_SECRET", "TRIGGER_RATE_PER_MINUTE",
		"NOTIFY_PROVIDER", "NOTIFY_EMAIL_TO", "NOTIFY_ONLY_ON_ERRORS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.CashBarberBaseURL != cashbarber.DefaultBaseURL {
		t.Fatalf("expected default base url, got %s", cfg.CashBarberBaseURL)
	}
	if cfg.BranchID != 3483 {
		t.Fatalf("expected default branch, got %d", cfg.BranchID)
	}
	if len(cfg.ServiceIDs) != 2 || cfg.ServiceIDs[0] != 50954 || cfg.ServiceIDs[1] != 50952 {
		t.Fatalf("expected default services, got %v", cfg.ServiceIDs)
	}
	if cfg.BookDelay != 3*time.Second {
		t.Fatalf("expected 3s delay, got %s", cfg.BookDelay)
	}
	if cfg.MaxBookingDays != 15 {
		t.Fatalf("expected 15 days, got %d", cfg.MaxBookingDays)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Fatalf("expected 15s timeout, got %s", cfg.HTTPTimeout)
	}
	if cfg.Timezone != "America/Sao_Paulo" {
		t.Fatalf("expected Sao Paulo timezone, got %s", cfg.Timezone)
	}
	if !cfg.ListingBestEffort {
		t.Fatalf("expected best-effort listing by default")
	}
	if cfg.DryRun {
		t.Fatalf("expected dry run off by default")
	}
	if cfg.RunLockTTL != 10*time.Minute {
		t.Fatalf("expected 10m lock ttl, got %s", cfg.RunLockTTL)
	}
	if !cfg.NotifyOnlyOnErrors {
		t.Fatalf("expected error-only reports by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CASHBARBER_EMAIL", " me@example.com ")
	t.Setenv("CASHBARBER_PASSWORD", "pw")
	t.Setenv("CASHBARBER_AGE_ID_FILIAL", "42")
	t.Setenv("CASHBARBER_SERVICOS", "1, 2,3")
	t.Setenv("CASHBARBER_BOOK_DELAY_MS", "250")
	t.Setenv("CASHBARBER_MAX_BOOKING_DAYS", "30")
	t.Setenv("CASHBARBER_HTTP_TIMEOUT", "5s")
	t.Setenv("CASHBARBER_LISTING_BEST_EFFORT", "false")
	t.Setenv("CASHBARBER_DRY_RUN", "true")
	t.Setenv("NOTIFY_PROVIDER", "SES")
	cfg := Load()

	if cfg.CashBarberEmail != "me@example.com" {
		t.Fatalf("expected trimmed email, got %q", cfg.CashBarberEmail)
	}
	if cfg.BranchID != 42 {
		t.Fatalf("expected branch override, got %d", cfg.BranchID)
	}
	if len(cfg.ServiceIDs) != 3 || cfg.ServiceIDs[2] != 3 {
		t.Fatalf("expected services override, got %v", cfg.ServiceIDs)
	}
	if cfg.BookDelay != 250*time.Millisecond {
		t.Fatalf("expected delay override, got %s", cfg.BookDelay)
	}
	if cfg.MaxBookingDays != 30 || cfg.HTTPTimeout != 5*time.Second {
		t.Fatalf("unexpected window/timeout: %d %s", cfg.MaxBookingDays, cfg.HTTPTimeout)
	}
	if cfg.ListingBestEffort || !cfg.DryRun {
		t.Fatalf("expected bool overrides")
	}
	if cfg.NotifyProvider != "ses" {
		t.Fatalf("expected lower-cased provider, got %s", cfg.NotifyProvider)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadBadServiceListFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("CASHBARBER_SERVICOS", "1,abc")
	if got := Load().ServiceIDs; len(got) != 2 || got[0] != 50954 {
		t.Fatalf("expected default services, got %v", got)
	}
}

func TestValidateMissingCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("CASHBARBER_EMAIL", "me@example.com")
	err := Load().Validate()
	if err == nil {
		t.Fatal("expected error without password")
	}
	if !apperr.Is(err, apperr.KindConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	e, _ := apperr.As(err)
	if e.Message != "Missing CASHBARBER_EMAIL or CASHBARBER_PASSWORD" {
		t.Fatalf("unexpected message %q", e.Message)
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := &Config{
		CashBarberEmail:    "me@example.com",
		CashBarberPassword: "pw",
		BranchID:           0,
		MaxBookingDays:     0,
		Timezone:           "Mars/Olympus",
		Cycle:              "0@12:00#1",
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"CASHBARBER_AGE_ID_FILIAL", "CASHBARBER_SERVICOS", "CASHBARBER_MAX_BOOKING_DAYS", "CASHBARBER_TIMEZONE", "CASHBARBER_CYCLE"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestValidateSettingsIgnoresCredentials(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	if err := cfg.ValidateSettings(); err != nil {
		t.Fatalf("expected default settings to be valid, got %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate to require credentials")
	}
}

func TestBuildGenerator(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	gen, err := cfg.BuildGenerator()
	if err != nil {
		t.Fatalf("default generator: %v", err)
	}
	now := time.Date(2026, time.February, 5, 12, 0, 0, 0, cfg.Location())
	if got := len(gen.Generate(now, 15)); got != 3 {
		t.Fatalf("expected 3 default slots, got %d", got)
	}

	cfg.Cycle = "7@10:30#99"
	cfg.CycleReference = "2026-03-02 10:30"
	gen, err = cfg.BuildGenerator()
	if err != nil {
		t.Fatalf("custom generator: %v", err)
	}
	slots := gen.Generate(time.Date(2026, time.March, 1, 0, 0, 0, 0, cfg.Location()), 16)
	if len(slots) != 3 {
		t.Fatalf("expected 3 weekly slots, got %d", len(slots))
	}
	if slots[0].StartString() != "2026-03-02 10:30:00" || slots[0].AssigneeID != 99 {
		t.Fatalf("unexpected first slot %s #%d", slots[0].StartString(), slots[0].AssigneeID)
	}

	cfg.CycleReference = "yesterday"
	if _, err := cfg.BuildGenerator(); !apperr.Is(err, apperr.KindConfig) {
		t.Fatalf("expected config error for bad reference, got %v", err)
	}
}

func TestCredentials(t *testing.T) {
	cfg := &Config{CashBarberEmail: "a@b.c", CashBarberPassword: "pw"}
	creds := cfg.Credentials()
	if creds.Email != "a@b.c" || creds.Password != "pw" {
		t.Fatalf("unexpected credentials %+v", creds)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CASHBARBER_EMAIL=dotenv@example.com\nCASHBARBER_PASSWORD=fromfile\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CASHBARBER_PASSWORD", "fromenv")
	// godotenv never overrides a set variable, even an empty one
	os.Unsetenv("CASHBARBER_EMAIL")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	cfg := Load()
	if cfg.CashBarberEmail != "dotenv@example.com" {
		t.Fatalf("expected email from file, got %q", cfg.CashBarberEmail)
	}
	if cfg.CashBarberPassword != "fromenv" {
		t.Fatalf("expected real env to win, got %q", cfg.CashBarberPassword)
	}
}
