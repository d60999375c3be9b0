package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestIntAndDuration(t *testing.T) {
	t.Setenv("FREE_WINDOW", "36")
	t.Setenv("CACHE_TTL", "90s")

	n, err := Int("FREE_WINDOW", 24)
	if err != nil || n != 36 {
		t.Fatalf("Int: got %d, %v", n, err)
	}
	if n, _ := Int("MISSING_INT", 24); n != 24 {
		t.Fatalf("Int fallback: got %d", n)
	}
	d, err := Duration("CACHE_TTL", time.Minute)
	if err != nil || d != 90*time.Second {
		t.Fatalf("Duration: got %v, %v", d, err)
	}

	t.Setenv("BAD_INT", "twelve")
	if _, err := Int("BAD_INT", 1); err == nil {
		t.Fatalf("expected error for non-numeric value")
	}
}

func TestDecimal(t *testing.T) {
	t.Setenv("RESCHEDULE_FEE", "42.50")
	got, err := Decimal("RESCHEDULE_FEE", decimal.Zero)
	if err != nil {
		t.Fatalf("Decimal: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("42.5")) {
		t.Fatalf("Decimal: got %s", got)
	}
}

func TestPortRejectsOutOfRange(t *testing.T) {
	t.Setenv("PORT", "70000")
	if _, err := Port("PORT", "8080"); err == nil {
		t.Fatalf("expected error for out of range port")
	}
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CLINIC_TIMEZONE=America/Sao_Paulo\nSTORE=memory\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("STORE", "postgres")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("CLINIC_TIMEZONE") })

	if got := String("CLINIC_TIMEZONE", ""); got != "America/Sao_Paulo" {
		t.Fatalf("expected timezone from file, got %q", got)
	}
	if got := String("STORE", ""); got != "postgres" {
		t.Fatalf("expected existing env to win, got %q", got)
	}
}

func TestListAndBool(t *testing.T) {
	t.Setenv("ORIGINS", " https://a.example , ,https://b.example")
	got := List("ORIGINS")
	if len(got) != 2 || got[1] != "https://b.example" {
		t.Fatalf("List: got %v", got)
	}
	t.Setenv("FLAG", "off")
	if Bool("FLAG", true) {
		t.Fatalf("expected off to parse as false")
	}
}
