package notify

import (
	"testing"
	"time"
)

func TestCenterExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewCenter(WithClock(func() time.Time { return now }))

	c.Show("История импортирована", Info)
	now = now.Add(time.Second)
	c.Show("Заполните все поля сцены", Warning)

	active := c.Active()
	if len(active) != 2 {
		t.Fatalf("Expected 2 toasts, got %d", len(active))
	}
	if active[1].Level != Warning {
		t.Errorf("Expected warning level, got %q", active[1].Level)
	}

	now = now.Add(Visible - time.Second)
	active = c.Active()
	if len(active) != 2 || !active[0].Fading(now) || active[1].Fading(now) {
		t.Errorf("Expected first toast fading and second visible, got %+v", active)
	}

	now = now.Add(Fade)
	active = c.Active()
	if len(active) != 1 || active[0].Message != "Заполните все поля сцены" {
		t.Errorf("Expected only the second toast, got %+v", active)
	}

	now = now.Add(Visible + Fade)
	if active := c.Active(); len(active) != 0 {
		t.Errorf("Expected no toasts, got %+v", active)
	}
}

func TestShowDefaultsToInfo(t *testing.T) {
	c := NewCenter()
	c.Show("hello", "")
	if got := c.Active()[0].Level; got != Info {
		t.Errorf("Level = %q, want %q", got, Info)
	}
}
