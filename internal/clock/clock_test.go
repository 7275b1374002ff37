package clock

import (
	"testing"
	"time"
)

func TestManual_AddAndSet(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	m := NewManual(start)

	if got := m.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}

	got := m.Add(1500 * time.Millisecond)
	want := start.Add(1500 * time.Millisecond)
	if !got.Equal(want) || !m.Now().Equal(want) {
		t.Errorf("Add returned %v, Now %v, want %v", got, m.Now(), want)
	}

	later := start.Add(time.Hour)
	m.Set(later)
	if !m.Now().Equal(later) {
		t.Errorf("after Set, Now() = %v, want %v", m.Now(), later)
	}
}

func TestReal_Advances(t *testing.T) {
	var c Clock = Real{}
	a := c.Now()
	b := c.Now()
	if b.Before(a) {
		t.Errorf("real clock went backwards: %v then %v", a, b)
	}
}
