package collector

import (
	"fmt"
	"testing"
	"time"
)

func TestStateMachine_ForwardOnly(t *testing.T) {
	var sm stateMachine
	var seen []string
	sm.OnTransition(func(from, to State) {
		seen = append(seen, fmt.Sprintf("%s->%s", from, to))
	})

	if err := sm.TransitionTo(StateExpanding); err == nil {
		t.Error("Expected IDLE -> EXPANDING to be rejected")
	}

	for _, s := range []State{StateSeeding, StateExpanding, StateDraining, StateDone} {
		if err := sm.TransitionTo(s); err != nil {
			t.Fatalf("TransitionTo(%s) failed: %v", s, err)
		}
	}
	if sm.Current() != StateDone {
		t.Errorf("Expected DONE, got %s", sm.Current())
	}
	if err := sm.TransitionTo(StateIdle); err == nil {
		t.Error("Expected DONE to be terminal")
	}

	want := []string{"IDLE->SEEDING", "SEEDING->EXPANDING", "EXPANDING->DRAINING", "DRAINING->DONE"}
	if fmt.Sprint(seen) != fmt.Sprint(want) {
		t.Errorf("Expected transitions %v, got %v", want, seen)
	}
}

func TestState_String(t *testing.T) {
	if got := State(42).String(); got != "State(42)" {
		t.Errorf("Expected State(42), got %s", got)
	}
}

func TestFrontier_FIFO(t *testing.T) {
	f := newFrontier(0)
	for i := 0; i < 3000; i++ {
		f.push(fmt.Sprint(i))
	}
	for i := 0; i < 3000; i++ {
		got, ok := f.pop()
		if !ok || got != fmt.Sprint(i) {
			t.Fatalf("pop %d: got %q, %v", i, got, ok)
		}
		if f.Len() != 3000-i-1 {
			t.Fatalf("Len after %d pops = %d", i+1, f.Len())
		}
	}
	if _, ok := f.pop(); ok {
		t.Error("Expected empty frontier")
	}
}

func TestVisitedSet_Exact(t *testing.T) {
	v := newVisitedSet(1000)
	if !v.Add("EUW1_1") {
		t.Error("Expected first Add to report new")
	}
	if v.Add("EUW1_1") {
		t.Error("Expected second Add to report existing")
	}
	for i := 0; i < 5000; i++ {
		if v.Has(fmt.Sprintf("other-%d", i)) {
			t.Fatalf("false positive for other-%d", i)
		}
	}
	if v.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", v.Len())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[string]string{
		"30s":    "30.0s",
		"2m5s":   "2m05s",
		"1h2m3s": "1h02m03s",
		"500ms":  "0.5s",
	}
	for in, want := range tests {
		d, _ := time.ParseDuration(in)
		if got := formatDuration(d); got != want {
			t.Errorf("formatDuration(%s) = %s, want %s", in, got, want)
		}
	}
}
