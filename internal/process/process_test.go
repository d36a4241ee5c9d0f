package process

import (
	"strings"
	"testing"
)

func TestExecuteOneStep_SleepHonoring(t *testing.T) {
	// DECLARE(x,0); SLEEP(3); ADD(x,x,1); PRINT("x=",x) — spec.md scenario S3.
	p := New("p1", []Instruction{
		Declare("x", 0),
		Sleep(3),
		Add("x", Ref("x"), Lit(1)),
		Print("x=", "x"),
	})

	if res := p.ExecuteOneStep(0, 10); res != Advanced {
		t.Fatalf("DECLARE: got %v, want Advanced", res)
	}

	if res := p.ExecuteOneStep(0, 10); res != Sleeping {
		t.Fatalf("SLEEP: got %v, want Sleeping", res)
	}
	if p.sleepUntil != 13 {
		t.Fatalf("sleepUntil = %d, want 13", p.sleepUntil)
	}

	// Still sleeping at tick 12.
	if res := p.ExecuteOneStep(0, 12); res != Sleeping {
		t.Fatalf("tick 12: got %v, want Sleeping", res)
	}
	if p.Variables["x"] != 0 {
		t.Fatalf("x = %d before wake, want 0", p.Variables["x"])
	}

	// Wakes at tick 13.
	if res := p.ExecuteOneStep(0, 13); res != Advanced {
		t.Fatalf("wake ADD: got %v, want Advanced", res)
	}
	if p.Variables["x"] != 1 {
		t.Fatalf("x = %d after wake, want 1", p.Variables["x"])
	}

	if res := p.ExecuteOneStep(0, 13); res != StepFinished {
		t.Fatalf("PRINT: got %v, want StepFinished", res)
	}

	log := p.Log()
	if len(log) != 1 || !strings.Contains(log[0], "x=1") {
		t.Fatalf("log = %v, want one line containing x=1", log)
	}
}

func TestExecuteOneStep_ForLoop(t *testing.T) {
	// DECLARE(x,0); FOR(3) { ADD(x,x,1); PRINT("x=",x); NOOP x4 } — S5.
	body := []Instruction{
		Add("x", Ref("x"), Lit(1)),
		Print("x=", "x"),
		Noop(), Noop(), Noop(), Noop(),
	}
	instrs := append([]Instruction{Declare("x", 0), For(3)}, body...)
	p := New("p1", instrs)

	if res := p.ExecuteOneStep(0, 0); res != Advanced {
		t.Fatalf("DECLARE: got %v", res)
	}

	res := p.ExecuteOneStep(0, 0)
	if res != StepFinished && res != Advanced {
		t.Fatalf("FOR: got %v", res)
	}

	log := p.Log()
	if len(log) != 3 {
		t.Fatalf("log has %d lines, want 3: %v", len(log), log)
	}
	want := []string{"x=1", "x=2", "x=3"}
	for i, w := range want {
		if !strings.Contains(log[i], w) {
			t.Errorf("log[%d] = %q, want substring %q", i, log[i], w)
		}
	}
	if p.Variables["x"] != 3 {
		t.Fatalf("x = %d, want 3", p.Variables["x"])
	}
}

func TestExecuteOneStep_ForAbortsOnSleep(t *testing.T) {
	// FOR body containing SLEEP: remaining iterations abort, PC resumes
	// just past the SLEEP (spec.md §4.2, §9).
	body := []Instruction{
		Add("x", Ref("x"), Lit(1)),
		Sleep(5),
		Noop(), Noop(), Noop(), Noop(),
	}
	instrs := append([]Instruction{Declare("x", 0), For(10)}, body...)
	p := New("p1", instrs)

	p.ExecuteOneStep(0, 0) // DECLARE
	res := p.ExecuteOneStep(0, 0)
	if res != Sleeping {
		t.Fatalf("FOR with SLEEP body: got %v, want Sleeping", res)
	}
	if p.Variables["x"] != 1 {
		t.Fatalf("x = %d, want 1 (only first iteration's ADD ran)", p.Variables["x"])
	}
	if p.sleepUntil != 5 {
		t.Fatalf("sleepUntil = %d, want 5", p.sleepUntil)
	}

	// Resumes directly at the instruction after SLEEP once woken, the
	// remaining FOR iterations are never revisited.
	res = p.ExecuteOneStep(0, 5)
	if res != StepFinished && res != Advanced {
		t.Fatalf("post-wake: got %v", res)
	}
	if p.Variables["x"] != 1 {
		t.Fatalf("x = %d after wake, want unchanged 1", p.Variables["x"])
	}
}

func TestSaturatingArithmetic(t *testing.T) {
	if got := saturatingAdd(65000, 1000); got != MaxVarValue {
		t.Errorf("saturatingAdd overflow = %d, want %d", got, MaxVarValue)
	}
	if got := saturatingAdd(1, 2); got != 3 {
		t.Errorf("saturatingAdd(1,2) = %d, want 3", got)
	}
	if got := saturatingSub(3, 10); got != 0 {
		t.Errorf("saturatingSub underflow = %d, want 0", got)
	}
	if got := saturatingSub(10, 3); got != 7 {
		t.Errorf("saturatingSub(10,3) = %d, want 7", got)
	}
}
