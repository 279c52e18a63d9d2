package form

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestDerivedOnDerivedLagsOnePass shows the single-pass contract: a derived
// field that reads another derived field sees that field's value from before
// the pass.
func TestDerivedOnDerivedLagsOnePass(t *testing.T) {
	f := &Form{Fields: []Field{
		input("dob", TypeDate, "Date of Birth"),
		derived("age", "Age", CalcAge),
		derived("status", "Eligibility", CalcEligibilityStatus),
	}}
	engine := NewEngine(f, WithDate(fixedToday))

	snap := InitialSnapshot(f)
	snap["dob"] = StringValue("2000-01-01")

	t.Run("first pass updates the direct dependant only", func(t *testing.T) {
		next, changed := engine.Recompute(snap)
		if diff := cmp.Diff([]string{"age"}, changed); diff != "" {
			t.Errorf("changed mismatch (-want +got):\n%s", diff)
		}
		assertValue(t, next, "age", NumberValue(24))
		assertValue(t, next, "status", StringValue(""))
	})

	t.Run("next pass catches up", func(t *testing.T) {
		once, _ := engine.Recompute(snap)
		twice, changed := engine.Recompute(once)
		if diff := cmp.Diff([]string{"status"}, changed); diff != "" {
			t.Errorf("changed mismatch (-want +got):\n%s", diff)
		}
		assertValue(t, twice, "status", StringValue(Eligible))
	})

	t.Run("converge settles the chain", func(t *testing.T) {
		result := Converge(engine, snap, 8)
		if !result.Converged {
			t.Fatal("expected convergence")
		}
		if result.Passes != 3 {
			t.Errorf("passes = %d, want 3", result.Passes)
		}
		if diff := cmp.Diff([]string{"age", "status"}, result.Changed); diff != "" {
			t.Errorf("changed mismatch (-want +got):\n%s", diff)
		}
		assertValue(t, result.Snapshot, "status", StringValue(Eligible))
	})
}

func TestChangingAnInputPropagatesOnNextRecompute(t *testing.T) {
	f := &Form{Fields: []Field{
		input("qty", TypeNumber, "Quantity"),
		input("price", TypeNumber, "Unit price"),
		derived("total", "Order total", CalcTotalCost),
	}}
	engine := NewEngine(f, WithDate(fixedToday))

	snap := InitialSnapshot(f)
	snap["qty"] = StringValue("2")
	snap["price"] = StringValue("10")
	snap, _ = engine.Recompute(snap)
	assertValue(t, snap, "total", StringValue("20.00"))

	snap["qty"] = StringValue("5")
	snap, changed := engine.Recompute(snap)
	assertValue(t, snap, "total", StringValue("50.00"))
	if diff := cmp.Diff([]string{"total"}, changed); diff != "" {
		t.Errorf("changed mismatch (-want +got):\n%s", diff)
	}
}

func TestAmbiguousLabelsResolveToFirstField(t *testing.T) {
	// "Stage" contains "age" and precedes the real age field.
	f := &Form{Fields: []Field{
		input("stage", TypeText, "Stage"),
		input("age", TypeNumber, "Age"),
		derived("status", "Eligibility", CalcEligibilityStatus),
	}}
	snap := Snapshot{"stage": StringValue("3"), "age": StringValue("30")}

	next, _ := NewEngine(f, WithDate(fixedToday)).Recompute(snap)
	assertValue(t, next, "status", StringValue(NotEligible))
}
