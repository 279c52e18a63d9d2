package lint

import (
	"testing"
	"time"

	"github.com/dlovans/formcraft/pkg/form"
)

func rules(r *Result) []string {
	out := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		out[i] = issue.Rule
	}
	return out
}

func hasRule(r *Result, field, rule string) bool {
	for _, issue := range r.Issues {
		if issue.Field == field && issue.Rule == rule {
			return true
		}
	}
	return false
}

func TestCleanForm(t *testing.T) {
	fields := []form.Field{
		{ID: "dob", Type: form.TypeDate, Label: "Date of Birth"},
		{ID: "age", Type: form.TypeNumber, Label: "Age", IsDerived: true, CalculationType: form.CalcAge},
		{ID: "plan", Type: form.TypeSelect, Label: "Plan", Options: []string{"free", "pro"}},
	}

	result := Check(fields)
	if !result.Valid || len(result.Issues) != 0 {
		t.Errorf("expected a clean result, got %v", rules(result))
	}
}

func TestStructuralErrors(t *testing.T) {
	tests := []struct {
		name  string
		field form.Field
		rule  string
	}{
		{"unknown type", form.Field{ID: "x", Type: "Slider", Label: "X"}, RuleUnknownType},
		{"derived without calculation", form.Field{ID: "x", Type: form.TypeText, Label: "X", IsDerived: true}, RuleMissingCalc},
		{"derived with unknown calculation", form.Field{ID: "x", Type: form.TypeText, Label: "X", IsDerived: true, CalculationType: "Zodiac"}, RuleMissingCalc},
		{"calculation on plain field", form.Field{ID: "x", Type: form.TypeText, Label: "X", CalculationType: form.CalcBMI}, RuleStrayCalc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Check([]form.Field{tt.field})
			if result.Valid {
				t.Error("expected invalid result")
			}
			if !hasRule(result, "x", tt.rule) {
				t.Errorf("missing %s, got %v", tt.rule, rules(result))
			}
		})
	}
}

func TestDuplicateID(t *testing.T) {
	result := Check([]form.Field{
		{ID: "a", Type: form.TypeText, Label: "One"},
		{ID: "a", Type: form.TypeText, Label: "Two"},
	})
	if result.Valid || !hasRule(result, "a", RuleDuplicateID) {
		t.Errorf("expected duplicate id error, got %v", rules(result))
	}
	if n := len(result.Errors()); n != 1 {
		t.Errorf("errors = %d, want 1", n)
	}
}

func TestOptionWarnings(t *testing.T) {
	result := Check([]form.Field{
		{ID: "t", Type: form.TypeText, Label: "Text", Options: []string{"a"}},
		{ID: "r", Type: form.TypeRadio, Label: "Radio"},
	})
	if !result.Valid {
		t.Error("warnings alone must not invalidate")
	}
	if !hasRule(result, "t", RuleStrayOptions) || !hasRule(result, "r", RuleNoOptions) {
		t.Errorf("got %v", rules(result))
	}
}

func TestSourceWarnings(t *testing.T) {
	t.Run("unresolved", func(t *testing.T) {
		result := Check([]form.Field{
			{ID: "w", Type: form.TypeNumber, Label: "Weight (kg)"},
			{ID: "bmi", Type: form.TypeText, Label: "BMI", IsDerived: true, CalculationType: form.CalcBMI},
		})
		if !hasRule(result, "bmi", RuleUnresolvedSource) {
			t.Errorf("got %v", rules(result))
		}
		if len(result.Issues) != 1 {
			t.Errorf("weight resolved, expected only the height warning: %v", rules(result))
		}
	})

	t.Run("derived source lags", func(t *testing.T) {
		result := Check([]form.Field{
			{ID: "dob", Type: form.TypeDate, Label: "Date of birth"},
			{ID: "age", Type: form.TypeNumber, Label: "Age", IsDerived: true, CalculationType: form.CalcAge},
			{ID: "ok", Type: form.TypeText, Label: "Eligibility", IsDerived: true, CalculationType: form.CalcEligibilityStatus},
		})
		if !hasRule(result, "ok", RuleDerivedSource) {
			t.Errorf("got %v", rules(result))
		}
	})

	t.Run("self reference", func(t *testing.T) {
		result := Check([]form.Field{
			{ID: "last", Type: form.TypeText, Label: "Last name"},
			{ID: "echo", Type: form.TypeText, Label: "First name echo", IsDerived: true, CalculationType: form.CalcFullName},
		})
		if !hasRule(result, "echo", RuleSelfReference) {
			t.Errorf("got %v", rules(result))
		}
	})
}

// A derived-source warning marks a form that needs more than one pass to
// settle.
func TestDerivedSourceNeedsExtraPass(t *testing.T) {
	f := form.Form{ID: "f", Name: "Eligibility", Fields: []form.Field{
		{ID: "dob", Type: form.TypeDate, Label: "Date of birth"},
		{ID: "age", Type: form.TypeNumber, Label: "Age", IsDerived: true, CalculationType: form.CalcAge},
		{ID: "ok", Type: form.TypeText, Label: "Eligibility", IsDerived: true, CalculationType: form.CalcEligibilityStatus},
	}}
	if !hasRule(Check(f.Fields), "ok", RuleDerivedSource) {
		t.Fatal("expected a derived-source warning")
	}

	e := form.NewEngine(&f, form.WithDate(time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)))
	snap := form.InitialSnapshot(&f)
	snap["dob"] = form.StringValue("1990-01-01")

	once, _ := e.Recompute(snap)
	if got := once.Get("ok").Text(); got != "" {
		t.Errorf("one pass: eligibility = %q, want it to lag", got)
	}

	res := form.Converge(e, snap, 8)
	if !res.Converged || res.Passes != 3 {
		t.Errorf("converge: passes=%d converged=%v, want 3 and true", res.Passes, res.Converged)
	}
	if res.Snapshot.Get("ok").Text() == "" {
		t.Error("eligibility still empty after converging")
	}
}

func TestNotDerivable(t *testing.T) {
	result := Check([]form.Field{
		{ID: "dob", Type: form.TypeDate, Label: "Date of birth"},
		{ID: "age", Type: form.TypeCheckbox, Label: "Age", IsDerived: true, CalculationType: form.CalcAge},
	})
	if !hasRule(result, "age", RuleNotDerivable) {
		t.Errorf("got %v", rules(result))
	}
}

func TestRun(t *testing.T) {
	result, err := Run(`{"name":"x","fields":[{"id":"a","type":"Text","label":"A","validations":{},"isDerived":true}]}`)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Valid {
		t.Error("expected invalid result")
	}

	if _, err := Run(`not json`); err == nil {
		t.Error("expected parse error")
	}
}
