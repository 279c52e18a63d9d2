package form

import "testing"

func TestResolve(t *testing.T) {
	fields := []Field{
		{ID: "badge", Label: "Name badge text"},
		{ID: "first", Label: "First Name"},
		{ID: "dob", Label: "DATE OF BIRTH"},
		{ID: "weight", Label: "Weight (kg)"},
	}

	tests := []struct {
		needle string
		wantID string
		found  bool
	}{
		{"name", "badge", true},
		{"first name", "first", true},
		{"date of birth", "dob", true},
		{"Date Of Birth", "dob", true},
		{"weight (kg)", "weight", true},
		{"weight (lb)", "", false},
		{"height (m)", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.needle, func(t *testing.T) {
			field, ok := Resolve(fields, tt.needle)
			if ok != tt.found {
				t.Fatalf("found = %v, want %v", ok, tt.found)
			}
			if ok && field.ID != tt.wantID {
				t.Errorf("resolved %q, want %q", field.ID, tt.wantID)
			}
		})
	}
}

func TestResolveEmptyForm(t *testing.T) {
	if _, ok := Resolve(nil, NeedleAge); ok {
		t.Error("resolved a needle in an empty form")
	}
}

func TestNeedles(t *testing.T) {
	for _, calc := range CalculationTypes {
		if len(Needles(calc)) == 0 {
			t.Errorf("%s has no needles", calc)
		}
	}
	if got := Needles(CalcBMI); len(got) != 2 || got[0] != NeedleWeight || got[1] != NeedleHeight {
		t.Errorf("Needles(BMI) = %v", got)
	}
	if Needles("Unknown") != nil {
		t.Error("unknown calculation returned needles")
	}

	// The returned slice is a copy.
	Needles(CalcAge)[0] = "mutated"
	if Needles(CalcAge)[0] != NeedleDateOfBirth {
		t.Error("Needles exposed internal storage")
	}
}
