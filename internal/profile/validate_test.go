package profile

import (
	"strings"
	"testing"
)

func TestValidateClean(t *testing.T) {
	p := &Profile{
		Name: "BR430",
		Controls: []Control{
			{Name: "Throttle1", Assignments: []Assignment{
				Linear{Thresholds: []Threshold{{Value: 0, ValueEnd: ptr(1), ValueStep: ptr(0.1), Activate: KeysAction{Keys: "a"}}}},
			}},
			{Name: "Horn", Assignments: []Assignment{
				Momentary{Threshold: 1, Activate: KeysAction{Keys: "space"}},
			}},
			{Name: "Reverser", Assignments: []Assignment{
				DirectControl{Target: "Reverser", Input: InputValue{Min: -1, Max: 1, Step: ptr(1)}},
			}},
		},
	}
	if issues := Validate(p); len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
}

func TestValidateReportsProblems(t *testing.T) {
	p := &Profile{
		Name: "broken",
		Controls: []Control{
			{Name: "Throttle1", Assignments: []Assignment{
				Linear{Thresholds: []Threshold{{Value: 0, ValueEnd: ptr(1), ValueStep: ptr(0), Activate: KeysAction{Keys: "a"}}}},
			}},
			{Name: "Throttle1", Assignments: []Assignment{
				Toggle{Threshold: 0.5, Activate: KeysAction{Keys: "b"}},
			}},
			{Name: "Dial", Assignments: []Assignment{
				DirectControl{Input: InputValue{Min: 1, Max: 1}},
			}},
			{Name: "Empty"},
			{Name: "Dial2", Assignments: []Assignment{
				Linear{Thresholds: []Threshold{{Value: 0, ValueEnd: ptr(1000), ValueStep: ptr(0.0001), Activate: KeysAction{Keys: "d"}}}},
			}},
		},
	}

	issues := Validate(p)
	wants := []string{
		"never advances",
		"defined more than once",
		"toggle needs",
		"without controls",
		"min equals max",
		"no assignments",
		"ramp expands to",
	}
	for _, want := range wants {
		found := false
		for _, issue := range issues {
			if strings.Contains(issue.Error(), want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected an issue containing %q in %v", want, issues)
		}
	}
}
