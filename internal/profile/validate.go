package profile

import "fmt"

// Issue is a configuration problem found while validating a profile. Issues
// are warnings: the profile still loads, with the documented fallback applied.
type Issue struct {
	Profile string
	Control string
	Message string
}

func (i Issue) Error() string {
	if i.Control == "" {
		return fmt.Sprintf("profile %q: %s", i.Profile, i.Message)
	}
	return fmt.Sprintf("profile %q, control %q: %s", i.Profile, i.Control, i.Message)
}

// Validate checks a profile for configuration errors.
func Validate(p *Profile) []Issue {
	var issues []Issue
	report := func(control, format string, args ...any) {
		issues = append(issues, Issue{
			Profile: p.Name,
			Control: control,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if p.Name == "" {
		report("", "missing name")
	}

	seen := make(map[string]bool, len(p.Controls))
	for _, c := range p.Controls {
		if c.Name == "" {
			report("", "control without a name")
			continue
		}
		if seen[c.Name] {
			report(c.Name, "defined more than once, only the first definition is used")
		}
		seen[c.Name] = true

		if len(c.Assignments) == 0 {
			report(c.Name, "no assignments")
		}

		for i, a := range c.Assignments {
			switch a := a.(type) {
			case Momentary:
				if a.Activate == nil {
					report(c.Name, "assignment %d: momentary without action_activate", i)
				}
			case Toggle:
				if a.Activate == nil || a.Deactivate == nil {
					report(c.Name, "assignment %d: toggle needs action_activate and action_deactivate", i)
				}
			case Linear:
				if len(a.Thresholds) == 0 {
					report(c.Name, "assignment %d: linear without thresholds", i)
				}
				for j, t := range a.Thresholds {
					if t.Activate == nil {
						report(c.Name, "assignment %d, threshold %d: missing action_activate", i, j)
					}
					if (t.ValueEnd == nil) != (t.ValueStep == nil) {
						report(c.Name, "assignment %d, threshold %d: value_end and value_step must be set together", i, j)
					}
					if t.IsRamp() && !validRamp(t) {
						report(c.Name, "assignment %d, threshold %d: ramp from %s to %s by %s never advances, using the start value only",
							i, j, FormatValue(t.Value), FormatValue(*t.ValueEnd), FormatValue(*t.ValueStep))
					} else if t.IsRamp() && rampLen(t) > MaxRampThresholds {
						report(c.Name, "assignment %d, threshold %d: ramp expands to %d thresholds, using the first %d",
							i, j, rampLen(t), MaxRampThresholds)
					}
				}
			case DirectControl:
				if a.Target == "" {
					report(c.Name, "assignment %d: direct_control without controls", i)
				}
				if a.Input.Min == a.Input.Max {
					report(c.Name, "assignment %d: input_value min equals max", i)
				}
				if a.Input.Step != nil && *a.Input.Step <= 0 {
					report(c.Name, "assignment %d: input_value step must be positive, ignoring it", i)
				}
			}
		}
	}
	return issues
}
