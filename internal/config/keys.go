package config

import (
	"fmt"

	"github.com/soar/controlmapper/internal/profile"
	"github.com/soar/controlmapper/internal/sequencer"
)

// keyIssues reports key names in the profile's key actions that known
// rejects.
func keyIssues(p *profile.Profile, known func(string) bool) []profile.Issue {
	var issues []profile.Issue
	check := func(control string, a profile.Action) {
		ka, ok := a.(profile.KeysAction)
		if !ok {
			return
		}
		for _, key := range sequencer.ParseKeys(ka.Keys) {
			if !known(key) {
				issues = append(issues, profile.Issue{
					Profile: p.Name,
					Control: control,
					Message: fmt.Sprintf("unknown key %q in %q", key, ka.Keys),
				})
			}
		}
	}

	for _, c := range p.Controls {
		for _, a := range c.Assignments {
			switch a := a.(type) {
			case profile.Momentary:
				check(c.Name, a.Activate)
				check(c.Name, a.Deactivate)
			case profile.Toggle:
				check(c.Name, a.Activate)
				check(c.Name, a.Deactivate)
			case profile.Linear:
				for _, t := range a.Thresholds {
					check(c.Name, t.Activate)
					check(c.Name, t.Deactivate)
				}
			}
		}
	}
	return issues
}
