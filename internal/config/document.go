package config

import (
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/soar/controlmapper/internal/profile"
)

// Profile documents as they appear on disk. Actions are untagged: an action
// with "keys" presses keys, one with "controls" and "value" sets a direct
// control.

type profileDoc struct {
	Name         string       `mapstructure:"name"`
	ControllerID string       `mapstructure:"controller_id"`
	Controls     []controlDoc `mapstructure:"controls"`
}

type controlDoc struct {
	Name        string           `mapstructure:"name"`
	Assignment  map[string]any   `mapstructure:"assignment"`
	Assignments []map[string]any `mapstructure:"assignments"`
}

type momentaryDoc struct {
	Threshold  float64        `mapstructure:"threshold"`
	Activate   map[string]any `mapstructure:"action_activate"`
	Deactivate map[string]any `mapstructure:"action_deactivate"`
}

type linearDoc struct {
	Neutral    *float64       `mapstructure:"neutral"`
	Thresholds []thresholdDoc `mapstructure:"thresholds"`
}

type thresholdDoc struct {
	Value      float64        `mapstructure:"value"`
	ValueEnd   *float64       `mapstructure:"value_end"`
	ValueStep  *float64       `mapstructure:"value_step"`
	Activate   map[string]any `mapstructure:"action_activate"`
	Deactivate map[string]any `mapstructure:"action_deactivate"`
}

type directControlDoc struct {
	Controls   string        `mapstructure:"controls"`
	InputValue inputValueDoc `mapstructure:"input_value"`
}

type inputValueDoc struct {
	Min    float64  `mapstructure:"min"`
	Max    float64  `mapstructure:"max"`
	Step   *float64 `mapstructure:"step"`
	Invert bool     `mapstructure:"invert"`
}

type keysActionDoc struct {
	Keys      string   `mapstructure:"keys"`
	PressTime *float64 `mapstructure:"press_time"`
	WaitTime  *float64 `mapstructure:"wait_time"`
}

type directActionDoc struct {
	Controls string  `mapstructure:"controls"`
	Value    float64 `mapstructure:"value"`
}

func decode(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// toProfile converts a decoded document. Assignments that cannot be used are
// left out and reported as issues.
func (d profileDoc) toProfile() (*profile.Profile, []profile.Issue) {
	p := &profile.Profile{
		Name:         d.Name,
		ControllerID: d.ControllerID,
	}
	var issues []profile.Issue

	for _, cd := range d.Controls {
		raw := cd.Assignments
		if len(raw) == 0 && cd.Assignment != nil {
			raw = []map[string]any{cd.Assignment}
		} else if len(raw) > 0 && cd.Assignment != nil {
			issues = append(issues, profile.Issue{
				Profile: d.Name,
				Control: cd.Name,
				Message: "both assignment and assignments given, using assignments",
			})
		}

		c := profile.Control{Name: cd.Name}
		for i, m := range raw {
			a, err := decodeAssignment(m)
			if err != nil {
				issues = append(issues, profile.Issue{
					Profile: d.Name,
					Control: cd.Name,
					Message: fmt.Sprintf("assignment %d: %v", i, err),
				})
				continue
			}
			c.Assignments = append(c.Assignments, a)
		}
		p.Controls = append(p.Controls, c)
	}
	return p, issues
}

func decodeAssignment(m map[string]any) (profile.Assignment, error) {
	kind, _ := m["type"].(string)
	switch profile.Kind(kind) {
	case profile.KindMomentary:
		var d momentaryDoc
		if err := decode(m, &d); err != nil {
			return nil, err
		}
		activate, err := decodeAction(d.Activate)
		if err != nil {
			return nil, fmt.Errorf("action_activate: %w", err)
		}
		deactivate, err := decodeAction(d.Deactivate)
		if err != nil {
			return nil, fmt.Errorf("action_deactivate: %w", err)
		}
		return profile.Momentary{Threshold: d.Threshold, Activate: activate, Deactivate: deactivate}, nil

	case profile.KindToggle:
		var d momentaryDoc
		if err := decode(m, &d); err != nil {
			return nil, err
		}
		activate, err := decodeAction(d.Activate)
		if err != nil {
			return nil, fmt.Errorf("action_activate: %w", err)
		}
		deactivate, err := decodeAction(d.Deactivate)
		if err != nil {
			return nil, fmt.Errorf("action_deactivate: %w", err)
		}
		return profile.Toggle{Threshold: d.Threshold, Activate: activate, Deactivate: deactivate}, nil

	case profile.KindLinear:
		var d linearDoc
		if err := decode(m, &d); err != nil {
			return nil, err
		}
		l := profile.Linear{Neutral: d.Neutral}
		for j, td := range d.Thresholds {
			activate, err := decodeAction(td.Activate)
			if err != nil {
				return nil, fmt.Errorf("threshold %d: action_activate: %w", j, err)
			}
			deactivate, err := decodeAction(td.Deactivate)
			if err != nil {
				return nil, fmt.Errorf("threshold %d: action_deactivate: %w", j, err)
			}
			l.Thresholds = append(l.Thresholds, profile.Threshold{
				Value:      td.Value,
				ValueEnd:   td.ValueEnd,
				ValueStep:  td.ValueStep,
				Activate:   activate,
				Deactivate: deactivate,
			})
		}
		return l.Prepared(), nil

	case profile.KindDirectControl:
		var d directControlDoc
		if err := decode(m, &d); err != nil {
			return nil, err
		}
		return profile.DirectControl{
			Target: d.Controls,
			Input: profile.InputValue{
				Min:    d.InputValue.Min,
				Max:    d.InputValue.Max,
				Step:   d.InputValue.Step,
				Invert: d.InputValue.Invert,
			},
		}, nil

	case "sync_control":
		return nil, errors.New("sync_control assignments are not evaluated, skipping")

	case "":
		return nil, errors.New("missing type")
	default:
		return nil, fmt.Errorf("unknown type %q", kind)
	}
}

// decodeAction decodes an untagged action. An absent action decodes to nil.
func decodeAction(m map[string]any) (profile.Action, error) {
	if len(m) == 0 {
		return nil, nil
	}
	if _, ok := m["keys"]; ok {
		var d keysActionDoc
		if err := decode(m, &d); err != nil {
			return nil, err
		}
		return profile.KeysAction{Keys: d.Keys, PressTime: d.PressTime, WaitTime: d.WaitTime}, nil
	}
	if _, ok := m["controls"]; ok {
		if _, ok := m["value"]; !ok {
			return nil, errors.New("direct control action without value")
		}
		var d directActionDoc
		if err := decode(m, &d); err != nil {
			return nil, err
		}
		return profile.DirectAction{Target: d.Controls, Value: d.Value}, nil
	}
	return nil, errors.New("action needs keys or controls")
}
