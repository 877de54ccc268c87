package risk

import (
	"sync/atomic"
)

type engineState struct {
	classifier *Classifier
	alerter    *Alerter
}

// Engine serves assessments and threshold checks from the current rule set.
// Reload swaps in a new immutable classifier/alerter pair; callers in flight
// finish against the pair they started with.
type Engine struct {
	state atomic.Pointer[engineState]
}

func NewEngine(rs RuleSet) (*Engine, error) {
	e := &Engine{}
	if err := e.Reload(rs); err != nil {
		return nil, err
	}
	return e, nil
}

// Reload builds a classifier and alerter from rs and installs them. On error
// the previous pair stays active.
func (e *Engine) Reload(rs RuleSet) error {
	c, err := NewClassifier(rs.Risk)
	if err != nil {
		return err
	}
	a, err := NewAlerter(rs.Thresholds)
	if err != nil {
		return err
	}
	e.state.Store(&engineState{classifier: c, alerter: a})
	return nil
}

func (e *Engine) Assess(symptoms SymptomSet, vitals Vitals) Assessment {
	return e.state.Load().classifier.Assess(symptoms, vitals)
}

func (e *Engine) CheckThresholds(vitals Vitals) []Alert {
	return e.state.Load().alerter.Check(vitals)
}

// Current returns the rule set the engine is serving.
func (e *Engine) Current() RuleSet {
	s := e.state.Load()
	return RuleSet{Risk: s.classifier.Rules(), Thresholds: s.alerter.Rules()}
}
