package risk

// Level is the risk category derived from a score.
type Level string

const (
	LevelNormal    Level = "normal"
	LevelCaution   Level = "caution"
	LevelHighRisk  Level = "high_risk"
	LevelEmergency Level = "emergency"
)

// Valid reports whether l is one of the four known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelNormal, LevelCaution, LevelHighRisk, LevelEmergency:
		return true
	}
	return false
}

// Elevated reports whether the level requires follow-up (high_risk or emergency).
func (l Level) Elevated() bool {
	return l == LevelHighRisk || l == LevelEmergency
}

// Priority is the urgency attached to an alert or notification.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// NotificationPriority maps an elevated risk level to the priority of the
// notification raised for it.
func (l Level) NotificationPriority() Priority {
	switch l {
	case LevelEmergency:
		return PriorityCritical
	case LevelHighRisk:
		return PriorityHigh
	case LevelCaution:
		return PriorityNormal
	}
	return PriorityLow
}

// Breakpoints map a score to a level. A score at or above Emergency is an
// emergency, at or above HighRisk is high risk, at or above Caution is
// caution, and anything lower is normal.
type Breakpoints struct {
	Emergency int `yaml:"emergency" json:"emergency"`
	HighRisk  int `yaml:"high_risk" json:"high_risk"`
	Caution   int `yaml:"caution" json:"caution"`
}

// Level returns the level for score.
func (b Breakpoints) Level(score int) Level {
	switch {
	case score >= b.Emergency:
		return LevelEmergency
	case score >= b.HighRisk:
		return LevelHighRisk
	case score >= b.Caution:
		return LevelCaution
	default:
		return LevelNormal
	}
}
