package domain

// Status is the operational classification of a SKU's simulated coverage.
// Values are kept in the original Spanish wire form.
type Status string

const (
	StatusBreak  Status = "QUIEBRE"  // stock-out imminent
	StatusRisk   Status = "RIESGO"   // at risk
	StatusOK     Status = "OK"
	StatusNoData Status = "SIN_DATO" // demand unknown, coverage undefined
)

var statusPriority = map[Status]int{
	StatusBreak:  0,
	StatusRisk:   1,
	StatusOK:     2,
	StatusNoData: 3,
}

// Priority returns the sort rank of a status; lower sorts first. Unknown
// statuses sort after every known one.
func (s Status) Priority() int {
	if p, ok := statusPriority[s]; ok {
		return p
	}

	return 9
}

// IsAlert reports whether the status should appear in the reorder alert feed.
func (s Status) IsAlert() bool {
	return s == StatusBreak || s == StatusRisk
}
