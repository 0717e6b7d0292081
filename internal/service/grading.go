package service

// Grading is deliberately a single pure ladder. Every path that turns marks
// into a grade letter (result compilation, project evaluation rollups) goes
// through GradeFor so the thresholds cannot drift apart between callers.

// PassThreshold is the minimum total for an "Approved" final result.
const PassThreshold = 50.0

// GradeFor maps a total percentage to a grade letter.
func GradeFor(total float64) string {
	switch {
	case total >= 85:
		return "A+"
	case total >= 80:
		return "A"
	case total >= 75:
		return "B+"
	case total >= 70:
		return "B"
	case total >= 65:
		return "C+"
	case total >= 60:
		return "C"
	case total >= 55:
		return "C-"
	case total >= PassThreshold:
		return "D"
	default:
		return "F"
	}
}

// FinalResultFor maps a total to the pass/fail verdict string.
func FinalResultFor(total float64) string {
	if total >= PassThreshold {
		return "Approved"
	}
	return "Not Approved"
}

// ComponentTotal sums mark components, treating absent components as zero.
func ComponentTotal(components ...*float64) float64 {
	var total float64
	for _, component := range components {
		if component != nil {
			total += *component
		}
	}
	return total
}
