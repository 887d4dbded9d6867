package emergency

import "strings"

// PriorityLevel is the computed severity band for a patient, derived from
// their current clinical attributes. It is never persisted on the patient:
// every access recomputes it so the band always reflects current data.
type PriorityLevel int

const (
	PriorityStandard PriorityLevel = 1
	PriorityLow      PriorityLevel = 2
	PriorityMedium   PriorityLevel = 3
	PriorityHigh     PriorityLevel = 4
	PriorityCritical PriorityLevel = 5
)

// HighImportanceThreshold is the fixed policy constant above which records
// and patients surface on the emergency paths.
const HighImportanceThreshold = 3

func (p PriorityLevel) Description() string {
	switch p {
	case PriorityCritical:
		return "Critical Priority - Immediate Attention Required"
	case PriorityHigh:
		return "High Priority - Urgent Care Needed"
	case PriorityMedium:
		return "Medium Priority - Elevated Risk"
	case PriorityLow:
		return "Low Priority - Stable Condition"
	case PriorityStandard:
		return "Standard Priority - Regular Care"
	default:
		return "Priority Not Assessed"
	}
}

// ComputePriority maps a patient's chronic conditions, allergies, and
// medication free text to a severity band in [1,5]. It is a pure function of
// its inputs and mirrors the calculate_patient_priority SQL function installed
// by the migrations; the two must agree.
//
// Empty inputs yield the lowest band, never an error.
func ComputePriority(conditions, allergies []string, medications string) PriorityLevel {
	score := PriorityStandard

	conditions = nonEmpty(conditions)
	if len(conditions) > 0 {
		score++
	}
	if len(conditions) >= 3 {
		score++
	}
	if len(nonEmpty(allergies)) > 0 {
		score++
	}
	if strings.TrimSpace(medications) != "" {
		score++
	}

	if score > PriorityCritical {
		score = PriorityCritical
	}
	return score
}

func nonEmpty(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
