package lead

import (
	"errors"
	"strings"
)

var (
	ErrBadTemperature = errors.New("temperature must be all, hot, warm or cold")
	ErrBadMinScore    = errors.New("min score must be between 0 and 100")
)

// AllTemperatures disables the temperature predicate.
const AllTemperatures = "all"

// Filter selects leads for the admin view.
type Filter struct {
	Temperature string
	MinScore    int
}

// ParseFilter validates user-supplied filter values. An empty temperature
// means all temperatures.
func ParseFilter(temperature string, minScore int) (Filter, error) {
	temp := strings.ToLower(strings.TrimSpace(temperature))
	switch Temperature(temp) {
	case TemperatureHot, TemperatureWarm, TemperatureCold:
	case "", AllTemperatures:
		temp = AllTemperatures
	default:
		return Filter{}, ErrBadTemperature
	}
	if minScore < 0 || minScore > 100 {
		return Filter{}, ErrBadMinScore
	}
	return Filter{Temperature: temp, MinScore: minScore}, nil
}

// Match reports whether r passes both predicates.
func (f Filter) Match(r Record) bool {
	temp := strings.ToLower(strings.TrimSpace(f.Temperature))
	if temp != "" && temp != AllTemperatures && string(r.LeadTemperature) != temp {
		return false
	}
	return r.LeadScore >= f.MinScore
}

// Apply returns the matching records, most recently stored first.
func (f Filter) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		if f.Match(records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}

// QualifyingScore is the minimum score for an unsolicited save.
const QualifyingScore = 60

// Qualifies gates the automatic save policy: only confident sales leads with at
// least one of budget or timeline known are submitted without a button press.
func Qualifies(e ExtractedLead) bool {
	if e.Intent != IntentSales {
		return false
	}
	if strings.TrimSpace(e.ServiceInterest) == "" {
		return false
	}
	if e.LeadScore < QualifyingScore {
		return false
	}
	return e.BudgetRange != BudgetUnknown || e.Timeline != TimelineUnknown
}
