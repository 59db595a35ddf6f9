package schedule

import (
	"fmt"
	"strconv"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/jakechorley/exam-allocator/pkg/core/allocation"
	"github.com/jakechorley/exam-allocator/pkg/core/model"
)

// MaxSessions bounds the expansion of rules without COUNT or UNTIL
const MaxSessions = 366

// hourStep is the granularity of time placed in a session
const hourStep = 0.1

// SessionTopic is the time one session spends on a category
type SessionTopic struct {
	Category string
	Label    string
	Tier     model.Tier
	Hours    float64
}

// Session is a single study date and what to cover on it
type Session struct {
	Date   time.Time
	Topics []SessionTopic
}

// TotalHours returns the time planned for the session
func (s Session) TotalHours() float64 {
	total := 0.0
	for _, topic := range s.Topics {
		total += topic.Hours
	}
	return total
}

// Sessions expands an RRULE (e.g. "FREQ=WEEKLY;BYDAY=SA,SU;COUNT=8") into session dates
// starting from the given time. At most MaxSessions dates are returned.
func Sessions(rule string, from time.Time) ([]time.Time, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rrule: %w", err)
	}
	r.DTStart(from)

	dates := []time.Time{}
	next := r.Iterator()
	for len(dates) < MaxSessions {
		date, ok := next()
		if !ok {
			break
		}
		dates = append(dates, date)
	}

	return dates, nil
}

// Build spreads each plan row's allocated hours evenly over the sessions in 0.1h steps.
// When a row does not divide evenly the earlier sessions take the extra steps.
// Returns an empty schedule when there are no rows or no sessions.
func Build(rows []allocation.ResourceAllocationRow, sessions []time.Time) []Session {
	schedule := []Session{}
	if len(rows) == 0 || len(sessions) == 0 {
		return schedule
	}

	// Equal weight per session, keyed by position
	slots := make([]model.Weight, len(sessions))
	for i := range sessions {
		slots[i] = model.Weight{Key: strconv.Itoa(i), Percent: 1}
	}

	for _, date := range sessions {
		schedule = append(schedule, Session{Date: date, Topics: []SessionTopic{}})
	}

	for _, row := range rows {
		split := allocation.ApportionAmount(row.Allocated, hourStep, slots)

		for i := range schedule {
			hours := split[strconv.Itoa(i)]
			if hours <= 0 {
				continue
			}
			schedule[i].Topics = append(schedule[i].Topics, SessionTopic{
				Category: row.Category,
				Label:    row.Label,
				Tier:     row.Tier,
				Hours:    hours,
			})
		}
	}

	return schedule
}
