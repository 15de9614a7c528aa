package period

import (
	"fmt"
	"strings"
	"time"

	"energydash/pkg/contracts/domain"
)

// WeekPolicy selects which year a week key is built from.
type WeekPolicy string

const (
	// WeekPolicyISO builds week keys from the ISO week-year. Keys then sort
	// chronologically across year boundaries.
	WeekPolicyISO WeekPolicy = "iso"
	// WeekPolicyCalendar builds week keys from the calendar year, so
	// 2024-12-30 (ISO week 1 of 2025) becomes 202401. Kept for parity with
	// legacy extracts; keys are not chronological near year boundaries.
	WeekPolicyCalendar WeekPolicy = "calendar"
)

// ParseWeekPolicy parses a policy name; empty selects WeekPolicyISO.
func ParseWeekPolicy(s string) (WeekPolicy, error) {
	switch WeekPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", WeekPolicyISO:
		return WeekPolicyISO, nil
	case WeekPolicyCalendar:
		return WeekPolicyCalendar, nil
	}
	return "", fmt.Errorf("unknown week policy %q", s)
}

// Deriver computes calendar representations under a fixed week policy.
type Deriver struct {
	policy WeekPolicy
}

// NewDeriver returns a Deriver for policy.
func NewDeriver(policy WeekPolicy) *Deriver {
	if policy == "" {
		policy = WeekPolicyISO
	}
	return &Deriver{policy: policy}
}

// Policy returns the week policy of d.
func (d *Deriver) Policy() WeekPolicy {
	return d.policy
}

// Derive returns every period representation of date.
func (d *Deriver) Derive(date time.Time) domain.Calendar {
	year, month, day := date.Date()
	isoYear, isoWeek := date.ISOWeek()
	quarter := (int(month)-1)/3 + 1

	weekYear := isoYear
	if d.policy == WeekPolicyCalendar {
		weekYear = year
	}

	return domain.Calendar{
		Year:       year,
		Month:      int(month),
		Day:        day,
		Quarter:    quarter,
		ISOYear:    isoYear,
		ISOWeek:    isoWeek,
		MonthKey:   year*100 + int(month),
		WeekKey:    weekYear*100 + isoWeek,
		QuarterKey: year*10 + quarter,
		DayKey:     year*10000 + int(month)*100 + day,
	}
}

// Derive computes the calendar of date under WeekPolicyISO.
func Derive(date time.Time) domain.Calendar {
	return NewDeriver(WeekPolicyISO).Derive(date)
}

// KeyOf returns the period key of date for granularity g under WeekPolicyISO.
func KeyOf(g domain.Granularity, date time.Time) int {
	return Derive(date).Key(g)
}
