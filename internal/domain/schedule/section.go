package schedule

import (
	"fmt"
	"time"
)

// Kind distinguishes the two alternating display windows: the 3-day weekend
// window (Saturday cutover through Tuesday cutover) and the 4-day midweek
// window (Tuesday cutover through Saturday cutover).
type Kind string

const (
	KindSatMon Kind = "SatMon"
	KindTueFri Kind = "TueFri"
)

const DefaultCutoverHour = 10

const dateLayout = "2006-01-02"

type Config struct {
	Location    *time.Location
	CutoverHour int
}

// Section is one resolved display window. Start and End are the cutover
// instants bounding the half-open interval [Start, End); Dates enumerates the
// calendar days the window covers, in local time.
type Section struct {
	Kind      Kind
	SectionID string
	Start     time.Time
	End       time.Time
	Dates     []string
}

func (s Section) StartDate() string {
	if len(s.Dates) == 0 {
		return ""
	}
	return s.Dates[0]
}

func (s Section) EndDate() string {
	if len(s.Dates) == 0 {
		return ""
	}
	return s.Dates[len(s.Dates)-1]
}

func (s Section) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

// Resolve maps an instant to the section it belongs to. Every instant maps to
// exactly one section; an instant exactly at the cutover belongs to the window
// that starts then.
func Resolve(now time.Time, cfg Config) Section {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	cutover := cfg.CutoverHour
	if cutover < 0 || cutover > 23 {
		cutover = DefaultCutoverHour
	}

	local := now.In(loc)
	for back := 0; back < 8; back++ {
		day := local.AddDate(0, 0, -back)
		kind, ok := anchorKind(day.Weekday())
		if !ok {
			continue
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), cutover, 0, 0, 0, loc)
		if start.After(local) {
			continue
		}
		return buildSection(start, kind, cutover, loc)
	}

	// Unreachable: any 7-day lookback contains both a Saturday and a Tuesday
	// whose cutover precedes the reference instant.
	return Section{}
}

func anchorKind(weekday time.Weekday) (Kind, bool) {
	switch weekday {
	case time.Saturday:
		return KindSatMon, true
	case time.Tuesday:
		return KindTueFri, true
	default:
		return "", false
	}
}

func buildSection(start time.Time, kind Kind, cutover int, loc *time.Location) Section {
	spanDays := 3
	if kind == KindTueFri {
		spanDays = 4
	}

	endDay := start.AddDate(0, 0, spanDays)
	end := time.Date(endDay.Year(), endDay.Month(), endDay.Day(), cutover, 0, 0, 0, loc)

	dates := make([]string, 0, spanDays)
	for i := 0; i < spanDays; i++ {
		dates = append(dates, start.AddDate(0, 0, i).Format(dateLayout))
	}

	// The section identity carries the ISO week of the anchor day, not of the
	// reference instant, so a query late in the window still resolves to the
	// week the window started in.
	year, week := start.ISOWeek()

	return Section{
		Kind:      kind,
		SectionID: fmt.Sprintf("%d-W%d-%s", year, week, kind),
		Start:     start,
		End:       end,
		Dates:     dates,
	}
}

// DayLabel renders the display label shown next to a fixture's kickoff day.
func DayLabel(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("Monday 02.01.")
}
