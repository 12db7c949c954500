package daily

import (
	"fmt"
	"time"

	"reread/internal/schedule"
)

const dateLayout = "2006-01-02"

// Period is one calendar month.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (p Period) Validate() error {
	if p.Year < 1970 || p.Year > 9999 {
		return &ValidationError{Field: "year", Reason: fmt.Sprintf("out of range: %d", p.Year)}
	}
	if p.Month < 1 || p.Month > 12 {
		return &ValidationError{Field: "month", Reason: fmt.Sprintf("out of range: %d", p.Month)}
	}
	return nil
}

func (p Period) start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// Token is the ReviewedMark month key, "YYYY-MM".
func (p Period) Token() string { return fmt.Sprintf("%04d-%02d", p.Year, p.Month) }

func (p Period) Days() int { return p.start().AddDate(0, 1, -1).Day() }

func (p Period) Date(day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", p.Year, p.Month, day)
}

func (p Period) First() string { return p.Date(1) }
func (p Period) Last() string  { return p.Date(p.Days()) }

func (p Period) Next() Period {
	n := p.start().AddDate(0, 1, 0)
	return Period{Year: n.Year(), Month: int(n.Month())}
}

func (p Period) Seed() int64 { return schedule.MonthSeed(p.Year, p.Month) }

// Contains reports whether date (YYYY-MM-DD) falls within the month.
func (p Period) Contains(date string) bool {
	return date >= p.First() && date <= p.Last()
}

// PeriodOf parses the month out of a YYYY-MM-DD date.
func PeriodOf(date string) (Period, error) {
	p, _, err := splitDate(date)
	return p, err
}

// splitDate parses a YYYY-MM-DD date into its month and day of month.
func splitDate(date string) (Period, int, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return Period{}, 0, &ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"}
	}
	return Period{Year: t.Year(), Month: int(t.Month())}, t.Day(), nil
}

// Clock pins "today" for one operation so nothing reads wall time.
type Clock struct {
	Year        int
	Month       int
	Day         int
	DaysInMonth int
}

func NewClock(t time.Time) Clock {
	p := Period{Year: t.Year(), Month: int(t.Month())}
	return Clock{Year: p.Year, Month: p.Month, Day: t.Day(), DaysInMonth: p.Days()}
}

func (c Clock) Period() Period  { return Period{Year: c.Year, Month: c.Month} }
func (c Clock) Today() string   { return c.Period().Date(c.Day) }
func (c Clock) IsLastDay() bool { return c.Day >= c.DaysInMonth }
