package admindomain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

const (
	DefaultRange = 7 * 24 * time.Hour
	MaxRange     = 366 * 24 * time.Hour
	day          = 24 * time.Hour
)

var (
	ErrInvalidRange = errors.New("invalid range")
	ErrUnparsable   = errors.New("unrecognised time")
)

// Range is the half-open interval [From, To) in UTC.
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

var parser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseTime reads an RFC3339 timestamp, a YYYY-MM-DD date, or a natural
// language phrase such as "3 days ago" relative to now.
func ParseTime(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, input); err == nil {
		return t.UTC(), nil
	}
	r, err := parser.Parse(strings.ToLower(input), now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrUnparsable, input, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w %q", ErrUnparsable, input)
	}
	return r.Time.UTC(), nil
}

// ParseRange builds a range from optional bounds. A missing "to" means now
// and a missing "from" means seven days before "to". A bare date as "to"
// includes that whole day.
func ParseRange(from, to string, now time.Time) (Range, error) {
	now = now.UTC()
	r := Range{To: now}

	if to != "" {
		t, err := ParseTime(to, now)
		if err != nil {
			return Range{}, err
		}
		if _, dateOnly := time.Parse(time.DateOnly, strings.TrimSpace(to)); dateOnly == nil {
			t = t.Add(day)
		}
		r.To = t
	}

	r.From = r.To.Add(-DefaultRange)
	if from != "" {
		t, err := ParseTime(from, now)
		if err != nil {
			return Range{}, err
		}
		r.From = t
	}

	if !r.From.Before(r.To) {
		return Range{}, fmt.Errorf("%w: from must be before to", ErrInvalidRange)
	}
	if r.To.Sub(r.From) > MaxRange {
		return Range{}, fmt.Errorf("%w: longer than %d days", ErrInvalidRange, int(MaxRange/day))
	}
	return r, nil
}

// Days lists the UTC midnights covered by the range.
func (r Range) Days() []time.Time {
	var days []time.Time
	for d := r.From.UTC().Truncate(day); d.Before(r.To); d = d.Add(day) {
		days = append(days, d)
	}
	return days
}

// Summary holds the dashboard totals for a range.
type Summary struct {
	Range             Range `json:"range"`
	RegisteredUsers   int   `json:"registered_users"`
	NewUsers          int   `json:"new_users"`
	GamesPlayed       int   `json:"games_played"`
	GamesWon          int   `json:"games_won"`
	CoinsEarned       int64 `json:"coins_earned"`
	CoinsSpent        int64 `json:"coins_spent"`
	BoostersActivated int   `json:"boosters_activated"`
}

// WinRate is the share of games won, zero when none were played.
func (s Summary) WinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.GamesWon) / float64(s.GamesPlayed)
}

// DayCount is one point of the daily games series.
type DayCount struct {
	Day    time.Time `json:"day"`
	Played int       `json:"played"`
	Won    int       `json:"won"`
}

// FillDays returns one entry per day of r, taking counts where present and
// zero elsewhere.
func FillDays(r Range, counts []DayCount) []DayCount {
	byDay := make(map[time.Time]DayCount, len(counts))
	for _, c := range counts {
		byDay[c.Day.UTC().Truncate(day)] = c
	}
	days := r.Days()
	out := make([]DayCount, 0, len(days))
	for _, d := range days {
		c := byDay[d]
		c.Day = d
		out = append(out, c)
	}
	return out
}
