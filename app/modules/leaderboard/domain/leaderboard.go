package leaderboarddomain

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Period selects the time window a board covers.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodAllTime Period = "all_time"

	AllTimeKey = "all"
)

// Periods lists every board, shortest first.
var Periods = []Period{PeriodDaily, PeriodWeekly, PeriodAllTime}

var (
	ErrUnknownPeriod = errors.New("unknown leaderboard period")
	ErrInvalidKey    = errors.New("invalid leaderboard period key")
)

// ParsePeriod validates a period name. An empty name means daily.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "":
		return PeriodDaily, nil
	case PeriodDaily, PeriodWeekly, PeriodAllTime:
		return Period(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// Key names the board of period that contains t: a UTC date for daily
// boards, an ISO week for weekly boards.
func Key(period Period, t time.Time) string {
	t = t.UTC()
	switch period {
	case PeriodDaily:
		return t.Format(time.DateOnly)
	case PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	default:
		return AllTimeKey
	}
}

// Window is a half-open [Start, End) range. The all-time window is unbounded.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Bounded reports whether the window restricts completion times.
func (w Window) Bounded() bool { return w.Start != nil && w.End != nil }

// WindowFor returns the window of the board of period containing t.
func WindowFor(period Period, t time.Time) Window {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case PeriodDaily:
		end := day.AddDate(0, 0, 1)
		return Window{Start: &day, End: &end}
	case PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		end := start.AddDate(0, 0, 7)
		return Window{Start: &start, End: &end}
	default:
		return Window{}
	}
}

// ParseKey returns the window named by a period key.
func ParseKey(period Period, key string) (Window, error) {
	switch period {
	case PeriodDaily:
		day, err := time.Parse(time.DateOnly, key)
		if err != nil {
			return Window{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		return WindowFor(period, day), nil
	case PeriodWeekly:
		var year, week int
		if _, err := fmt.Sscanf(key, "%04d-W%02d", &year, &week); err != nil || week < 1 || week > 53 {
			return Window{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		// January 4th is always in ISO week 1.
		jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
		w := WindowFor(period, jan4.AddDate(0, 0, 7*(week-1)))
		if Key(period, *w.Start) != key {
			return Window{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		return w, nil
	case PeriodAllTime:
		if key != AllTimeKey {
			return Window{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		return Window{}, nil
	}
	return Window{}, ErrUnknownPeriod
}

// Entry is one player's standing on a board.
type Entry struct {
	Rank           int       `json:"rank"`
	UserUUID       uuid.UUID `json:"user_uuid"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"display_name,omitempty"`
	CorrectAnswers int64     `json:"correct_answers"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	GamesPlayed    int64     `json:"games_played"`
}

// Less orders standings: more correct answers first, then the faster total
// response time, then username.
func Less(a, b Entry) bool {
	if a.CorrectAnswers != b.CorrectAnswers {
		return a.CorrectAnswers > b.CorrectAnswers
	}
	if a.ResponseTimeMs != b.ResponseTimeMs {
		return a.ResponseTimeMs < b.ResponseTimeMs
	}
	return a.Username < b.Username
}

// Rank sorts entries and numbers them from 1.
func Rank(entries []Entry) []Entry {
	sort.SliceStable(entries, func(i, j int) bool { return Less(entries[i], entries[j]) })
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// Board is a ranked top list.
type Board struct {
	Period      Period    `json:"period"`
	Key         string    `json:"period_key"`
	Entries     []Entry   `json:"entries"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Find returns the entry of user, if ranked on the board.
func (b *Board) Find(user uuid.UUID) (Entry, bool) {
	for _, e := range b.Entries {
		if e.UserUUID == user {
			return e, true
		}
	}
	return Entry{}, false
}

// CacheKey is the cache key of one board.
func CacheKey(period Period, key string) string {
	return "leaderboard:" + string(period) + ":" + key
}
