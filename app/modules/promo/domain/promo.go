package promodomain

import (
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
)

// Reason explains a Decision.
type Reason string

const (
	ReasonEligible           Reason = "eligible"
	ReasonDailyCap           Reason = "daily_cap"
	ReasonCooldown           Reason = "cooldown"
	ReasonOutsideActiveHours Reason = "outside_active_hours"
	ReasonDailyTargetReached Reason = "daily_target_reached"
)

const (
	Window            = 24 * time.Hour
	MaxOffsetMinutes  = 14 * 60
	DefaultMaxPer24h  = 5
	DefaultCooldown   = 2 * time.Hour
	DefaultMinPerDay  = 3
	DefaultMaxPerDay  = 5
	DefaultCheckEvery = time.Minute
)

var (
	ErrNotEligible   = errors.New("promo is not eligible")
	ErrInvalidOffset = errors.New("timezone offset out of range")
)

// HourWindow is a local [Start, End) hour range.
type HourWindow struct {
	Start int
	End   int
}

func (w HourWindow) contains(hour int) bool {
	return hour >= w.Start && hour < w.End
}

// Policy configures the popup limits.
type Policy struct {
	MaxPer24h int
	Cooldown  time.Duration
	MinPerDay int
	MaxPerDay int
	Windows   []HourWindow
}

// DefaultPolicy allows at most 5 shows a day, 2 hours apart, in the morning
// and evening windows.
func DefaultPolicy() Policy {
	return Policy{
		MaxPer24h: DefaultMaxPer24h,
		Cooldown:  DefaultCooldown,
		MinPerDay: DefaultMinPerDay,
		MaxPerDay: DefaultMaxPerDay,
		Windows:   []HourWindow{{Start: 8, End: 12}, {Start: 17, End: 23}},
	}
}

// Decision is the outcome of one evaluation.
type Decision struct {
	Eligible     bool      `json:"eligible"`
	Reason       Reason    `json:"reason"`
	NextCheck    time.Time `json:"next_check"`
	DailyTarget  int       `json:"daily_target"`
	ShownToday   int       `json:"shown_today"`
	ShownLast24h int       `json:"shown_last_24h"`
}

// Location converts a client UTC offset in minutes into a fixed zone.
func Location(offsetMinutes int) (*time.Location, error) {
	if offsetMinutes < -MaxOffsetMinutes || offsetMinutes > MaxOffsetMinutes {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOffset, offsetMinutes)
	}
	return time.FixedZone("", offsetMinutes*60), nil
}

// DailyTarget picks how many shows the user gets on a local date. The value
// is stable for the same user and date and lies in [MinPerDay, MaxPerDay].
func DailyTarget(user uuid.UUID, localDate string, p Policy) int {
	lo, hi := p.MinPerDay, p.MaxPerDay
	if hi < lo {
		hi = lo
	}
	h := fnv.New32a()
	_, _ = h.Write(user[:])
	_, _ = h.Write([]byte(localDate))
	return lo + int(h.Sum32()%uint32(hi-lo+1))
}

// Decide evaluates whether a popup may be shown at now. history holds past
// show times in any order; entries older than 24 hours are ignored.
func Decide(now time.Time, history []time.Time, loc *time.Location, user uuid.UUID, p Policy) Decision {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	today := local.Format(time.DateOnly)

	d := Decision{DailyTarget: DailyTarget(user, today, p)}

	var oldest, latest time.Time
	for _, t := range history {
		if t.After(now) || !t.After(now.Add(-Window)) {
			continue
		}
		d.ShownLast24h++
		if oldest.IsZero() || t.Before(oldest) {
			oldest = t
		}
		if t.After(latest) {
			latest = t
		}
		if t.In(loc).Format(time.DateOnly) == today {
			d.ShownToday++
		}
	}

	switch {
	case d.ShownLast24h >= p.MaxPer24h:
		d.Reason = ReasonDailyCap
		d.NextCheck = oldest.Add(Window)
	case !latest.IsZero() && now.Before(latest.Add(p.Cooldown)):
		d.Reason = ReasonCooldown
		d.NextCheck = latest.Add(p.Cooldown)
	case !p.inWindow(local):
		d.Reason = ReasonOutsideActiveHours
		d.NextCheck = p.nextWindowStart(local)
	case d.ShownToday >= d.DailyTarget:
		d.Reason = ReasonDailyTargetReached
		d.NextCheck = p.firstWindowStart(local.AddDate(0, 0, 1))
	default:
		d.Eligible = true
		d.Reason = ReasonEligible
		d.NextCheck = now
	}
	d.NextCheck = d.NextCheck.UTC()
	return d
}

func (p Policy) inWindow(local time.Time) bool {
	for _, w := range p.Windows {
		if w.contains(local.Hour()) {
			return true
		}
	}
	return false
}

func atHour(day time.Time, hour int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
}

func (p Policy) firstWindowStart(day time.Time) time.Time {
	if len(p.Windows) == 0 {
		return atHour(day, 0)
	}
	first := p.Windows[0].Start
	for _, w := range p.Windows[1:] {
		if w.Start < first {
			first = w.Start
		}
	}
	return atHour(day, first)
}

func (p Policy) nextWindowStart(local time.Time) time.Time {
	var best time.Time
	for d := 0; d <= 1; d++ {
		day := local.AddDate(0, 0, d)
		for _, w := range p.Windows {
			start := atHour(day, w.Start)
			if start.After(local) && (best.IsZero() || start.Before(best)) {
				best = start
			}
		}
		if !best.IsZero() {
			return best
		}
	}
	return p.firstWindowStart(local.AddDate(0, 0, 1))
}
