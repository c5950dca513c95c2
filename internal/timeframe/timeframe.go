package timeframe

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Resolution is the bar granularity requested from the historical-prices API.
type Resolution string

const (
	ResolutionDay  Resolution = "day"
	ResolutionWeek Resolution = "week"
)

// Default is applied when a query carries no timeframe at all.
const Default = "last week"

// Range is a resolved timeframe. SingleDay marks the today/daily window, which
// downstream uses that day's open/close instead of first/last bar closes.
type Range struct {
	Start      time.Time
	End        time.Time
	Resolution Resolution
	SingleDay  bool
}

// FromTo formats the range the way both provider APIs expect dates.
func (r Range) FromTo() (string, string) {
	return r.Start.Format("2006-01-02"), r.End.Format("2006-01-02")
}

// quarterPattern accepts a 4-digit year, at least one space, then Q1-Q4.
// "2024 Q2" matches; "24 Q2", "2024Q2" and "2024 Q5" do not.
var quarterPattern = regexp.MustCompile(`(?i)^\s*(\d{4})\s+q([1-4])\s*$`)

type relative struct {
	days       int
	resolution Resolution
}

var relativeTable = map[string]relative{
	"today":         {days: 1, resolution: ResolutionDay},
	"daily":         {days: 1, resolution: ResolutionDay},
	"last 2 days":   {days: 2, resolution: ResolutionDay},
	"2 days":        {days: 2, resolution: ResolutionDay},
	"last 3 days":   {days: 3, resolution: ResolutionDay},
	"3 days":        {days: 3, resolution: ResolutionDay},
	"last week":     {days: 7, resolution: ResolutionDay},
	"weekly":        {days: 7, resolution: ResolutionDay},
	"last month":    {days: 30, resolution: ResolutionDay},
	"monthly":       {days: 30, resolution: ResolutionDay},
	"last 6 months": {days: 180, resolution: ResolutionWeek},
	"6 months":      {days: 180, resolution: ResolutionWeek},
	"last year":     {days: 365, resolution: ResolutionWeek},
	"yearly":        {days: 365, resolution: ResolutionWeek},
	"annually":      {days: 365, resolution: ResolutionWeek},
}

// Supported lists the accepted relative vocabulary, for validation errors.
var Supported = []string{
	"today", "daily", "last 2 days", "last 3 days", "last week", "weekly",
	"last month", "monthly", "last quarter", "quarterly", "last 6 months",
	"last year", "annually", "a specific quarter like '2024 Q2'",
}

// Phrases returns the relative vocabulary longest-first, for scanning free
// text: longer phrases must win before their substrings ("last 2 days" before
// "2 days").
func Phrases() []string {
	phrases := make([]string, 0, len(relativeTable)+2)
	for p := range relativeTable {
		phrases = append(phrases, p)
	}
	phrases = append(phrases, "last quarter", "quarterly")
	sort.Slice(phrases, func(i, j int) bool {
		if len(phrases[i]) != len(phrases[j]) {
			return len(phrases[i]) > len(phrases[j])
		}
		return phrases[i] < phrases[j]
	})
	return phrases
}

// Resolve parses a free-form timeframe string into a concrete date range
// relative to now. Unknown strings are a validation error; callers must reject
// them before any network call.
func Resolve(tf string, now time.Time) (Range, error) {
	norm := strings.ToLower(strings.TrimSpace(tf))
	if norm == "" {
		return Range{}, vocabularyError(tf)
	}

	if m := quarterPattern.FindStringSubmatch(norm); m != nil {
		year, _ := strconv.Atoi(m[1])
		q, _ := strconv.Atoi(m[2])
		start, end := quarterBounds(year, q)
		return Range{Start: start, End: end, Resolution: ResolutionDay}, nil
	}

	if norm == "last quarter" || norm == "quarterly" {
		year, q := lastCompletedQuarter(now)
		start, end := quarterBounds(year, q)
		return Range{Start: start, End: end, Resolution: ResolutionDay}, nil
	}

	rel, ok := relativeTable[norm]
	if !ok {
		return Range{}, vocabularyError(tf)
	}
	return Range{
		Start:      now.AddDate(0, 0, -rel.days),
		End:        now,
		Resolution: rel.resolution,
		SingleDay:  rel.days == 1,
	}, nil
}

// Valid reports whether tf resolves without error.
func Valid(tf string, now time.Time) bool {
	_, err := Resolve(tf, now)
	return err == nil
}

func vocabularyError(tf string) error {
	return fmt.Errorf("unsupported timeframe %q: supported values are %s",
		tf, strings.Join(Supported, ", "))
}

// quarterBounds returns calendar-exact first and last days of the quarter.
func quarterBounds(year, q int) (time.Time, time.Time) {
	startMonth := time.Month((q-1)*3 + 1)
	start := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0).AddDate(0, 0, -1)
	return start, end
}

// lastCompletedQuarter never returns the in-progress quarter: in Jan-Mar it is
// Q4 of the previous year, in Apr-Jun Q1 of the current year, and so on.
func lastCompletedQuarter(now time.Time) (year, q int) {
	current := (int(now.Month())-1)/3 + 1
	if current == 1 {
		return now.Year() - 1, 4
	}
	return now.Year(), current - 1
}
