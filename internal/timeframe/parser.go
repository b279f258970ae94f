package timeframe

import (
	"fmt"
	"time"
)

// MaxSpanDays bounds a requested window. Time buckets emit one row per day.
const MaxSpanDays = 731

type TimeFrameParserParams struct {
	FromDate string
	ToDate   string
	Tz       string
}

type TimeFrameParser struct {
	timeProvider TimeProvider
}

func NewTimeFrameParser(timeProvider ...TimeProvider) *TimeFrameParser {
	var provider TimeProvider = &DefaultTimeProvider{}
	if len(timeProvider) > 0 && timeProvider[0] != nil {
		provider = timeProvider[0]
	}

	return &TimeFrameParser{
		timeProvider: provider,
	}
}

// ParseTimeFrame turns yyyy-MM-dd bounds into a window in the requested timezone.
// Missing bounds fall back to DefaultWindow; the end date always covers its whole day.
func (p *TimeFrameParser) ParseTimeFrame(params TimeFrameParserParams) (*TimeFrame, error) {
	tz := params.Tz
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("error loading timezone: %w", err)
	}

	defaultFrom, defaultTo := DefaultWindow(p.timeProvider.Now(loc))

	from, err := parseDateWithDefault(params.FromDate, defaultFrom, loc, false)
	if err != nil {
		return nil, fmt.Errorf("invalid 'from' date: %w", err)
	}

	to, err := parseDateWithDefault(params.ToDate, defaultTo, loc, true)
	if err != nil {
		return nil, fmt.Errorf("invalid 'to' date: %w", err)
	}

	tf, err := NewTimeFrame(from, to, loc)
	if err != nil {
		return nil, err
	}
	if tf.Duration() > MaxSpanDays*24*time.Hour {
		return nil, fmt.Errorf("range exceeds %d days", MaxSpanDays)
	}
	return tf, nil
}

// Now exposes the parser's clock so callers share one notion of today.
func (p *TimeFrameParser) Now(loc *time.Location) time.Time {
	return p.timeProvider.Now(loc)
}

func parseDateWithDefault(dateStr string, defaultDate time.Time, loc *time.Location, isEndDate bool) (time.Time, error) {
	if dateStr == "" {
		return defaultDate, nil
	}

	date, err := time.ParseInLocation(DateLayout, dateStr, loc)
	if err != nil {
		return time.Time{}, err
	}

	if isEndDate {
		return EndOfDay(date), nil
	}
	return StartOfDay(date), nil
}
