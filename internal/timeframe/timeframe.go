// Package timeframe resolves the date windows analytics queries run over.
package timeframe

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for from/to query parameters and day keys.
const DateLayout = "2006-01-02"

type TimeProvider interface {
	Now(loc *time.Location) time.Time
}

// DefaultTimeProvider reads the system clock.
type DefaultTimeProvider struct{}

func (p *DefaultTimeProvider) Now(loc *time.Location) time.Time {
	return time.Now().In(loc)
}

// TimeFrame is an inclusive window between two instants, evaluated in Tz.
type TimeFrame struct {
	From time.Time
	To   time.Time
	Tz   *time.Location
}

func NewTimeFrame(from, to time.Time, tz *time.Location) (*TimeFrame, error) {
	if tz == nil {
		tz = time.UTC
	}
	if from.After(to) {
		return nil, fmt.Errorf("fromTime must be before toTime")
	}
	return &TimeFrame{From: from, To: to, Tz: tz}, nil
}

// Contains reports whether t falls inside the window, both ends included.
func (tf *TimeFrame) Contains(t time.Time) bool {
	return !t.Before(tf.From) && !t.After(tf.To)
}

// Days lists every calendar day the window touches, in its timezone.
func (tf *TimeFrame) Days() []string {
	start := StartOfDay(tf.From.In(tf.Tz))
	end := StartOfDay(tf.To.In(tf.Tz))

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days
}

// DayKey formats t as the calendar day it falls on in the window's timezone.
func (tf *TimeFrame) DayKey(t time.Time) string {
	return t.In(tf.Tz).Format(DateLayout)
}

func (tf *TimeFrame) Duration() time.Duration {
	return tf.To.Sub(tf.From)
}

// DefaultWindow is the dashboard's stats window: the first day of the month two
// months before now, through the end of today.
func DefaultWindow(now time.Time) (time.Time, time.Time) {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return firstOfMonth.AddDate(0, -2, 0), EndOfDay(now)
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}
