// Package stats assembles the analytics bundle shown for a link or a campaign.
package stats

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"shortn/internal/analytics"
	"shortn/internal/clicks"
	"shortn/internal/links"
	"shortn/internal/pkg/async"
	"shortn/internal/pkg/referrers"
	"shortn/internal/pkg/user_agent"
	"shortn/internal/timeframe"
)

const workerCount = 4

// Params selects the range and breakdowns of a stats request.
type Params struct {
	TimeFrame       *timeframe.TimeFrame
	LocationLevel   analytics.LocationLevel
	BucketSizeHours int
}

type Totals struct {
	Clicks         int `json:"clicks"`
	Scans          int `json:"scans"`
	UniqueVisitors int `json:"uniqueVisitors"`
	Links          int `json:"links"`
}

// ReferrerRow is a referrer count with its display name and channel.
type ReferrerRow struct {
	analytics.ReferrerStat
	Name    string            `json:"name"`
	Channel referrers.Channel `json:"channel"`
}

// DeviceRow is a device class count with its display label.
type DeviceRow struct {
	analytics.DeviceStat
	Label string `json:"label"`
}

type Stats struct {
	From          string                   `json:"from"`
	To            string                   `json:"to"`
	Totals        Totals                   `json:"totals"`
	Referrers     []ReferrerRow            `json:"referrers"`
	LocationLevel analytics.LocationLevel  `json:"locationLevel"`
	Locations     []analytics.LocationStat `json:"locations"`
	Devices       []DeviceRow              `json:"devices"`
	TimeBuckets   analytics.TimeBuckets    `json:"timeBuckets"`
}

// Compute aggregates clicks concurrently. The clicks are expected to be
// already restricted to the params' time frame.
func Compute(ctx context.Context, list []clicks.Click, linkCount int, params Params) (*Stats, error) {
	if params.TimeFrame == nil {
		return nil, fmt.Errorf("time frame is required")
	}
	if params.LocationLevel == "" {
		params.LocationLevel = analytics.LocationLevelCountry
	}
	entries := clicks.Entries(list)
	tf := params.TimeFrame

	tasks := []async.Task{
		{Name: "referrers", Execute: func(context.Context) (any, error) {
			return referrerRows(analytics.AggregateReferrers(entries)), nil
		}},
		{Name: "locations", Execute: func(context.Context) (any, error) {
			return analytics.AggregateLocations(entries, params.LocationLevel), nil
		}},
		{Name: "devices", Execute: func(context.Context) (any, error) {
			return deviceRows(analytics.AggregateDevices(entries)), nil
		}},
		{Name: "time_buckets", Execute: func(context.Context) (any, error) {
			return analytics.AggregateTimeBuckets(entries, analytics.TimeBucketOptions{
				BucketSizeHours: params.BucketSizeHours,
				From:            tf.From,
				To:              tf.To,
				Location:        tf.Tz,
			}), nil
		}},
		{Name: "totals", Execute: func(context.Context) (any, error) {
			return Totals{
				Clicks:         len(list),
				Scans:          lo.CountBy(list, func(c clicks.Click) bool { return c.Source == clicks.SourceQR }),
				UniqueVisitors: clicks.UniqueVisitors(list),
				Links:          linkCount,
			}, nil
		}},
	}

	results := async.NewPool(workerCount).Execute(ctx, tasks)
	for _, r := range results {
		if r.Err != nil {
			return nil, fmt.Errorf("failed to compute %s: %w", r.Name, r.Err)
		}
	}

	return &Stats{
		From:          tf.From.Format(timeframe.DateLayout),
		To:            tf.To.Format(timeframe.DateLayout),
		Totals:        results["totals"].Data.(Totals),
		Referrers:     results["referrers"].Data.([]ReferrerRow),
		LocationLevel: params.LocationLevel,
		Locations:     results["locations"].Data.([]analytics.LocationStat),
		Devices:       results["devices"].Data.([]DeviceRow),
		TimeBuckets:   results["time_buckets"].Data.(analytics.TimeBuckets),
	}, nil
}

func referrerRows(stats []analytics.ReferrerStat) []ReferrerRow {
	return lo.Map(stats, func(s analytics.ReferrerStat, _ int) ReferrerRow {
		return ReferrerRow{
			ReferrerStat: s,
			Name:         referrers.FriendlyName(s.Referrer),
			Channel:      referrers.ChannelOf(s.Referrer),
		}
	})
}

func deviceRows(stats []analytics.DeviceStat) []DeviceRow {
	return lo.Map(stats, func(s analytics.DeviceStat, _ int) DeviceRow {
		return DeviceRow{DeviceStat: s, Label: user_agent.DeviceLabel(s.Device)}
	})
}

// GetLinkStats computes the bundle for one of the owner's links.
func GetLinkStats(ctx context.Context, db *gorm.DB, ownerID, code string, params Params) (*Stats, error) {
	if params.TimeFrame == nil {
		return nil, fmt.Errorf("time frame is required")
	}
	link, err := links.GetOwnedLink(db, ownerID, code)
	if err != nil {
		return nil, err
	}

	list, err := clicks.ListClicks(db.WithContext(ctx), clicks.ClickFilters{
		LinkID: link.ID,
		From:   params.TimeFrame.From,
		To:     params.TimeFrame.To,
	})
	if err != nil {
		return nil, err
	}

	return Compute(ctx, list, 1, params)
}
