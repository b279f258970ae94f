package clicks_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortn/internal/clicks"
	"shortn/internal/links"
	"shortn/internal/testsupport"
)

const (
	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	iphoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 14_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0 Mobile/15E148 Safari/604.1"
	botUA     = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func TestCollectClick(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)

	link := testsupport.CreateTestLink(t, db, testsupport.TestOwner, "abc1234", "https://example.com")
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	t.Run("records a link click", func(t *testing.T) {
		err := clicks.CollectClick(dbManager, logger, &clicks.CollectClickInput{
			Link:      link,
			IPAddress: "203.0.113.7",
			UserAgent: desktopUA,
			Referrer:  " https://news.ycombinator.com/ ",
			RawQuery:  "?utm_source=hn",
			Timestamp: at,
		})
		require.NoError(t, err)

		var stored clicks.IngestedClick
		require.NoError(t, db.Order("id DESC").First(&stored).Error)
		assert.Equal(t, link.ID, stored.LinkID)
		assert.Equal(t, testsupport.TestOwner, stored.OwnerID)
		assert.Equal(t, "abc1234", stored.Code)
		assert.Equal(t, "utm_source=hn", stored.RawQuery)
		assert.Equal(t, "https://news.ycombinator.com/", stored.Referrer)
		assert.Equal(t, clicks.SourceLink, stored.Source)
		assert.Equal(t, 0, stored.Processed)
		assert.True(t, at.Equal(stored.Timestamp))
		assert.NotEmpty(t, stored.VisitorHash)
		assert.NotContains(t, stored.VisitorHash, "203.0.113.7")
	})

	t.Run("src=qr marks a scan", func(t *testing.T) {
		err := clicks.CollectClick(dbManager, logger, &clicks.CollectClickInput{
			Link:      link,
			IPAddress: "203.0.113.8",
			UserAgent: iphoneUA,
			RawQuery:  "src=qr",
		})
		require.NoError(t, err)

		var stored clicks.IngestedClick
		require.NoError(t, db.Order("id DESC").First(&stored).Error)
		assert.Equal(t, clicks.SourceQR, stored.Source)
		assert.False(t, stored.Timestamp.IsZero())
	})

	t.Run("missing link", func(t *testing.T) {
		err := clicks.CollectClick(dbManager, logger, &clicks.CollectClickInput{IPAddress: "203.0.113.9"})
		assert.Error(t, err)
	})
}

func TestProcessUnprocessedClicks(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)

	link := testsupport.CreateTestLink(t, db, testsupport.TestOwner, "abc1234", "https://example.com")
	require.NoError(t, db.Model(link).Updates(map[string]interface{}{
		"utm_source": "newsletter",
		"utm_medium": "email",
	}).Error)

	campaign := testsupport.CreateTestCampaign(t, db, testsupport.TestOwner, "Spring")
	testsupport.AttachTestLink(t, db, link, campaign)

	now := time.Now().UTC()
	ingested := []clicks.IngestedClick{
		{LinkID: link.ID, OwnerID: link.OwnerID, Code: link.Code, UserAgent: desktopUA, VisitorHash: "v1", CountryCode: "DE", City: "Berlin", RawQuery: "utm_source=twitter&ref=abc", Source: clicks.SourceLink, Timestamp: now, CreatedAt: now},
		{LinkID: link.ID, OwnerID: link.OwnerID, Code: link.Code, UserAgent: iphoneUA, VisitorHash: "v2", RawQuery: "src=qr", Source: clicks.SourceQR, Timestamp: now, CreatedAt: now},
		{LinkID: link.ID, OwnerID: link.OwnerID, Code: link.Code, UserAgent: botUA, VisitorHash: "v3", Timestamp: now, CreatedAt: now},
		{LinkID: 9999, OwnerID: link.OwnerID, Code: "gone123", UserAgent: desktopUA, VisitorHash: "v4", Timestamp: now, CreatedAt: now},
	}
	require.NoError(t, db.Create(&ingested).Error)

	result := testsupport.ProcessAllTestClicks(t, dbManager, logger)
	assert.Equal(t, 1, result.SkippedBots)
	require.Len(t, result.Processed, 2)

	pending, err := clicks.CountPending(db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending)

	stored, err := clicks.ListClicks(db, clicks.ClickFilters{LinkID: link.ID})
	require.NoError(t, err)
	require.Len(t, stored, 2)

	t.Run("request params win over link tags", func(t *testing.T) {
		first := stored[0]
		assert.Equal(t, "Germany", first.Country)
		assert.Equal(t, "Berlin", first.City)
		assert.Equal(t, "desktop", first.DeviceType)
		assert.Equal(t, "twitter", first.UTMSource)
		assert.Equal(t, "email", first.UTMMedium)
		assert.Equal(t, map[string]string{
			"utm_source": "twitter",
			"utm_medium": "email",
			"ref":        "abc",
		}, first.Params())
		require.NotNil(t, first.CampaignID)
		assert.Equal(t, campaign.ID, *first.CampaignID)
	})

	t.Run("scan marker is not a param", func(t *testing.T) {
		second := stored[1]
		assert.Equal(t, clicks.SourceQR, second.Source)
		assert.Equal(t, "mobile", second.DeviceType)
		assert.Equal(t, "", second.Country)
		assert.NotContains(t, second.Params(), "src")
		assert.Equal(t, "newsletter", second.UTMSource)
	})

	t.Run("second run finds nothing", func(t *testing.T) {
		again := testsupport.ProcessAllTestClicks(t, dbManager, logger)
		assert.Empty(t, again.Processed)
		assert.Equal(t, 0, again.SkippedBots)
	})
}

func TestMergeQueryParams(t *testing.T) {
	tests := []struct {
		name     string
		rawQuery string
		tags     links.UTMTags
		expected map[string]string
	}{
		{
			name:     "empty",
			expected: map[string]string{},
		},
		{
			name:     "first non-empty value wins",
			rawQuery: "?a=&a=2&a=3",
			expected: map[string]string{"a": "2"},
		},
		{
			name:     "tags fill missing keys",
			rawQuery: "utm_source=x",
			tags:     links.UTMTags{Source: "y", Term: "shoes"},
			expected: map[string]string{"utm_source": "x", "utm_term": "shoes"},
		},
		{
			name:     "src is dropped",
			rawQuery: "src=qr&utm_medium=print",
			expected: map[string]string{"utm_medium": "print"},
		},
		{
			name:     "malformed query keeps tags",
			rawQuery: "%zz",
			tags:     links.UTMTags{Content: "hero"},
			expected: map[string]string{"utm_content": "hero"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, clicks.MergeQueryParams(tt.rawQuery, tt.tags))
		})
	}
}

func TestListClicks(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)

	link := testsupport.CreateTestLink(t, db, testsupport.TestOwner, "abc1234", "https://example.com")
	other := testsupport.CreateTestLink(t, db, testsupport.TestOwner, "xyz9876", "https://example.org")
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	testsupport.CreateTestClick(t, db, link, testsupport.TestClick{Timestamp: base.Add(2 * time.Hour), Visitor: "a"})
	testsupport.CreateTestClick(t, db, link, testsupport.TestClick{Timestamp: base, Visitor: "a"})
	testsupport.CreateTestClick(t, db, link, testsupport.TestClick{Timestamp: base.Add(48 * time.Hour), Visitor: "b"})
	testsupport.CreateTestClick(t, db, other, testsupport.TestClick{Timestamp: base})

	t.Run("chronological for one link", func(t *testing.T) {
		results, err := clicks.ListClicks(db, clicks.ClickFilters{LinkID: link.ID})
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.True(t, results[0].Timestamp.Equal(base))
		assert.Equal(t, 2, clicks.UniqueVisitors(results))
		assert.Len(t, clicks.Entries(results), 3)
	})

	t.Run("range", func(t *testing.T) {
		results, err := clicks.ListClicks(db, clicks.ClickFilters{
			LinkID: link.ID,
			From:   base.Add(time.Hour),
			To:     base.Add(24 * time.Hour),
		})
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("requires a filter", func(t *testing.T) {
		_, err := clicks.ListClicks(db, clicks.ClickFilters{})
		assert.Error(t, err)
	})
}

func TestClickParamsFallsBackToColumns(t *testing.T) {
	click := clicks.Click{UTMSource: "newsletter", UTMTerm: "shoes"}
	assert.Equal(t, map[string]string{
		"utm_source": "newsletter",
		"utm_term":   "shoes",
	}, click.Params())
}

func TestDeleteProcessedBefore(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)

	old := time.Now().UTC().Add(-60 * 24 * time.Hour)
	recent := time.Now().UTC()
	rows := []clicks.IngestedClick{
		{LinkID: 1, Code: "a", Processed: 1, Timestamp: old, CreatedAt: old},
		{LinkID: 1, Code: "a", Processed: 1, Timestamp: old, CreatedAt: old},
		{LinkID: 1, Code: "a", Processed: 0, Timestamp: old, CreatedAt: old},
		{LinkID: 1, Code: "a", Processed: 1, Timestamp: recent, CreatedAt: recent},
	}
	require.NoError(t, db.Create(&rows).Error)

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)

	deleted, err := clicks.DeleteProcessedBefore(db, cutoff, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = clicks.DeleteProcessedBefore(db, cutoff, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining int64
	require.NoError(t, db.Model(&clicks.IngestedClick{}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)
}
