package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"time"

	"github.com/karloscodes/cartridge"

	"shortn/internal/campaigns"
	"shortn/internal/clicks"
	"shortn/internal/links"
)

// DefaultOwner is the owner sample data is created for.
const DefaultOwner = "demo"

// Seeder fills a database with sample links, a campaign and clicks on them.
type Seeder struct {
	DBManager  cartridge.DBManager
	Logger     *slog.Logger
	ClickCount int
	OwnerID    string
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, clickCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:  dbManager,
		Logger:     logger,
		ClickCount: clickCount,
		OwnerID:    DefaultOwner,
	}
}

type sampleLink struct {
	url      string
	title    string
	kind     links.Kind
	utm      links.UTMTags
	campaign bool
}

var sampleLinks = []sampleLink{
	{url: "https://example.com/spring-sale", title: "Spring sale landing", utm: links.UTMTags{Campaign: "spring_sale"}, campaign: true},
	{url: "https://example.com/pricing", title: "Pricing", utm: links.UTMTags{Source: "newsletter", Medium: "email"}, campaign: true},
	{url: "https://example.com/menu", title: "Store window QR", kind: links.KindQR, campaign: true},
	{url: "https://example.com/blog/launch", title: "Launch post"},
	{url: "https://docs.example.com/getting-started", title: "Docs"},
}

// Run seeds the sample campaign and links, generates clicks and processes them.
func (s *Seeder) Run(ctx context.Context) error {
	start := time.Now()
	s.Logger.Info("Seeding sample data...", slog.String("owner", s.OwnerID), slog.Int("clickCount", s.ClickCount))

	campaign, err := s.seedCampaign()
	if err != nil {
		return err
	}

	created, err := s.seedLinks(campaign)
	if err != nil {
		return err
	}

	if err := s.generateClicks(ctx, created); err != nil {
		return fmt.Errorf("failed to generate clicks: %w", err)
	}

	s.Logger.Info("Processing generated clicks...")
	if _, err := clicks.ProcessUnprocessedClicks(s.DBManager, s.Logger, 500); err != nil {
		return fmt.Errorf("failed to process clicks: %w", err)
	}

	s.Logger.Info("Seeding completed successfully", slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *Seeder) seedCampaign() (*campaigns.Campaign, error) {
	campaign, err := campaigns.CreateCampaign(s.DBManager, s.Logger, campaigns.CreateCampaignInput{
		OwnerID:     s.OwnerID,
		Name:        fmt.Sprintf("Spring launch %s", time.Now().Format("2006-01-02 15:04:05")),
		Description: "Sample campaign",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return campaign, nil
}

func (s *Seeder) seedLinks(campaign *campaigns.Campaign) ([]*links.Link, error) {
	created := make([]*links.Link, 0, len(sampleLinks))
	for _, sample := range sampleLinks {
		link, err := links.CreateLink(s.DBManager, s.Logger, links.CreateLinkInput{
			OwnerID: s.OwnerID,
			URL:     sample.url,
			Title:   sample.title,
			UTM:     sample.utm,
			Kind:    sample.kind,
		}, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to create link %s: %w", sample.url, err)
		}

		if sample.campaign {
			link, err = campaigns.AddLinkToCampaign(s.DBManager, s.Logger, s.OwnerID, campaign.ID, link.Code)
			if err != nil {
				return nil, fmt.Errorf("failed to add link to campaign: %w", err)
			}
		}
		created = append(created, link)
	}
	return created, nil
}

// generateClicks records clicks spread over the last 30 days, the way the
// redirect handler would.
func (s *Seeder) generateClicks(ctx context.Context, targets []*links.Link) error {
	ipPool := generateIPPool(100)
	userAgents := getUserAgents()
	referrers := getReferrers()

	for i := 0; i < s.ClickCount; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		link := targets[rand.IntN(len(targets))]
		rawQuery := randomQuery()
		if link.Kind == links.KindQR {
			rawQuery = "src=qr"
		}

		err := clicks.CollectClick(s.DBManager, s.Logger, &clicks.CollectClickInput{
			Link:      link,
			IPAddress: ipPool[rand.IntN(len(ipPool))],
			UserAgent: userAgents[rand.IntN(len(userAgents))],
			Referrer:  referrers[rand.IntN(len(referrers))],
			RawQuery:  rawQuery,
			Timestamp: time.Now().UTC().Add(-time.Duration(rand.IntN(30*24*60*60)) * time.Second),
		})
		if err != nil {
			return err
		}

		if (i+1)%1000 == 0 {
			s.Logger.Info("Generated clicks", slog.Int("count", i+1))
		}
	}
	return nil
}

// generateIPPool creates a pool of unique IPv4 addresses
func generateIPPool(count int) []string {
	ipPool := make(map[string]bool)
	var ips []string
	for len(ips) < count {
		ip := fmt.Sprintf("%d.%d.%d.%d", rand.IntN(223)+1, rand.IntN(256), rand.IntN(256), rand.IntN(256))
		if !ipPool[ip] {
			ipPool[ip] = true
			ips = append(ips, ip)
		}
	}
	return ips
}

// getUserAgents returns a list of common user agent strings
func getUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Safari/605.1.15",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 16_1_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Mobile/15E148 Safari/605.1",
		"Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Mobile Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
		"Mozilla/5.0 (iPad; CPU OS 16_1_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Mobile/15E148 Safari/605.1",
		"Slackbot-LinkExpanding 1.0 (+https://api.slack.com/robots)",
		"curl/7.81.0",
	}
}

// getReferrers returns a list of common referrers
func getReferrers() []string {
	return []string{
		"", // Direct visit
		"https://www.google.com/",
		"https://t.co/abc",
		"https://www.linkedin.com/feed/",
		"https://news.ycombinator.com/item?id=1",
		"https://mail.google.com/",
		"https://some-other-website.com/blog/post",
	}
}

// randomQuery returns UTM parameters for roughly a third of the clicks.
func randomQuery() string {
	if rand.IntN(3) != 0 {
		return ""
	}

	params := url.Values{}
	utms := []struct {
		key   string
		value []string
	}{
		{"utm_source", []string{"google", "facebook", "newsletter", "twitter", "linkedin"}},
		{"utm_medium", []string{"cpc", "social", "email", "organic", ""}},
		{"utm_term", []string{"running_shoes", "trail_shoes", ""}},
		{"utm_content", []string{"sidebar_ad", "header_link", "footer_banner", ""}},
	}

	for _, utm := range utms {
		if value := utm.value[rand.IntN(len(utm.value))]; value != "" {
			params.Set(utm.key, value)
		}
	}
	return params.Encode()
}
