package links

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// Kind tells links created as plain short links apart from QR codes.
type Kind string

const (
	KindLink Kind = "link"
	KindQR   Kind = "qr"
)

var (
	ErrInvalidURL = errors.New("invalid url")
	ErrPlanLimit  = errors.New("plan limit reached")
)

// LinkNotFoundError represents an error when a short code does not resolve
type LinkNotFoundError struct {
	Code string
}

func (e *LinkNotFoundError) Error() string {
	return fmt.Sprintf("link not found for code: %s", e.Code)
}

// NewLinkNotFoundError creates a new LinkNotFoundError
func NewLinkNotFoundError(code string) *LinkNotFoundError {
	return &LinkNotFoundError{Code: code}
}

// UTMTags are appended to the destination URL on every redirect.
type UTMTags struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
	Term     string `json:"utm_term,omitempty"`
	Content  string `json:"utm_content,omitempty"`
}

// Values returns the non-empty tags keyed by their utm_* query name.
func (t UTMTags) Values() map[string]string {
	values := make(map[string]string, 5)
	for key, value := range map[string]string{
		"utm_source":   t.Source,
		"utm_medium":   t.Medium,
		"utm_campaign": t.Campaign,
		"utm_term":     t.Term,
		"utm_content":  t.Content,
	} {
		if value = strings.TrimSpace(value); value != "" {
			values[key] = value
		}
	}
	return values
}

// Link is a short code pointing at an original URL
type Link struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID     string    `gorm:"index;not null" json:"owner_id"`
	Code        string    `gorm:"uniqueIndex;not null" json:"code"`
	OriginalURL string    `gorm:"not null" json:"original_url"`
	Title       string    `json:"title"`
	Kind        Kind      `gorm:"index;not null;default:'link'" json:"kind"`
	CampaignID  *uint     `gorm:"index" json:"campaign_id"`
	UTM         UTMTags   `gorm:"embedded;embeddedPrefix:utm_" json:"utm"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateLinkInput defines the input required to create a link or QR code.
type CreateLinkInput struct {
	OwnerID string
	URL     string
	Title   string
	UTM     UTMTags
	Kind    Kind
}

// CreateLink validates the destination, enforces the owner's plan limit and
// stores the link under a fresh short code. maxLinks <= 0 disables the limit.
func CreateLink(dbManager cartridge.DBManager, logger *slog.Logger, input CreateLinkInput, maxLinks int) (*Link, error) {
	originalURL, err := ValidateOriginalURL(input.URL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.OwnerID) == "" {
		return nil, fmt.Errorf("owner is required")
	}

	kind := input.Kind
	if kind != KindQR {
		kind = KindLink
	}

	link := &Link{
		OwnerID:     input.OwnerID,
		OriginalURL: originalURL,
		Title:       strings.TrimSpace(input.Title),
		Kind:        kind,
		UTM:         input.UTM,
	}

	db := dbManager.GetConnection()
	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		if maxLinks > 0 {
			var count int64
			if err := tx.Model(&Link{}).Where("owner_id = ?", input.OwnerID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to count links: %w", err)
			}
			if count >= int64(maxLinks) {
				return ErrPlanLimit
			}
		}

		code, err := uniqueCode(tx)
		if err != nil {
			return err
		}
		link.Code = code

		return tx.Create(link).Error
	})
	if err != nil {
		if !errors.Is(err, ErrPlanLimit) {
			logger.Error("Failed to create link", slog.String("owner", input.OwnerID), slog.Any("error", err))
		}
		return nil, err
	}

	logger.Info("Link created",
		slog.String("code", link.Code),
		slog.String("kind", string(link.Kind)),
		slog.String("owner", link.OwnerID))
	return link, nil
}

func uniqueCode(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := GenerateCode(CodeLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate short code: %w", err)
		}

		var count int64
		if err := tx.Model(&Link{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check short code: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to find a free short code after %d attempts", maxCodeAttempts)
}

// GetLinkByCode retrieves a link by its short code.
func GetLinkByCode(db *gorm.DB, code string) (*Link, error) {
	var link Link
	if err := db.Where("code = ?", code).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewLinkNotFoundError(code)
		}
		return nil, fmt.Errorf("unexpected error querying link: %w", err)
	}
	return &link, nil
}

// GetOwnedLink retrieves a link by code, treating links of other owners as missing.
func GetOwnedLink(db *gorm.DB, ownerID, code string) (*Link, error) {
	link, err := GetLinkByCode(db, code)
	if err != nil {
		return nil, err
	}
	if link.OwnerID != ownerID {
		return nil, NewLinkNotFoundError(code)
	}
	return link, nil
}

// SearchLinks returns the owner's links whose code, title or URL contains
// query, newest first. An empty query lists the most recent links.
func SearchLinks(db *gorm.DB, ownerID, query string, limit int) ([]Link, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	scope := db.Where("owner_id = ?", ownerID)
	if q := strings.TrimSpace(query); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		scope = scope.Where(
			`LOWER(code) LIKE ? ESCAPE '\' OR LOWER(title) LIKE ? ESCAPE '\' OR LOWER(original_url) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern,
		)
	}

	var results []Link
	if err := scope.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to search links: %w", err)
	}
	return results, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ListCampaignLinks returns the links attached to a campaign.
func ListCampaignLinks(db *gorm.DB, campaignID uint) ([]Link, error) {
	var results []Link
	if err := db.Where("campaign_id = ?", campaignID).Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to list campaign links: %w", err)
	}
	return results, nil
}

// DestinationURL is the redirect target: the original URL with the link's UTM
// tags appended. Tags already present in the original query win.
func (l *Link) DestinationURL() string {
	tags := l.UTM.Values()
	if len(tags) == 0 {
		return l.OriginalURL
	}

	u, err := url.Parse(l.OriginalURL)
	if err != nil {
		return l.OriginalURL
	}

	existing := u.Query()
	additions := url.Values{}
	for key, value := range tags {
		if !existing.Has(key) {
			additions.Set(key, value)
		}
	}
	if len(additions) == 0 {
		return l.OriginalURL
	}

	if u.RawQuery != "" {
		u.RawQuery += "&"
	}
	u.RawQuery += additions.Encode()
	return u.String()
}

// ShortURL is the public URL of the link under baseURL.
func (l *Link) ShortURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/" + l.Code
}

// ScanURL is the URL encoded into a QR code; the src marker lets redirects
// record the click as a scan.
func (l *Link) ScanURL(baseURL string) string {
	return l.ShortURL(baseURL) + "?src=qr"
}
