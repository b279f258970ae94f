package clicks

import "time"

// Source tells clicks on the short URL apart from QR code scans.
type Source string

const (
	SourceLink Source = "link"
	SourceQR   Source = "qr"
)

// scanMarker is the query parameter QR codes carry on their encoded URL.
const scanMarker = "src"

// IngestedClick is a raw redirect hit stored before enrichment.
type IngestedClick struct {
	ID          uint   `gorm:"primaryKey"`
	LinkID      uint   `gorm:"index"`
	OwnerID     string `gorm:"index"`
	Code        string `gorm:"index"`
	RawQuery    string
	Referrer    string
	UserAgent   string
	VisitorHash string `gorm:"index"`
	CountryCode string
	Region      string
	City        string
	Source      Source
	Timestamp   time.Time `gorm:"index"`
	CreatedAt   time.Time `gorm:"index"`
	Processed   int       `gorm:"index"`
}

// Click is an enriched, immutable click on a link.
type Click struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	LinkID      uint      `gorm:"index:idx_click_link_timestamp;not null"`
	CampaignID  *uint     `gorm:"index:idx_click_campaign_timestamp"`
	OwnerID     string    `gorm:"index;not null"`
	Timestamp   time.Time `gorm:"index:idx_click_link_timestamp;index:idx_click_campaign_timestamp;not null"`
	Referrer    string
	Country     string `gorm:"index"`
	Region      string
	City        string
	DeviceType  string `gorm:"index"`
	Source      Source `gorm:"not null;default:'link'"`
	UTMSource   string `gorm:"column:utm_source;index"`
	UTMMedium   string `gorm:"column:utm_medium"`
	UTMCampaign string `gorm:"column:utm_campaign"`
	UTMTerm     string `gorm:"column:utm_term"`
	UTMContent  string `gorm:"column:utm_content"`
	QueryParams string `gorm:"type:text"`
	VisitorHash string `gorm:"index;size:64"`
	CreatedAt   time.Time
}
