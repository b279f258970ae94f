package user_agent

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/mileusna/useragent"
	"go.elara.ws/pcre"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Device classes reported for a user agent.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceOther   = "other"
	DeviceBot     = "bot"
)

type UserAgent struct {
	UserAgent string
	OS        string
	Browser   string
	Device    string
	Bot       bool
	BotName   string
}

//go:embed database/bots.yml
var databaseFiles embed.FS

// Bot entry structure
type BotEntry struct {
	Regex    string `yaml:"regex"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
}

// Compiled regex cache
type RegexCache struct {
	compiled map[string]*pcre.Regexp
	mutex    sync.RWMutex
}

func newRegexCache() *RegexCache {
	return &RegexCache{
		compiled: make(map[string]*pcre.Regexp),
	}
}

func (rc *RegexCache) get(pattern string) (*pcre.Regexp, error) {
	rc.mutex.RLock()
	if regex, exists := rc.compiled[pattern]; exists {
		rc.mutex.RUnlock()
		return regex, nil
	}
	rc.mutex.RUnlock()

	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	if regex, exists := rc.compiled[pattern]; exists {
		return regex, nil
	}

	regex, err := pcre.Compile(pattern)
	if err != nil {
		return nil, err
	}
	rc.compiled[pattern] = regex
	return regex, nil
}

var (
	detector *BotDetector
	once     sync.Once
)

// BotDetector matches user agents against the embedded bot database.
type BotDetector struct {
	bots       []BotEntry
	regexCache *RegexCache
}

func getDetector() *BotDetector {
	once.Do(func() {
		detector = &BotDetector{regexCache: newRegexCache()}

		data, err := databaseFiles.ReadFile("database/bots.yml")
		if err != nil {
			fmt.Printf("Error reading bots.yml: %v\n", err)
			return
		}
		if err := yaml.Unmarshal(data, &detector.bots); err != nil {
			fmt.Printf("Error parsing bots.yml: %v\n", err)
		}
	})
	return detector
}

func (d *BotDetector) match(userAgent string) *BotEntry {
	for i := range d.bots {
		regex, err := d.regexCache.get(d.bots[i].Regex)
		if err != nil {
			continue
		}
		if regex.MatchString(userAgent) {
			return &d.bots[i]
		}
	}
	return nil
}

// ParseUserAgent classifies a raw User-Agent header. Bot patterns are checked
// first; the remaining agents are parsed for browser, OS and device class.
func ParseUserAgent(userAgent string) UserAgent {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return UserAgent{OS: "Unknown", Browser: "Unknown", Device: DeviceOther}
	}

	if bot := getDetector().match(userAgent); bot != nil {
		return UserAgent{
			UserAgent: userAgent,
			OS:        "Unknown",
			Browser:   bot.Name,
			Device:    DeviceBot,
			Bot:       true,
			BotName:   bot.Name,
		}
	}

	parsed := useragent.Parse(userAgent)
	if parsed.Bot {
		return UserAgent{
			UserAgent: userAgent,
			OS:        orUnknown(parsed.OS),
			Browser:   orUnknown(parsed.Name),
			Device:    DeviceBot,
			Bot:       true,
			BotName:   parsed.Name,
		}
	}

	return UserAgent{
		UserAgent: userAgent,
		OS:        orUnknown(parsed.OS),
		Browser:   orUnknown(parsed.Name),
		Device:    deviceClass(parsed),
	}
}

// DeviceLabel renders a device class for display, e.g. "desktop" as "Desktop".
func DeviceLabel(device string) string {
	if device == "" {
		device = DeviceOther
	}
	return cases.Title(language.AmericanEnglish).String(device)
}

func deviceClass(ua useragent.UserAgent) string {
	switch {
	case ua.Tablet:
		return DeviceTablet
	case ua.Mobile:
		return DeviceMobile
	case ua.Desktop:
		return DeviceDesktop
	default:
		return DeviceOther
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
