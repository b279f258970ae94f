// Package referrers labels referrer hostnames for display.
package referrers

import "strings"

// Channel groups referrers by how the visitor reached the short link.
type Channel string

const (
	ChannelDirect Channel = "direct"
	ChannelSearch Channel = "search"
	ChannelSocial Channel = "social"
	ChannelEmail  Channel = "email"
	ChannelOther  Channel = "other"
)

type source struct {
	name    string
	channel Channel
}

var knownReferrers = map[string]source{
	"google.com":     {"Google", ChannelSearch},
	"google.co.uk":   {"Google", ChannelSearch},
	"google.de":      {"Google", ChannelSearch},
	"google.fr":      {"Google", ChannelSearch},
	"google.es":      {"Google", ChannelSearch},
	"bing.com":       {"Bing", ChannelSearch},
	"duckduckgo.com": {"DuckDuckGo", ChannelSearch},
	"yahoo.com":      {"Yahoo", ChannelSearch},
	"baidu.com":      {"Baidu", ChannelSearch},
	"yandex.ru":      {"Yandex", ChannelSearch},
	"ecosia.org":     {"Ecosia", ChannelSearch},

	"x.com":                {"X/Twitter", ChannelSocial},
	"twitter.com":          {"X/Twitter", ChannelSocial},
	"t.co":                 {"X/Twitter", ChannelSocial},
	"facebook.com":         {"Facebook", ChannelSocial},
	"fb.com":               {"Facebook", ChannelSocial},
	"instagram.com":        {"Instagram", ChannelSocial},
	"linkedin.com":         {"LinkedIn", ChannelSocial},
	"lnkd.in":              {"LinkedIn", ChannelSocial},
	"tiktok.com":           {"TikTok", ChannelSocial},
	"pinterest.com":        {"Pinterest", ChannelSocial},
	"reddit.com":           {"Reddit", ChannelSocial},
	"threads.net":          {"Threads", ChannelSocial},
	"bsky.app":             {"Bluesky", ChannelSocial},
	"youtube.com":          {"YouTube", ChannelSocial},
	"youtu.be":             {"YouTube", ChannelSocial},
	"discord.com":          {"Discord", ChannelSocial},
	"whatsapp.com":         {"WhatsApp", ChannelSocial},
	"t.me":                 {"Telegram", ChannelSocial},
	"slack.com":            {"Slack", ChannelSocial},
	"news.ycombinator.com": {"Hacker News", ChannelSocial},

	"mail.google.com":    {"Gmail", ChannelEmail},
	"outlook.live.com":   {"Outlook", ChannelEmail},
	"outlook.office.com": {"Outlook", ChannelEmail},
	"mail.yahoo.com":     {"Yahoo Mail", ChannelEmail},
	"mail.proton.me":     {"Proton Mail", ChannelEmail},
}

func lookup(hostname string) (source, bool) {
	hostname = strings.TrimPrefix(strings.ToLower(hostname), "www.")

	if s, ok := knownReferrers[hostname]; ok {
		return s, true
	}
	for domain, s := range knownReferrers {
		if strings.HasSuffix(hostname, "."+domain) {
			return s, true
		}
	}
	return source{}, false
}

// FriendlyName returns a display name for a referrer hostname. Unknown
// hostnames are returned without "www." and with the first letter capitalized.
func FriendlyName(hostname string) string {
	if hostname == "" || hostname == "direct" {
		return "Direct"
	}
	if s, ok := lookup(hostname); ok {
		return s.name
	}
	return capitalizeFirst(strings.TrimPrefix(strings.ToLower(hostname), "www."))
}

// ChannelOf classifies a referrer hostname.
func ChannelOf(hostname string) Channel {
	if hostname == "" || hostname == "direct" {
		return ChannelDirect
	}
	if s, ok := lookup(hostname); ok {
		return s.channel
	}
	return ChannelOther
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
