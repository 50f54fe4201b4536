// Package classifier derives device, browser, operating system and traffic
// source labels from raw request metadata. Every function is pure and
// deterministic: classification tables are ordered lists evaluated
// first-match-wins, and malformed input degrades to a defined default
// instead of returning an error.
//
// Labels are computed once at ingestion and stored on the event. Changing a
// table later does not reclassify historical events; that denormalization is
// intentional.
package classifier

import (
	"net/url"
	"strings"
)

// DeviceType is the coarse device category derived from a user agent.
type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
	DeviceDesktop DeviceType = "desktop"
	DeviceUnknown DeviceType = "unknown"
)

// Default labels returned when no table entry matches.
const (
	BrowserUnknown = "Unknown"
	BrowserOther   = "Other"
	OSUnknown      = "Unknown"
	OSOther        = "Other"
	SourceDirect   = "direct"
	SourceOther    = "other"
	IPUnknown      = "unknown"
)

// tabletTokens are checked before mobile tokens: tablet user agents commonly
// contain mobile tokens too, so tablet takes precedence.
var tabletTokens = []string{"tablet", "ipad", "playbook", "silk"}

var mobileTokens = []string{
	"mobi", "mobile", "android", "iphone", "ipod", "iemobile",
	"blackberry", "kindle", "webos", "opera mini", "opera mobi",
}

// Device classifies the user agent into a device category. Empty input
// yields DeviceUnknown. Tablet signatures win over mobile signatures, and
// anything that matches neither is considered desktop.
func Device(userAgent string) DeviceType {
	if userAgent == "" {
		return DeviceUnknown
	}

	ua := strings.ToLower(userAgent)

	for _, token := range tabletTokens {
		if strings.Contains(ua, token) {
			return DeviceTablet
		}
	}
	// Android without a mobile token is a tablet
	if strings.Contains(ua, "android") && !strings.Contains(ua, "mobi") {
		return DeviceTablet
	}

	for _, token := range mobileTokens {
		if strings.Contains(ua, token) {
			return DeviceMobile
		}
	}

	return DeviceDesktop
}

// browserRule pairs a user agent token with the label it maps to.
type browserRule struct {
	tokens []string
	label  string
}

// browserRules are evaluated in order and the order matters: Chrome user
// agents contain "Safari", Edge user agents contain both "Chrome" and
// "Safari", so the more specific token must come first.
var browserRules = []browserRule{
	{tokens: []string{"Edg"}, label: "Edge"},
	{tokens: []string{"Chrome"}, label: "Chrome"},
	{tokens: []string{"Safari"}, label: "Safari"},
	{tokens: []string{"Firefox"}, label: "Firefox"},
	{tokens: []string{"MSIE", "Trident"}, label: "Internet Explorer"},
	{tokens: []string{"Opera"}, label: "Opera"},
}

// Browser returns the browser label for a user agent. Empty input yields
// BrowserUnknown; no table match yields BrowserOther.
func Browser(userAgent string) string {
	if userAgent == "" {
		return BrowserUnknown
	}

	for _, rule := range browserRules {
		for _, token := range rule.tokens {
			if strings.Contains(userAgent, token) {
				return rule.label
			}
		}
	}

	return BrowserOther
}

var osRules = []browserRule{
	{tokens: []string{"Win"}, label: "Windows"},
	{tokens: []string{"Mac"}, label: "MacOS"},
	{tokens: []string{"Linux"}, label: "Linux"},
	{tokens: []string{"Android"}, label: "Android"},
	{tokens: []string{"iOS", "iPhone", "iPad"}, label: "iOS"},
}

// OS returns the operating system label for a user agent. Empty input yields
// OSUnknown; no table match yields OSOther.
func OS(userAgent string) string {
	if userAgent == "" {
		return OSUnknown
	}

	for _, rule := range osRules {
		for _, token := range rule.tokens {
			if strings.Contains(userAgent, token) {
				return rule.label
			}
		}
	}

	return OSOther
}

// sourceRule maps referrer domain fragments to a traffic source category.
type sourceRule struct {
	domains []string
	label   string
}

// sourceRules are evaluated in order: social platforms, then search engines,
// then misc. Matching is lowercase substring membership, so subdomains like
// m.facebook.com and l.instagram.com match their parent entries.
var sourceRules = []sourceRule{
	// Social
	{domains: []string{"facebook.com", "fb.com"}, label: "facebook"},
	{domains: []string{"instagram.com"}, label: "instagram"},
	{domains: []string{"twitter.com", "t.co"}, label: "twitter"},
	{domains: []string{"linkedin.com", "lnkd.in"}, label: "linkedin"},
	{domains: []string{"tiktok.com"}, label: "tiktok"},
	{domains: []string{"youtube.com", "youtu.be"}, label: "youtube"},
	{domains: []string{"pinterest.com"}, label: "pinterest"},
	{domains: []string{"reddit.com"}, label: "reddit"},
	{domains: []string{"snapchat.com"}, label: "snapchat"},
	{domains: []string{"whatsapp.com"}, label: "whatsapp"},
	{domains: []string{"telegram.org", "t.me"}, label: "telegram"},

	// Search engines
	{domains: []string{"google."}, label: "google"},
	{domains: []string{"bing.com"}, label: "bing"},
	{domains: []string{"yahoo.com"}, label: "yahoo"},
	{domains: []string{"duckduckgo.com"}, label: "duckduckgo"},
	{domains: []string{"baidu.com"}, label: "baidu"},

	// Misc
	{domains: []string{"github.com"}, label: "github"},
}

// ReferrerSource categorizes a raw referrer URL. An empty referrer is direct
// traffic; an unrecognized one is SourceOther.
func ReferrerSource(referrerURL string) string {
	if referrerURL == "" {
		return SourceDirect
	}

	ref := strings.ToLower(referrerURL)

	for _, rule := range sourceRules {
		for _, domain := range rule.domains {
			if strings.Contains(ref, domain) {
				return rule.label
			}
		}
	}

	return SourceOther
}

// UTM holds the campaign parameters extracted from a page URL. A field is
// empty when the corresponding utm_* parameter was absent or empty.
type UTM struct {
	Source   string
	Medium   string
	Campaign string
	Content  string
	Term     string
}

// HasCampaign reports whether the event carries a campaign tag.
func (u UTM) HasCampaign() bool {
	return u.Campaign != ""
}

// UTMParams parses the utm_* query parameters from a page URL. Malformed
// URLs fail soft: the zero value is returned and no error propagates.
func UTMParams(pageURL string) UTM {
	if pageURL == "" {
		return UTM{}
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return UTM{}
	}

	query := parsed.Query()
	return UTM{
		Source:   query.Get("utm_source"),
		Medium:   query.Get("utm_medium"),
		Campaign: query.Get("utm_campaign"),
		Content:  query.Get("utm_content"),
		Term:     query.Get("utm_term"),
	}
}

// ClientIP resolves the client address from proxy headers, preferring the
// first entry of the forwarded-for header, then the real-ip header, then the
// raw peer address. This is a trust assumption, not a security control: the
// headers are attacker-controllable unless the deployment strips them at the
// edge.
func ClientIP(forwardedFor, realIP, remoteAddr string) string {
	if forwardedFor != "" {
		first := strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
		if first != "" {
			return first
		}
	}

	if realIP != "" {
		return strings.TrimSpace(realIP)
	}

	if remoteAddr != "" {
		return remoteAddr
	}

	return IPUnknown
}
