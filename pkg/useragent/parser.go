package useragent

import (
	"fmt"
	"strings"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

// Parser wraps the ua-parser client used to enrich click records.
type Parser struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

// DeviceInfo is the parsed slice of a User-Agent we persist alongside clicks.
type DeviceInfo struct {
	DeviceType string // mobile, tablet, desktop, bot, unknown
	Browser    string
	OS         string
}

// New creates a parser from the regex set bundled with uap-go.
func New(log *zap.Logger) (*Parser, error) {
	parser := uaparser.NewFromSaved()
	if parser == nil {
		return nil, fmt.Errorf("failed to initialize User-Agent parser")
	}

	log.Info("User-Agent parser initialized")

	return &Parser{parser: parser, log: log}, nil
}

// Parse extracts device type, browser and OS from a raw User-Agent string.
func (p *Parser) Parse(userAgent string) DeviceInfo {
	if userAgent == "" {
		return DeviceInfo{DeviceType: "unknown", Browser: "unknown", OS: "unknown"}
	}

	client := p.parser.Parse(userAgent)

	info := DeviceInfo{
		Browser: orUnknown(client.UserAgent.Family),
		OS:      orUnknown(client.Os.Family),
	}
	info.DeviceType = deviceType(client, userAgent)

	return info
}

func deviceType(client *uaparser.Client, userAgent string) string {
	if isBot(client, userAgent) {
		return "bot"
	}

	device := strings.ToLower(client.Device.Family)
	uaLower := strings.ToLower(userAgent)

	switch {
	case strings.Contains(device, "ipad") || strings.Contains(uaLower, "tablet") || strings.Contains(uaLower, "kindle"):
		return "tablet"
	case strings.Contains(device, "iphone") || strings.Contains(device, "android") ||
		strings.Contains(uaLower, "mobile") || strings.Contains(uaLower, "android"):
		return "mobile"
	default:
		return "desktop"
	}
}

func isBot(client *uaparser.Client, userAgent string) bool {
	if strings.EqualFold(client.Device.Family, "spider") {
		return true
	}
	uaLower := strings.ToLower(userAgent)
	for _, marker := range []string{"bot", "crawler", "spider", "curl", "wget", "monitor"} {
		if strings.Contains(uaLower, marker) {
			return true
		}
	}
	return false
}

func orUnknown(s string) string {
	if s == "" || s == "Other" {
		return "unknown"
	}
	return s
}
