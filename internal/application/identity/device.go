package identity

import (
	"strings"

	"github.com/mileusna/useragent"
)

// DescribeDevice turns a User-Agent header into a short label such as
// "Chrome on macOS" or "Safari on iPhone"
func DescribeDevice(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	ua := useragent.Parse(header)
	if ua.Bot {
		return "Bot " + ua.Name
	}

	browser := ua.Name
	if browser == "" {
		browser = "Unknown browser"
	}

	var where string
	switch {
	case ua.Mobile || ua.Tablet:
		where = ua.Device
		if where == "" {
			where = ua.OS
		}
	default:
		where = ua.OS
	}
	if where == "" {
		return browser
	}
	return browser + " on " + where
}
