package audit

import (
	"strings"

	"github.com/mssola/useragent"
)

// DeviceLabel renders a User-Agent as "Browser on OS" for audit rows.
func DeviceLabel(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "Unknown Device"
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := ua.OS()
	if platform := ua.Platform(); ua.Mobile() && platform != "" && !strings.Contains(os, platform) {
		os = strings.TrimSpace(platform + " " + os)
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser) + " on " + strings.TrimSpace(os)
}
