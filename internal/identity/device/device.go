// Package device turns a User-Agent header into a label an administrator can read.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent returns "Browser on OS" (e.g. "Chrome on macOS").
// Mobile agents use the platform instead of the OS string.
func ParseUserAgent(userAgentString string) string {
	if strings.TrimSpace(userAgentString) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(userAgentString)
	browser, _ := ua.Browser()
	os := ua.OS()

	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return strings.TrimSpace(browser + " on " + platform)
		}
	}

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
