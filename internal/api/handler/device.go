package handler

import "strings"

// deviceNameFromUA derives a short display name, "Chrome on Windows", from a
// raw User-Agent. Best effort only; the raw string is stored alongside it.
func deviceNameFromUA(ua string) string {
	if ua == "" {
		return "Unknown device"
	}

	browser := browserName(ua)
	os := osName(ua)

	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case os != "":
		return os
	default:
		return "Unknown device"
	}
}

// Order matters: Edge and Opera embed "Chrome", Chrome embeds "Safari".
func browserName(ua string) string {
	switch {
	case strings.Contains(ua, "Edg/"), strings.Contains(ua, "Edge/"):
		return "Edge"
	case strings.Contains(ua, "OPR/"), strings.Contains(ua, "Opera"):
		return "Opera"
	case strings.Contains(ua, "Chrome/"):
		return "Chrome"
	case strings.Contains(ua, "Firefox/"):
		return "Firefox"
	case strings.Contains(ua, "Safari/"):
		return "Safari"
	}
	return ""
}

// Android UAs also contain "Linux"; iPads identify as "iPad", not "iPhone".
func osName(ua string) string {
	switch {
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		return "iOS"
	case strings.Contains(ua, "Mac OS"):
		return "macOS"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	}
	return ""
}
