package fetch

import (
	"net/url"
	"strings"
)

// Platform is a recognized applicant tracking system hosting job ads.
type Platform string

const (
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformWorkday    Platform = "workday"
	PlatformUnknown    Platform = "unknown"
)

var platformHosts = map[Platform][]string{
	PlatformGreenhouse: {"greenhouse.io"},
	PlatformLever:      {"lever.co"},
	PlatformWorkday:    {"workday.com", "myworkdayjobs.com"},
}

// DetectPlatform identifies the job board platform from the ad URL's host.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}
	host := strings.ToLower(parsed.Host)
	for platform, suffixes := range platformHosts {
		for _, suffix := range suffixes {
			if strings.Contains(host, suffix) {
				return platform
			}
		}
	}
	return PlatformUnknown
}

// ContentSelectors returns the selectors that locate the posting body on a
// given platform, in preference order.
func ContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformGreenhouse:
		return []string{".job__description.body", ".job__description", "#content", ".job-post-container"}
	case PlatformLever:
		return []string{".posting-page", ".posting-description", ".content"}
	case PlatformWorkday:
		return []string{"[data-automation-id='jobDescription']", ".job-description"}
	default:
		return []string{
			".job-description", ".job-content", "#job-description",
			".posting-content", ".job-details", "[data-testid='job-description']",
			"main", "article", ".content", "#content",
		}
	}
}

// NoiseSelectors returns selectors for elements that pollute posting text:
// application forms, EEO boilerplate and share widgets.
func NoiseSelectors(platform Platform) []string {
	common := []string{
		"form", "#application-form", ".application-form", ".apply-button-container",
		".voluntary-disclosure", ".eeo-statement", ".legal-disclosure", ".self-identification",
		".social-share", ".share-buttons",
		".cookie-consent", ".gdpr-notice",
	}
	switch platform {
	case PlatformGreenhouse:
		return append(common, ".application--wrapper", ".voluntary-self-id", ".post-apply")
	case PlatformLever:
		return append(common, ".apply-section", ".posting-apply")
	case PlatformWorkday:
		return append(common, "[data-automation-id='applyButton']", ".application-section")
	default:
		return common
	}
}
