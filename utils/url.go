package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"teraplay/internal"
)

// URLInfo contains parsed information from a TeraBox share link
type URLInfo struct {
	OriginalURL string
	Domain      string
	Surl        string
}

// URLValidator checks share links against a list of hosting domains.
// Subdomains of an allowed domain are accepted.
type URLValidator struct {
	allowedDomains []string
	surlPatterns   []*regexp.Regexp
}

// NewURLValidator creates a validator for the given domains
func NewURLValidator(allowedDomains []string) *URLValidator {
	domains := make([]string, 0, len(allowedDomains))
	for _, domain := range allowedDomains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			domains = append(domains, domain)
		}
	}

	return &URLValidator{
		allowedDomains: domains,
		surlPatterns: []*regexp.Regexp{
			// https://terabox.com/s/1AbC123
			regexp.MustCompile(`/s/([a-zA-Z0-9_-]+)`),
			// https://terabox.com/sharing/link?surl=AbC123
			regexp.MustCompile(`[?&]surl=([a-zA-Z0-9_-]+)`),
		},
	}
}

// ValidateURL rejects links that are not http(s) or not on an allowed domain.
// Failures are InputErrors so they surface to the user as a 400.
func (v *URLValidator) ValidateURL(rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return internal.NewInputError(internal.MsgURLRequired)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return internal.NewInputError("Invalid TeraBox URL").WithCause(err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return internal.NewInputError("Invalid TeraBox URL").
			WithContext("scheme", parsedURL.Scheme)
	}

	host := strings.ToLower(parsedURL.Hostname())
	if !v.isAllowedHost(host) {
		return internal.NewInputError("Unsupported link, only TeraBox share links are accepted").
			WithContext("host", host)
	}

	return nil
}

func (v *URLValidator) isAllowedHost(host string) bool {
	for _, domain := range v.allowedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// ParseURL validates a link and extracts its share identifier
func (v *URLValidator) ParseURL(rawURL string) (*URLInfo, error) {
	if err := v.ValidateURL(rawURL); err != nil {
		return nil, err
	}

	parsedURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, internal.NewInputError("Invalid TeraBox URL").WithCause(err)
	}

	info := &URLInfo{
		OriginalURL: rawURL,
		Domain:      strings.ToLower(parsedURL.Hostname()),
	}

	for _, pattern := range v.surlPatterns {
		if matches := pattern.FindStringSubmatch(parsedURL.RequestURI()); len(matches) > 1 {
			info.Surl = matches[1]
			break
		}
	}

	return info, nil
}

// String returns a string representation of the URLInfo
func (urlInfo *URLInfo) String() string {
	return fmt.Sprintf("URLInfo{Domain: %s, Surl: %s}", urlInfo.Domain, urlInfo.Surl)
}

// EncodeURIComponent escapes s for use as a single query value, leaving the
// same unreserved set as the browser function of that name.
func EncodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	return strings.NewReplacer(
		"+", "%20",
		"%21", "!",
		"%27", "'",
		"%28", "(",
		"%29", ")",
		"%2A", "*",
	).Replace(escaped)
}
