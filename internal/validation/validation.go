// Package validation checks and sanitizes user supplied text before it is persisted.
//
// Validators never fail with an error value. Problems are reported through
// Result.Errors and a sanitized value is always produced so callers can
// render a cleaned preview.
package validation

import (
	"fmt"
	"html"
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	ArgumentMinLength          = 10
	ArgumentMaxLength          = 2000
	TitleMinLength             = 5
	TitleMaxLength             = 200
	DescriptionMaxLength       = 2000
	UsernameMinLength          = 2
	UsernameMaxLength          = 50
	SourceDescriptionMinLength = 3
	SourceDescriptionMaxLength = 500
)

type Result struct {
	IsValid        bool     `json:"isValid"`
	SanitizedValue string   `json:"sanitizedValue"`
	Errors         []string `json:"errors,omitempty"`
}

func (r *Result) fail(msg string) {
	r.IsValid = false
	r.Errors = append(r.Errors, msg)
}

var (
	suspiciousPattern = regexp.MustCompile(`(?i)<script|javascript:|on\w+\s*=|data:text/html|vbscript:`)
	usernamePattern   = regexp.MustCompile(`^[a-zA-Z0-9äöüÄÖÜßéèêàáçñ _.\-]+$`)

	// StrictPolicy keeps text content only; safe for concurrent use.
	strictPolicy = bluemonday.StrictPolicy()
)

const maxSanitizePasses = 8

// Sanitize strips all markup and returns the text content. Entities are
// decoded after stripping, so the pass repeats until the value is stable;
// otherwise encoded markup would come back to life.
func Sanitize(s string) string {
	cur := s
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(strictPolicy.Sanitize(cur))
		if next == cur {
			return next
		}
		cur = next
	}
	return strictPolicy.Sanitize(cur)
}

// decodeEntities unescapes until no entity is left, for pattern checks only.
func decodeEntities(s string) string {
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

// ContainsSuspiciousContent reports script-like sequences.
func ContainsSuspiciousContent(s string) bool {
	return suspiciousPattern.MatchString(s)
}

func ValidateArgument(text string) Result {
	return validateText(text, "Argument", ArgumentMinLength, ArgumentMaxLength, true)
}

func ValidateTitle(title string) Result {
	return validateText(title, "Title", TitleMinLength, TitleMaxLength, true)
}

// ValidateDescription accepts an empty description.
func ValidateDescription(description string) Result {
	return validateText(description, "Description", 0, DescriptionMaxLength, false)
}

// ValidateSourceDescription checks the label that accompanies a source URL.
func ValidateSourceDescription(description string) Result {
	return validateText(description, "Source description", SourceDescriptionMinLength, SourceDescriptionMaxLength, true)
}

// validateText applies the lower bounds to the text that will be stored and
// the upper bound to the raw input.
func validateText(raw, field string, minLen, maxLen int, required bool) Result {
	trimmed := strings.TrimSpace(raw)
	res := Result{IsValid: true, SanitizedValue: strings.TrimSpace(Sanitize(trimmed))}

	n := utf8.RuneCountInString(res.SanitizedValue)
	switch {
	case n == 0 && required:
		res.fail(fmt.Sprintf("%s is required", field))
	case n > 0 && n < minLen:
		res.fail(fmt.Sprintf("%s must be at least %d characters long", field, minLen))
	case utf8.RuneCountInString(trimmed) > maxLen:
		res.fail(fmt.Sprintf("%s must not exceed %d characters", field, maxLen))
	}
	if ContainsSuspiciousContent(trimmed) ||
		ContainsSuspiciousContent(decodeEntities(trimmed)) ||
		ContainsSuspiciousContent(res.SanitizedValue) {
		res.fail(fmt.Sprintf("%s contains disallowed content", field))
	}
	return res
}

func ValidateUsername(username string) Result {
	trimmed := strings.TrimSpace(username)
	res := Result{IsValid: true, SanitizedValue: Sanitize(trimmed)}

	n := utf8.RuneCountInString(trimmed)
	if n < UsernameMinLength || n > UsernameMaxLength {
		res.fail(fmt.Sprintf("Username must be between %d and %d characters long", UsernameMinLength, UsernameMaxLength))
	}
	if n > 0 && !usernamePattern.MatchString(trimmed) {
		res.fail("Username may only contain letters, digits, spaces, hyphens, underscores and periods")
	}
	return res
}

// ValidateSourceURL accepts absolute http and https URLs. In production mode
// loopback and private-network hosts are rejected as well.
func ValidateSourceURL(raw string, production bool) Result {
	trimmed := strings.TrimSpace(raw)
	res := Result{IsValid: true, SanitizedValue: trimmed}

	if trimmed == "" {
		res.fail("Source URL is required")
		return res
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" {
		res.fail("Source URL is not a valid URL")
		return res
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		res.fail(fmt.Sprintf("URL scheme %q is not allowed, only http and https are accepted", scheme))
		return res
	}
	host := u.Hostname()
	if host == "" {
		res.fail("Source URL is not a valid URL")
		return res
	}
	if production && isPrivateHost(host) {
		res.fail("Source URL must not point to a local or private network address")
	}
	res.SanitizedValue = u.String()
	return res
}

func isPrivateHost(host string) bool {
	host = strings.ToLower(host)
	if host == "localhost" || host == "0.0.0.0" {
		return true
	}
	for _, prefix := range []string{"127.", "10.", "192.168."} {
		if strings.HasPrefix(host, prefix) {
			return true
		}
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified()
	}
	return false
}
