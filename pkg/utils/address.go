package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/wagateway/pkg/constant"
)

var (
	nonDigitRe       = regexp.MustCompile(`[^\d]`)
	repeatedSlashRe  = regexp.MustCompile(`/{2,}`)
	namePlaceholder  = regexp.MustCompile(`(?i)\{\{name\}\}`)
	phonePlaceholder = regexp.MustCompile(`(?i)\{\{phone\}\}`)
)

// NormalizePhone turns a user-supplied phone number into the canonical
// addressable identifier of the chat network. Digits are kept, leading zeros
// are replaced with the default country calling code when no national prefix
// is present, and the person suffix is appended. Normalizing an already
// normalized address is a no-op.
func NormalizePhone(raw string, countryCode string) string {
	if strings.HasSuffix(raw, constant.PERSON_SUFFIX) || strings.HasSuffix(raw, constant.GROUP_SUFFIX) {
		return raw
	}

	digits := nonDigitRe.ReplaceAllString(raw, "")
	if !strings.HasPrefix(digits, countryCode) {
		digits = strings.TrimLeft(digits, "0")
		digits = countryCode + digits
	}

	return digits + constant.PERSON_SUFFIX
}

// NormalizeWebhookURL collapses repeated path separators and defaults to the
// plain HTTP scheme when none is given. A URL that is still malformed after
// normalization is a configuration error.
func NormalizeWebhookURL(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", fmt.Errorf("empty webhook url")
	}

	scheme := ""
	rest := cleaned
	if idx := strings.Index(cleaned, "://"); idx != -1 {
		scheme = cleaned[:idx]
		rest = cleaned[idx+len("://"):]
	}
	if scheme == "" {
		scheme = "http"
	}

	rest = repeatedSlashRe.ReplaceAllString(rest, "/")
	normalized := scheme + "://" + rest

	parsed, err := url.Parse(normalized)
	if err != nil {
		return "", fmt.Errorf("malformed webhook url %q: %v", raw, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("malformed webhook url %q: missing host", raw)
	}

	return normalized, nil
}

// Personalize substitutes the {{name}} and {{phone}} placeholders
// case-insensitively. Substitution is literal; a contact name containing $
// must not be expanded as a capture group reference.
func Personalize(template, name, phone string) string {
	out := namePlaceholder.ReplaceAllStringFunc(template, func(string) string { return name })
	return phonePlaceholder.ReplaceAllStringFunc(out, func(string) string { return phone })
}

// BarePhone strips the canonical suffix from a normalized address, giving back
// the plain digit form used for contact personalization.
func BarePhone(address string) string {
	address = strings.TrimSuffix(address, constant.PERSON_SUFFIX)
	return strings.TrimSuffix(address, constant.GROUP_SUFFIX)
}
