package links

import (
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ValidateOriginalURL accepts absolute http(s) URLs with a host and returns
// the trimmed URL. Anything else is ErrInvalidURL.
func ValidateOriginalURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := validation.Validate(rawURL,
		validation.Required,
		validation.Length(1, 2048),
		is.URL,
	); err != nil {
		return "", ErrInvalidURL
	}

	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return "", ErrInvalidURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", ErrInvalidURL
	}
	if parsed.Host == "" {
		return "", ErrInvalidURL
	}
	return rawURL, nil
}
