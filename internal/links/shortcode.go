package links

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	CodeLength      = 7
	maxCodeAttempts = 5
	codeAlphabet    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

var codeRegex = regexp.MustCompile(`^[0-9A-Za-z]+$`)

// GenerateCode returns a random base62 code of the given length.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		length = CodeLength
	}

	alphabetSize := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// ValidateCode checks that a path segment can be a short code. Redirect
// handlers use it to reject obviously invalid codes before touching storage.
func ValidateCode(code string) error {
	if err := validation.Validate(code,
		validation.Required,
		validation.Length(3, 32),
		validation.Match(codeRegex),
	); err != nil {
		return fmt.Errorf("invalid short code %q: %w", code, err)
	}
	return nil
}

// CodeFromInput accepts either a bare code or a short URL and returns the code.
func CodeFromInput(input string) string {
	input = strings.TrimSpace(input)
	if u, err := url.Parse(input); err == nil && u.Host != "" {
		input = u.Path
	}
	input = strings.Trim(input, "/")
	if i := strings.LastIndex(input, "/"); i >= 0 {
		input = input[i+1:]
	}
	return input
}
