package services

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicy = bluemonday.StrictPolicy()
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	newlines   = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

const minPasswordLen = 10

// plainText trims user supplied text and stores it as given. Text that
// carries HTML elements is refused instead of being rewritten.
func plainText(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if hasMarkup(s) {
		return "", invalidf("%s must not contain HTML markup", field)
	}
	return s, nil
}

// optionalText is plainText for nullable columns; blank becomes nil.
func optionalText(field string, s *string) (*string, error) {
	if s == nil {
		return nil, nil
	}
	v, err := plainText(field, *s)
	if err != nil || v == "" {
		return nil, err
	}
	return &v, nil
}

// hasMarkup reports whether s contains an element the strict policy would
// remove. Lone angle brackets such as "a<b" or "<3" are plain text.
func hasMarkup(s string) bool {
	if !strings.Contains(s, "<") || !strings.Contains(s, ">") {
		return false
	}
	s = newlines.Replace(s)
	return html.UnescapeString(textPolicy.Sanitize(s)) != html.UnescapeString(s)
}

func validEmail(email string) bool {
	return emailRe.MatchString(email)
}

// validatePassword requires at least ten characters with an upper case
// letter, a lower case letter and a digit.
func validatePassword(pw string) error {
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if len([]rune(pw)) < minPasswordLen || !upper || !lower || !digit {
		return invalidf("password must be at least %d characters and contain an upper case letter, a lower case letter and a number", minPasswordLen)
	}
	return nil
}
