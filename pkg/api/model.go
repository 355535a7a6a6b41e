package api

import (
	"regexp"
	"strings"
	"unicode"
)

type MarkRequest struct {
	Identity string `json:"identity"`
}

type MarkResponse struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Cell     string `json:"cell"`
}

type GridSettings struct {
	GridID string `json:"gridId"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	codeBadInput           = "bad_input"
	codeNoGrid             = "no_grid"
	codeServiceUnavailable = "service_unavailable"
	codeCapacityExceeded   = "capacity_exceeded"
	codeMalformedGrid      = "malformed_grid"
	codeInternal           = "internal"
)

// identityPattern matches campus identities: firstname.lastname followed by
// a number, e.g. alice.smith1.
var identityPattern = regexp.MustCompile(`^[a-zA-Z]+\.[a-zA-Z]+[0-9]+$`)

// ValidIdentity reports whether s is a well-formed identity.
func ValidIdentity(s string) bool {
	return identityPattern.MatchString(s)
}

// DisplayName turns an identity into a greeting name:
// "alice.smith1" -> "Alice Smith".
func DisplayName(identity string) string {
	parts := strings.Split(strings.TrimRightFunc(identity, unicode.IsDigit), ".")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		names = append(names, uppercaseFirstLetter(p))
	}
	return strings.Join(names, " ")
}

func uppercaseFirstLetter(s string) string {
	if len(s) <= 1 {
		return strings.ToUpper(s)
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
