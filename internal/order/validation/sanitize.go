package validation

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/dmehra2102/Storefront-Order-Service/internal/order/domain"
)

const (
	maxNameLen    = 50
	maxEmailLen   = 100
	maxPhoneLen   = 30
	maxAccountLen = 100
)

type Issue struct {
	Field  string
	Reason string
}

type SanitizeResult struct {
	OK      bool
	Issues  []Issue
	Request domain.OrderRequest
}

// Sanitizer strips and inspects untrusted form input. It never returns an
// error: unsafe values are reported as issues on the result.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *Sanitizer) Sanitize(raw domain.OrderRequest) SanitizeResult {
	res := SanitizeResult{Request: raw}

	fields := []struct {
		name   string
		value  *string
		maxLen int
	}{
		{"lastName", &res.Request.LastName, maxNameLen},
		{"firstName", &res.Request.FirstName, maxNameLen},
		{"email", &res.Request.Email, maxEmailLen},
		{"phone", &res.Request.Phone, maxPhoneLen},
		{"paymentMethod", &res.Request.PlatformID, maxAccountLen},
		{"accountName", &res.Request.PayeeName, maxAccountLen},
		{"accountNumber", &res.Request.PayeeAccount, maxAccountLen},
		{"productId", &res.Request.ProductID, maxAccountLen},
	}

	for _, f := range fields {
		v := strings.TrimSpace(*f.value)
		*f.value = v

		if reason := s.inspect(v, f.maxLen); reason != "" {
			res.Issues = append(res.Issues, Issue{Field: f.name, Reason: reason})
		}
	}

	res.OK = len(res.Issues) == 0
	return res
}

func (s *Sanitizer) inspect(v string, maxLen int) string {
	if strings.ContainsRune(v, 0) {
		return "contains null bytes"
	}
	// Ceilings are in characters; a multibyte name is not longer than it reads.
	if utf8.RuneCountInString(v) > maxLen {
		return "exceeds maximum length"
	}
	for _, r := range v {
		if unicode.IsControl(r) {
			return "contains control characters"
		}
	}
	if s.containsMarkup(v) {
		return "contains markup or script content"
	}
	return ""
}

// containsMarkup runs the value through the strict policy, which strips
// every element and attribute. Unescaping afterwards cancels the entity
// encoding the policy applies to plain text, so only genuinely stripped
// markup makes the round trip differ from the input.
func (s *Sanitizer) containsMarkup(v string) bool {
	return html.UnescapeString(s.policy.Sanitize(v)) != v
}
