package validation

import (
	"strings"

	"github.com/dmehra2102/Storefront-Order-Service/internal/order/domain"
)

// Placeholder payee names seen in abandoned or probing submissions.
var placeholderNames = map[string]struct{}{
	"test":        {},
	"test test":   {},
	"asdf":        {},
	"placeholder": {},
	"n a":         {},
	"na":          {},
	"xxx":         {},
}

// CheckBusinessRules re-scans a validated order for cross-field anomalies
// that single-field rules cannot express. Pure, no I/O. Returns the names
// of violated rules.
func CheckBusinessRules(v domain.ValidatedOrder) []string {
	var violated []string

	if _, ok := placeholderNames[strings.ToLower(v.PayeeName)]; ok {
		violated = append(violated, "placeholder_account_name")
	}
	if sequentialDigits(v.PayeeAccount, 6) {
		violated = append(violated, "sequential_account_number")
	}
	if repeatedDigits(v.PayeeAccount, 6) {
		violated = append(violated, "repeated_account_number")
	}
	if digitsOnly(v.PayeeAccount) == digitsOnly(v.Phone) && v.PayeeAccount != "" {
		violated = append(violated, "account_number_matches_phone")
	}

	return violated
}

// CheckSafety re-confirms no raw markup or control content survived the
// sanitizer and validator. It adds no business logic; a hit here means an
// earlier stage was bypassed and is treated as a security event by the
// caller.
func CheckSafety(v domain.ValidatedOrder) []string {
	var violated []string

	for field, value := range map[string]string{
		"lastName":      v.LastName,
		"firstName":     v.FirstName,
		"email":         v.Email,
		"phone":         v.Phone,
		"accountName":   v.PayeeName,
		"accountNumber": v.PayeeAccount,
	} {
		if strings.ContainsAny(value, "<>\x00") ||
			strings.Contains(strings.ToLower(value), "javascript:") {
			violated = append(violated, field)
		}
	}

	return violated
}

func sequentialDigits(s string, run int) bool {
	count := 1
	for i := 1; i < len(s); i++ {
		prev, cur := s[i-1], s[i]
		if isDigit(prev) && isDigit(cur) && (cur == prev+1 || cur == prev-1) {
			count++
			if count >= run {
				return true
			}
		} else {
			count = 1
		}
	}
	return false
}

func repeatedDigits(s string, run int) bool {
	count := 1
	for i := 1; i < len(s); i++ {
		if isDigit(s[i]) && s[i] == s[i-1] {
			count++
			if count >= run {
				return true
			}
		} else {
			count = 1
		}
	}
	return false
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
