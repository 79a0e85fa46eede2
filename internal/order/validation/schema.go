package validation

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dmehra2102/Storefront-Order-Service/internal/order/domain"
)

var (
	namePattern  = regexp.MustCompile(`^[\p{L}][\p{L}' -]*$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._%+-]*@[a-zA-Z0-9][a-zA-Z0-9.-]*\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

	phoneStrip = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

	// Domains that hand out throwaway inboxes; orders from them are rejected.
	disposableDomains = []string{
		"mailinator.com",
		"guerrillamail.com",
		"10minutemail.com",
		"tempmail.com",
		"temp-mail.org",
		"trashmail.com",
		"yopmail.com",
		"sharklasers.com",
	}

	// All-max UUID is as much a client-side sentinel as the nil UUID.
	maxUUID = uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")

	// Rejects absurd fees early, independent of the later price match.
	maxFee = decimal.NewFromInt(10_000_000)

	titleCaser = cases.Title(language.Und)
)

// Validate enforces per-field format rules on a sanitized request and
// produces the normalized ValidatedOrder. It is pure: no I/O, no clock.
// On failure it returns a field -> message map.
func Validate(req domain.OrderRequest) (domain.ValidatedOrder, map[string]string) {
	errs := make(map[string]string)
	var v domain.ValidatedOrder

	v.LastName = validateName(req.LastName, "lastName", errs)
	v.FirstName = validateName(req.FirstName, "firstName", errs)
	v.Email = validateEmail(req.Email, errs)
	v.Phone = validatePhone(req.Phone, errs)
	v.PlatformID = validateID(req.PlatformID, "paymentMethod", errs)
	v.ProductID = validateID(req.ProductID, "productId", errs)
	v.PayeeName = validateAccountName(req.PayeeName, errs)
	v.PayeeAccount = validateAccountNumber(req.PayeeAccount, errs)
	v.Fee = validateFee(req.ExpectedFee, errs)

	if len(errs) > 0 {
		return domain.ValidatedOrder{}, errs
	}
	return v, nil
}

func validateName(name, field string, errs map[string]string) string {
	if name == "" {
		errs[field] = "is required"
		return ""
	}
	if !namePattern.MatchString(name) {
		errs[field] = "may only contain letters, hyphens and apostrophes"
		return ""
	}
	if strings.ContainsAny(name, "0123456789") {
		errs[field] = "may not contain digits"
		return ""
	}
	if specials := strings.Count(name, "'") + strings.Count(name, "-"); specials > 2 {
		errs[field] = "contains too many special characters"
		return ""
	}
	return titleCaser.String(strings.ToLower(name))
}

func validateEmail(email string, errs map[string]string) string {
	if email == "" {
		errs["email"] = "is required"
		return ""
	}
	email = strings.ToLower(email)
	if !emailPattern.MatchString(email) {
		errs["email"] = "is not a valid email address"
		return ""
	}
	domainPart := email[strings.LastIndex(email, "@")+1:]
	for _, d := range disposableDomains {
		if domainPart == d || strings.HasSuffix(domainPart, "."+d) {
			errs["email"] = "disposable email addresses are not accepted"
			return ""
		}
	}
	return email
}

func validatePhone(phone string, errs map[string]string) string {
	if phone == "" {
		errs["phone"] = "is required"
		return ""
	}
	normalized := phoneStrip.Replace(phone)
	if !phonePattern.MatchString(normalized) {
		errs["phone"] = "must be 8 to 15 digits, optionally prefixed with +"
		return ""
	}
	return normalized
}

func validateID(raw, field string, errs map[string]string) uuid.UUID {
	if raw == "" {
		errs[field] = "is required"
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		errs[field] = "is not a valid identifier"
		return uuid.Nil
	}
	if id == uuid.Nil || id == maxUUID {
		errs[field] = "is not a valid identifier"
		return uuid.Nil
	}
	return id
}

func validateAccountName(name string, errs map[string]string) string {
	if name == "" {
		errs["accountName"] = "is required"
		return ""
	}
	if !namePattern.MatchString(name) {
		errs["accountName"] = "may only contain letters, hyphens and apostrophes"
		return ""
	}
	return name
}

func validateAccountNumber(account string, errs map[string]string) string {
	if account == "" {
		errs["accountNumber"] = "is required"
		return ""
	}
	for _, r := range account {
		isDigit := r >= '0' && r <= '9'
		isUpper := r >= 'A' && r <= 'Z'
		isLower := r >= 'a' && r <= 'z'
		if !isDigit && !isUpper && !isLower {
			errs["accountNumber"] = "may only contain letters and digits"
			return ""
		}
	}
	return account
}

func validateFee(fee decimal.Decimal, errs map[string]string) decimal.Decimal {
	if !fee.IsPositive() {
		errs["expectedFee"] = "must be a positive amount"
		return decimal.Zero
	}
	if !fee.IsInteger() {
		errs["expectedFee"] = "must be a whole amount"
		return decimal.Zero
	}
	if fee.GreaterThan(maxFee) {
		errs["expectedFee"] = "exceeds the maximum accepted amount"
		return decimal.Zero
	}
	return fee
}
