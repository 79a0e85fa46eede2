package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmehra2102/Storefront-Order-Service/internal/order/domain"
)

func validOrder() domain.ValidatedOrder {
	v, errs := Validate(cleanRequest())
	if errs != nil {
		panic("fixture request failed validation")
	}
	return v
}

func TestBusinessRulesCleanOrderPasses(t *testing.T) {
	assert.Empty(t, CheckBusinessRules(validOrder()))
}

func TestBusinessRulesViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.ValidatedOrder)
		rule   string
	}{
		{"placeholder name", func(v *domain.ValidatedOrder) { v.PayeeName = "Test" }, "placeholder_account_name"},
		{"placeholder asdf", func(v *domain.ValidatedOrder) { v.PayeeName = "ASDF" }, "placeholder_account_name"},
		{"ascending account number", func(v *domain.ValidatedOrder) { v.PayeeAccount = "123456" }, "sequential_account_number"},
		{"descending account number", func(v *domain.ValidatedOrder) { v.PayeeAccount = "987654" }, "sequential_account_number"},
		{"embedded ascending run", func(v *domain.ValidatedOrder) { v.PayeeAccount = "XX345678YY" }, "sequential_account_number"},
		{"repeated account number", func(v *domain.ValidatedOrder) { v.PayeeAccount = "7777777" }, "repeated_account_number"},
		{"account number equals phone", func(v *domain.ValidatedOrder) { v.PayeeAccount = "77123456" }, "account_number_matches_phone"},
		{"account number equals phone with letters", func(v *domain.ValidatedOrder) { v.PayeeAccount = "A77123456B" }, "account_number_matches_phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validOrder()
			tt.mutate(&v)
			assert.Contains(t, CheckBusinessRules(v), tt.rule)
		})
	}
}

func TestBusinessRulesShortRunsPass(t *testing.T) {
	v := validOrder()
	v.PayeeAccount = "12345X99999"

	assert.Empty(t, CheckBusinessRules(v))
}

func TestSafetyCleanOrderPasses(t *testing.T) {
	assert.Empty(t, CheckSafety(validOrder()))
}

func TestSafetyFlagsResidualMarkup(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.ValidatedOrder)
		field  string
	}{
		{"angle bracket in name", func(v *domain.ValidatedOrder) { v.LastName = "Doe<b>" }, "lastName"},
		{"null byte in account", func(v *domain.ValidatedOrder) { v.PayeeAccount = "AB\x0012345" }, "accountNumber"},
		{"javascript url in email", func(v *domain.ValidatedOrder) { v.Email = "JavaScript:alert(1)" }, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validOrder()
			tt.mutate(&v)
			assert.Contains(t, CheckSafety(v), tt.field)
		})
	}
}
