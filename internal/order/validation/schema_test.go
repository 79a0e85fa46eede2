package validation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/Storefront-Order-Service/internal/order/domain"
)

func TestValidateHappyPath(t *testing.T) {
	v, errs := Validate(cleanRequest())
	require.Nil(t, errs)

	assert.Equal(t, "Doe", v.LastName)
	assert.Equal(t, "Jane", v.FirstName)
	assert.Equal(t, "jane@x.com", v.Email)
	assert.Equal(t, "77123456", v.Phone)
	assert.Equal(t, uuid.MustParse("0c40a5b2-5f0b-4a39-9d8e-2f1f6a9b7c11"), v.PlatformID)
	assert.Equal(t, uuid.MustParse("4d1aa2cf-9f06-4a21-8b49-31a6c4de4b6d"), v.ProductID)
	assert.True(t, decimal.NewFromInt(5000).Equal(v.Fee))
}

func TestValidateNormalizes(t *testing.T) {
	req := cleanRequest()
	req.LastName = "dOE"
	req.FirstName = "jane-marie"
	req.Email = "Jane@X.COM"
	req.Phone = "+47 7123 45-67"

	v, errs := Validate(req)
	require.Nil(t, errs)

	assert.Equal(t, "Doe", v.LastName)
	assert.Equal(t, "Jane-Marie", v.FirstName)
	assert.Equal(t, "jane@x.com", v.Email)
	assert.Equal(t, "+4771234567", v.Phone)
}

func TestValidateFieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.OrderRequest)
		field  string
	}{
		{"empty last name", func(r *domain.OrderRequest) { r.LastName = "" }, "lastName"},
		{"name with digits", func(r *domain.OrderRequest) { r.FirstName = "Jane3" }, "firstName"},
		{"name with symbols", func(r *domain.OrderRequest) { r.FirstName = "Jane_" }, "firstName"},
		{"too many specials in name", func(r *domain.OrderRequest) { r.LastName = "a-b-c-d" }, "lastName"},
		{"empty email", func(r *domain.OrderRequest) { r.Email = "" }, "email"},
		{"malformed email", func(r *domain.OrderRequest) { r.Email = "jane@@x" }, "email"},
		{"no tld", func(r *domain.OrderRequest) { r.Email = "jane@localhost" }, "email"},
		{"disposable domain", func(r *domain.OrderRequest) { r.Email = "jane@mailinator.com" }, "email"},
		{"disposable subdomain", func(r *domain.OrderRequest) { r.Email = "jane@mx.yopmail.com" }, "email"},
		{"empty phone", func(r *domain.OrderRequest) { r.Phone = "" }, "phone"},
		{"short phone", func(r *domain.OrderRequest) { r.Phone = "1234567" }, "phone"},
		{"long phone", func(r *domain.OrderRequest) { r.Phone = "1234567890123456" }, "phone"},
		{"alphabetic phone", func(r *domain.OrderRequest) { r.Phone = "77abc4567" }, "phone"},
		{"empty platform", func(r *domain.OrderRequest) { r.PlatformID = "" }, "paymentMethod"},
		{"malformed platform id", func(r *domain.OrderRequest) { r.PlatformID = "not-a-uuid" }, "paymentMethod"},
		{"nil platform id", func(r *domain.OrderRequest) { r.PlatformID = uuid.Nil.String() }, "paymentMethod"},
		{"max product id", func(r *domain.OrderRequest) { r.ProductID = "ffffffff-ffff-ffff-ffff-ffffffffffff" }, "productId"},
		{"empty account name", func(r *domain.OrderRequest) { r.PayeeName = "" }, "accountName"},
		{"account name with symbols", func(r *domain.OrderRequest) { r.PayeeName = "Jane; DROP TABLE" }, "accountName"},
		{"empty account number", func(r *domain.OrderRequest) { r.PayeeAccount = "" }, "accountNumber"},
		{"account number with symbols", func(r *domain.OrderRequest) { r.PayeeAccount = "AB-12345" }, "accountNumber"},
		{"zero fee", func(r *domain.OrderRequest) { r.ExpectedFee = decimal.Zero }, "expectedFee"},
		{"negative fee", func(r *domain.OrderRequest) { r.ExpectedFee = decimal.NewFromInt(-5) }, "expectedFee"},
		{"fractional fee", func(r *domain.OrderRequest) { r.ExpectedFee = decimal.NewFromFloat(10.5) }, "expectedFee"},
		{"absurd fee", func(r *domain.OrderRequest) { r.ExpectedFee = decimal.NewFromInt(10_000_001) }, "expectedFee"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := cleanRequest()
			tt.mutate(&req)

			_, errs := Validate(req)
			require.NotNil(t, errs)
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestValidateDiacriticsInNames(t *testing.T) {
	req := cleanRequest()
	req.LastName = "Nuñez"
	req.FirstName = "François"

	v, errs := Validate(req)
	require.Nil(t, errs)
	assert.Equal(t, "Nuñez", v.LastName)
	assert.Equal(t, "François", v.FirstName)
}

func TestValidateCollectsAllFieldErrors(t *testing.T) {
	req := domain.OrderRequest{}

	_, errs := Validate(req)
	require.NotNil(t, errs)
	for _, field := range []string{"lastName", "firstName", "email", "phone", "paymentMethod", "accountName", "accountNumber", "productId", "expectedFee"} {
		assert.Contains(t, errs, field)
	}
}
