package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcatalog/internal/domain"
	"shopcatalog/internal/validate"
)

func TestHelpers(t *testing.T) {
	e, ok := validate.Email("  a@b.io ")
	assert.True(t, ok)
	assert.Equal(t, "a@b.io", e)
	_, ok = validate.Email("nope")
	assert.False(t, ok)

	_, ok = validate.ID("abc-123_X")
	assert.True(t, ok)
	_, ok = validate.ID("../etc")
	assert.False(t, ok)

	_, ok = validate.Slug("producttype")
	assert.True(t, ok)
	_, ok = validate.Slug("Product")
	assert.False(t, ok)

	q, ok := validate.Q("red shirt")
	assert.True(t, ok)
	assert.Equal(t, "red shirt", q)
	_, ok = validate.Q("<script>")
	assert.False(t, ok)
}

type sample struct {
	Name  string `json:"name" validate:"required,max=5"`
	Email string `json:"email" validate:"omitempty,email"`
	Qty   int    `json:"qty" validate:"gte=0"`
}

func TestStructReportsJSONNames(t *testing.T) {
	require.NoError(t, validate.Struct(sample{Name: "ok"}))

	err := validate.Struct(sample{Name: "", Email: "bad", Qty: -1})
	v, ok := domain.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"This field is required."}, v.Fields["name"])
	assert.Equal(t, []string{"Enter a valid email address."}, v.Fields["email"])
	assert.Equal(t, []string{"Ensure this value is greater than or equal to 0."}, v.Fields["qty"])

	err = validate.Struct(sample{Name: "toolong"})
	v, ok = domain.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"Ensure this field has no more than 5 characters."}, v.Fields["name"])
}

func TestPasswordStrength(t *testing.T) {
	attrs := []validate.UserAttribute{
		{Verbose: "username", Value: "janedoe"},
		{Verbose: "first name", Value: "Jane"},
		{Verbose: "last name", Value: "Doe"},
		{Verbose: "email address", Value: "jane@example.com"},
	}

	assert.Empty(t, validate.PasswordStrength("T4ngerine-Orbit", attrs))

	assert.Equal(t, []string{
		"This password is too short. It must contain at least 8 characters.",
		"This password is entirely numeric.",
	}, validate.PasswordStrength("9081726", nil))

	assert.Contains(t, validate.PasswordStrength("password", nil), "This password is too common.")
	assert.Contains(t, validate.PasswordStrength("Password", nil), "This password is too common.")

	assert.Equal(t, []string{"The password is too similar to the username."},
		validate.PasswordStrength("janedoe1", attrs))
	assert.Equal(t, []string{"The password is too similar to the email address."},
		validate.PasswordStrength("jane@example.org", attrs[3:]))
}
