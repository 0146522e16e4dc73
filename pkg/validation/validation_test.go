package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	FullName       string `json:"full_name" validate:"required,valid_name,no_emoji"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"valid_phone"`
	GraduationYear int    `json:"graduation_year" validate:"max_current_year=6"`
	Password       string `json:"password" validate:"min=8"`
}

func TestCustomValidators(t *testing.T) {
	v := New()

	ok := signup{FullName: "Asha Rao", Email: "a@x.test", Phone: "+919876543210", GraduationYear: time.Now().Year() + 2, Password: "longenough"}
	require.NoError(t, v.Struct(ok))

	bad := signup{FullName: "Asha 😀", Email: "nope", Phone: "12ab", GraduationYear: time.Now().Year() + 10, Password: "short"}
	err := v.Struct(bad)
	require.Error(t, err)

	msgs := FormatValidationErrors(err)
	assert.Contains(t, msgs, "Email is not a valid email address")
	assert.Contains(t, msgs, "Phone number must be 7-15 digits, optionally starting with +")
	assert.Contains(t, msgs, "Graduation year is too far in the future")
	assert.Contains(t, msgs, "Password must be at least 8 characters")
	assert.Contains(t, Summary(err), "Full name")
}

func TestFormatNonValidationError(t *testing.T) {
	assert.Equal(t, []string{"boom"}, FormatValidationErrors(errors.New("boom")))
}

func TestFormatCamelCase(t *testing.T) {
	assert.Equal(t, "Max Tab Switches", formatCamelCase("MaxTabSwitches"))
}
