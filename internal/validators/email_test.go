package validators

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("jane@example.com"))
	assert.False(t, IsEmail("jane@localhost"))
	assert.False(t, IsEmail("Jane <jane@example.com>"))
	assert.False(t, IsEmail("not-an-email"))
}

func TestValidateContact_AggregatesFields(t *testing.T) {
	r := ValidateContact(Contact{Name: " ", Email: "nope", Phone: "abc"}, false)

	assert.False(t, r.Valid())
	assert.Contains(t, r, "customer_name")
	assert.Contains(t, r, "customer_email")
	assert.Contains(t, r, "customer_phone")
}

func TestValidateContact_OK(t *testing.T) {
	r := ValidateContact(Contact{Name: "Jane", Email: "jane@example.com", Phone: "+33 6 12 34 56 78"}, false)
	assert.True(t, r.Valid())
	assert.NoError(t, r.Err())
}

func TestResult_Err(t *testing.T) {
	r := Result{}
	r.Add("date", "Closed on this day.")

	var ve *ValidationError
	require.True(t, errors.As(r.Err(), &ve))
	assert.Equal(t, []string{"Closed on this day."}, ve.Fields["date"])

	other := Result{}
	other.Add("date", "Second.")
	r.Merge(other)
	assert.Len(t, r["date"], 2)
}
