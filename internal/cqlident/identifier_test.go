package cqlident

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		// Valid cases
		{name: "simple", input: "users"},
		{name: "underscore_prefix", input: "_temp"},
		{name: "mixed_case", input: "firstName"},
		{name: "with_digits", input: "address2"},
		{name: "max_length", input: strings.Repeat("a", 128)},

		// Invalid cases
		{name: "empty", input: "", wantErr: "name is required"},
		{name: "too_long", input: strings.Repeat("a", 129), wantErr: "at most 128 characters"},
		{name: "starts_with_digit", input: "1col", wantErr: "must match"},
		{name: "contains_space", input: "first name", wantErr: "must match"},
		{name: "contains_hyphen", input: "first-name", wantErr: "must match"},
		{name: "contains_quote", input: `foo"bar`, wantErr: "must match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.input)
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateTableName(t *testing.T) {
	require.NoError(t, ValidateTableName(strings.Repeat("t", 48)))

	err := ValidateTableName(strings.Repeat("t", 49))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 48 characters")

	err = ValidateTableName("user.accounts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must match")
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		quote bool
	}{
		{name: "lower_case", input: "users", want: "users"},
		{name: "snake_case", input: "first_name", want: "first_name"},
		{name: "mixed_case", input: "firstName", want: `"firstName"`, quote: true},
		{name: "underscore_prefix", input: "_id", want: `"_id"`, quote: true},
		{name: "reserved", input: "table", want: `"table"`, quote: true},
		{name: "with_double_quote", input: `my"col`, want: `"my""col"`, quote: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.quote, NeedsQuoting(tt.input))
			assert.Equal(t, tt.want, QuoteIdentifier(tt.input))
		})
	}
}
