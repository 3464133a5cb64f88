package check_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optimode/mailprobe/check"
)

func TestIsDisposable(t *testing.T) {
	assert.True(t, check.IsDisposable("mailinator.com"))
	assert.True(t, check.IsDisposable("YOPMAIL.com"))
	assert.False(t, check.IsDisposable("example.com"))
}

func TestIsRoleBased(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"admin@example.com", true},
		{"Support@example.com", true},
		{"no-reply@example.com", true},
		{"sales.europe@example.com", true},
		{"administrator@example.com", false},
		{"john.admin@example.com", false},
		{"jane@example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, check.IsRoleBased(tt.email))
		})
	}
}

func TestIsCommonProvider(t *testing.T) {
	assert.True(t, check.IsCommonProvider("gmail.com"))
	assert.True(t, check.IsCommonProvider("Hotmail.com"))
	assert.False(t, check.IsCommonProvider("example.com"))
}

func TestSuggestDomain(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{"gmial.com", "gmail.com"},
		{"gmail.co", "gmail.com"},
		{"hotmial.com", "hotmail.com"},
		{"yahooo.com", "yahoo.com"},
		{"gmail.com", ""},
		{"example.com", ""},
		{"GMIAL.COM", "gmail.com"},
	}
	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			assert.Equal(t, tt.want, check.SuggestDomain(tt.domain, check.DefaultTypoThreshold))
		})
	}
}
