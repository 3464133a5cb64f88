package check_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optimode/mailprobe/check"
)

func TestValidateSyntax(t *testing.T) {
	tests := []struct {
		name   string
		email  string
		wantOK bool
	}{
		{"valid simple", "user@example.com", true},
		{"valid with plus", "user+tag@example.com", true},
		{"valid with dots", "first.last@example.com", true},
		{"valid subdomain", "user@mail.example.co.uk", true},
		{"valid specials", "o'brien!#$%&*/=?^_`{|}~-@example.com", true},
		{"valid surrounding space", "  user@example.com ", true},
		{"empty", "", false},
		{"no at sign", "userexample.com", false},
		{"no domain", "user@", false},
		{"no local", "@example.com", false},
		{"single label domain", "user@localhost", false},
		{"consecutive dots domain", "user@exam..ple.com", false},
		{"numeric TLD", "user@example.123", false},
		{"one letter TLD", "user@example.c", false},
		{"label starts with hyphen", "user@-example.com", false},
		{"label ends with hyphen", "user@example-.com", false},
		{"space in local", "us er@example.com", false},
		{"quoted local", `"user name"@example.com`, false},
		{"unicode local", "用户@example.com", false},
		{"local too long", strings.Repeat("a", 65) + "@example.com", false},
		{"total too long", "user@" + strings.Repeat("a", 63) + "." + strings.Repeat("b", 63) + "." + strings.Repeat("c", 63) + "." + strings.Repeat("d", 63) + ".com", false},
		{"label too long", "user@" + strings.Repeat("a", 64) + ".com", false},

		// IDN
		{"valid IDN german", "user@münchen.de", true},
		{"valid IDN japanese", "user@例え.jp", true},
		{"valid IDN cyrillic TLD", "user@почта.рф", true},
		{"valid Punycode", "user@xn--mnchen-3ya.de", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantOK, check.ValidateSyntax(tt.email))
		})
	}
}
