// Package validation holds the pure input rules shared by the API server and the client core.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"calendasync/internal/domain"
)

const (
	maxEmailLen    = 255
	minPasswordLen = 8
	maxPasswordLen = 72

	// PasswordSymbols is the fixed set a password must draw at least one symbol from.
	PasswordSymbols = "@$!%*?&"
)

var (
	emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	otpRegexp   = regexp.MustCompile(`^\d{6}$`)
)

// rule is one predicate of a field's rule list; the message is reported when ok returns false.
type rule struct {
	ok      func(string) bool
	message string
}

var emailRules = []rule{
	{func(v string) bool { return v != "" }, "Email is required"},
	{func(v string) bool { return v == "" || emailRegexp.MatchString(v) }, "Invalid email address"},
	{func(v string) bool { return utf8.RuneCountInString(v) <= maxEmailLen }, "Email is too long"},
}

var passwordRules = []rule{
	{func(v string) bool { return len(v) >= minPasswordLen }, "Password must be at least 8 characters"},
	{func(v string) bool { return len(v) <= maxPasswordLen }, "Password is too long"},
	{func(v string) bool {
		return strings.ContainsAny(v, "abcdefghijklmnopqrstuvwxyz") &&
			strings.ContainsAny(v, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") &&
			strings.ContainsAny(v, "0123456789") &&
			strings.ContainsAny(v, PasswordSymbols)
	}, "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character"},
}

var otpRules = []rule{
	{func(v string) bool { return len(v) == 6 }, "OTP must be exactly 6 digits"},
	{func(v string) bool { return otpRegexp.MatchString(v) || len(v) != 6 }, "OTP must contain only numbers"},
}

// apply evaluates every rule of a field and appends the failures.
func apply(errs []domain.FieldError, field, value string, rules []rule) []domain.FieldError {
	for _, r := range rules {
		if !r.ok(value) {
			errs = append(errs, domain.FieldError{Field: field, Message: r.message})
		}
	}
	return errs
}

func result(errs []domain.FieldError) error {
	if len(errs) == 0 {
		return nil
	}
	return &domain.ValidationError{Fields: errs}
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// ValidateEmail checks a single address.
func ValidateEmail(email string) error {
	return result(apply(nil, "email", NormalizeEmail(email), emailRules))
}

// ValidatePassword checks the password policy.
func ValidatePassword(password string) error {
	return result(apply(nil, "password", password, passwordRules))
}

// ValidateUser checks a credential pair and reports every violated field.
func ValidateUser(email, password string) error {
	errs := apply(nil, "email", NormalizeEmail(email), emailRules)
	errs = apply(errs, "password", password, passwordRules)
	return result(errs)
}

// ValidateOTP checks an emailed verification code.
func ValidateOTP(code string) error {
	return result(apply(nil, "otp", strings.TrimSpace(code), otpRules))
}
