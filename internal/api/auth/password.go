package auth

import (
	"errors"
	"strings"
	"unicode"
)

const specialChars = "!@#$%^&*()-_=+[]{}|;:',.<>?/`~\"\\"

// passwordRules is the account password policy. Each rule contributes one
// message when it fails.
var passwordRules = []struct {
	ok      func(string) bool
	message string
}{
	{
		ok:      func(p string) bool { return len(p) >= 12 },
		message: "password must be at least 12 characters",
	},
	{
		ok:      containsClass(unicode.IsUpper),
		message: "password must contain at least 1 uppercase letter",
	},
	{
		ok:      containsClass(unicode.IsLower),
		message: "password must contain at least 1 lowercase letter",
	},
	{
		ok:      containsClass(unicode.IsDigit),
		message: "password must contain at least 1 digit",
	},
	{
		ok:      containsClass(func(r rune) bool { return strings.ContainsRune(specialChars, r) }),
		message: "password must contain at least 1 special character (!@#$%^&*...)",
	},
}

func containsClass(class func(rune) bool) func(string) bool {
	return func(p string) bool {
		return strings.ContainsFunc(p, class)
	}
}

// PasswordValidationError contains details about password validation failure.
type PasswordValidationError struct {
	Messages []string
}

func (e *PasswordValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// ValidatePassword checks the password against the account policy: at least
// 12 characters with an uppercase letter, a lowercase letter, a digit and a
// special character.
func ValidatePassword(password string) error {
	var messages []string
	for _, rule := range passwordRules {
		if !rule.ok(password) {
			messages = append(messages, rule.message)
		}
	}

	if len(messages) > 0 {
		return &PasswordValidationError{Messages: messages}
	}
	return nil
}

// ValidatePasswordOrError returns a single-message error suitable for API
// responses.
func ValidatePasswordOrError(password string) error {
	var validErr *PasswordValidationError
	if err := ValidatePassword(password); err != nil {
		if errors.As(err, &validErr) {
			return errors.New(validErr.Messages[0])
		}
		return err
	}
	return nil
}
