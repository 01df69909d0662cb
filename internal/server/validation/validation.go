// Package validation holds the credential and profile policy rules. Every
// function is pure: it reports the violated rules and never fails otherwise.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/authkeeper/internal/timex"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 20
	MinUsernameLength = 3
	MaxUsernameLength = 20
	AdultAge          = 18

	// PasswordSpecialChars is the set a password must draw at least one character from.
	PasswordSpecialChars = "@$!%*?&#"
)

// Violation messages. They are returned verbatim to API clients.
const (
	MsgPasswordLength    = "password must be 8 to 20 characters long"
	MsgPasswordLowercase = "password must contain at least one lowercase letter"
	MsgPasswordUppercase = "password must contain at least one uppercase letter"
	MsgPasswordDigit     = "password must contain at least one digit"
	MsgPasswordSpecial   = "password must contain at least one special character (@$!%*?&#)"

	MsgUsernameLength  = "username must be 3 to 20 characters long"
	MsgUsernamePattern = "username may contain only letters, digits, underscores and hyphens"

	MsgEmailFormat = "invalid email format"

	MsgDateOfBirthRequired = "date of birth is required"
	MsgDateOfBirthFuture   = "date of birth cannot be in the future"
	MsgDateOfBirthTooEarly = "date of birth cannot be earlier than 1900-01-01"

	MsgUnderage = "user must be at least 18 years old"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	earliestDateOfBirth = timex.NewDate(1900, 1, 1)
)

// ValidatePassword checks all five password rules independently.
func ValidatePassword(p string) []string {
	var (
		violations                               []string
		hasLower, hasUpper, hasDigit, hasSpecial bool
	)

	if n := utf8.RuneCountInString(p); n < MinPasswordLength || n > MaxPasswordLength {
		violations = append(violations, MsgPasswordLength)
	}

	for _, r := range p {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(PasswordSpecialChars, r):
			hasSpecial = true
		}
	}

	if !hasLower {
		violations = append(violations, MsgPasswordLowercase)
	}
	if !hasUpper {
		violations = append(violations, MsgPasswordUppercase)
	}
	if !hasDigit {
		violations = append(violations, MsgPasswordDigit)
	}
	if !hasSpecial {
		violations = append(violations, MsgPasswordSpecial)
	}
	return violations
}

func ValidateUsername(u string) []string {
	var violations []string
	if n := utf8.RuneCountInString(u); n < MinUsernameLength || n > MaxUsernameLength {
		violations = append(violations, MsgUsernameLength)
	}
	if !usernamePattern.MatchString(u) {
		violations = append(violations, MsgUsernamePattern)
	}
	return violations
}

func ValidateEmail(e string) []string {
	if !strings.Contains(e, "@") || !emailPattern.MatchString(e) {
		return []string{MsgEmailFormat}
	}
	return nil
}

// ValidateDateOfBirth checks that dob lies between 1900-01-01 and today.
func ValidateDateOfBirth(dob, today timex.Date) []string {
	var violations []string
	if dob.After(today) {
		violations = append(violations, MsgDateOfBirthFuture)
	}
	if dob.Before(earliestDateOfBirth) {
		violations = append(violations, MsgDateOfBirthTooEarly)
	}
	return violations
}

// Age is the number of whole years between dob and today. A birthday not yet
// reached this year counts one year less.
func Age(dob, today timex.Date) int {
	age := today.Year - dob.Year
	if today.Month < dob.Month || (today.Month == dob.Month && today.Day < dob.Day) {
		age--
	}
	return age
}

// RegistrationInput is the data a new account is created from.
type RegistrationInput struct {
	Username    string
	Email       string
	Password    string
	DateOfBirth *timex.Date
}

// ValidateRegistration composes every rule for a new account. The result is
// empty iff the registration is acceptable.
func ValidateRegistration(in RegistrationInput, today timex.Date) []string {
	var violations []string

	if in.DateOfBirth == nil {
		violations = append(violations, MsgDateOfBirthRequired)
	} else if Age(*in.DateOfBirth, today) < AdultAge {
		violations = append(violations, MsgUnderage)
	}

	violations = append(violations, ValidateUsername(in.Username)...)
	violations = append(violations, ValidateEmail(in.Email)...)
	if in.DateOfBirth != nil {
		violations = append(violations, ValidateDateOfBirth(*in.DateOfBirth, today)...)
	}
	violations = append(violations, ValidatePassword(in.Password)...)

	return violations
}
