package authcore

import (
	"fmt"
	"unicode"
)

// Check returns an error wrapping [ErrPasswordPolicy] when password does not
// satisfy p. Any character that is neither a letter nor a digit counts as
// special.
func (p PasswordPolicy) Check(password string) error {
	if len([]rune(password)) < p.MinLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordPolicy, p.MinLength)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	switch {
	case p.RequireUpper && !upper:
		return fmt.Errorf("%w: must contain an uppercase letter", ErrPasswordPolicy)
	case p.RequireLower && !lower:
		return fmt.Errorf("%w: must contain a lowercase letter", ErrPasswordPolicy)
	case p.RequireDigit && !digit:
		return fmt.Errorf("%w: must contain a digit", ErrPasswordPolicy)
	case p.RequireSpecial && !special:
		return fmt.Errorf("%w: must contain a special character", ErrPasswordPolicy)
	}
	return nil
}

// checkLength applies only the minimum length. Admin overrides use it.
func (p PasswordPolicy) checkLength(password string) error {
	if len([]rune(password)) < p.MinLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordPolicy, p.MinLength)
	}
	return nil
}
