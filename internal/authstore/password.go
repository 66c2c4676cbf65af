package authstore

import "unicode"

const minPasswordLength = 8

// ValidatePassword checks confirmation first, then strength: at least eight
// characters with an upper case letter, a lower case letter, a digit and a
// punctuation mark or symbol.
func ValidatePassword(password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if len([]rune(password)) < minPasswordLength {
		return ErrWeakPassword
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
	if !upper || !lower || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}
