package validation

import (
	"net/mail"
	"strings"
	"unicode"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

// CreateUserRequest mirrors the fields needed for create user validation.
type CreateUserRequest struct {
	Email    string
	Password string
}

// ValidateCreateUserRequest validates the fields of a create user request.
func ValidateCreateUserRequest(req CreateUserRequest) []FieldError {
	var errs []FieldError
	errs = appendEmail(errs, "email", req.Email)
	errs = appendPassword(errs, "password", req.Password)
	return errs
}

// UpdateUserRequest mirrors the fields needed for update user validation.
// Nil fields are not validated.
type UpdateUserRequest struct {
	Email    *string
	Password *string
}

// ValidateUpdateUserRequest validates only non-nil fields on an update request.
func ValidateUpdateUserRequest(req UpdateUserRequest) []FieldError {
	var errs []FieldError
	if req.Email != nil {
		errs = appendEmail(errs, "email", *req.Email)
	}
	if req.Password != nil {
		errs = appendPassword(errs, "password", *req.Password)
	}
	return errs
}

// ValidateNewPassword checks the strength rule on a replacement password.
func ValidateNewPassword(field, password string) []FieldError {
	return appendPassword(nil, field, password)
}

// ValidateLoginRequest checks that both credentials were supplied.
func ValidateLoginRequest(email, password string) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(email) == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	}
	if password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}
	return errs
}

func appendEmail(errs []FieldError, field, email string) []FieldError {
	email = strings.TrimSpace(email)
	if email == "" {
		return append(errs, FieldError{Field: field, Message: field + " is required"})
	}
	if len(email) > 254 {
		return append(errs, FieldError{Field: field, Message: field + " must be at most 254 characters"})
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return append(errs, FieldError{Field: field, Message: field + " must be a valid email address"})
	}
	return errs
}

func appendPassword(errs []FieldError, field, password string) []FieldError {
	if password == "" {
		return append(errs, FieldError{Field: field, Message: field + " is required"})
	}
	if len(password) < MinPasswordLength {
		return append(errs, FieldError{Field: field, Message: field + " must be at least 8 characters"})
	}
	if len(password) > MaxPasswordBytes {
		return append(errs, FieldError{Field: field, Message: field + " must be at most 72 bytes"})
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return append(errs, FieldError{Field: field, Message: field + " must contain an upper-case letter, a lower-case letter and a digit"})
	}
	return errs
}
