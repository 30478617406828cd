package service

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"atlantic-photo/internal/model"
)

const (
	minUsernameLength    = 3
	maxUsernameLength    = 50
	minPasswordLength    = 6
	maxPasswordLength    = 72 // bcrypt ignores everything past 72 bytes
	minDescriptionLength = 3
	maxDescriptionLength = 150
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrValidationFailed, fmt.Sprintf(format, args...))
}

func validateLength(field string, value string, minLen int, maxLen int) error {
	n := utf8.RuneCountInString(value)
	if n < minLen || n > maxLen {
		return invalid("%s must be between %d and %d characters", field, minLen, maxLen)
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", invalid("email %q is not a valid address", raw)
	}
	return strings.ToLower(addr.Address), nil
}

func validateSignup(req model.SignupRequest) (model.SignupRequest, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validateLength("username", req.Username, minUsernameLength, maxUsernameLength); err != nil {
		return req, err
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return req, err
	}
	req.Email = email

	if n := len(req.Password); n < minPasswordLength || n > maxPasswordLength {
		return req, invalid("password must be between %d and %d bytes", minPasswordLength, maxPasswordLength)
	}
	return req, nil
}

func validateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if err := validateLength("description", description, minDescriptionLength, maxDescriptionLength); err != nil {
		return "", err
	}
	return description, nil
}

func validateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", invalid("comment must not be blank")
	}
	if utf8.RuneCountInString(content) > model.MaxCommentLength {
		return "", invalid("comment must be at most %d characters", model.MaxCommentLength)
	}
	return content, nil
}

func validateTagName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := validateLength("tag", name, 1, model.MaxTagNameLength); err != nil {
		return "", err
	}
	return name, nil
}
