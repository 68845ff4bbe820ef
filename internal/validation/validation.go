package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Error is a field-level validation failure. Message is shown to the learner.
type Error struct {
	Field   string
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

const MessagePasswordMismatch = "Mật khẩu xác nhận không trùng khớp."

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return Error{Field: "email", Message: "Vui lòng nhập email."}
	}
	if !emailRegex.MatchString(email) {
		return Error{Field: "email", Message: "Email không hợp lệ."}
	}
	return nil
}

// ValidatePassword requires at least 8 characters.
func ValidatePassword(password string) error {
	if password == "" {
		return Error{Field: "password", Message: "Vui lòng nhập mật khẩu."}
	}
	if utf8.RuneCountInString(password) < 8 {
		return Error{Field: "password", Message: "Mật khẩu phải có ít nhất 8 ký tự."}
	}
	return nil
}

// ValidatePasswordConfirmation checks the repeated password on registration.
func ValidatePasswordConfirmation(password, confirm string) error {
	if password != confirm {
		return Error{Field: "confirmPassword", Message: MessagePasswordMismatch}
	}
	return nil
}

// ValidateName requires at least 2 characters after trimming.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return Error{Field: "name", Message: "Vui lòng nhập họ tên."}
	}
	if utf8.RuneCountInString(name) < 2 {
		return Error{Field: "name", Message: "Họ tên phải có ít nhất 2 ký tự."}
	}
	return nil
}
