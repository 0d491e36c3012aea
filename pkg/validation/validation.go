package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	// ErrInvalidInput indicates the input failed validation
	ErrInvalidInput = errors.New("invalid input")

	// Algorithm names become report rows, CSV cells and metric labels.
	algorithmNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.+\-]{0,99}$`)

	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.@-]{3,50}$`)
)

// SanitizeString removes potentially dangerous characters and trims whitespace
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters except newline and tab
	var builder strings.Builder
	for _, r := range input {
		if !unicode.IsControl(r) || r == '\n' || r == '\t' {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// ValidateAlgorithmName checks a detector name taken from an input header.
func ValidateAlgorithmName(name string) error {
	if name == "" {
		return errors.New("algorithm name cannot be empty")
	}
	if SanitizeString(name) != name {
		return fmt.Errorf("algorithm name %q contains whitespace or control characters", name)
	}
	if !algorithmNameRegex.MatchString(name) {
		return fmt.Errorf("algorithm name %q must start with alphanumeric and contain only letters, numbers, '_', '-', '.', '+'", name)
	}
	return nil
}

// ValidateLabel checks a category label such as "Botnet" or "Background".
func ValidateLabel(label string) error {
	if label == "" {
		return errors.New("label cannot be empty")
	}
	if strings.ContainsAny(label, "(),:") {
		return fmt.Errorf("label %q must not contain parentheses, commas or colons", label)
	}
	return nil
}

func ValidateUsername(username string) error {
	username = SanitizeString(username)

	if username == "" {
		return errors.New("username cannot be empty")
	}
	if len(username) < 3 {
		return errors.New("username must be at least 3 characters")
	}
	if len(username) > 50 {
		return errors.New("username must not exceed 50 characters")
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("username must contain only letters, numbers, '_', '.', '@' and '-'")
	}

	return nil
}

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	if len(password) > 72 {
		return errors.New("password must not exceed 72 characters")
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return errors.New("password must contain at least one number")
	}
	if !hasSpecial {
		return errors.New("password must contain at least one special character")
	}

	return nil
}

// ValidateWindowWidth bounds the time window width in seconds.
func ValidateWindowWidth(seconds float64) error {
	if seconds <= 0 {
		return errors.New("window width must be positive")
	}
	if seconds > 7*24*3600 {
		return errors.New("window width cannot exceed one week")
	}
	return nil
}

// ValidateAlpha bounds the weighting decay factor.
func ValidateAlpha(alpha float64) error {
	if alpha < 0 {
		return errors.New("alpha must not be negative")
	}
	if alpha > 10 {
		return errors.New("alpha cannot exceed 10")
	}
	return nil
}
