package archetype

import (
	"strings"
	"unicode"
)

// MaskType represents a known data format with masking rules.
type MaskType string

const (
	MaskSSN   MaskType = "ssn"   // 123-45-6789 -> ***-**-6789
	MaskEmail MaskType = "email" // alice@example.com -> a***@example.com
	MaskPhone MaskType = "phone" // (555) 123-4567 -> (***) ***-4567
	MaskCard  MaskType = "card"  // 4111111111111111 -> ************1111
	MaskName  MaskType = "name"  // John Smith -> J*** S****
)

// Masker applies content-aware masking.
type Masker interface {
	Mask(value string) string
}

// MaskerFunc adapts a function to the Masker interface.
type MaskerFunc func(value string) string

// Mask calls f.
func (f MaskerFunc) Mask(value string) string { return f(value) }

// SSNMasker keeps the last four digits of a social security number.
func SSNMasker() Masker {
	return MaskerFunc(func(value string) string {
		digits := extractDigits(value)
		if len(digits) < 4 {
			return strings.Repeat("*", len(value))
		}
		return "***-**-" + digits[len(digits)-4:]
	})
}

// EmailMasker keeps the first character of the local part and the domain.
func EmailMasker() Masker {
	return MaskerFunc(func(value string) string {
		at := strings.LastIndex(value, "@")
		if at < 1 {
			return strings.Repeat("*", len(value))
		}
		return value[:1] + "***" + value[at:]
	})
}

// PhoneMasker keeps the last four digits and the shape of common formats.
func PhoneMasker() Masker {
	return MaskerFunc(func(value string) string {
		digits := extractDigits(value)
		if len(digits) < 4 {
			return strings.Repeat("*", len(value))
		}
		last4 := digits[len(digits)-4:]
		switch {
		case strings.HasPrefix(value, "(") && len(digits) >= 10:
			return "(***) ***-" + last4
		case len(digits) >= 10:
			return "***-***-" + last4
		default:
			return "***-" + last4
		}
	})
}

// CardMasker keeps the last four digits of a card number.
func CardMasker() Masker {
	return MaskerFunc(func(value string) string {
		digits := extractDigits(value)
		if len(digits) < 4 {
			return strings.Repeat("*", len(value))
		}
		last4 := digits[len(digits)-4:]
		switch {
		case strings.Contains(value, " "):
			return maskGroups(len(digits), " ") + " " + last4
		case strings.Contains(value, "-"):
			return maskGroups(len(digits), "-") + "-" + last4
		default:
			return strings.Repeat("*", len(digits)-4) + last4
		}
	})
}

// NameMasker keeps the first letter of each word.
func NameMasker() Masker {
	return MaskerFunc(func(value string) string {
		words := strings.Fields(value)
		for i, word := range words {
			runes := []rune(word)
			words[i] = string(runes[0]) + strings.Repeat("*", len(runes)-1)
		}
		return strings.Join(words, " ")
	})
}

// extractDigits returns only the digit characters from a string.
func extractDigits(s string) string {
	var digits strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	return digits.String()
}

// maskGroups renders the masked leading groups of a card number.
func maskGroups(totalDigits int, sep string) string {
	groups := make([]string, (totalDigits-4+3)/4)
	for i := range groups {
		groups[i] = "****"
	}
	return strings.Join(groups, sep)
}

// builtinMaskers returns the default masker registry.
func builtinMaskers() map[MaskType]Masker {
	return map[MaskType]Masker{
		MaskSSN:   SSNMasker(),
		MaskEmail: EmailMasker(),
		MaskPhone: PhoneMasker(),
		MaskCard:  CardMasker(),
		MaskName:  NameMasker(),
	}
}
