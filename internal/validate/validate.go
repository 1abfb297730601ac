// Package validate classifies uploaded object metadata against the naming
// and format contract. All checks are pure and run on the notification
// payload alone; no remote calls are needed.
package validate

import (
	"path"
	"strings"
	"unicode"

	"github.com/stagehq/upload-validator/internal/domain"
)

const (
	// RequiredExtension is the only file type accepted for validation.
	RequiredExtension = ".txt"

	segmentDelimiter = "-"
	requiredSegments = 4

	// ValidMessage is reported when every check passes.
	ValidMessage = "File is valid"
)

func checkExtension(o domain.ObjectCreated) string {
	key := o.Object.Key
	if key == "" {
		return "Missing object key"
	}
	ext := path.Ext(key)
	if ext == "" {
		return "Missing file extension"
	}
	if ext != RequiredExtension {
		return "Invalid file extension, should be " + RequiredExtension
	}
	return ""
}

func checkSize(o domain.ObjectCreated) string {
	size := o.Object.Size
	if size == nil {
		return "Missing object size"
	}
	if *size <= 0 {
		return "Invalid size, it should be greater than 0"
	}
	return ""
}

// checkName verifies that the key's stem is a product id: exactly four
// segments joined by '-', every segment fully numeric. The two sub-conditions
// report distinct reasons.
func checkName(o domain.ObjectCreated) string {
	key := o.Object.Key
	if key == "" {
		return "Missing object key"
	}
	base := path.Base(key)
	stem := strings.TrimSuffix(base, path.Ext(base))
	parts := strings.Split(stem, segmentDelimiter)
	if len(parts) != requiredSegments {
		return "Invalid file name format, it should be formated as a Prod ID"
	}
	for _, part := range parts {
		for _, r := range part {
			if !unicode.IsDigit(r) {
				return "Invalid file name format, it should be a numeric code"
			}
		}
	}
	return ""
}

// Check runs every check and aggregates all failure reasons. Checks are never
// short-circuited: a caller always sees the full list, joined by ", " in
// declaration order.
func Check(o domain.ObjectCreated) (bool, string) {
	var reasons []string
	for _, check := range []func(domain.ObjectCreated) string{
		checkExtension,
		checkSize,
		checkName,
	} {
		if reason := check(o); reason != "" {
			reasons = append(reasons, reason)
		}
	}
	if len(reasons) == 0 {
		return true, ValidMessage
	}
	return false, strings.Join(reasons, ", ")
}
