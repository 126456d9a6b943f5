package sanitization

import (
	"fmt"
	"strings"
)

const redactedValue = "[REDACTED]"

const maskedValue = "***masked***"

// AllowedFields are field names that should bypass key-based sanitization.
var AllowedFields = map[string]bool{
	"stack":       true,
	"stage":       true,
	"domain_name": true,
	"record_name": true,
}

// SanitizationType defines how to sanitize a field.
type SanitizationType int

const (
	FullyRedact SanitizationType = iota
	PartialMask
)

// SensitiveFields defines fields that require explicit sanitization behavior.
//
// Keys are lowercased field names.
var SensitiveFields = map[string]SanitizationType{
	"account":     PartialMask,
	"account_id":  PartialMask,
	"aws_account": PartialMask,

	"password":    FullyRedact,
	"secret":      FullyRedact,
	"private_key": FullyRedact,
	"secret_key":  FullyRedact,

	"aws_secret_access_key": FullyRedact,
	"aws_session_token":     FullyRedact,
	"authorization":         FullyRedact,
}

// SanitizeLogString removes control characters that could enable log forging.
func SanitizeLogString(value string) string {
	if value == "" {
		return value
	}
	value = strings.ReplaceAll(value, "\r", "")
	value = strings.ReplaceAll(value, "\n", "")
	return value
}

// SanitizeFieldValue sanitizes a field value based on its key name.
func SanitizeFieldValue(key string, value any) any {
	keyLower := strings.ToLower(strings.TrimSpace(key))
	if keyLower == "" || AllowedFields[keyLower] {
		return sanitizeValue(value)
	}

	if typ, ok := SensitiveFields[keyLower]; ok {
		if typ == PartialMask {
			return maskAccountValue(value)
		}
		return redactedValue
	}

	for _, substr := range []string{"secret", "token", "password", "credential", "private_key"} {
		if strings.Contains(keyLower, substr) {
			return redactedValue
		}
	}

	return sanitizeValue(value)
}

// MaskAccountID keeps the last four digits of an AWS account id.
func MaskAccountID(value string) string {
	value = strings.TrimSpace(value)
	if len(value) <= 4 {
		return maskedValue
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}

func maskAccountValue(value any) string {
	switch v := value.(type) {
	case string:
		return MaskAccountID(v)
	case *string:
		if v == nil {
			return maskedValue
		}
		return MaskAccountID(*v)
	default:
		return redactedValue
	}
}

func sanitizeValue(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case string:
		return SanitizeLogString(typed)
	case *string:
		if typed == nil {
			return nil
		}
		return SanitizeLogString(*typed)
	case bool, int, int64, float64:
		return typed
	case []string:
		out := make([]string, len(typed))
		for i := range typed {
			out[i] = SanitizeLogString(typed[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = SanitizeFieldValue(k, v)
		}
		return out
	default:
		return SanitizeLogString(fmt.Sprintf("%v", typed))
	}
}
