package logger

import "strings"

var sensitiveKeys = []string{
	"token",
	"password",
	"passwd",
	"pwd",
	"secret",
	"api_key",
	"apikey",
	"api-key",
	"authorization",
	"auth",
	"credential",
	"dsn",
}

// MaskToken hides the middle of a secret, keeping the first and last four
// characters when the value is long enough to stay identifiable.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) < 8 {
		return "***"
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

// IsSensitiveKey reports whether a log key names a secret-bearing field.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, sk := range sensitiveKeys {
		if strings.Contains(keyLower, sk) {
			return true
		}
	}
	return false
}

// SanitizeValue masks the value when its key looks sensitive.
func SanitizeValue(key string, value any) any {
	if !IsSensitiveKey(key) {
		return value
	}
	if s, ok := value.(string); ok {
		return MaskToken(s)
	}
	return "***MASKED***"
}

// SanitizeArgs walks slog-style key/value pairs and masks values whose keys
// look sensitive. Non-string keys pass through untouched.
func SanitizeArgs(args ...any) []any {
	if len(args) == 0 {
		return args
	}
	result := make([]any, len(args))
	for i := 0; i < len(args); i += 2 {
		result[i] = args[i]
		if i+1 < len(args) {
			if key, ok := args[i].(string); ok {
				result[i+1] = SanitizeValue(key, args[i+1])
			} else {
				result[i+1] = args[i+1]
			}
		}
	}
	return result
}
