package httpapistack

import (
	"errors"
	"fmt"
)

// ConfigError is returned when a stack configuration is rejected before any
// construct is created. Code is stable and safe to match on.
type ConfigError struct {
	Code    string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *ConfigError with the same code.
func (e *ConfigError) Is(target error) bool {
	other, ok := target.(*ConfigError)
	return ok && other != nil && other.Code == e.Code
}

var (
	ErrMissingDNSName    = &ConfigError{Code: errorCodeMissingDNSName, Message: errorMessageMissingDNSName}
	ErrMissingCertSource = &ConfigError{Code: errorCodeMissingCertSource, Message: errorMessageMissingCertSource}
	ErrCertWithoutName   = &ConfigError{Code: errorCodeCertWithoutName, Message: errorMessageCertWithoutName}
	ErrNameWithoutCert   = &ConfigError{Code: errorCodeNameWithoutCert, Message: errorMessageNameWithoutCert}
)

// InvalidConfig builds a config.invalid error for problems outside the domain
// table, such as a malformed stack file.
func InvalidConfig(format string, args ...any) *ConfigError {
	return &ConfigError{Code: errorCodeInvalid, Message: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// ConfigErrorCode returns the code of the *ConfigError in err's chain, or "".
func ConfigErrorCode(err error) string {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Code
	}
	return ""
}
