package config

import (
	"errors"
)

// Sentinel errors for configuration loading.
var (
	// ErrUnsupportedFormat indicates the config file extension is not recognized.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrInvalidConfig indicates a config value is out of range.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrUnknownContentType indicates a tag declares an unknown content type.
	ErrUnknownContentType = errors.New("unknown content type")
)

// IsValidationError checks if an error came from Validate.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidConfig) || errors.Is(err, ErrUnknownContentType)
}
