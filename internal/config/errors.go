package config

import "fmt"

// SettingsDecodeError occurs when a didChangeConfiguration payload
// cannot be decoded into Settings.
type SettingsDecodeError struct {
	Err error
}

func (e *SettingsDecodeError) Error() string {
	return fmt.Sprintf("failed to decode client settings: %v", e.Err)
}

func (e *SettingsDecodeError) Unwrap() error {
	return e.Err
}
