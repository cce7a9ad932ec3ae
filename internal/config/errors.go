package config

import "errors"

// ErrNotFound is returned by GetSetting when the key has never been written
// or has been deleted.
var ErrNotFound = errors.New("setting not found")
