package config

import "errors"

// Error kinds reported by the store. Wrapped errors keep these in their chain,
// so callers match them with errors.Is.
var (
	// ErrFileAccess reports that the configuration file could not be read or written.
	ErrFileAccess = errors.New("configuration file access")

	// ErrParse reports malformed configuration content.
	ErrParse = errors.New("malformed configuration")

	// ErrPathTraversal reports a dotted key that does not resolve.
	ErrPathTraversal = errors.New("configuration path does not resolve")
)
