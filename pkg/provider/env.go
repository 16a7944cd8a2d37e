package provider

import "os"

// envLookup reads the named environment variable, returning "" for an
// empty name (the Local provider kind has no credential).
func envLookup(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
