// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

// Build-time variables set via -ldflags.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
