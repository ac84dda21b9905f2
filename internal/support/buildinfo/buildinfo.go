// Package buildinfo carries the version stamped into release binaries.
package buildinfo

// Version is overridden at link time via
// -ldflags "-X corral/internal/support/buildinfo.Version=...".
var Version = "dev"
