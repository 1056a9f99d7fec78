// Package version holds the application version, overridden at build time with
// -ldflags "-X github.com/adithyabsk/portfoliohut/internal/version.Version=...".
package version

var Version = "dev"
