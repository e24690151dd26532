// Package buildinfo carries release metadata stamped in by the linker, e.g.
//
//	go build -ldflags "-X github.com/m3rciful/examsbot/core/buildinfo.Version=v0.3.0" ./cmd/examsbot
package buildinfo

// Unstamped builds report Version "dev" and Commit "local".
var (
	Version = "dev"
	Commit  = "local"
	// Date is the build time in RFC 3339.
	Date = ""
)
