// Package buildinfo holds version metadata injected at link time with
// -ldflags "-X github.com/picklesmaker/pickles/internal/buildinfo.Version=...".
package buildinfo

var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)
