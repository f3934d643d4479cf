package invlocale

import (
	"runtime"
	"runtime/debug"
)

const (
	// Name is the application name.
	Name = "invlocale"

	// Description is a short description of the application.
	Description = "Investment listing localization service"

	// Version is the semantic version of the application.
	Version = "0.3.0"
)

// Set at build time, for example:
//
//	go build -ldflags "-X github.com/ZaguanLabs/invlocale.GitCommit=$(git rev-parse HEAD)"
//
// When left empty they are filled from the VCS stamp the Go toolchain
// embeds in the binary.
var (
	GitCommit string
	BuildDate string
)

// Build describes the running binary.
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	Modified  bool   `json:"modified,omitempty"` // built from a dirty tree
	GoVersion string `json:"go_version"`
}

// BuildInfo reports version and provenance of the running binary.
func BuildInfo() Build {
	b := Build{
		Version:   Version,
		Commit:    GitCommit,
		Date:      BuildDate,
		GoVersion: runtime.Version(),
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "" {
				b.Commit = s.Value
			}
		case "vcs.time":
			if b.Date == "" {
				b.Date = s.Value
			}
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}
	return b
}

// ShortCommit returns the first seven characters of the commit, or "".
func (b Build) ShortCommit() string {
	if len(b.Commit) > 7 {
		return b.Commit[:7]
	}
	return b.Commit
}

// String renders the version with the short commit as build metadata.
func (b Build) String() string {
	v := b.Version
	if c := b.ShortCommit(); c != "" {
		v += "+" + c
		if b.Modified {
			v += ".dirty"
		}
	}
	return v
}

// UserAgent identifies this build, for example in memo dumps.
func UserAgent() string {
	return Name + "/" + BuildInfo().String()
}
