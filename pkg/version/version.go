// Package version exposes the build metadata stamped into the coordchat
// binaries at release time:
//
//	go build -ldflags "\
//	  -X coordchat/pkg/version.tag=v0.3.0 \
//	  -X coordchat/pkg/version.commit=$(git rev-parse --short HEAD) \
//	  -X coordchat/pkg/version.date=$(date -u +%F)" ./cmd/server
//
// An unstamped build (plain `go build` during development) reports "dev".
package version

var (
	tag    = ""        // release tag, empty for untagged builds
	commit = "unknown" // short commit SHA
	date   = "unknown" // build date, ISO 8601
)

// String returns the short version: the tag when stamped, the commit for
// untagged builds, "dev" otherwise.
func String() string {
	switch {
	case tag != "":
		return tag
	case commit != "unknown":
		return commit
	default:
		return "dev"
	}
}

// Full returns the long form shown by `coordchat-server -version`, e.g.
// "v0.3.0 (ab12cd3) built 2026-08-29".
func Full() string {
	switch {
	case tag != "":
		return tag + " (" + commit + ") built " + date
	case commit != "unknown":
		return commit + " built " + date
	default:
		return "dev"
	}
}

// Tag returns the release tag, or "" for untagged builds.
func Tag() string { return tag }

// Commit returns the short commit SHA.
func Commit() string { return commit }

// Date returns the build date.
func Date() string { return date }
