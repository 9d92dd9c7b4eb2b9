// Package version reports the build of the running binary. Values come from
// -ldflags when set and fall back to runtime/debug.BuildInfo otherwise, so a
// plain `go install` still reports its module version and VCS revision.
package version
