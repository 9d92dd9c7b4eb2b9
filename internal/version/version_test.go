package version

import (
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func saveRestore(t *testing.T) {
	t.Helper()
	origVersion, origCommit, origDate, origDirty := Version, Commit, Date, dirty
	t.Cleanup(func() {
		Version, Commit, Date, dirty = origVersion, origCommit, origDate, origDirty
	})
}

func bi(mainVersion string, settings map[string]string) *debug.BuildInfo {
	info := &debug.BuildInfo{
		Main: debug.Module{Version: mainVersion},
	}
	for k, v := range settings {
		info.Settings = append(info.Settings, debug.BuildSetting{Key: k, Value: v})
	}
	return info
}

func TestApplyBuildInfo(t *testing.T) {
	tests := []struct {
		name        string
		ldflags     bool
		buildInfo   *debug.BuildInfo
		wantVersion string
		wantCommit  string
		wantDate    string
		wantDirty   bool
	}{
		{
			name:        "ldflags win",
			ldflags:     true,
			buildInfo:   bi("v0.5.0", map[string]string{"vcs.revision": "deadbeefcafe", "vcs.time": "2024-06-01T00:00:00Z"}),
			wantVersion: "1.2.3",
			wantCommit:  "abc1234",
			wantDate:    "2025-01-01T00:00:00Z",
		},
		{
			name:        "module version only",
			buildInfo:   bi("v0.5.0", nil),
			wantVersion: "0.5.0",
			wantCommit:  "none",
			wantDate:    "unknown",
		},
		{
			name:        "devel build with vcs settings",
			buildInfo:   bi("(devel)", map[string]string{"vcs.revision": "deadbeefcafe123", "vcs.time": "2024-06-01T12:00:00Z", "vcs.modified": "true"}),
			wantVersion: "dev",
			wantCommit:  "deadbee",
			wantDate:    "2024-06-01T12:00:00Z",
			wantDirty:   true,
		},
		{
			name:        "empty build info",
			buildInfo:   &debug.BuildInfo{},
			wantVersion: "dev",
			wantCommit:  "none",
			wantDate:    "unknown",
		},
		{
			name:        "short revision kept whole",
			buildInfo:   bi("(devel)", map[string]string{"vcs.revision": "abc", "vcs.modified": "false"}),
			wantVersion: "dev",
			wantCommit:  "abc",
			wantDate:    "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saveRestore(t)
			Version, Commit, Date, dirty = "dev", "none", "unknown", false
			if tt.ldflags {
				Version, Commit, Date = "1.2.3", "abc1234", "2025-01-01T00:00:00Z"
			}

			applyBuildInfo(tt.buildInfo)

			assert.Equal(t, tt.wantVersion, Version, "Version")
			assert.Equal(t, tt.wantCommit, Commit, "Commit")
			assert.Equal(t, tt.wantDate, Date, "Date")
			assert.Equal(t, tt.wantDirty, dirty, "dirty")
		})
	}
}

func TestInfoString(t *testing.T) {
	saveRestore(t)
	Version, Commit, Date, dirty = "1.0.0", "abc1234", "2025-01-01", true

	s := Get().String()
	assert.True(t, strings.HasPrefix(s, "dohapi version 1.0.0 (commit: abc1234-dirty, built: 2025-01-01, go"), s)
}
