package toolcache

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/any-hub/toolcache/pkg/platform"
)

func TestToolGlob(t *testing.T) {
	root := filepath.Join("cache", "root")
	sep := string(filepath.Separator)

	cases := []struct {
		version string
		arch    platform.Arch
		want    string
	}{
		{"12.x", platform.X64, filepath.Join(root, "node", "12.*", "x64") + sep},
		{"1.x.x", platform.ARM64, filepath.Join(root, "node", "1.*.*", "arm64") + sep},
		{"12.7.0", platform.ArchAny, filepath.Join(root, "node", "12.7.0", "**") + sep},
		{"*", platform.ArchAny, filepath.Join(root, "node", "*", "**") + sep},
	}
	for _, tc := range cases {
		if got := ToolGlob(root, "node", tc.version, tc.arch); got != tc.want {
			t.Fatalf("ToolGlob(%s, %s) = %s, want %s", tc.version, tc.arch, got, tc.want)
		}
	}
}

func TestToolPathUsesDisplayArch(t *testing.T) {
	root := filepath.Join("cache", "root")
	got := ToolPath(root, "node", "12.x", platform.ArchAny)
	want := filepath.Join(root, "node", "12.x", "any") + string(filepath.Separator)
	if got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestToolFromPathRoundTrip(t *testing.T) {
	root := filepath.Join("opt", "hostedtoolcache")
	for _, arch := range []platform.Arch{platform.X64, platform.ARM64} {
		tool, err := ToolFromPath(ToolPath(root, "node", "12.7.0", arch))
		if err != nil {
			t.Fatalf("decompose: %v", err)
		}
		if tool.Name() != "node" || tool.Version() != "12.7.0" || tool.Arch() != arch {
			t.Fatalf("round trip mismatch for %s: %+v", arch, tool)
		}
	}
}

func TestToolFromPath(t *testing.T) {
	tool, err := ToolFromPath("node/12.7.0/x64")
	if err != nil {
		t.Fatalf("decompose: %v", err)
	}
	if tool.Path() != "node/12.7.0/x64" || tool.String() != tool.Path() {
		t.Fatalf("path should be kept verbatim, got %s", tool.Path())
	}
	if got := tool.Join("bin", "node"); got != filepath.Join("node/12.7.0/x64", "bin", "node") {
		t.Fatalf("unexpected join %s", got)
	}

	for _, short := range []string{"", "x64", "12.7.0/x64", "/12.7.0/x64/"} {
		if _, err := ToolFromPath(short); !errors.Is(err, ErrInvalidToolPath) {
			t.Fatalf("ToolFromPath(%q) expected ErrInvalidToolPath, got %v", short, err)
		}
	}
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"node", "go", "python3", "dotnet-sdk", "node.js"} {
		if err := ValidateName(name); err != nil {
			t.Fatalf("ValidateName(%q) unexpected error %v", name, err)
		}
	}
	for _, name := range []string{"", ".", "..", "a/../b", "a/b", `a\b`, "a\x00b", "n*", "n?", "n[", "n{a,b}"} {
		if err := ValidateName(name); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("ValidateName(%q) expected ErrInvalidName, got %v", name, err)
		}
	}
}
