package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

type tarEntry struct {
	name     string
	body     string
	mode     int64
	typeflag byte
	linkname string
}

func TestExtractTarGzAndTgz(t *testing.T) {
	for _, name := range []string{"node-v20.tar.gz", "node-v20.tgz"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			archivePath := filepath.Join(dir, name)
			writeTar(t, archivePath, true, []tarEntry{
				{name: "bin/", typeflag: tar.TypeDir, mode: 0o755},
				{name: "bin/node", body: "#!/bin/sh\necho node\n", mode: 0o755},
				{name: "README.md", body: "docs", mode: 0o644},
			})

			dest := filepath.Join(dir, "out")
			if err := Extract(context.Background(), archivePath, dest); err != nil {
				t.Fatalf("extract failed: %v", err)
			}
			assertFile(t, filepath.Join(dest, "bin", "node"), "#!/bin/sh\necho node\n")
			assertFile(t, filepath.Join(dest, "README.md"), "docs")

			if runtime.GOOS != "windows" {
				info, err := os.Stat(filepath.Join(dest, "bin", "node"))
				if err != nil {
					t.Fatalf("stat: %v", err)
				}
				if info.Mode().Perm()&0o100 == 0 {
					t.Fatalf("executable bit should be preserved, got %v", info.Mode())
				}
			}
		})
	}
}

func TestExtractPlainTar(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "go1.21.5.tar")
	writeTar(t, archivePath, false, []tarEntry{
		{name: "go/bin/go", body: "go-binary", mode: 0o755},
	})

	dest := filepath.Join(dir, "dest")
	if err := Extract(context.Background(), archivePath, dest); err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	assertFile(t, filepath.Join(dest, "go", "bin", "go"), "go-binary")
}

func TestExtractZip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "tool.zip")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("tool/tool.exe")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	_, _ = w.Write([]byte("MZ"))
	if _, err := zw.Create("tool/empty/"); err != nil {
		t.Fatalf("zip dir: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := os.WriteFile(archivePath, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write zip: %v", err)
	}

	dest := filepath.Join(dir, "dest")
	if err := Extract(context.Background(), archivePath, dest); err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	assertFile(t, filepath.Join(dest, "tool", "tool.exe"), "MZ")
	if info, err := os.Stat(filepath.Join(dest, "tool", "empty")); err != nil || !info.IsDir() {
		t.Fatalf("expected empty dir to be created: %v", err)
	}
}

func TestExtractUnknownFormatLeavesDestUntouched(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"tool.rar", "tool"} {
		archivePath := filepath.Join(dir, name)
		if err := os.WriteFile(archivePath, []byte("data"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		dest := filepath.Join(dir, "dest-"+name)

		err := Extract(context.Background(), archivePath, dest)
		if !errors.Is(err, ErrInvalidInput) || !errors.Is(err, ErrUnknownFormat) {
			t.Fatalf("expected ErrUnknownFormat for %s, got %v", name, err)
		}
		if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
			t.Fatalf("dest should not be created for %s", name)
		}
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.tar")
	writeTar(t, archivePath, false, []tarEntry{
		{name: "../escaped.txt", body: "pwned", mode: 0o644},
	})

	dest := filepath.Join(dir, "dest")
	err := Extract(context.Background(), archivePath, dest)
	if !errors.Is(err, ErrUnsafePath) {
		t.Fatalf("expected ErrUnsafePath, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "escaped.txt")); !os.IsNotExist(statErr) {
		t.Fatalf("entry must not be written outside dest")
	}
}

func TestExtractRejectsEscapingSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "link.tar.gz")
	writeTar(t, archivePath, true, []tarEntry{
		{name: "lib/ok", typeflag: tar.TypeSymlink, linkname: "../bin/tool"},
		{name: "lib/bad", typeflag: tar.TypeSymlink, linkname: "../../../etc/passwd"},
	})

	err := Extract(context.Background(), archivePath, filepath.Join(dir, "dest"))
	if !errors.Is(err, ErrUnsafePath) {
		t.Fatalf("expected ErrUnsafePath for escaping symlink, got %v", err)
	}
	if _, err := os.Lstat(filepath.Join(dir, "dest", "lib", "ok")); err != nil {
		t.Fatalf("in-tree symlink should have been created: %v", err)
	}
}

func TestExtractRejectsChainedSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "chain.tar")
	writeTar(t, archivePath, false, []tarEntry{
		{name: "d", typeflag: tar.TypeSymlink, linkname: "."},
		{name: "d/e", typeflag: tar.TypeSymlink, linkname: ".."},
		{name: "e/pwned.txt", body: "pwned"},
	})

	err := Extract(context.Background(), archivePath, filepath.Join(dir, "dest"))
	if !errors.Is(err, ErrUnsafePath) {
		t.Fatalf("expected ErrUnsafePath for chained symlink, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "pwned.txt")); !os.IsNotExist(statErr) {
		t.Fatalf("entry must not be written outside dest")
	}
}

func TestExtractZipRejectsChainedSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "chain.zip")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, link := range []struct{ name, target string }{{"d", "."}, {"d/e", ".."}} {
		header := &zip.FileHeader{Name: link.name, Method: zip.Store}
		header.SetMode(os.ModeSymlink | 0o777)
		w, err := zw.CreateHeader(header)
		if err != nil {
			t.Fatalf("zip symlink header: %v", err)
		}
		_, _ = w.Write([]byte(link.target))
	}
	w, err := zw.Create("e/pwned.txt")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	_, _ = w.Write([]byte("pwned"))
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := os.WriteFile(archivePath, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write zip: %v", err)
	}

	err = Extract(context.Background(), archivePath, filepath.Join(dir, "dest"))
	if !errors.Is(err, ErrUnsafePath) {
		t.Fatalf("expected ErrUnsafePath for chained zip symlink, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "pwned.txt")); !os.IsNotExist(statErr) {
		t.Fatalf("entry must not be written outside dest")
	}
}

func TestExtractReplacesSymlinkInsteadOfWritingThrough(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "replace.tar")
	writeTar(t, archivePath, false, []tarEntry{
		{name: "current", typeflag: tar.TypeSymlink, linkname: "v1"},
		{name: "current", body: "plain"},
	})

	dest := filepath.Join(dir, "dest")
	if err := Extract(context.Background(), archivePath, dest); err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	info, err := os.Lstat(filepath.Join(dest, "current"))
	if err != nil || info.Mode()&os.ModeSymlink != 0 {
		t.Fatalf("current should be a regular file: %v %v", info, err)
	}
	if _, err := os.Stat(filepath.Join(dest, "v1")); !os.IsNotExist(err) {
		t.Fatalf("link target must not be written through")
	}
}

func TestExtractHardLinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hard links are not exercised on windows")
	}
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "links.tar")
	writeTar(t, archivePath, false, []tarEntry{
		{name: "bin/tool", body: "tool", mode: 0o755},
		{name: "bin/alias", typeflag: tar.TypeLink, linkname: "bin/tool"},
	})
	dest := filepath.Join(dir, "dest")
	if err := Extract(context.Background(), archivePath, dest); err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	assertFile(t, filepath.Join(dest, "bin", "alias"), "tool")

	badPath := filepath.Join(dir, "badlink.tar")
	writeTar(t, badPath, false, []tarEntry{
		{name: "bin/", typeflag: tar.TypeDir, mode: 0o755},
		{name: "alias", typeflag: tar.TypeLink, linkname: "bin"},
	})
	err := Extract(context.Background(), badPath, filepath.Join(dir, "dest2"))
	if !errors.Is(err, ErrUnsafePath) {
		t.Fatalf("hard link to a directory should be rejected, got %v", err)
	}
}

func TestExtractCorruptGzipIsFormatError(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "broken.tgz")
	if err := os.WriteFile(archivePath, []byte("not gzip"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := Extract(context.Background(), archivePath, filepath.Join(dir, "dest"))
	var formatErr *FormatError
	if !errors.As(err, &formatErr) || formatErr.Format != FormatTarGz {
		t.Fatalf("expected FormatError(tar.gz), got %v", err)
	}
}

type fakeRunner struct {
	calls [][]string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, int, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.err != nil {
		return nil, []byte("xz: corrupt"), 2, f.err
	}
	return nil, nil, 0, nil
}

func TestExtractTarXzShellsOut(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "ffmpeg.tar.xz")
	if err := os.WriteFile(archivePath, []byte("xz"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	dest := filepath.Join(dir, "dest")

	runner := &fakeRunner{}
	ex := NewExtractor(Options{Runner: runner})
	if err := ex.Extract(context.Background(), archivePath, dest); err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected one tar invocation, got %d", len(runner.calls))
	}
	want := []string{"tar", "-xJf", archivePath, "-C", dest}
	for i, arg := range want {
		if runner.calls[0][i] != arg {
			t.Fatalf("unexpected tar args: %v", runner.calls[0])
		}
	}

	runner.err = errors.New("exit status 2")
	err := ex.Extract(context.Background(), archivePath, dest)
	var formatErr *FormatError
	if !errors.As(err, &formatErr) || formatErr.Format != FormatTarXz {
		t.Fatalf("expected FormatError(tar.xz), got %v", err)
	}
}

func TestDetectFormat(t *testing.T) {
	cases := map[string]Format{
		"a.zip":    FormatZip,
		"a.ZIP":    FormatZip,
		"a.tar.gz": FormatTarGz,
		"a.tgz":    FormatTarGz,
		"a.tar":    FormatTar,
		"a.tar.xz": FormatTarXz,
		"a.txz":    FormatTarXz,
	}
	for name, want := range cases {
		got, err := DetectFormat(name)
		if err != nil || got != want {
			t.Fatalf("DetectFormat(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
}

func writeTar(t *testing.T, path string, gzipped bool, entries []tarEntry) {
	t.Helper()
	var buf bytes.Buffer
	var tw *tar.Writer
	var gz *gzip.Writer
	if gzipped {
		gz = gzip.NewWriter(&buf)
		tw = tar.NewWriter(gz)
	} else {
		tw = tar.NewWriter(&buf)
	}

	for _, entry := range entries {
		typeflag := entry.typeflag
		if typeflag == 0 {
			typeflag = tar.TypeReg
		}
		mode := entry.mode
		if mode == 0 {
			mode = 0o644
		}
		header := &tar.Header{
			Name:     entry.name,
			Mode:     mode,
			Typeflag: typeflag,
			Linkname: entry.linkname,
		}
		if typeflag == tar.TypeReg {
			header.Size = int64(len(entry.body))
		}
		if err := tw.WriteHeader(header); err != nil {
			t.Fatalf("tar header: %v", err)
		}
		if typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(entry.body)); err != nil {
				t.Fatalf("tar body: %v", err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			t.Fatalf("gzip close: %v", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
}

func assertFile(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if string(data) != want {
		t.Fatalf("%s content mismatch: %q", path, string(data))
	}
}
