package manager

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fetchy-pm/fetchy/pkg/config"
	"github.com/fetchy-pm/fetchy/pkg/depgraph"
	"github.com/fetchy-pm/fetchy/pkg/platform"
	"github.com/fetchy-pm/fetchy/pkg/store"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	home := t.TempDir()
	cfg := &config.Config{Home: home}
	m, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func writeRepoFile(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "repo.fetchy")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing repo file: %v", err)
	}
	return path
}

func TestAddListRemoveRepo(t *testing.T) {
	m := newTestManager(t)
	src := `
name "tools" description "test tools" packages {
	"ffmpeg": Direct version("1.0") {
		linux[x86_64] "https://example.com/ffmpeg" bin "ffmpeg"
	}
}
`
	path := writeRepoFile(t, t.TempDir(), src)

	repo, warnings, err := m.AddRepo(path)
	if err != nil {
		t.Fatalf("AddRepo: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if repo.Name != "tools" {
		t.Errorf("repo.Name = %q, want %q", repo.Name, "tools")
	}

	names, err := m.ListRepos()
	if err != nil {
		t.Fatalf("ListRepos: %v", err)
	}
	if len(names) != 1 || names[0] != "tools" {
		t.Fatalf("ListRepos = %v", names)
	}

	loaded, err := m.LoadRepo("tools")
	if err != nil {
		t.Fatalf("LoadRepo: %v", err)
	}
	if len(loaded.Packages) != 1 {
		t.Fatalf("expected 1 package, got %d", len(loaded.Packages))
	}

	if err := m.RemoveRepo("tools"); err != nil {
		t.Fatalf("RemoveRepo: %v", err)
	}
	names, err = m.ListRepos()
	if err != nil {
		t.Fatalf("ListRepos: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected repo removed, got %v", names)
	}
}

func TestRemoveRepoForbiddenWhenInUse(t *testing.T) {
	m := newTestManager(t)
	if _, _, err := m.AddRepo(writeRepoFile(t, t.TempDir(), `
name "tools" description "d" packages {
	"ffmpeg": Direct version("1.0") {
		linux[x86_64] "https://example.com/ffmpeg" bin "ffmpeg"
	}
}
`)); err != nil {
		t.Fatalf("AddRepo: %v", err)
	}

	plat := platform.Platform{OS: platform.Linux, Arch: platform.X86_64}
	if err := m.Store.Insert(store.NewRecord("tools", "ffmpeg", "1.0", plat, nil, nil, store.Explicit, time.Unix(1000, 0))); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	err := m.RemoveRepo("tools")
	if _, ok := err.(*RepoInUse); !ok {
		t.Fatalf("expected *RepoInUse, got %v (%T)", err, err)
	}
}

// server serves a fixed-content single-file "binary" at every registered path.
func fileServer(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, content := range files {
		body := content
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
	}
	return httptest.NewServer(mux)
}

func TestInstallDirectSourceChainAndUninstallSweep(t *testing.T) {
	m := newTestManager(t)

	srv := fileServer(t, map[string]string{
		"/ffmpeg": "#!/bin/sh\necho ffmpeg-1.0",
		"/ytdlp":  "#!/bin/sh\necho ytdlp-2.0",
	})
	defer srv.Close()

	src := fmt.Sprintf(`
name "tools" description "d" packages {
	"yt-dlp" (requires "ffmpeg"): Direct version("2.0") {
		linux[x86_64] "%s/ytdlp" bin "yt-dlp"
	}
	"ffmpeg": Direct version("1.0") {
		linux[x86_64] "%s/ffmpeg" bin "ffmpeg"
	}
}
`, srv.URL, srv.URL)

	if _, _, err := m.AddRepo(writeRepoFile(t, t.TempDir(), src)); err != nil {
		t.Fatalf("AddRepo: %v", err)
	}

	ctx := context.Background()
	if err := m.Install(ctx, "tools", "yt-dlp"); err != nil {
		t.Fatalf("Install: %v", err)
	}

	rows, err := m.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 installed packages, got %d: %+v", len(rows), rows)
	}

	ytdlp, err := m.Store.Get("tools", "yt-dlp")
	if err != nil {
		t.Fatalf("Get yt-dlp: %v", err)
	}
	if ytdlp.InstalledAs != store.Explicit {
		t.Errorf("yt-dlp InstalledAs = %v, want Explicit", ytdlp.InstalledAs)
	}
	ffmpeg, err := m.Store.Get("tools", "ffmpeg")
	if err != nil {
		t.Fatalf("Get ffmpeg: %v", err)
	}
	if ffmpeg.InstalledAs != store.Dependency {
		t.Errorf("ffmpeg InstalledAs = %v, want Dependency", ffmpeg.InstalledAs)
	}
	if len(ffmpeg.InstalledBinaries) != 1 {
		t.Fatalf("expected one installed binary for ffmpeg, got %v", ffmpeg.InstalledBinaries)
	}
	if _, err := os.Stat(ffmpeg.InstalledBinaries[0]); err != nil {
		t.Errorf("expected ffmpeg binary on disk: %v", err)
	}

	// Installing again is idempotent (I5): the second call should not error
	// and should leave both records untouched.
	if err := m.Install(ctx, "tools", "yt-dlp"); err != nil {
		t.Fatalf("second Install: %v", err)
	}

	// Uninstalling ffmpeg directly should be blocked by yt-dlp's dependency.
	err = m.Uninstall("tools", "ffmpeg")
	if breakErr, ok := err.(*depgraph.WouldBreakDependents); !ok {
		t.Fatalf("expected *WouldBreakDependents, got %v (%T)", err, err)
	} else if len(breakErr.Dependents) != 1 || breakErr.Dependents[0].PackageName != "yt-dlp" {
		t.Errorf("unexpected dependents: %v", breakErr.Dependents)
	}

	// Uninstalling yt-dlp sweeps ffmpeg too, since nothing else depends on it.
	if err := m.Uninstall("tools", "yt-dlp"); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	rows, err = m.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty store after orphan sweep, got %+v", rows)
	}
	if _, err := os.Stat(ffmpeg.InstalledBinaries[0]); !os.IsNotExist(err) {
		t.Errorf("expected ffmpeg binary removed from disk")
	}
}

func TestUninstallThreeLevelChainReportsAllDependents(t *testing.T) {
	m := newTestManager(t)

	srv := fileServer(t, map[string]string{
		"/ffmpeg": "#!/bin/sh\necho ffmpeg-1.0",
		"/ytdlp":  "#!/bin/sh\necho ytdlp-2.0",
		"/ytdl":   "#!/bin/sh\necho ytdl-3.0",
	})
	defer srv.Close()

	src := fmt.Sprintf(`
name "tools" description "d" packages {
	"ytdl" (requires "yt-dlp"): Direct version("3.0") {
		linux[x86_64] "%s/ytdl" bin "ytdl"
	}
	"yt-dlp" (requires "ffmpeg"): Direct version("2.0") {
		linux[x86_64] "%s/ytdlp" bin "yt-dlp"
	}
	"ffmpeg": Direct version("1.0") {
		linux[x86_64] "%s/ffmpeg" bin "ffmpeg"
	}
}
`, srv.URL, srv.URL, srv.URL)

	if _, _, err := m.AddRepo(writeRepoFile(t, t.TempDir(), src)); err != nil {
		t.Fatalf("AddRepo: %v", err)
	}

	ctx := context.Background()
	if err := m.Install(ctx, "tools", "ytdl"); err != nil {
		t.Fatalf("Install: %v", err)
	}

	// Uninstalling ffmpeg, two levels down from the explicit root ytdl, must
	// report both yt-dlp (Dependency-marked) and ytdl (Explicit) as
	// dependents -- not just the explicit one (spec.md §8 scenario 3).
	err := m.Uninstall("tools", "ffmpeg")
	breakErr, ok := err.(*depgraph.WouldBreakDependents)
	if !ok {
		t.Fatalf("expected *WouldBreakDependents, got %v (%T)", err, err)
	}
	want := map[string]bool{"yt-dlp": true, "ytdl": true}
	if len(breakErr.Dependents) != len(want) {
		t.Fatalf("Dependents = %v, want %v", breakErr.Dependents, want)
	}
	for _, d := range breakErr.Dependents {
		if !want[d.PackageName] {
			t.Errorf("unexpected dependent %v", d)
		}
	}
}

func TestInstallPromotesExistingDependencyToExplicit(t *testing.T) {
	m := newTestManager(t)

	srv := fileServer(t, map[string]string{
		"/ffmpeg": "#!/bin/sh\necho ffmpeg-1.0",
		"/ytdlp":  "#!/bin/sh\necho ytdlp-2.0",
	})
	defer srv.Close()

	src := fmt.Sprintf(`
name "tools" description "d" packages {
	"yt-dlp" (requires "ffmpeg"): Direct version("2.0") {
		linux[x86_64] "%s/ytdlp" bin "yt-dlp"
	}
	"ffmpeg": Direct version("1.0") {
		linux[x86_64] "%s/ffmpeg" bin "ffmpeg"
	}
}
`, srv.URL, srv.URL)

	if _, _, err := m.AddRepo(writeRepoFile(t, t.TempDir(), src)); err != nil {
		t.Fatalf("AddRepo: %v", err)
	}

	ctx := context.Background()
	if err := m.Install(ctx, "tools", "yt-dlp"); err != nil {
		t.Fatalf("Install: %v", err)
	}

	ffmpeg, err := m.Store.Get("tools", "ffmpeg")
	if err != nil {
		t.Fatalf("Get ffmpeg: %v", err)
	}
	if ffmpeg.InstalledAs != store.Dependency {
		t.Fatalf("ffmpeg InstalledAs = %v, want Dependency", ffmpeg.InstalledAs)
	}
	installedBinary := ffmpeg.InstalledBinaries[0]

	// The user now installs ffmpeg directly -- it must be promoted to
	// Explicit, not silently skipped (spec.md §4.8), so a later uninstall of
	// yt-dlp does not sweep it away as an orphan.
	if err := m.Install(ctx, "tools", "ffmpeg"); err != nil {
		t.Fatalf("Install ffmpeg: %v", err)
	}
	ffmpeg, err = m.Store.Get("tools", "ffmpeg")
	if err != nil {
		t.Fatalf("Get ffmpeg: %v", err)
	}
	if ffmpeg.InstalledAs != store.Explicit {
		t.Errorf("ffmpeg InstalledAs = %v, want Explicit after direct install", ffmpeg.InstalledAs)
	}
	if ffmpeg.InstalledBinaries[0] != installedBinary {
		t.Errorf("promotion should not refetch or re-place the binary, got %v", ffmpeg.InstalledBinaries)
	}

	if err := m.Uninstall("tools", "yt-dlp"); err != nil {
		t.Fatalf("Uninstall yt-dlp: %v", err)
	}
	if _, err := m.Store.Get("tools", "ffmpeg"); err != nil {
		t.Errorf("expected ffmpeg to remain installed after yt-dlp uninstall, got %v", err)
	}
}

func TestUpdateNoOpWhenVersionUnchanged(t *testing.T) {
	m := newTestManager(t)
	srv := fileServer(t, map[string]string{"/tool": "content"})
	defer srv.Close()

	src := fmt.Sprintf(`
name "tools" description "d" packages {
	"tool": Direct version("1.0") {
		linux[x86_64] "%s/tool" bin "tool"
	}
}
`, srv.URL)
	if _, _, err := m.AddRepo(writeRepoFile(t, t.TempDir(), src)); err != nil {
		t.Fatalf("AddRepo: %v", err)
	}

	ctx := context.Background()
	if err := m.Install(ctx, "tools", "tool"); err != nil {
		t.Fatalf("Install: %v", err)
	}
	before, err := m.Store.Get("tools", "tool")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if err := m.Update(ctx, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}
	after, err := m.Store.Get("tools", "tool")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if before.ResolvedVersion != after.ResolvedVersion || before.InstalledAt != after.InstalledAt {
		t.Errorf("expected no-op update, before=%+v after=%+v", before, after)
	}
}
