package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}
}

func paths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func assertPaths(t *testing.T, got []FileInfo, want ...string) {
	t.Helper()
	gotPaths := paths(got)
	if len(gotPaths) != len(want) {
		t.Fatalf("Scan() = %v, want %v", gotPaths, want)
	}
	for i := range want {
		if gotPaths[i] != want[i] {
			t.Errorf("Scan()[%d] = %s, want %s", i, gotPaths[i], want[i])
		}
	}
}

func TestScannerScan(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"Main.java":                  "class Main {}",
		"util/Helper.java":           "class Helper {}",
		"README.md":                  "# Test",
		"src/app.py":                 "print('hello')",
		".hidden/Secret.java":        "class Secret {}",
		"target/classes/Gen.java":    "class Gen {}",
		"node_modules/pkg/Lib.java":  "class Lib {}",
		"src/main/java/a/Upper.JAVA": "class Upper {}",
	})

	results, err := New(DefaultOptions()).Scan(context.Background(), tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	assertPaths(t, results, "Main.java", "src/main/java/a/Upper.JAVA", "util/Helper.java")

	for _, f := range results {
		if !filepath.IsAbs(f.FullPath) {
			t.Errorf("FullPath %s should be absolute", f.FullPath)
		}
		if f.Size == 0 {
			t.Errorf("Size of %s should be set", f.Path)
		}
	}
}

func TestScannerWithIgnoreFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		".gfgignore": `# generated sources
generated/
*Test.java
!KeepTest.java
`,
		"App.java":                "class App {}",
		"AppTest.java":            "class AppTest {}",
		"KeepTest.java":           "class KeepTest {}",
		"generated/Stub.java":     "class Stub {}",
		"pkg/Service.java":        "class Service {}",
		"pkg/ServiceTest.java":    "class ServiceTest {}",
		"pkg/.gfgignore":          "Legacy.java\n",
		"pkg/Legacy.java":         "class Legacy {}",
		"other/Legacy.java":       "class Legacy {}",
		"other/deep/Legacy2.java": "class Legacy2 {}",
	})

	results, err := Scan(context.Background(), tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	assertPaths(t, results,
		"App.java",
		"KeepTest.java",
		"other/Legacy.java",
		"other/deep/Legacy2.java",
		"pkg/Service.java",
	)
}

func TestScannerSingleFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{"One.java": "class One {}", "notes.txt": "x"})

	results, err := Scan(context.Background(), filepath.Join(tmpDir, "One.java"))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	assertPaths(t, results, "One.java")

	results, err = Scan(context.Background(), filepath.Join(tmpDir, "notes.txt"))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results for a non-Java file, got %v", paths(results))
	}
}

func TestScannerCustomOptions(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		".config/Cfg.java": "class Cfg {}",
		"build/Out.java":   "class Out {}",
		"Kt.kt":            "class Kt",
	})

	results, err := New(Options{SkipHidden: false, Extensions: []string{".java", ".kt"}}).Scan(context.Background(), tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	assertPaths(t, results, ".config/Cfg.java", "Kt.kt", "build/Out.java")
}

func TestScannerErrors(t *testing.T) {
	if _, err := Scan(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for a missing root")
	}

	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{"A.java": "class A {}"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Scan(ctx, tmpDir); err == nil {
		t.Error("expected error for a canceled context")
	}
}
