package main

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

const sampleProgram = `object ball {
    int x;

    event create {
        x = 0;
    }
    event step {
        x += 1;
    }
}
`

func TestRun_DefaultModePrintsIR(t *testing.T) {
	t.Setenv("VELLUM_CACHE_DSN", "")
	var out, errOut bytes.Buffer
	code := run(nil, strings.NewReader(sampleProgram), &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr: %s)", code, errOut.String())
	}
	if !strings.Contains(out.String(), "ball") {
		t.Fatalf("expected IR dump to mention object 'ball', got:\n%s", out.String())
	}
}

func TestRun_ASTMode(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"-a"}, strings.NewReader(sampleProgram), &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr: %s)", code, errOut.String())
	}
	if !strings.Contains(out.String(), "ball") {
		t.Fatalf("expected AST dump to mention object 'ball', got:\n%s", out.String())
	}
}

func TestRun_LowerMode(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"-l"}, strings.NewReader(sampleProgram), &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr: %s)", code, errOut.String())
	}
	if out.Len() == 0 {
		t.Fatalf("expected non-empty lowered IR output")
	}
}

func TestRun_MutuallyExclusiveFlagsRejected(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"-a", "-l"}, strings.NewReader(sampleProgram), &out, &errOut)
	if code == 0 {
		t.Fatalf("expected a nonzero exit code when -a and -l are both passed")
	}
}

func TestRun_ParseErrorExitsNonZero(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(nil, strings.NewReader("object { int x }"), &out, &errOut)
	if code == 0 {
		t.Fatalf("expected a nonzero exit code for malformed source")
	}
	if errOut.Len() == 0 {
		t.Fatalf("expected a diagnostic written to stderr")
	}
}

func TestRun_BuildCacheRoundTrip(t *testing.T) {
	dbPath := tempCachePath(t)
	t.Setenv("VELLUM_CACHE_DSN", "")
	orig := sampleProgram

	var out1, err1 bytes.Buffer
	if code := runWithCache(nil, strings.NewReader(orig), &out1, &err1, dbPath); code != 0 {
		t.Fatalf("first compile failed: %s", err1.String())
	}

	var out2, err2 bytes.Buffer
	if code := runWithCache(nil, strings.NewReader(orig), &out2, &err2, dbPath); code != 0 {
		t.Fatalf("second (cached) compile failed: %s", err2.String())
	}

	if out1.String() != out2.String() {
		t.Fatalf("expected identical output from cache hit, got:\n%s\nvs\n%s", out1.String(), out2.String())
	}
}

// tempCachePath gives each cache test its own sqlite file so tests don't
// interfere with one another via the shared default path.
func tempCachePath(t *testing.T) string {
	t.Helper()
	return t.TempDir() + "/vellum-buildcache-test.db"
}

// runWithCache duplicates run()'s wiring but lets the test pin down the
// cache database path instead of the default os.TempDir() location.
func runWithCache(args []string, stdin *strings.Reader, stdout, stderr *bytes.Buffer, dbPath string) int {
	old := os.Getenv("VELLUM_TEST_CACHE_PATH")
	os.Setenv("VELLUM_TEST_CACHE_PATH", dbPath)
	defer os.Setenv("VELLUM_TEST_CACHE_PATH", old)
	return run(args, stdin, stdout, stderr)
}
