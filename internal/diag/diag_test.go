package diag_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"vellum/internal/diag"
)

func TestReporter_ReportWritesEachError(t *testing.T) {
	var buf bytes.Buffer
	sess := diag.NewSession()
	r := diag.NewReporter(&buf, sess)

	r.Report("check", []error{errors.New("bad type"), errors.New("unknown field")})

	out := buf.String()
	if !strings.Contains(out, "check") {
		t.Fatalf("expected report to mention the phase name, got:\n%s", out)
	}
	if !strings.Contains(out, "bad type") || !strings.Contains(out, "unknown field") {
		t.Fatalf("expected both error messages present, got:\n%s", out)
	}
}

func TestReporter_ReportNoErrorsWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	r := diag.NewReporter(&buf, diag.NewSession())

	r.Report("check", nil)

	if buf.Len() != 0 {
		t.Fatalf("expected no output for an empty error list, got:\n%s", buf.String())
	}
}

func TestReporter_StatsWritesSizeAndDuration(t *testing.T) {
	var buf bytes.Buffer
	r := diag.NewReporter(&buf, diag.NewSession())

	r.Stats(2048, 50*time.Millisecond)

	if buf.Len() == 0 {
		t.Fatalf("expected a stats line to be written")
	}
}

func TestFingerprint_DeterministicForIdenticalSummaries(t *testing.T) {
	s := diag.BuildSummary{ModuleName: "main", ObjectCount: 2, FuncCount: 1, GlobalCount: 3}

	fp1, err := diag.Fingerprint(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fp2, err := diag.Fingerprint(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fp1 != fp2 {
		t.Fatalf("expected identical summaries to fingerprint identically, got %q vs %q", fp1, fp2)
	}
}

func TestFingerprint_DiffersForDifferentSummaries(t *testing.T) {
	a := diag.BuildSummary{ModuleName: "main", ObjectCount: 2, FuncCount: 1, GlobalCount: 3}
	b := diag.BuildSummary{ModuleName: "main", ObjectCount: 3, FuncCount: 1, GlobalCount: 3}

	fpA, err := diag.Fingerprint(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fpB, err := diag.Fingerprint(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fpA == fpB {
		t.Fatalf("expected differing object counts to fingerprint differently, both got %q", fpA)
	}
}
