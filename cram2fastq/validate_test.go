package cram2fastq

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vertgenlab/gonomics/fileio"
)

func writeValidations(t *testing.T, statuses map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, status := range statuses {
		err := os.WriteFile(filepath.Join(dir, name+".validate"), []byte(status+"\n"), 0644)
		if err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestInspectValidationsAllPass(t *testing.T) {
	dir := writeValidations(t, map[string]string{"a": "0", "b": "0", "c": "0"})
	summary := filepath.Join(dir, "summary.txt")
	if err := InspectValidations(dir, summary); err != nil {
		t.Fatal(err)
	}

	lines := fileio.Read(summary)
	if len(lines) != 3 {
		t.Fatalf("summary has %d lines, want one per validation file", len(lines))
	}
	for _, line := range lines {
		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			t.Errorf("summary line is not two tab separated fields: %q", line)
		}
		if fields[1] != "0" {
			t.Errorf("unexpected status in %q", line)
		}
	}
}

func TestInspectValidationsFailure(t *testing.T) {
	dir := writeValidations(t, map[string]string{"a": "0", "b": "1"})
	summary := filepath.Join(dir, "summary.txt")
	err := InspectValidations(dir, summary)
	if err == nil {
		t.Fatal("expected an error when any cram fails validation")
	}

	// the summary must still be written in full before the abort
	lines := fileio.Read(summary)
	if len(lines) != 2 {
		t.Errorf("summary has %d lines, want 2", len(lines))
	}
}

func TestInspectValidationsNoFiles(t *testing.T) {
	dir := t.TempDir()
	if err := InspectValidations(dir, filepath.Join(dir, "summary.txt")); err == nil {
		t.Error("expected an error when no validation files exist")
	}
}

func TestValidatePath(t *testing.T) {
	got := ValidatePath("data.dir/sample1.cram")
	want := filepath.Join(ValidateDir, "sample1.validate")
	if got != want {
		t.Errorf("ValidatePath = %s, want %s", got, want)
	}
}
