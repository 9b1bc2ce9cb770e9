package samples

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "samples.tsv")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRead(t *testing.T) {
	manifest := "sample_id\tpaired\tstrand\tbatch\n" +
		"s2\ttrue\tforward\tb1\n" +
		"s1\tfalse\tnone\tb1\n" +
		"s3\ttrue\treverse\tb2\n"
	s := Read(writeManifest(t, manifest))

	if len(s.Samples) != 3 {
		t.Fatalf("parsed %d samples, want 3", len(s.Samples))
	}
	ids := s.IDs()
	want := []string{"s1", "s2", "s3"}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("IDs()[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
	if s.NPaired() != 2 {
		t.Errorf("NPaired() = %d, want 2", s.NPaired())
	}
	if !s.Paired() {
		t.Error("Paired() should be true when any sample is paired")
	}
	if s.Samples["s1"].Paired {
		t.Error("s1 should be unpaired")
	}
}

func TestUnpairedManifest(t *testing.T) {
	s := Read(writeManifest(t, "sample_id\tpaired\tstrand\ns1\tfalse\tnone\n"))
	if s.Paired() {
		t.Error("Paired() should be false for an all-unpaired manifest")
	}
}

func TestPicardStrand(t *testing.T) {
	tests := []struct {
		strand string
		want   string
	}{
		{"none", "NONE"},
		{"unstranded", "NONE"},
		{"forward", "FIRST_READ_TRANSCRIPTION_STRAND"},
		{"reverse", "SECOND_READ_TRANSCRIPTION_STRAND"},
		{"Reverse", "SECOND_READ_TRANSCRIPTION_STRAND"},
	}
	for _, test := range tests {
		got, err := PicardStrand(test.strand)
		if err != nil {
			t.Errorf("PicardStrand(%q): %v", test.strand, err)
		}
		if got != test.want {
			t.Errorf("PicardStrand(%q) = %s, want %s", test.strand, got, test.want)
		}
	}
	if _, err := PicardStrand("sideways"); err == nil {
		t.Error("expected error for an unknown strand value")
	}
}
