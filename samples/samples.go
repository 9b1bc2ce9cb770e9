// Package samples reads the sample manifest driving per-sample task
// generation. The manifest is a tab separated table with a header naming at
// least the sample_id, paired and strand columns; extra columns are carried
// through to the database load untouched.
package samples

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Sample is one row of the manifest.
type Sample struct {
	ID     string
	Paired bool
	Strand string
}

// PicardStrand maps a manifest strand value onto the matching Picard
// STRAND_SPECIFICITY argument.
func PicardStrand(strand string) (string, error) {
	switch strings.ToLower(strand) {
	case "none", "unstranded":
		return "NONE", nil
	case "forward":
		return "FIRST_READ_TRANSCRIPTION_STRAND", nil
	case "reverse":
		return "SECOND_READ_TRANSCRIPTION_STRAND", nil
	}
	return "", fmt.Errorf("unknown strand %q: expected none, forward or reverse", strand)
}

// Set holds the manifest keyed by sample_id.
type Set struct {
	Samples map[string]Sample
}

// IDs returns the sample identifiers in deterministic order.
func (s *Set) IDs() []string {
	ids := maps.Keys(s.Samples)
	slices.Sort(ids)
	return ids
}

// NPaired counts paired-end samples.
func (s *Set) NPaired() int {
	var n int
	for _, sample := range s.Samples {
		if sample.Paired {
			n++
		}
	}
	return n
}

// Paired reports whether the manifest contains any paired-end samples.
// Paired-only QC modules are gated on this, evaluated once at startup.
func (s *Set) Paired() bool {
	return s.NPaired() > 0
}

// Read parses a sample manifest. Malformed manifests are fatal: every
// downstream task is generated from this table.
func Read(path string) *Set {
	file := fileio.EasyOpen(path)
	header, done := fileio.EasyNextRealLine(file)
	if done {
		log.Fatalf("ERROR: empty sample manifest: %s", path)
	}

	cols := strings.Split(header, "\t")
	idx := make(map[string]int)
	for i := range cols {
		idx[cols[i]] = i
	}
	for _, required := range []string{"sample_id", "paired", "strand"} {
		if _, ok := idx[required]; !ok {
			log.Fatalf("ERROR: sample manifest %s is missing the %s column", path, required)
		}
	}

	answer := &Set{Samples: make(map[string]Sample)}
	var line string
	for line, done = fileio.EasyNextRealLine(file); !done; line, done = fileio.EasyNextRealLine(file) {
		fields := strings.Split(line, "\t")
		if len(fields) != len(cols) {
			log.Fatalf("ERROR: malformed manifest %s\nerror on line:\n%s\n", path, line)
		}
		paired, err := strconv.ParseBool(fields[idx["paired"]])
		if err != nil {
			log.Fatalf("ERROR: manifest %s: paired must be true/false, got %q", path, fields[idx["paired"]])
		}
		curr := Sample{
			ID:     fields[idx["sample_id"]],
			Paired: paired,
			Strand: fields[idx["strand"]],
		}
		if _, err := PicardStrand(curr.Strand); err != nil {
			log.Fatalf("ERROR: manifest %s: sample %s: %v", path, curr.ID, err)
		}
		if _, ok := answer.Samples[curr.ID]; ok {
			log.Fatalf("ERROR: manifest %s: duplicate sample_id %s", path, curr.ID)
		}
		answer.Samples[curr.ID] = curr
	}

	err := file.Close()
	exception.PanicOnErr(err)

	if len(answer.Samples) == 0 {
		log.Fatalf("ERROR: sample manifest %s contains no samples", path)
	}
	return answer
}
