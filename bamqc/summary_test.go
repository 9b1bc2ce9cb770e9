package bamqc

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/aswann/seqflow/csvdb"
	"github.com/vertgenlab/gonomics/fileio"
)

func TestBuildSummarySQLPaired(t *testing.T) {
	sql := BuildSummarySQL(true, true)
	for _, want := range []string{
		"select distinct samples.*",
		"pct_reads_aligned_in_pairs",
		"median_insert_size",
		"pct_duplication",
		"left join qc_library_complexity",
		"left join qc_insert_size_metrics",
		"on samples.sample_id=qc_rnaseq_metrics.sample_id",
		"CATEGORY='PAIR'",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("paired summary SQL missing %q:\n%s", want, sql)
		}
	}
}

func TestBuildSummarySQLPairedNoELC(t *testing.T) {
	sql := BuildSummarySQL(true, false)
	if strings.Contains(sql, "qc_library_complexity") {
		t.Error("library complexity must not be joined when the module did not run")
	}
	if !strings.Contains(sql, "median_insert_size") {
		t.Error("paired columns should still be selected without ELC")
	}
}

func TestBuildSummarySQLUnpaired(t *testing.T) {
	sql := BuildSummarySQL(false, true)
	for _, absent := range []string{
		"median_insert_size",
		"pct_duplication",
		"qc_library_complexity",
		"qc_insert_size_metrics",
	} {
		if strings.Contains(sql, absent) {
			t.Errorf("unpaired summary SQL must not contain %q", absent)
		}
	}
	if !strings.Contains(sql, "CATEGORY='UNPAIRED'") {
		t.Error("unpaired summary SQL must select the UNPAIRED category")
	}
}

func TestQCSummary(t *testing.T) {
	dir := t.TempDir()
	db, err := csvdb.Open(filepath.Join(dir, "csvdb"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	exec := func(stmt string) {
		t.Helper()
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}
	exec(`CREATE TABLE samples (sample_id TEXT, paired TEXT)`)
	exec(`INSERT INTO samples VALUES ('s1', 'false'), ('s2', 'false')`)
	exec(`CREATE TABLE qc_rnaseq_metrics (sample_id TEXT, PCT_MRNA_BASES NUMERIC, PCT_CODING_BASES NUMERIC)`)
	exec(`INSERT INTO qc_rnaseq_metrics VALUES ('s1', 0.8, 0.5), ('s2', 0.7, 0.4)`)
	// s2 deliberately missing: the join must keep it with NULL bias
	exec(`CREATE TABLE qc_three_prime_bias (sample_id TEXT, three_prime_bias NUMERIC)`)
	exec(`INSERT INTO qc_three_prime_bias VALUES ('s1', 0.91)`)
	exec(`CREATE TABLE qc_fraction_spliced (sample_id TEXT, fraction_spliced NUMERIC)`)
	exec(`INSERT INTO qc_fraction_spliced VALUES ('s1', 0.41), ('s2', 0.33)`)
	exec(`CREATE TABLE qc_alignment_summary_metrics (sample_id TEXT, CATEGORY TEXT,
		PCT_PF_READS_ALIGNED NUMERIC, TOTAL_READS NUMERIC, PCT_ADAPTER NUMERIC,
		PF_HQ_ALIGNED_READS NUMERIC, PF_READS NUMERIC)`)
	exec(`INSERT INTO qc_alignment_summary_metrics VALUES
		('s1', 'UNPAIRED', 0.95, 1000, 0.01, 900, 1000),
		('s2', 'UNPAIRED', 0.91, 2000, 0.02, 1700, 2000)`)

	out := filepath.Join(dir, "qc_summary.txt")
	loadPath := filepath.Join(dir, "qc_summary.load")
	if err := QCSummary(db, false, false, out, loadPath); err != nil {
		t.Fatal(err)
	}

	lines := fileio.Read(out)
	if len(lines) != 3 {
		t.Fatalf("summary has %d lines, want header plus one row per sample", len(lines))
	}
	if !strings.Contains(lines[0], "three_prime_bias") || !strings.Contains(lines[0], "pct_mrna") {
		t.Errorf("summary header = %q", lines[0])
	}
	var s2 string
	for _, line := range lines[1:] {
		if strings.HasPrefix(line, "s2\t") {
			s2 = line
		}
	}
	if s2 == "" {
		t.Fatal("sample s2 missing from summary despite being in the base table")
	}
	if !strings.Contains(s2, "\t\t") && !strings.HasSuffix(s2, "\t") {
		// bias column for s2 must be empty after the NULL-filled join
		t.Errorf("expected a NULL-filled field in the s2 row: %q", s2)
	}

	// the summary is loaded back as qc_summary
	var n int
	if err := db.QueryRow(`SELECT count(*) FROM qc_summary`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("qc_summary has %d rows, want 2", n)
	}
}
