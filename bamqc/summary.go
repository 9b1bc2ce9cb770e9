package bamqc

import (
	"github.com/aswann/seqflow/csvdb"
)

// summaryTables lists the loaded tables joined into the qc summary, in load
// order. Paired-only tables are left out for unpaired runs, and the library
// complexity table is only present when the module actually ran.
func summaryTables(paired, runELC bool) []string {
	tables := []string{"samples", "qc_rnaseq_metrics", "qc_three_prime_bias"}
	if paired && runELC {
		tables = append(tables, "qc_library_complexity")
	}
	tables = append(tables, "qc_fraction_spliced", "qc_alignment_summary_metrics")
	if paired {
		tables = append(tables, "qc_insert_size_metrics")
	}
	return tables
}

// BuildSummarySQL assembles the qc summary query: one row per sample from
// the base samples table, left joined on sample_id against every metric
// table, with the column set switched on the paired mode evaluated at
// startup and on whether library complexity was estimated.
func BuildSummarySQL(paired, runELC bool) string {
	var pairedColumns, elcColumns, pcat string
	if paired {
		pairedColumns = "PCT_READS_ALIGNED_IN_PAIRS as pct_reads_aligned_in_pairs,\n" +
			"MEDIAN_INSERT_SIZE as median_insert_size,\n"
		pcat = "PAIR"
	} else {
		pcat = "UNPAIRED"
	}
	if paired && runELC {
		elcColumns = "ESTIMATED_LIBRARY_SIZE as library_size,\n" +
			"READ_PAIRS_EXAMINED as no_pairs,\n" +
			"PERCENT_DUPLICATION as pct_duplication,\n"
	}

	tables := summaryTables(paired, runELC)
	t1 := tables[0]

	statement := "select distinct samples.*,\n" +
		"fraction_spliced,\n" +
		"three_prime_bias as three_prime_bias,\n" +
		pairedColumns +
		elcColumns +
		"PCT_MRNA_BASES as pct_mrna,\n" +
		"PCT_CODING_BASES as pct_coding,\n" +
		"PCT_PF_READS_ALIGNED as pct_reads_aligned,\n" +
		"TOTAL_READS as total_reads,\n" +
		"PCT_ADAPTER as pct_adapter,\n" +
		"PF_HQ_ALIGNED_READS*1.0/PF_READS as pct_pf_reads_aligned_hq\n" +
		"from " + t1 + "\n"

	for _, table := range tables[1:] {
		statement += "left join " + table + "\n"
		statement += "on " + t1 + ".sample_id=" + table + ".sample_id\n"
	}

	statement += "where qc_alignment_summary_metrics.CATEGORY='" + pcat + "'\n"
	return statement
}

// QCSummary materializes the summary as delimited text and loads it back
// into the database as the qc_summary table.
func QCSummary(db *csvdb.DB, paired, runELC bool, outPath, loadPath string) error {
	if err := db.QueryToTSV(BuildSummarySQL(paired, runELC), outPath); err != nil {
		return err
	}
	return db.Load(outPath, loadPath)
}
