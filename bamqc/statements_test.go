package bamqc

import (
	"strings"
	"testing"

	"github.com/aswann/seqflow/config"
)

func testConfig() *config.BamQC {
	return &config.BamQC{
		PicardCmd:            "picard",
		PicardMemory:         "4G",
		ValidationStringency: "SILENT",
	}
}

func assertContains(t *testing.T, statement string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(statement, want) {
			t.Errorf("statement missing %q:\n%s", want, statement)
		}
	}
}

func TestRnaSeqMetricsStatement(t *testing.T) {
	cfg := testConfig()
	cfg.RnaSeqMetricsOptions = "--MINIMUM_LENGTH 400"
	statement := RnaSeqMetricsStatement(
		"bam.dir/s1.bam", "annotations.dir/geneset.flat.gz",
		"FIRST_READ_TRANSCRIPTION_STRAND", "s1.cov.pdf", cfg)
	assertContains(t, statement,
		"picard -Xmx4G CollectRnaSeqMetrics",
		"-I bam.dir/s1.bam",
		"--REF_FLAT annotations.dir/geneset.flat.gz",
		"--STRAND_SPECIFICITY FIRST_READ_TRANSCRIPTION_STRAND",
		"--VALIDATION_STRINGENCY SILENT",
		"--MINIMUM_LENGTH 400",
		`head -n2 > {o:metrics}`,
		`grep -A 102 "## HISTOGRAM"`,
		"{o:covhist}",
		"rm $picard_out")
}

func TestLibraryComplexityStatement(t *testing.T) {
	statement := LibraryComplexityStatement("bam.dir/s1.bam", testConfig())
	assertContains(t, statement,
		"picard -Xmx4G EstimateLibraryComplexity",
		"-I bam.dir/s1.bam",
		"head -n2 > {o:metrics}")
}

func TestAlignmentSummaryStatement(t *testing.T) {
	statement := AlignmentSummaryStatement("bam.dir/s1.bam", "api.dir/genome.fa.gz", testConfig())
	assertContains(t, statement,
		"picard -Xmx4G CollectAlignmentSummaryMetrics",
		"--REFERENCE_SEQUENCE api.dir/genome.fa.gz",
		`sed -e '1,/## HISTOGRAM/!d'`,
		"{o:metrics}")
}

func TestInsertSizeStatement(t *testing.T) {
	statement := InsertSizeStatement("bam.dir/s1.bam", "api.dir/genome.fa.gz", "s1.hist.pdf", testConfig())
	assertContains(t, statement,
		"picard -Xmx4G CollectInsertSizeMetrics",
		"--Histogram_FILE s1.hist.pdf",
		`grep "MEDIAN_INSERT_SIZE" -A 1 $picard_out > {o:summary}`,
		`sed -e '1,/## HISTOGRAM/d' $picard_out > {o:histogram}`)
}

func TestFractionSplicedStatement(t *testing.T) {
	statement := FractionSplicedStatement("bam.dir/s1.bam")
	assertContains(t, statement,
		`echo "fraction_spliced" > {o:out}`,
		"samtools view bam.dir/s1.bam",
		"grep NH:i:1",
		"cut -f 6",
		`index($1,"N")==0`,
		"print s/(us+s)")
}

func TestFlatGenesetStatement(t *testing.T) {
	statement := FlatGenesetStatement("api.dir/geneset.gtf.gz")
	assertContains(t, statement,
		"gtfToGenePred -genePredExt -geneNameAsName2 -ignoreGroupsWithoutExons api.dir/geneset.gtf.gz",
		"print $12, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10",
		"gzip -c > {o:flat}")
}
