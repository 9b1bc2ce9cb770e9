package bamqc

import (
	"fmt"
	"strings"

	"github.com/aswann/seqflow/config"
)

// picard invokes a Picard module through the picard wrapper with the
// configured JVM heap. Module output goes to a mktemp file so that the fixed
// text slices below are the only declared outputs.
func picard(cfg *config.BamQC, module string) string {
	return fmt.Sprintf("%s -Xmx%s %s", cfg.PicardCmd, cfg.PicardMemory, module)
}

func join(steps ...string) string {
	return "set -e; " + strings.Join(steps, "; ")
}

// FlatGenesetStatement flattens the annotations geneset into the refFlat
// format required by CollectRnaSeqMetrics.
func FlatGenesetStatement(gtf string) string {
	return join(
		"gtfToGenePred -genePredExt -geneNameAsName2 -ignoreGroupsWithoutExons " + gtf + " /dev/stdout" +
			` | awk 'BEGIN { OFS="\t"} {print $12, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10}'` +
			" | gzip -c > {o:flat}")
}

// RnaSeqMetricsStatement runs Picard CollectRnaSeqMetrics, keeping the
// two-line metric table and the 100-bin normalized coverage histogram.
func RnaSeqMetricsStatement(bam, genesetFlat, strand, chart string, cfg *config.BamQC) string {
	return join(
		"picard_out=`mktemp -p . ctmp.CollectRnaSeqMetrics.XXXXXXXXXX`",
		fmt.Sprintf("%s -I %s --REF_FLAT %s -O $picard_out --CHART %s"+
			" --STRAND_SPECIFICITY %s --VALIDATION_STRINGENCY %s %s",
			picard(cfg, "CollectRnaSeqMetrics"), bam, genesetFlat, chart,
			strand, cfg.ValidationStringency, cfg.RnaSeqMetricsOptions),
		`grep . $picard_out | grep -v "#" | head -n2 > {o:metrics}`,
		`grep . $picard_out | grep -A 102 "## HISTOGRAM" | grep -v "##" > {o:covhist}`,
		"rm $picard_out")
}

// LibraryComplexityStatement runs Picard EstimateLibraryComplexity.
func LibraryComplexityStatement(bam string, cfg *config.BamQC) string {
	return join(
		"picard_out=`mktemp -p . ctmp.EstimateLibraryComplexity.XXXXXXXXXX`",
		fmt.Sprintf("%s -I %s -O $picard_out --VALIDATION_STRINGENCY %s %s",
			picard(cfg, "EstimateLibraryComplexity"), bam,
			cfg.ValidationStringency, cfg.LibComplexityOptions),
		`grep . $picard_out | grep -v "#" | head -n2 > {o:metrics}`,
		"rm $picard_out")
}

// AlignmentSummaryStatement runs Picard CollectAlignmentSummaryMetrics
// against the annotations reference genome.
func AlignmentSummaryStatement(bam, genome string, cfg *config.BamQC) string {
	return join(
		"picard_out=`mktemp -p . ctmp.CollectAlignmentSummaryMetrics.XXXXXXXXXX`",
		fmt.Sprintf("%s -I %s -O $picard_out --REFERENCE_SEQUENCE %s"+
			" --VALIDATION_STRINGENCY %s %s",
			picard(cfg, "CollectAlignmentSummaryMetrics"), bam, genome,
			cfg.ValidationStringency, cfg.AlignmentSummaryOptions),
		`sed -e '1,/## HISTOGRAM/!d' $picard_out | grep . | grep -v "#" > {o:metrics}`,
		"rm $picard_out")
}

// InsertSizeStatement runs Picard CollectInsertSizeMetrics, splitting the
// output into a summary table and the full histogram. The histogram PDF is
// an undeclared side output next to the histogram table.
func InsertSizeStatement(bam, genome, histogramPdf string, cfg *config.BamQC) string {
	return join(
		"picard_out=`mktemp -p . ctmp.CollectInsertSizeMetrics.XXXXXXXXXX`",
		fmt.Sprintf("%s -I %s -O $picard_out --Histogram_FILE %s"+
			" --VALIDATION_STRINGENCY %s --REFERENCE_SEQUENCE %s %s",
			picard(cfg, "CollectInsertSizeMetrics"), bam, histogramPdf,
			cfg.ValidationStringency, genome, cfg.InsertSizeOptions),
		`grep "MEDIAN_INSERT_SIZE" -A 1 $picard_out > {o:summary}`,
		`sed -e '1,/## HISTOGRAM/d' $picard_out > {o:histogram}`,
		"rm $picard_out")
}

// FractionSplicedStatement counts the fraction of uniquely mapping reads
// whose CIGAR contains a splice (N) operation. Paired-endedness is ignored.
func FractionSplicedStatement(bam string) string {
	return join(
		`echo "fraction_spliced" > {o:out}`,
		"samtools view "+bam+
			" | grep NH:i:1 | cut -f 6"+
			` | awk '{if(index($1,"N")==0){us+=1} else{s+=1}} END{print s/(us+s)}' >> {o:out}`)
}
