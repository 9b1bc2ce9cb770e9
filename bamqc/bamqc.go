// Package bamqc computes QC metrics from per-sample BAM files with the
// Picard toolkit plus two small in-repo computations, loads every metric
// table into the project database and distils a joined qc_summary table.
package bamqc

import (
	"log"
	"os"
	"path/filepath"

	"github.com/aswann/seqflow/config"
	"github.com/aswann/seqflow/csvdb"
	"github.com/aswann/seqflow/pipeline"
	"github.com/aswann/seqflow/samples"
	sp "github.com/scipipe/scipipe"
	"github.com/vertgenlab/gonomics/exception"
)

const (
	QCDir          = "bam.qc.dir"
	AnnotationsDir = "annotations.dir"
)

var (
	rnaseqDir  = filepath.Join(QCDir, "rnaseq.metrics.dir")
	elcDir     = filepath.Join(QCDir, "estimate.library.complexity.dir")
	asmDir     = filepath.Join(QCDir, "alignment.summary.metrics.dir")
	insertDir  = filepath.Join(QCDir, "insert.size.metrics.dir")
	splicedDir = filepath.Join(QCDir, "fraction.spliced.dir")
)

func bamPath(cfg *config.BamQC, sampleID string) string {
	return filepath.Join(cfg.BamPath, sampleID+".bam")
}

func rnaseqMetricsPath(sampleID string) string {
	return filepath.Join(rnaseqDir, sampleID+".rnaseq.metrics")
}

func covHistPath(sampleID string) string {
	return filepath.Join(rnaseqDir, sampleID+".rnaseq.cov.hist")
}

func biasPath(sampleID string) string {
	return filepath.Join(rnaseqDir, sampleID+".three.prime.bias")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func mkdir(dirs ...string) {
	for _, dir := range dirs {
		err := os.MkdirAll(dir, 0755)
		exception.PanicOnErr(err)
	}
}

// New assembles the bamqc pipeline. The paired flag is evaluated once here,
// from the manifest, and gates every paired-only stage and the summary
// column set.
func New(cfg *config.BamQC) *pipeline.Pipeline {
	s := samples.Read(cfg.Samples)
	paired := s.Paired()
	runELC := paired && cfg.RunLibraryComplexity

	genesetFlat := filepath.Join(AnnotationsDir, "geneset.flat.gz")
	p := &pipeline.Pipeline{Name: "bamqc"}

	p.Stages = append(p.Stages, pipeline.Shell("flat_geneset", cfg.Workers, func(wf *sp.Workflow) {
		mkdir(AnnotationsDir)
		gtf := cfg.GenesetGTF()
		if !fileExists(gtf) {
			log.Fatalf("ERROR: annotations geneset GTF not found: %s", gtf)
		}
		flat := wf.NewProc("flat_geneset", FlatGenesetStatement(gtf))
		flat.SetOut("flat", genesetFlat)
	}))

	p.Stages = append(p.Stages, pipeline.Shell("rnaseq_metrics", cfg.Workers, func(wf *sp.Workflow) {
		mkdir(rnaseqDir)
		for _, id := range s.IDs() {
			strand, err := samples.PicardStrand(s.Samples[id].Strand)
			exception.PanicOnErr(err)
			chart := filepath.Join(rnaseqDir, id+".rnaseq.cov.pdf")
			proc := wf.NewProc("rnaseq_metrics_"+id,
				RnaSeqMetricsStatement(bamPath(cfg, id), genesetFlat, strand, chart, cfg))
			proc.SetOut("metrics", rnaseqMetricsPath(id))
			proc.SetOut("covhist", covHistPath(id))
		}
	}))

	p.Stages = append(p.Stages, pipeline.Native("three_prime_bias", func() error {
		for _, id := range s.IDs() {
			hist, err := ReadCoverageHistogram(covHistPath(id))
			if err != nil {
				return err
			}
			if err := WriteBias(ThreePrimeBias(hist), biasPath(id)); err != nil {
				return err
			}
			profile := filepath.Join(rnaseqDir, id+".cov.profile.txt")
			if err := WriteCoverageProfile(hist, id, profile); err != nil {
				return err
			}
		}
		return nil
	}))

	p.Stages = append(p.Stages, pipeline.Shell("library_complexity", cfg.Workers, func(wf *sp.Workflow) {
		mkdir(elcDir)
		for _, id := range s.IDs() {
			if !s.Samples[id].Paired {
				continue
			}
			proc := wf.NewProc("library_complexity_"+id,
				LibraryComplexityStatement(bamPath(cfg, id), cfg))
			proc.SetOut("metrics", filepath.Join(elcDir, id+".library.complexity"))
		}
	}).When(runELC))

	p.Stages = append(p.Stages, pipeline.Shell("alignment_summary_metrics", cfg.Workers, func(wf *sp.Workflow) {
		mkdir(asmDir)
		genome := cfg.Genome()
		if !fileExists(genome) {
			log.Fatalf("ERROR: annotations reference genome not found: %s", genome)
		}
		for _, id := range s.IDs() {
			proc := wf.NewProc("alignment_summary_metrics_"+id,
				AlignmentSummaryStatement(bamPath(cfg, id), genome, cfg))
			proc.SetOut("metrics", filepath.Join(asmDir, id+".alignment.summary.metrics"))
		}
	}))

	p.Stages = append(p.Stages, pipeline.Shell("insert_size_metrics", cfg.Workers, func(wf *sp.Workflow) {
		mkdir(insertDir)
		genome := cfg.Genome()
		if !fileExists(genome) {
			log.Fatalf("ERROR: annotations reference genome not found: %s", genome)
		}
		for _, id := range s.IDs() {
			if !s.Samples[id].Paired {
				continue
			}
			histogram := filepath.Join(insertDir, id+".insert.size.metrics.histogram")
			proc := wf.NewProc("insert_size_metrics_"+id,
				InsertSizeStatement(bamPath(cfg, id), genome, histogram+".pdf", cfg))
			proc.SetOut("summary", filepath.Join(insertDir, id+".insert.size.metrics.summary"))
			proc.SetOut("histogram", histogram)
		}
	}).When(paired))

	p.Stages = append(p.Stages, pipeline.Shell("fraction_spliced", cfg.Workers, func(wf *sp.Workflow) {
		mkdir(splicedDir)
		for _, id := range s.IDs() {
			proc := wf.NewProc("fraction_spliced_"+id,
				FractionSplicedStatement(bamPath(cfg, id)))
			proc.SetOut("out", filepath.Join(splicedDir, id+".fraction.spliced"))
		}
	}))

	p.Stages = append(p.Stages, pipeline.Native("load_metrics", func() error {
		db, err := csvdb.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Load(cfg.Samples, "samples.load", "sample_id"); err != nil {
			return err
		}

		var rnaseq, bias, spliced, asm, elc, insSummary, insHistogram []string
		for _, id := range s.IDs() {
			rnaseq = append(rnaseq, rnaseqMetricsPath(id))
			bias = append(bias, biasPath(id))
			spliced = append(spliced, filepath.Join(splicedDir, id+".fraction.spliced"))
			asm = append(asm, filepath.Join(asmDir, id+".alignment.summary.metrics"))
			if s.Samples[id].Paired {
				if runELC {
					elc = append(elc, filepath.Join(elcDir, id+".library.complexity"))
				}
				insSummary = append(insSummary, filepath.Join(insertDir, id+".insert.size.metrics.summary"))
				insHistogram = append(insHistogram, filepath.Join(insertDir, id+".insert.size.metrics.histogram"))
			}
		}

		type load struct {
			files  []string
			marker string
			regex  string
			index  []string
		}
		loads := []load{
			{rnaseq, "qc_rnaseq_metrics.load", `.*/(.*)\.rnaseq\.metrics`, []string{"sample_id"}},
			{bias, "qc_three_prime_bias.load", `.*/(.*)\.three\.prime\.bias`, []string{"sample_id"}},
			{spliced, "qc_fraction_spliced.load", `.*/(.*)\.fraction\.spliced`, []string{"sample_id"}},
			{asm, "qc_alignment_summary_metrics.load", `.*/(.*)\.alignment\.summary\.metrics`, []string{"sample_id"}},
		}
		if runELC {
			loads = append(loads,
				load{elc, "qc_library_complexity.load", `.*/(.*)\.library\.complexity`, []string{"sample_id"}})
		}
		if paired {
			loads = append(loads,
				load{insSummary, "qc_insert_size_metrics.load", `.*/(.*)\.insert\.size\.metrics\.summary`, nil},
				load{insHistogram, "qc_insert_size_histogram.load", `.*/(.*)\.insert\.size\.metrics\.histogram`, []string{"insert_size"}})
		}
		for _, l := range loads {
			err := db.ConcatenateAndLoad(l.files, filepath.Join(QCDir, l.marker), l.regex, "sample_id", l.index...)
			if err != nil {
				return err
			}
		}
		return nil
	}))

	p.Stages = append(p.Stages, pipeline.Native("qc_summary", func() error {
		db, err := csvdb.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		return QCSummary(db, paired, runELC,
			filepath.Join(QCDir, "qc_summary.txt"),
			filepath.Join(QCDir, "qc_summary.load"))
	}))

	return p
}
