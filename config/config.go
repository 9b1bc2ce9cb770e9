// Package config loads per-pipeline YAML configuration files keyed by flat
// underscored option names, and merges parameters published by an upstream
// annotations pipeline under the "annotations_" prefix.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
)

// DefaultCram2FastqYml is written by `seqflow cram2fastq config`.
const DefaultCram2FastqYml = `# seqflow cram2fastq configuration

# directory containing the input .cram files
data_dir: data.dir

# fastq_quality_trimmer settings
preprocess_quality_threshold: 20
preprocess_min_length: 50

# executable used to reconcile trimmed mate pairs
preprocess_reconcile: fastqs2fastqs.py

# keep intermediate per-cram fastq files
keep_temporary: false

# maximum number of concurrent tasks
workers: 4
`

// DefaultBamQCYml is written by `seqflow bamqc config`.
const DefaultBamQCYml = `# seqflow bamqc configuration

# sample manifest: sample_id <tab> paired <tab> strand
samples: samples.tsv

# directory containing <sample_id>.bam files
bam_path: bam.dir

# project database
database: csvdb

# location where the annotations pipeline was run
annotations_dir: ""

picard_cmd: picard
picard_memory: 4G
picard_threads: 1
picard_validation_stringency: SILENT
picard_collectrnaseqmetrics_options: ""
picard_estimatelibrarycomplexity_options: ""
picard_alignmentsummarymetric_options: ""
picard_insertsizemetric_options: ""

# EstimateLibraryComplexity is expensive and only valid for paired data
run_estimatelibrarycomplexity: true

# maximum number of concurrent tasks
workers: 4
`

// Cram2Fastq holds the configuration for the cram2fastq pipeline.
type Cram2Fastq struct {
	DataDir          string
	QualityThreshold int
	MinLength        int
	Reconcile        string
	KeepTemporary    bool
	Workers          int
}

// BamQC holds the configuration for the bamqc pipeline.
type BamQC struct {
	Samples                 string
	BamPath                 string
	Database                string
	AnnotationsDir          string
	AnnotationsDatabase     string
	PicardCmd               string
	PicardMemory            string
	PicardThreads           int
	ValidationStringency    string
	RnaSeqMetricsOptions    string
	LibComplexityOptions    string
	AlignmentSummaryOptions string
	InsertSizeOptions       string
	RunLibraryComplexity    bool
	Workers                 int
}

// GenesetGTF is the interface path to the annotations geneset.
func (c *BamQC) GenesetGTF() string {
	return filepath.Join(c.AnnotationsDir, "api.dir", "geneset.gtf.gz")
}

// Genome is the interface path to the annotations reference genome.
func (c *BamQC) Genome() string {
	return filepath.Join(c.AnnotationsDir, "api.dir", "genome.fa.gz")
}

func read(path string) (*viper.Viper, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("configuration file %s not found: generate one with the config subcommand", path)
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return v, nil
}

// mergeAnnotations reads the upstream annotations pipeline configuration and
// adds its parameters under the "annotations_" prefix. Explicit settings in
// the local configuration always win.
func mergeAnnotations(v *viper.Viper) error {
	dir := v.GetString("annotations_dir")
	if dir == "" {
		return nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	v.Set("annotations_dir", abs)
	v.SetDefault("annotations_database", filepath.Join(abs, "csvdb"))

	upstream := filepath.Join(abs, "pipeline.yml")
	if _, err := os.Stat(upstream); err != nil {
		return nil
	}
	u := viper.New()
	u.SetConfigFile(upstream)
	if err := u.ReadInConfig(); err != nil {
		return fmt.Errorf("reading annotations parameters %s: %w", upstream, err)
	}
	for _, key := range u.AllKeys() {
		v.SetDefault("annotations_"+key, u.Get(key))
	}
	return nil
}

// LoadCram2Fastq reads a cram2fastq pipeline configuration.
func LoadCram2Fastq(path string) (*Cram2Fastq, error) {
	v, err := read(path)
	if err != nil {
		return nil, err
	}
	v.SetDefault("data_dir", "data.dir")
	v.SetDefault("preprocess_quality_threshold", 20)
	v.SetDefault("preprocess_min_length", 50)
	v.SetDefault("preprocess_reconcile", "fastqs2fastqs.py")
	v.SetDefault("keep_temporary", false)
	v.SetDefault("workers", 4)
	return &Cram2Fastq{
		DataDir:          v.GetString("data_dir"),
		QualityThreshold: v.GetInt("preprocess_quality_threshold"),
		MinLength:        v.GetInt("preprocess_min_length"),
		Reconcile:        v.GetString("preprocess_reconcile"),
		KeepTemporary:    v.GetBool("keep_temporary"),
		Workers:          v.GetInt("workers"),
	}, nil
}

// LoadBamQC reads a bamqc pipeline configuration.
func LoadBamQC(path string) (*BamQC, error) {
	v, err := read(path)
	if err != nil {
		return nil, err
	}
	v.SetDefault("samples", "samples.tsv")
	v.SetDefault("bam_path", "bam.dir")
	v.SetDefault("database", "csvdb")
	v.SetDefault("picard_cmd", "picard")
	v.SetDefault("picard_memory", "4G")
	v.SetDefault("picard_threads", 1)
	v.SetDefault("picard_validation_stringency", "SILENT")
	v.SetDefault("run_estimatelibrarycomplexity", true)
	v.SetDefault("workers", 4)
	if err := mergeAnnotations(v); err != nil {
		return nil, err
	}
	return &BamQC{
		Samples:                 v.GetString("samples"),
		BamPath:                 v.GetString("bam_path"),
		Database:                v.GetString("database"),
		AnnotationsDir:          v.GetString("annotations_dir"),
		AnnotationsDatabase:     v.GetString("annotations_database"),
		PicardCmd:               v.GetString("picard_cmd"),
		PicardMemory:            v.GetString("picard_memory"),
		PicardThreads:           v.GetInt("picard_threads"),
		ValidationStringency:    v.GetString("picard_validation_stringency"),
		RnaSeqMetricsOptions:    v.GetString("picard_collectrnaseqmetrics_options"),
		LibComplexityOptions:    v.GetString("picard_estimatelibrarycomplexity_options"),
		AlignmentSummaryOptions: v.GetString("picard_alignmentsummarymetric_options"),
		InsertSizeOptions:       v.GetString("picard_insertsizemetric_options"),
		RunLibraryComplexity:    v.GetBool("run_estimatelibrarycomplexity"),
		Workers:                 v.GetInt("workers"),
	}, nil
}

// WriteDefault writes a default configuration file. Refuses to overwrite an
// existing file so a tuned configuration cannot be clobbered.
func WriteDefault(path, contents string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s exists, not overwriting", path)
	}
	out := fileio.EasyCreate(path)
	_, err := fmt.Fprint(out, contents)
	exception.PanicOnErr(err)
	return out.Close()
}
