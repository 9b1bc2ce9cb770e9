package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/aswann/seqflow/bamqc"
	"github.com/aswann/seqflow/config"
	"github.com/aswann/seqflow/pipeline"
	"github.com/vertgenlab/gonomics/exception"
)

func bamqcUsage(flags *flag.FlagSet) {
	fmt.Print(
		"bamqc - compute bam qc metrics and load them into a project database\n" +
			"\tRuns Picard CollectRnaSeqMetrics, CollectAlignmentSummaryMetrics,\n" +
			"\tCollectInsertSizeMetrics and EstimateLibraryComplexity, computes the\n" +
			"\tthree prime bias and spliced read fraction, and builds a qc_summary\n" +
			"\ttable joined on sample_id.\n\n" +
			"Usage:\n" +
			"  seqflow bamqc [options] config\n" +
			"  seqflow bamqc [options] make <target>\n" +
			"  seqflow bamqc [options] full\n" +
			"  seqflow bamqc [options] targets\n\n" +
			"Options:\n")
	flags.PrintDefaults()
}

func runBamQC(args []string) {
	flags := flag.NewFlagSet("bamqc", flag.ExitOnError)
	configFile := flags.String("config", "pipeline.yml", "Pipeline configuration file.")
	err := flags.Parse(args)
	exception.PanicOnErr(err)
	flags.Usage = func() { bamqcUsage(flags) }

	runVerb(flags, "bamqc", *configFile, config.DefaultBamQCYml, func() *pipeline.Pipeline {
		cfg, err := config.LoadBamQC(*configFile)
		if err != nil {
			log.Fatalf("ERROR: %v", err)
		}
		return bamqc.New(cfg)
	})
}
