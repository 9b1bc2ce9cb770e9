package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/aswann/seqflow/config"
	"github.com/aswann/seqflow/cram2fastq"
	"github.com/aswann/seqflow/pipeline"
	sp "github.com/scipipe/scipipe"
	"github.com/vertgenlab/gonomics/exception"
)

func cram2fastqUsage(flags *flag.FlagSet) {
	fmt.Print(
		"cram2fastq - convert sanger cram files to reconciled fastq pairs\n" +
			"\tValidates crams, groups them per cell by the @RG SM tag, extracts\n" +
			"\tfastqs with cramtools, quality trims and reconciles the mate pairs.\n\n" +
			"Usage:\n" +
			"  seqflow cram2fastq [options] config\n" +
			"  seqflow cram2fastq [options] make <target>\n" +
			"  seqflow cram2fastq [options] full\n" +
			"  seqflow cram2fastq [options] targets\n\n" +
			"Options:\n")
	flags.PrintDefaults()
}

func runCram2Fastq(args []string) {
	flags := flag.NewFlagSet("cram2fastq", flag.ExitOnError)
	configFile := flags.String("config", "pipeline.yml", "Pipeline configuration file.")
	err := flags.Parse(args)
	exception.PanicOnErr(err)
	flags.Usage = func() { cram2fastqUsage(flags) }

	runVerb(flags, "cram2fastq", *configFile, config.DefaultCram2FastqYml, func() *pipeline.Pipeline {
		cfg, err := config.LoadCram2Fastq(*configFile)
		if err != nil {
			log.Fatalf("ERROR: %v", err)
		}
		return cram2fastq.New(cfg)
	})
}

// runVerb handles the framework-conventional verbs shared by all pipelines.
// The pipeline is only assembled for verbs that need it, so `config` works
// before any input files exist.
func runVerb(flags *flag.FlagSet, name, configFile, defaultYml string, build func() *pipeline.Pipeline) {
	verb := flags.Arg(0)
	switch verb {
	case "config":
		if err := config.WriteDefault(configFile, defaultYml); err != nil {
			log.Fatalf("ERROR: %v", err)
		}
		log.Printf("%s: wrote default configuration to %s", name, configFile)
	case "targets":
		fmt.Println(strings.Join(build().Targets(), "\n"))
	case "make", "full":
		target := "full"
		if verb == "make" {
			target = flags.Arg(1)
			if target == "" {
				flags.Usage()
				errExit("\nERROR: make requires a target, see `seqflow " + name + " targets`")
			}
		}
		sp.InitLogInfo()
		p := build()
		if target == "full" {
			err := p.Run()
			if err != nil {
				log.Fatalf("ERROR: %v", err)
			}
		} else if err := p.RunTo(target); err != nil {
			log.Fatalf("ERROR: %v", err)
		}
	default:
		flags.Usage()
		errExit("\nERROR: expected one of: config, make <target>, full, targets")
	}
}
