package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
)

const version string = "0.1.0"

type subcommand struct {
	name     string
	function func(args []string)
	blurb    string
}

// SubCommands contains all valid subcommands.
// New pipelines can be added to seqflow by adding a new entry to this array.
var SubCommands = []*subcommand{
	{"cram2fastq", runCram2Fastq, "convert sanger cram files to reconciled fastq pairs"},
	{"bamqc", runBamQC, "compute bam qc metrics and load them into a project database"},
}

func usage() {
	s := new(strings.Builder)
	s.WriteString(
		"Program: seqflow (sequencing preprocessing and qc pipelines)\n" +
			"Version: " + version + "\n" +
			"\nUsage:\tseqflow <pipeline> [options] config | make <target> | full | targets\n\n" +
			"Pipelines:\n")

	// add subcommand text via tabwriter so the columns align
	w := tabwriter.NewWriter(s, 0, 8, 5, '\t', tabwriter.AlignRight)
	for i := range SubCommands {
		fmt.Fprintf(w, "\t%s\t%s\n", SubCommands[i].name, SubCommands[i].blurb)
	}
	w.Flush()
	fmt.Print(s.String())
}

// commandMap builds a map of possible subcommands keyed on the name of the subcommand
func commandMap() map[string]func(args []string) {
	m := make(map[string]func(args []string))
	for i := range SubCommands {
		m[SubCommands[i].name] = SubCommands[i].function
	}
	return m
}

func main() {
	flag.Usage = usage
	flag.Parse()

	// check if first argument is a valid subcommand
	command := commandMap()[flag.Arg(0)]

	// if no command is found, print the usage and return
	if command == nil {
		flag.Usage()
		return
	}

	// if command successfully found, pass in remaining arguments and execute
	command(flag.Args()[1:])
}

func errExit(err string) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
