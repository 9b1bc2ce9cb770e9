// Package cram2fastq converts Sanger CRAM files to gzipped fastq. CRAMs are
// validated, grouped per cell by their read group sample tag, extracted with
// cramtools, quality trimmed and pair reconciled. The heavy lifting is done
// by external tools; this package derives paths, builds the shell statements
// and wires them into scipipe workflows.
package cram2fastq

import (
	"log"
	"os"
	"path/filepath"

	"github.com/aswann/seqflow/config"
	"github.com/aswann/seqflow/pipeline"
	sp "github.com/scipipe/scipipe"
	spcomp "github.com/scipipe/scipipe/components"
	"github.com/vertgenlab/gonomics/exception"
)

const (
	ValidateDir = "validate.cram.dir"
	CellInfoDir = "cell.info.dir"
	FastqDir    = "fastq.dir"
	TempDir     = "fastq.temp.dir"
)

func cramFiles(dataDir string) []string {
	crams, err := filepath.Glob(filepath.Join(dataDir, "*.cram"))
	exception.PanicOnErr(err)
	if len(crams) == 0 {
		log.Fatalf("ERROR: no .cram files found in %s", dataDir)
	}
	return crams
}

func mkdir(dirs ...string) {
	for _, dir := range dirs {
		err := os.MkdirAll(dir, 0755)
		exception.PanicOnErr(err)
	}
}

// New assembles the cram2fastq pipeline.
func New(cfg *config.Cram2Fastq) *pipeline.Pipeline {
	p := &pipeline.Pipeline{Name: "cram2fastq"}

	p.Stages = append(p.Stages, pipeline.Shell("validate_crams", cfg.Workers, func(wf *sp.Workflow) {
		mkdir(ValidateDir)
		crams := spcomp.NewFileSource(wf, "crams", cramFiles(cfg.DataDir)...)
		validate := wf.NewProc("validate_cram",
			"cramtools qstat -I {i:cram} > /dev/null; echo $? > {o:validate}")
		validate.SetOutFunc("validate", func(t *sp.Task) string {
			return ValidatePath(t.InPath("cram"))
		})
		validate.In("cram").From(crams.Out())
	}))

	p.Stages = append(p.Stages, pipeline.Native("inspect_validations", func() error {
		return InspectValidations(ValidateDir, filepath.Join(ValidateDir, "summary.txt"))
	}))

	p.Stages = append(p.Stages, pipeline.Native("extract_cells", func() error {
		mkdir(CellInfoDir)
		cells, err := GroupByCell(cramFiles(cfg.DataDir))
		if err != nil {
			return err
		}
		return WriteCellTable(cells, filepath.Join(CellInfoDir, "cells.txt"))
	}))

	p.Stages = append(p.Stages, pipeline.Native("cell_lists", func() error {
		return WriteCellLists(filepath.Join(CellInfoDir, "cells.txt"), CellInfoDir)
	}))

	p.Stages = append(p.Stages, pipeline.Shell("cram_to_fastq", cfg.Workers, func(wf *sp.Workflow) {
		mkdir(FastqDir, TempDir)
		cells, err := ReadCellTable(filepath.Join(CellInfoDir, "cells.txt"))
		exception.PanicOnErr(err)
		for _, cell := range cellNames(cells) {
			conv := wf.NewProc("cram2fastq_"+procName(cell), ConversionStatement(cell, cells[cell], cfg))
			conv.SetOut("fq1", filepath.Join(FastqDir, cell+".fastq.1.gz"))
			conv.SetOut("fq2", filepath.Join(FastqDir, cell+".fastq.2.gz"))
		}
	}))

	return p
}

// procName rewrites a cell name into a safe scipipe process name.
func procName(cell string) string {
	b := []byte(cell)
	for i := range b {
		c := b[i]
		ok := c == '_' || c == '-' ||
			(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !ok {
			b[i] = '_'
		}
	}
	return string(b)
}
