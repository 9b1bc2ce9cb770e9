package cram2fastq

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aswann/seqflow/config"
)

// ConversionStatement builds the shell statement converting one cell's cram
// file(s) to a reconciled pair of gzipped fastq files. Per-end fastqs are
// extracted per cram, merged and quality trimmed, then mate pairs are
// reconciled with the configured executable. Unless keep_temporary is set,
// sizes and checksums of the intermediates are recorded before they are
// removed. The whole statement is traced into a per-cell extraction log.
func ConversionStatement(cell string, crams []string, cfg *config.Cram2Fastq) string {
	var steps []string
	var temps []string

	// extract per-end fastqs from each cram
	var rawPrefixes []string
	for _, cram := range crams {
		prefix := filepath.Join(TempDir, strings.TrimSuffix(filepath.Base(cram), ".cram"))
		rawPrefixes = append(rawPrefixes, prefix)
		steps = append(steps,
			fmt.Sprintf("cramtools fastq --enumerate -F %s -I %s --gzip", prefix, cram))
	}

	// merge and quality trim each end separately
	var trimmed []string
	for _, end := range []string{"_1", "_2"} {
		var raws []string
		for _, prefix := range rawPrefixes {
			raws = append(raws, prefix+end+".fastq.gz")
		}
		temps = append(temps, raws...)
		trimmedFastq := filepath.Join(TempDir, cell+end+".trimmed.fastq.gz")
		trimmed = append(trimmed, trimmedFastq)
		steps = append(steps, fmt.Sprintf(
			"zcat %s | fastq_quality_trimmer -Q33 -t %d -l %d | gzip -c > %s",
			strings.Join(raws, " "), cfg.QualityThreshold, cfg.MinLength, trimmedFastq))
	}
	temps = append(temps, trimmed...)

	// reconcile the trimmed ends into the final pair
	reconciled := filepath.Join(TempDir, cell+".reconciled")
	steps = append(steps, fmt.Sprintf(
		`%s %s %s --method reconcile --chop --unpaired -o "%s.%%s.gz"`,
		cfg.Reconcile, trimmed[0], trimmed[1], reconciled))
	steps = append(steps, fmt.Sprintf("mv %s.1.gz {o:fq1}", reconciled))
	steps = append(steps, fmt.Sprintf("mv %s.2.gz {o:fq2}", reconciled))

	if !cfg.KeepTemporary {
		list := strings.Join(temps, " ")
		steps = append(steps,
			fmt.Sprintf("ls -l %s > %s", list, filepath.Join(TempDir, cell+".ls")),
			fmt.Sprintf("md5sum %s > %s", list, filepath.Join(TempDir, cell+".md5")),
			"rm -f "+list)
	}

	logFile := filepath.Join(TempDir, cell+".fastq.extraction.log")
	return "( set -x; " + strings.Join(steps, " && ") + " ) 2> " + logFile
}
