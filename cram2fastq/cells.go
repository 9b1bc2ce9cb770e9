package cram2fastq

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// headerLines reads the header of a binary alignment file via samtools.
func headerLines(cram string) ([]string, error) {
	out, err := exec.Command("samtools", "view", "-H", cram).Output()
	if err != nil {
		return nil, fmt.Errorf("samtools view -H %s: %w", cram, err)
	}
	return strings.Split(strings.TrimRight(string(out), "\n"), "\n"), nil
}

// sampleTag extracts the SM tag of the first @RG header record.
func sampleTag(header []string) (string, error) {
	for _, line := range header {
		if !strings.HasPrefix(line, "@RG") {
			continue
		}
		for _, field := range strings.Split(line, "\t")[1:] {
			if strings.HasPrefix(field, "SM:") {
				return strings.TrimPrefix(field, "SM:"), nil
			}
		}
		return "", fmt.Errorf("@RG record carries no SM tag: %s", line)
	}
	return "", fmt.Errorf("no @RG record in header")
}

func groupCells(crams []string, tagOf func(string) (string, error)) (map[string][]string, error) {
	cells := make(map[string][]string)
	for _, cram := range crams {
		cell, err := tagOf(cram)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cram, err)
		}
		cells[cell] = append(cells[cell], cram)
	}
	return cells, nil
}

// GroupByCell builds the cell to cram-file dictionary from the read group
// sample tags of the input files.
func GroupByCell(crams []string) (map[string][]string, error) {
	return groupCells(crams, func(cram string) (string, error) {
		header, err := headerLines(cram)
		if err != nil {
			return "", err
		}
		return sampleTag(header)
	})
}

func cellNames(cells map[string][]string) []string {
	names := maps.Keys(cells)
	slices.Sort(names)
	return names
}

// WriteCellTable writes the per-cell cram file table.
func WriteCellTable(cells map[string][]string, path string) error {
	out := fileio.EasyCreate(path)
	_, err := fmt.Fprintln(out, "#cell\tcram_files")
	exception.PanicOnErr(err)
	for _, cell := range cellNames(cells) {
		_, err = fmt.Fprintf(out, "%s\t%s\n", cell, strings.Join(cells[cell], ","))
		exception.PanicOnErr(err)
	}
	return out.Close()
}

// ReadCellTable parses a table written by WriteCellTable.
func ReadCellTable(path string) (map[string][]string, error) {
	cells := make(map[string][]string)
	for _, line := range fileio.Read(path) {
		if strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s: malformed cell record: %s", path, line)
		}
		cells[fields[0]] = strings.Split(fields[1], ",")
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("%s: no cells found", path)
	}
	return cells, nil
}

// WriteCellLists writes one <cell>.cell file per cell, listing that cell's
// cram files one per line.
func WriteCellLists(cellTable, outDir string) error {
	cells, err := ReadCellTable(cellTable)
	if err != nil {
		return err
	}
	for _, cell := range cellNames(cells) {
		out := fileio.EasyCreate(filepath.Join(outDir, cell+".cell"))
		for _, cram := range cells[cell] {
			_, err := fmt.Fprintln(out, cram)
			exception.PanicOnErr(err)
		}
		if err := out.Close(); err != nil {
			return err
		}
	}
	return nil
}
