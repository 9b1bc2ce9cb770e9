package cram2fastq

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
)

// ValidatePath maps a cram file onto its validation status file.
func ValidatePath(cram string) string {
	base := strings.TrimSuffix(filepath.Base(cram), ".cram")
	return filepath.Join(ValidateDir, base+".validate")
}

// InspectValidations collects the recorded cramtools exit statuses into a
// summary with exactly one "<file>\t<status>" line per validation file. The
// summary is always written in full before any error is raised, so a failed
// run still leaves a usable report of which crams were bad.
func InspectValidations(dir, summary string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.validate"))
	exception.PanicOnErr(err)
	if len(files) == 0 {
		return fmt.Errorf("no validation files found in %s", dir)
	}
	sort.Strings(files)

	out := fileio.EasyCreate(summary)
	var failed int
	for _, file := range files {
		lines := fileio.Read(file)
		if len(lines) == 0 {
			out.Close()
			return fmt.Errorf("%s: empty validation file", file)
		}
		status := strings.TrimSpace(lines[0])
		exitCode, err := strconv.Atoi(status)
		if err != nil {
			out.Close()
			return fmt.Errorf("%s: malformed exit status %q", file, status)
		}
		if exitCode != 0 {
			failed++
		}
		_, err = fmt.Fprintf(out, "%s\t%s\n", file, status)
		exception.PanicOnErr(err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d cram files failed validation, see %s", failed, len(files), summary)
	}
	return nil
}
