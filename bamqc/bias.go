package bamqc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"gonum.org/v1/gonum/stat"
)

// CoverageHistogram is the normalized transcript coverage profile cut out of
// the Picard CollectRnaSeqMetrics output.
type CoverageHistogram struct {
	Position []float64
	Coverage []float64
}

// ReadCoverageHistogram parses a coverage histogram table. Columns are
// located by name so extra histogram columns are tolerated.
func ReadCoverageHistogram(path string) (*CoverageHistogram, error) {
	lines := fileio.Read(path)
	if len(lines) == 0 {
		return nil, fmt.Errorf("%s: empty coverage histogram", path)
	}
	cols := strings.Split(lines[0], "\t")
	posCol, covCol := -1, -1
	for i := range cols {
		switch cols[i] {
		case "normalized_position":
			posCol = i
		case "All_Reads.normalized_coverage":
			covCol = i
		}
	}
	if posCol < 0 || covCol < 0 {
		return nil, fmt.Errorf("%s: missing normalized_position or All_Reads.normalized_coverage column", path)
	}

	hist := &CoverageHistogram{}
	for _, line := range lines[1:] {
		fields := strings.Split(line, "\t")
		if len(fields) <= posCol || len(fields) <= covCol {
			return nil, fmt.Errorf("%s: short histogram row: %s", path, line)
		}
		pos, err := strconv.ParseFloat(fields[posCol], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad position %q", path, fields[posCol])
		}
		cov, err := strconv.ParseFloat(fields[covCol], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad coverage %q", path, fields[covCol])
		}
		hist.Position = append(hist.Position, pos)
		hist.Coverage = append(hist.Coverage, cov)
	}
	return hist, nil
}

func windowMean(hist *CoverageHistogram, lo, hi float64) float64 {
	var window []float64
	for i := range hist.Position {
		if hist.Position[i] > lo && hist.Position[i] < hi {
			window = append(window, hist.Coverage[i])
		}
	}
	if len(window) == 0 {
		return math.NaN()
	}
	return stat.Mean(window, nil)
}

// ThreePrimeBias is the mean normalized coverage close to the three prime
// end (70 < position < 90) over the mean across the transcript body
// (20 < position < 90). An empty window or zero body coverage yields NaN
// rather than a crash.
func ThreePrimeBias(hist *CoverageHistogram) float64 {
	threePrime := windowMean(hist, 70, 90)
	body := windowMean(hist, 20, 90)
	if math.IsNaN(threePrime) || math.IsNaN(body) || body == 0 {
		return math.NaN()
	}
	return threePrime / body
}

// WriteBias writes the single-value three_prime_bias table.
func WriteBias(bias float64, path string) error {
	out := fileio.EasyCreate(path)
	_, err := fmt.Fprintln(out, "three_prime_bias")
	exception.PanicOnErr(err)
	if math.IsNaN(bias) || math.IsInf(bias, 0) {
		_, err = fmt.Fprintln(out, "nan")
	} else {
		_, err = fmt.Fprintf(out, "%.2f\n", bias)
	}
	exception.PanicOnErr(err)
	return out.Close()
}

// WriteCoverageProfile renders the coverage profile as a terminal plot, a
// quick look alongside the PDF chart Picard draws.
func WriteCoverageProfile(hist *CoverageHistogram, sampleID, path string) error {
	if len(hist.Coverage) == 0 {
		return fmt.Errorf("%s: no coverage values to plot", sampleID)
	}
	plot := asciigraph.Plot(hist.Coverage,
		asciigraph.Height(10),
		asciigraph.Caption(sampleID+" normalized coverage, 5' to 3'"))
	out := fileio.EasyCreate(path)
	_, err := fmt.Fprintln(out, plot)
	exception.PanicOnErr(err)
	return out.Close()
}
