package coins

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
)

type experimentRecord struct {
	Heads int    `csv:"heads"`
	Tails int    `csv:"tails"`
	Coin  string `csv:"coin"`
}

// Importer reads experiments from CSV with a heads,tails[,coin] header.
type Importer struct {
}

func NewImporter() *Importer {
	return &Importer{}
}

// Import reads the file at path. The boolean reports whether every row carried
// a coin label, which is what ComputeMLE needs.
func (i *Importer) Import(path string) (LabeledDataset, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}

	defer f.Close()

	return i.Read(bufio.NewReader(f))
}

func (i *Importer) Read(r io.Reader) (LabeledDataset, bool, error) {
	var records []*experimentRecord

	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, false, fmt.Errorf("failed to parse experiments: %w", err)
	}

	var (
		d       = make(LabeledDataset, 0, len(records))
		labeled = len(records) > 0
	)

	for j, rec := range records {
		e := LabeledExperiment{
			Experiment: Experiment{Heads: rec.Heads, Tails: rec.Tails},
		}

		switch strings.ToUpper(strings.TrimSpace(rec.Coin)) {
		case "A":
			e.Coin = CoinA
		case "B":
			e.Coin = CoinB
		case "":
			labeled = false
		default:
			return nil, false, fmt.Errorf("row %d: %q: %w", j+1, rec.Coin, ErrInvalidLabel)
		}

		d = append(d, e)
	}

	if err := d.Unlabel().Validate(); err != nil {
		return nil, false, err
	}

	return d, labeled, nil
}

type restartRecord struct {
	Run        string `csv:"run"`
	Rank       int    `csv:"rank"`
	Restart    int    `csv:"restart"`
	InitialA   string `csv:"initial_a"`
	InitialB   string `csv:"initial_b"`
	FinalA     string `csv:"final_a"`
	FinalB     string `csv:"final_b"`
	Score      string `csv:"score"`
	Iterations int    `csv:"iterations"`
	Error      string `csv:"error"`
}

// WriteRestarts writes ranked restart results as CSV, one row per restart.
// Failed restarts have empty final and score columns and no rank.
func WriteRestarts(w io.Writer, run string, results []RestartResult) error {
	var (
		records = make([]*restartRecord, 0, len(results))
		rank    int
	)

	for _, r := range results {
		rec := &restartRecord{
			Run:        run,
			Restart:    r.Index,
			InitialA:   formatFloat(r.Initial.A),
			InitialB:   formatFloat(r.Initial.B),
			Iterations: r.Iterations,
		}

		if r.Failed() {
			rec.Error = r.Err.Error()
		} else {
			rank++
			rec.Rank = rank
			rec.FinalA = formatFloat(r.Final.A)
			rec.FinalB = formatFloat(r.Final.B)
			rec.Score = formatFloat(r.Score)
		}

		records = append(records, rec)
	}

	return gocsv.Marshal(records, w)
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}

	return strconv.FormatFloat(f, 'g', -1, 64)
}
