// Package export writes effects frames to timestamp-prefixed CSV files that
// open with a two-row run banner.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// StampLayout formats the run timestamp used as file prefix.
const StampLayout = "20060102_150405"

// Banner identifies a run at the top of every output file.
type Banner struct {
	BatchName string
	Stamp     string
	RunID     string
}

// NewBanner stamps a run started at now.
func NewBanner(batch string, now time.Time) Banner {
	return Banner{BatchName: batch, Stamp: now.Format(StampLayout), RunID: uuid.NewString()}
}

// Run is the "<timestamp>_<run id>" label.
func (b Banner) Run() string { return b.Stamp + "_" + b.RunID }

// Rows returns the two banner rows.
func (b Banner) Rows() [][]string {
	return [][]string{
		{"Batch Name: " + b.BatchName},
		{"Effects Run: " + b.Run()},
	}
}

// Writer writes banner-prefixed CSV files into Dir.
type Writer struct {
	Dir    string
	Banner Banner
}

// Path returns the timestamp-prefixed path of an output name.
func (w Writer) Path(name string) string {
	return filepath.Join(w.Dir, w.Banner.Stamp+"_"+name+".csv")
}

// WriteTable writes header and rows to <Dir>/<stamp>_<name>.csv.
func (w Writer) WriteTable(name string, header []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", err
	}
	path := w.Path(name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteCSV(f, w.Banner, header, rows); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, f.Close()
}

// WriteCSV writes the banner rows, a header and the data rows.
func WriteCSV(out io.Writer, b Banner, header []string, rows [][]string) error {
	cw := csv.NewWriter(out)
	for _, r := range b.Rows() {
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
