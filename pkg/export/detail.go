package export

import (
	"path/filepath"

	"github.com/kilianp07/fleeteffects/core/effects"
)

// DetailCSV writes per-vehicle rows into each session's folder.
type DetailCSV struct {
	Dir    string
	Banner Banner
}

// WriteDetail writes <Dir>/<session>/<stamp>_<session>_<kind>_effects.csv.
func (d DetailCSV) WriteDetail(kind string, recs []effects.Record) error {
	if len(recs) == 0 {
		return nil
	}
	session := recs[0].Ident().SessionName
	w := Writer{Dir: filepath.Join(d.Dir, session), Banner: d.Banner}
	_, err := w.WriteRecords(session+"_"+kind+"_effects", recs)
	return err
}

// Close is a no-op.
func (DetailCSV) Close() error { return nil }
