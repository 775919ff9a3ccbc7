package shmoo

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/shmoo/pkg/models"
)

// Diff compares an aggregate with one site grid cell by cell. Both must hold
// the same voltage keys. A row whose widths differ is emitted as placeholder
// cells so the rest of the grid still compares.
func Diff(agg, site *models.ShmooGrid) (*models.DiffGrid, error) {
	if !agg.SameKeys(site) {
		return nil, fmt.Errorf("%w: %s has %d rows, aggregate has %d",
			ErrInconsistentKeySet, site.Source, len(site.Rows), len(agg.Rows))
	}

	out := &models.DiffGrid{Header: agg.Header, Footer: agg.Footer}
	for _, a := range agg.Rows {
		s, _ := site.Row(a.Key())
		row := models.DiffRow{
			Voltage:  a.Key().Volts(),
			Marginal: a.Marginal || s.Marginal,
			Cells:    make([]models.DiffCell, len(a.Cells)),
		}
		if len(a.Cells) != len(s.Cells) {
			log.Warn().
				Str("file", site.Source).
				Str("voltage", a.Key().String()).
				Int("aggregate_width", len(a.Cells)).
				Int("site_width", len(s.Cells)).
				Err(ErrRowLengthMismatch).
				Msg("Emitting placeholder row")
			row.Placeholder = true
			for i := range row.Cells {
				row.Cells[i] = models.Placeholder
			}
		} else {
			for i := range a.Cells {
				if a.Cells[i] == s.Cells[i] {
					row.Cells[i] = models.Match
				} else {
					row.Cells[i] = models.Mismatch
				}
			}
		}
		out.Rows = append(out.Rows, row)
	}

	sort.SliceStable(out.Rows, func(i, j int) bool {
		return models.KeyOf(out.Rows[i].Voltage) > models.KeyOf(out.Rows[j].Voltage)
	})
	return out, nil
}
