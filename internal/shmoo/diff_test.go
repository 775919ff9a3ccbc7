package shmoo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/shmoo/pkg/models"
)

func TestDiff_SelfIsAllMatch(t *testing.T) {
	g := gridOf("site1.log", row(0.94, "PPPP!PPPPP"), row(0.92, "*..PP.PP!P"), row(0.90, "........PP"))

	d, err := Diff(g, g)
	require.NoError(t, err)
	require.Len(t, d.Rows, len(g.Rows))

	for i, r := range d.Rows {
		assert.Equal(t, g.Rows[i].Key(), models.KeyOf(r.Voltage))
		assert.Len(t, r.Cells, len(g.Rows[i].Cells))
		for _, c := range r.Cells {
			assert.Equal(t, models.Match, c)
		}
		assert.False(t, r.Placeholder)
	}
	assert.Equal(t, g.Header, d.Header)
	assert.Equal(t, g.Footer, d.Footer)
}

func TestDiff_MismatchAndMarginal(t *testing.T) {
	agg := gridOf("agg", row(0.94, "PPPP"), row(0.92, "PP.."))
	site := gridOf("site2.log", row(0.92, "*P.P."), row(0.94, "PPPP"))

	d, err := Diff(agg, site)
	require.NoError(t, err)

	assert.Equal(t, "....", d.Rows[0].Text())
	assert.False(t, d.Rows[0].Marginal)
	assert.Equal(t, ".XX.", d.Rows[1].Text())
	assert.True(t, d.Rows[1].Marginal)
}

func TestDiff_RowLengthMismatch(t *testing.T) {
	agg := gridOf("agg", row(0.94, "PPPP"), row(0.92, "PP.."))
	site := gridOf("site3.log", row(0.94, "PPPPPP"), row(0.92, "PP.."))

	d, err := Diff(agg, site)
	require.NoError(t, err)

	assert.Equal(t, "????", d.Rows[0].Text())
	assert.True(t, d.Rows[0].Placeholder)
	assert.Equal(t, "....", d.Rows[1].Text())
}

func TestDiff_InconsistentKeys(t *testing.T) {
	agg := gridOf("agg", row(0.94, "PPPP"), row(0.92, "PP.."))

	_, err := Diff(agg, gridOf("site4.log", row(0.94, "PPPP")))
	assert.ErrorIs(t, err, ErrInconsistentKeySet)

	_, err = Diff(agg, gridOf("site5.log", row(0.94, "PPPP"), row(0.90, "PP..")))
	assert.ErrorIs(t, err, ErrInconsistentKeySet)
}

func TestDiff_EndToEnd(t *testing.T) {
	sites := exampleSites()
	agg, err := Aggregate(sites, models.ModeOR)
	require.NoError(t, err)

	d, err := Diff(agg, sites[1])
	require.NoError(t, err)

	assert.Equal(t, []string{
		"    VDD",
		"    ---",
		"  0.940   .......... (15.000..      )",
		"  0.920   .......... (15.000..      )",
		"  0.900   XX........ (15.000..      )",
		"        V   +---*-----+",
	}, FormatDiff(d))
}
