package shmoo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAxes(t *testing.T) {
	e := newTestEngine(t)

	axes, err := e.ParseAxes(SplitLines(siteLog))
	require.NoError(t, err)

	assert.Equal(t, "Period", axes.X.Label)
	assert.Equal(t, "ns", axes.X.Unit)
	assert.InDelta(t, 5.0, axes.X.Start, 1e-9)
	assert.InDelta(t, 50.0, axes.X.End, 1e-9)
	assert.InDelta(t, 5.0, axes.X.Step, 1e-9)
	assert.InDelta(t, 25.0, axes.X.Nominal, 1e-9)
	assert.False(t, axes.X.OutOfRange)

	assert.Equal(t, "VDD", axes.Y.Label)
	assert.Equal(t, "V", axes.Y.Unit)
	assert.InDelta(t, 0.94, axes.Y.Start, 1e-9)
	assert.InDelta(t, 0.90, axes.Y.End, 1e-9)
	assert.InDelta(t, -0.02, axes.Y.Step, 1e-9)
	assert.InDelta(t, 0.90, axes.Y.Min(), 1e-9)
	assert.InDelta(t, 0.94, axes.Y.Max(), 1e-9)
	// 0.921 snaps to the 0.920 sweep point
	assert.InDelta(t, 0.92, axes.Y.Nominal, 1e-9)
}

func TestParseAxes_Variants(t *testing.T) {
	const x = "  X-Axis:   Period    [   5.000 .. 150.000 ns  ] step   5.000 ns  (  60.000 ns  )"

	tests := []struct {
		name        string
		lines       []string
		wantErr     error
		wantYNom    float64
		wantXOutOfR bool
	}{
		{
			name:     "descending sweep",
			lines:    []string{x, "  Y-Axis:   VDD       [   1.300 ..   0.600 V   ] step  -0.020 V   (   0.971 V   )"},
			wantYNom: 0.98,
		},
		{
			name:     "ascending sweep",
			lines:    []string{x, "  Y-Axis:   VDD       [   0.600 ..   1.300 V   ] step   0.050 V   (   0.720 V   )"},
			wantYNom: 0.70,
		},
		{
			name:     "nominal clamped into range",
			lines:    []string{x, "  Y-Axis:   VDD       [   0.940 ..   0.900 V   ] step  -0.020 V   (   1.500 V   )"},
			wantYNom: 0.94,
		},
		{
			name:     "alternate label, any case",
			lines:    []string{x, "  Y-Axis:   vvdd12_OTP [   0.940 ..   0.900 V   ] step  -0.020 V   (   0.900 V   )"},
			wantYNom: 0.90,
		},
		{
			name: "x nominal below range",
			lines: []string{
				"  X-Axis:   Period    [  10.000 .. 100.000 ns  ] step   5.000 ns  (   0.000     )",
				"  Y-Axis:   VDD       [   0.940 ..   0.900 V   ] step  -0.020 V   (   0.920 V   )",
			},
			wantYNom:    0.92,
			wantXOutOfR: true,
		},
		{
			name:    "missing y axis",
			lines:   []string{x},
			wantErr: ErrMalformedHeader,
		},
		{
			name:    "missing x axis",
			lines:   []string{"  Y-Axis:   VDD       [   0.940 ..   0.900 V   ] step  -0.020 V   (   0.920 V   )"},
			wantErr: ErrMalformedHeader,
		},
		{
			name:    "zero step",
			lines:   []string{x, "  Y-Axis:   VDD       [   0.940 ..   0.900 V   ] step   0.000 V   (   0.920 V   )"},
			wantErr: ErrMalformedHeader,
		},
		{
			name:    "unknown y label",
			lines:   []string{x, "  Y-Axis:   VCCX      [   0.940 ..   0.900 V   ] step  -0.020 V   (   0.920 V   )"},
			wantErr: ErrMalformedHeader,
		},
	}

	e := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			axes, err := e.ParseAxes(tt.lines)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantYNom, axes.Y.Nominal, 1e-9)
			assert.Equal(t, tt.wantXOutOfR, axes.X.OutOfRange)
		})
	}
}

func TestParseYAxis(t *testing.T) {
	e := newTestEngine(t)

	y, err := e.ParseYAxis(SplitLines(siteLog))
	require.NoError(t, err)
	assert.InDelta(t, 0.92, y.Nominal, 1e-9)

	_, err = e.ParseYAxis([]string{"no axes here"})
	assert.ErrorIs(t, err, ErrMalformedHeader)
}
