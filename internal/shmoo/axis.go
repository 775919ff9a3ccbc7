package shmoo

import (
	"fmt"
	"math"
	"strconv"

	"github.com/RMahshie/shmoo/pkg/models"
)

// ParseAxes reads the X-Axis and Y-Axis header lines of a plot:
//
//	X-Axis:   Period    [   5.000 .. 150.000 ns  ] step   5.000 ns  (  60.000 ns  )
//	Y-Axis:   VDD       [   1.300 ..   0.600 V   ] step  -0.020 V   (   0.971 V   )
//
// The Y nominal value is snapped to the sweep grid and clamped into range.
func (e *Engine) ParseAxes(lines []string) (models.Axes, error) {
	var axes models.Axes
	var haveX, haveY bool

	for _, line := range lines {
		if !haveX {
			if m := e.xAxis.FindStringSubmatch(line); m != nil {
				x, err := axisFromMatch(m)
				if err != nil {
					return axes, fmt.Errorf("X-Axis: %w", err)
				}
				axes.X = x
				haveX = true
				continue
			}
		}
		if !haveY {
			if m := e.yAxis.FindStringSubmatch(line); m != nil {
				y, err := axisFromMatch(m)
				if err != nil {
					return axes, fmt.Errorf("Y-Axis: %w", err)
				}
				y.Nominal = clamp(snapToStep(y.Nominal, y.Start, y.Step), y.Min(), y.Max())
				axes.Y = y
				haveY = true
			}
		}
		if haveX && haveY {
			return axes, nil
		}
	}

	if !haveX {
		return axes, fmt.Errorf("%w: X-Axis line not found", ErrMalformedHeader)
	}
	return axes, fmt.Errorf("%w: Y-Axis line not found", ErrMalformedHeader)
}

// ParseYAxis reads only the Y-Axis line, for stages that do not need timing
func (e *Engine) ParseYAxis(lines []string) (models.AxisSpec, error) {
	for _, line := range lines {
		if m := e.yAxis.FindStringSubmatch(line); m != nil {
			y, err := axisFromMatch(m)
			if err != nil {
				return y, fmt.Errorf("Y-Axis: %w", err)
			}
			y.Nominal = clamp(snapToStep(y.Nominal, y.Start, y.Step), y.Min(), y.Max())
			return y, nil
		}
	}
	return models.AxisSpec{}, fmt.Errorf("%w: Y-Axis line not found", ErrMalformedHeader)
}

// axisFromMatch builds an AxisSpec from the submatches of an axis pattern:
// label, start, end, unit, step, nominal.
func axisFromMatch(m []string) (models.AxisSpec, error) {
	nums := make([]float64, 0, 4)
	for _, s := range []string{m[2], m[3], m[5], m[6]} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.AxisSpec{}, fmt.Errorf("%w: %q is not a number", ErrMalformedHeader, s)
		}
		nums = append(nums, v)
	}
	spec := models.AxisSpec{
		Label:   m[1],
		Unit:    m[4],
		Start:   nums[0],
		End:     nums[1],
		Step:    nums[2],
		Nominal: nums[3],
	}
	if spec.Step == 0 {
		return spec, fmt.Errorf("%w: step is zero", ErrMalformedHeader)
	}
	spec.OutOfRange = spec.Min() > spec.Nominal
	return spec, nil
}

func snapToStep(value, origin, step float64) float64 {
	k := math.Round((value - origin) / step)
	return roundTo(origin+k*step, 9)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
