package ring

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/i474232898/oura-data-handler/internal/segment"
)

// ChangePointSet holds ascending segment boundaries. The last entry is always
// the series length.
type ChangePointSet []int

// Interior returns the boundaries without the terminal end-of-series marker.
func (c ChangePointSet) Interior() []int {
	if len(c) == 0 {
		return nil
	}
	return c[:len(c)-1]
}

// Anomaly is the rolling z-score outcome for one series position.
type Anomaly struct {
	// Defined is false while the rolling window is not yet full.
	Defined   bool    `json:"defined"`
	ZScore    float64 `json:"zScore"`
	Anomalous bool    `json:"anomalous"`
}

// DetectChangepoints segments values with binary segmentation and returns at
// most nBreakpoints interior boundaries plus the terminal index.
func DetectChangepoints(values []float64, nBreakpoints int) (ChangePointSet, error) {
	if nBreakpoints < 0 {
		return nil, fmt.Errorf("%w: n_breakpoints must not be negative", ErrInvalidParameter)
	}
	if len(values) < nBreakpoints+1 {
		return nil, fmt.Errorf("%w: %d values cannot hold %d breakpoints",
			ErrInsufficientData, len(values), nBreakpoints)
	}
	algo, err := segment.NewBinseg(values)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientData, err)
	}
	return ChangePointSet(algo.Predict(nBreakpoints)), nil
}

// DetectChangepointsPenalized runs PELT with the given penalty. A penalty <= 0
// selects log(n).
func DetectChangepointsPenalized(values []float64, penalty float64) (ChangePointSet, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty series", ErrInsufficientData)
	}
	if penalty <= 0 {
		penalty = math.Log(float64(len(values)))
	}
	algo, err := segment.NewPelt(values)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientData, err)
	}
	return ChangePointSet(algo.Predict(penalty)), nil
}

// DetectAnomalies flags values whose distance from the trailing mean of the
// last window values (current one included) exceeds threshold sample standard
// deviations. Positions before the window fills are never flagged.
func DetectAnomalies(values []float64, window int, threshold float64) ([]Anomaly, error) {
	if window < 2 {
		return nil, fmt.Errorf("%w: window must be at least 2, got %d", ErrInvalidParameter, window)
	}
	if threshold <= 0 || math.IsNaN(threshold) {
		return nil, fmt.Errorf("%w: threshold must be positive, got %v", ErrInvalidParameter, threshold)
	}

	out := make([]Anomaly, len(values))
	for i := window - 1; i < len(values); i++ {
		mean, std := stat.MeanStdDev(values[i-window+1:i+1], nil)
		if std == 0 || math.IsNaN(std) {
			out[i] = Anomaly{Defined: true}
			continue
		}
		z := (values[i] - mean) / std
		out[i] = Anomaly{
			Defined:   true,
			ZScore:    z,
			Anomalous: math.Abs(values[i]-mean) > threshold*std,
		}
	}
	return out, nil
}

// Annotate returns a copy of t with <column>_zscore and <column>_anomaly
// auxiliary columns. Cells of t are never modified.
func Annotate(t *Table, column string, window int, threshold float64) (*Table, []Anomaly, error) {
	s, err := t.Series(column)
	if err != nil {
		return nil, nil, err
	}
	anomalies, err := DetectAnomalies(s.Values, window, threshold)
	if err != nil {
		return nil, nil, err
	}

	zCol, flagCol := column+"_zscore", column+"_anomaly"
	out := t.shallowCopy()
	out.Extra = append(out.Extra, Column{Name: zCol, Kind: KindNumber}, Column{Name: flagCol, Kind: KindNumber})
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		values := make(map[string]Value, len(r.Values)+2)
		for k, v := range r.Values {
			values[k] = v
		}
		values[zCol] = Missing()
		values[flagCol] = Missing()
		out.Rows[i] = Row{Date: r.Date, Values: values}
	}
	for pos, a := range anomalies {
		if !a.Defined {
			continue
		}
		row := out.Rows[s.Rows[pos]]
		row.Values[zCol] = Number(a.ZScore)
		flag := 0.0
		if a.Anomalous {
			flag = 1
		}
		row.Values[flagCol] = Number(flag)
	}
	return out, anomalies, nil
}
