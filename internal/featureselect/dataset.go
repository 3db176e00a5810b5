// Package featureselect chooses the features the CKD risk model consumes
// and trains the model artifact offline.
package featureselect

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const TargetColumn = "Diagnosis"

// ExcludedColumns are never used as features.
var ExcludedColumns = []string{"PatientID", TargetColumn, "DoctorInCharge"}

// Dataset is a numeric feature matrix with a binary target. Missing
// values have been replaced with the column median.
type Dataset struct {
	Features []string
	X        *mat.Dense
	Y        []float64
}

func (d *Dataset) Rows() int {
	r, _ := d.X.Dims()
	return r
}

// Column returns the values of the named feature.
func (d *Dataset) Column(name string) ([]float64, bool) {
	for j, f := range d.Features {
		if f == name {
			return mat.Col(nil, j, d.X), true
		}
	}
	return nil, false
}

// Row returns row i keyed by feature name, with the target under
// TargetColumn.
func (d *Dataset) Row(i int) map[string]float64 {
	out := make(map[string]float64, len(d.Features)+1)
	for j, f := range d.Features {
		out[f] = d.X.At(i, j)
	}
	out[TargetColumn] = d.Y[i]
	return out
}

// Subset returns a dataset restricted to names, in that order.
func (d *Dataset) Subset(names []string) (*Dataset, error) {
	idx := make(map[string]int, len(d.Features))
	for j, f := range d.Features {
		idx[f] = j
	}
	rows := d.Rows()
	x := mat.NewDense(rows, len(names), nil)
	for k, name := range names {
		j, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("unknown feature %q", name)
		}
		x.SetCol(k, mat.Col(nil, j, d.X))
	}
	return &Dataset{Features: append([]string(nil), names...), X: x, Y: d.Y}, nil
}

func LoadDatasetFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadDataset(f)
}

// LoadDataset reads a CSV with a header row. Columns holding any
// non-numeric value are dropped, as are ExcludedColumns. Empty and NaN
// cells are filled with the column median.
func LoadDataset(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("dataset has no rows")
	}

	target := -1
	excluded := make(map[string]bool)
	for _, c := range ExcludedColumns {
		excluded[c] = true
	}

	type column struct {
		name   string
		values []float64
	}
	var cols []column
	for j, name := range header {
		name = strings.TrimSpace(name)
		values, ok := parseColumn(records, j)
		if name == TargetColumn {
			if !ok {
				return nil, fmt.Errorf("target column %s is not numeric", TargetColumn)
			}
			target = len(cols)
		} else if excluded[name] || !ok {
			continue
		}
		cols = append(cols, column{name: name, values: values})
	}
	if target < 0 {
		return nil, fmt.Errorf("missing target column %s", TargetColumn)
	}

	y := cols[target].values
	for _, v := range y {
		if math.IsNaN(v) {
			return nil, errors.New("target column has missing values")
		}
	}
	cols = append(cols[:target], cols[target+1:]...)
	if len(cols) == 0 {
		return nil, errors.New("dataset has no numeric feature columns")
	}

	x := mat.NewDense(len(records), len(cols), nil)
	names := make([]string, len(cols))
	for j, c := range cols {
		fillMedian(c.values)
		x.SetCol(j, c.values)
		names[j] = c.name
	}
	return &Dataset{Features: names, X: x, Y: y}, nil
}

// parseColumn parses column j. Missing cells become NaN. ok is false when
// any cell is not a number.
func parseColumn(records [][]string, j int) ([]float64, bool) {
	values := make([]float64, len(records))
	for i, rec := range records {
		if j >= len(rec) {
			values[i] = math.NaN()
			continue
		}
		cell := strings.TrimSpace(rec[j])
		if cell == "" || strings.EqualFold(cell, "nan") {
			values[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

func fillMedian(values []float64) {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	m := median(present)
	for i, v := range values {
		if math.IsNaN(v) {
			values[i] = m
		}
	}
}

func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
