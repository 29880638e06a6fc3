package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// linear is y = intercept + X·coefficients.
type linear struct {
	intercept float64
	coef      *mat.VecDense
}

func newLinear(intercept float64, coef []float64, width int) (*linear, error) {
	if len(coef) != width {
		return nil, fmt.Errorf("%w: %d coefficients for %d features", ErrSchemaMismatch, len(coef), width)
	}
	c := make([]float64, width)
	copy(c, coef)
	return &linear{intercept: intercept, coef: mat.NewVecDense(width, c)}, nil
}

func (l *linear) Predict(rows [][]float64) ([]float64, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	width := l.coef.Len()
	if err := checkRows(rows, width); err != nil {
		return nil, err
	}

	x := mat.NewDense(len(rows), width, nil)
	for i, r := range rows {
		x.SetRow(i, r)
	}
	var y mat.VecDense
	y.MulVec(x, l.coef)

	out := make([]float64, len(rows))
	for i := range out {
		out[i] = y.AtVec(i) + l.intercept
	}
	return out, nil
}
