package model

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// forest averages the outputs of its regression trees.
type forest struct {
	trees []Tree
	width int
}

func newForest(trees []Tree, width int) (*forest, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("%w: forest has no trees", ErrSchemaMismatch)
	}
	for ti, t := range trees {
		if err := validateTree(t, width); err != nil {
			return nil, fmt.Errorf("tree %d: %w", ti, err)
		}
	}
	return &forest{trees: trees, width: width}, nil
}

// validateTree checks node references. Children must come after their
// parent, which rules out cycles.
func validateTree(t Tree, width int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("%w: empty tree", ErrSchemaMismatch)
	}
	for i, n := range t.Nodes {
		if n.Left == -1 {
			continue
		}
		if n.Feature < 0 || n.Feature >= width {
			return fmt.Errorf("%w: node %d splits on feature %d", ErrSchemaMismatch, i, n.Feature)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(t.Nodes) {
				return fmt.Errorf("%w: node %d references node %d", ErrSchemaMismatch, i, child)
			}
		}
	}
	return nil
}

func (t Tree) eval(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left == -1 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func (f *forest) Predict(rows [][]float64) ([]float64, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	if err := checkRows(rows, f.width); err != nil {
		return nil, err
	}

	out := make([]float64, len(rows))
	votes := make([]float64, len(f.trees))
	for i, x := range rows {
		for j, t := range f.trees {
			votes[j] = t.eval(x)
		}
		out[i] = floats.Sum(votes) / float64(len(votes))
	}
	return out, nil
}
