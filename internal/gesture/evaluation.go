package gesture

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// UnknownGesture labels strokes for which no template matched.
const UnknownGesture = "unknown"

// LabeledStroke is a stroke together with the gesture the user was asked to draw.
type LabeledStroke struct {
	Name   string
	Points []Point
}

// Evaluation is a confusion matrix of requested versus recognized gestures.
// Rows follow Names; columns follow Names plus a trailing UnknownGesture column.
type Evaluation struct {
	Names  []string
	Matrix *mat.Dense
}

// Evaluate recognizes every stroke against the set and tallies the outcome.
// Strokes whose label is not in names are ignored.
func Evaluate(set *TemplateSet, strokes []LabeledStroke, names []string) *Evaluation {
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}

	e := &Evaluation{
		Names:  append([]string(nil), names...),
		Matrix: mat.NewDense(max(len(names), 1), len(names)+1, nil),
	}
	templates := set.List()

	for _, s := range strokes {
		row, ok := index[s.Name]
		if !ok {
			continue
		}
		col := len(names)
		if m := Recognize(s.Points, templates); m != nil {
			if c, ok := index[m.Template.Name]; ok {
				col = c
			}
		}
		e.Matrix.Set(row, col, e.Matrix.At(row, col)+1)
	}

	return e
}

// Count returns how often requested was recognized as recognized.
func (e *Evaluation) Count(requested, recognized string) int {
	row := e.indexOf(requested)
	if row < 0 {
		return 0
	}
	col := len(e.Names)
	if recognized != UnknownGesture {
		col = e.indexOf(recognized)
		if col < 0 {
			return 0
		}
	}
	return int(e.Matrix.At(row, col))
}

// Total returns the number of evaluated strokes.
func (e *Evaluation) Total() int {
	return int(mat.Sum(e.Matrix))
}

// Accuracy returns the fraction of strokes recognized as the requested gesture.
func (e *Evaluation) Accuracy() float64 {
	total := mat.Sum(e.Matrix)
	if total == 0 {
		return 0
	}
	var correct float64
	for i := range e.Names {
		correct += e.Matrix.At(i, i)
	}
	return correct / total
}

// String renders the matrix, one row per requested gesture.
func (e *Evaluation) String() string {
	var sb strings.Builder
	sb.WriteString("Confusion Matrix:\n")
	for i, name := range e.Names {
		fmt.Fprintf(&sb, "%-12s", name)
		for j := 0; j <= len(e.Names); j++ {
			fmt.Fprintf(&sb, " %3d", int(e.Matrix.At(i, j)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (e *Evaluation) indexOf(name string) int {
	for i, n := range e.Names {
		if n == name {
			return i
		}
	}
	return -1
}
