package sindy

import (
	"fmt"
	"io"
	"strings"
)

// Equations renders the right-hand side of every state equation, e.g.
// "-1.000 x0 + 0.500 x0 x1". Terms with a zero coefficient are omitted; an
// equation without terms renders as zero.
func (m *Model) Equations(precision int) ([]string, error) {
	if err := m.state.RequireFitted(modelName, "Equations"); err != nil {
		return nil, err
	}
	if precision < 0 {
		precision = 3
	}

	rows, cols := m.coef.Dims()
	eqs := make([]string, rows)
	for i := 0; i < rows; i++ {
		var terms []string
		for j := 0; j < cols; j++ {
			c := m.coef.At(i, j)
			if c == 0 {
				continue
			}
			if m.termNames[j] == "1" {
				terms = append(terms, fmt.Sprintf("%.*f", precision, c))
				continue
			}
			terms = append(terms, fmt.Sprintf("%.*f %s", precision, c, m.termNames[j]))
		}
		if len(terms) == 0 {
			eqs[i] = fmt.Sprintf("%.*f", precision, 0.0)
			continue
		}
		eqs[i] = strings.Join(terms, " + ")
	}
	return eqs, nil
}

// PrintEquations writes one line per state, "(x0)' = ...".
func (m *Model) PrintEquations(w io.Writer, precision int) error {
	eqs, err := m.Equations(precision)
	if err != nil {
		return err
	}
	for i, eq := range eqs {
		if _, err := fmt.Fprintf(w, "(%s)' = %s\n", m.stateNames[i], eq); err != nil {
			return err
		}
	}
	return nil
}
