package sindy

import (
	"fmt"
	"os"
)

func ExampleModel_PrintEquations() {
	xs, ts := decayBatch(100, 1, 2, 0.5, -1)

	m := New(WithFeatureNames("x"), WithLogger(quietLogger()))
	if err := m.Fit(xs, ts); err != nil {
		fmt.Println(err)
		return
	}
	_ = m.PrintEquations(os.Stdout, 3)
	// Output:
	// (x)' = -1.000 x
}
