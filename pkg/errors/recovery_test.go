package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecover_WithPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "Differentiate")
		panic("index out of range")
	}

	err := testFunc()
	require.Error(t, err)

	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "Differentiate", panicErr.Operation)
	assert.Equal(t, "index out of range", panicErr.PanicValue)
	assert.NotEmpty(t, panicErr.StackTrace)
	assert.Equal(t, "panic in Differentiate: index out of range", panicErr.Error())
	assert.Contains(t, panicErr.String(), "Stack trace:")
}

func TestRecover_WithoutPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "Differentiate")
		return nil
	}

	assert.NoError(t, testFunc())
}

func TestRecover_WithExistingError(t *testing.T) {
	originalErr := fmt.Errorf("original error")

	testFunc := func() (err error) {
		defer Recover(&err, "Simulate")
		err = originalErr
		panic("panic after error")
	}

	err := testFunc()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in Simulate")
	assert.True(t, errors.Is(err, originalErr))
}

func TestSafeExecute(t *testing.T) {
	testCases := []struct {
		name       string
		panicValue interface{}
		wantMsg    string
	}{
		{"string panic", "unexpected nil pointer", "panic in Solve: unexpected nil pointer"},
		{"error panic", errors.New("matrix singular"), "panic in Solve: matrix singular"},
		{"integer panic", 42, "panic in Solve: 42"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := SafeExecute("Solve", func() error { panic(tc.panicValue) })
			require.Error(t, err)
			assert.Equal(t, tc.wantMsg, err.Error())
		})
	}

	t.Run("error panic unwraps", func(t *testing.T) {
		cause := errors.New("boom")
		err := SafeExecute("Solve", func() error { panic(cause) })
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("no panic passes error through", func(t *testing.T) {
		want := errors.New("plain")
		assert.Equal(t, want, SafeExecute("Solve", func() error { return want }))
	})
}
