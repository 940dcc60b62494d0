// Package summation computes 1 + 2 + ... + n with Formula, Loop or Reduce.
// All three agree for every n whose sum fits in an int64; n <= 0 sums to 0.
package summation

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrOverflow is returned when the sum does not fit in an int64.
	ErrOverflow = errors.New("sum overflows int64")

	// ErrTooLarge is returned when Reduce would need more than MaxReduceN
	// slice elements.
	ErrTooLarge = errors.New("n too large for reduce")
)

const (
	// MaxN is the largest n whose sum fits in an int64.
	MaxN int64 = 4294967295

	// MaxReduceN bounds the slice Reduce materializes (128 MiB of int64).
	MaxReduceN int64 = 1 << 24
)

// Method names one of the implementations.
type Method string

const (
	MethodFormula Method = "formula"
	MethodLoop    Method = "loop"
	MethodReduce  Method = "reduce"
)

// Methods lists every implementation in a stable order.
var Methods = []Method{MethodFormula, MethodLoop, MethodReduce}

// ParseMethod accepts the lower-case name of a Method.
func ParseMethod(name string) (Method, error) {
	m := Method(name)
	if !slices.Contains(Methods, m) {
		return "", fmt.Errorf("unknown method %q (want formula, loop or reduce)", name)
	}
	return m, nil
}

// Sum dispatches to the named implementation. Every method rejects n above
// MaxN with ErrOverflow; reduce also rejects n above MaxReduceN with
// ErrTooLarge.
func Sum(m Method, n int64) (int64, error) {
	if n > MaxN {
		return 0, ErrOverflow
	}
	switch m {
	case MethodFormula:
		return Formula(n), nil
	case MethodLoop:
		return Loop(n), nil
	case MethodReduce:
		if n > MaxReduceN {
			return 0, ErrTooLarge
		}
		return Reduce(n), nil
	default:
		return 0, fmt.Errorf("unknown method %q", m)
	}
}

// Formula uses n(n+1)/2 in constant time. Above MaxN the result wraps; use
// FormulaChecked when n is not bounded.
func Formula(n int64) int64 {
	if n <= 0 {
		return 0
	}
	// Halve the even factor first so the product stays in range up to MaxN
	if n%2 == 0 {
		return (n / 2) * (n + 1)
	}
	return n * ((n + 1) / 2)
}

// FormulaChecked is Formula with overflow detection.
func FormulaChecked(n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	a, b := n/2, n+1
	if n%2 != 0 {
		a, b = n, (n+1)/2
	}
	if b != 0 && a > math.MaxInt64/b {
		return 0, ErrOverflow
	}
	return a * b, nil
}

// Loop adds 1..n one at a time: O(n) time, O(1) space.
func Loop(n int64) int64 {
	var sum int64
	for i := int64(1); i <= n; i++ {
		sum += i
	}
	return sum
}

// Reduce builds the slice 1..n and folds it: O(n) time and O(n) space. Sum
// refuses n above MaxReduceN; direct callers own that bound.
func Reduce(n int64) int64 {
	if n <= 0 {
		return 0
	}
	values := make([]int64, n)
	for i := range values {
		values[i] = int64(i) + 1
	}
	return fold(values, 0, func(acc, v int64) int64 { return acc + v })
}

func fold[T, A any](values []T, init A, f func(A, T) A) A {
	acc := init
	for _, v := range values {
		acc = f(acc, v)
	}
	return acc
}
