// Package idgen provides generators for task identifiers.
package idgen

import (
	"strconv"
	"sync/atomic"
)

// Generator produces unique identifiers.
type Generator interface {
	Generate() string
}

// New returns a sequential generator whose first emitted ID is "1". It is
// safe for concurrent use.
func New() Generator {
	return &sequentialGenerator{}
}

type sequentialGenerator struct {
	next atomic.Uint64
}

func (g *sequentialGenerator) Generate() string {
	return strconv.FormatUint(g.next.Add(1), 10)
}
