// Package truthtable evaluates a partitioned expression against every
// assignment of its variables.
//
// Rows are split into contiguous chunks and evaluated on separate
// goroutines. Groups are read-only after compilation and every worker owns
// its evaluator.Machine and its rows, so no locking is needed.
package truthtable

import (
	"context"
	"errors"
	"fmt"
	goruntime "runtime"
	"sync"
	"time"

	"github.com/thomasrohde/ttbl/pkg/evaluator"
	"github.com/thomasrohde/ttbl/pkg/program"
)

// minChunk is the smallest row range worth handing to its own goroutine.
const minChunk = 512

// cancelCheckEvery sets how many rows a worker evaluates between context
// checks.
const cancelCheckEvery = 1024

// Options configures Build.
type Options struct {
	Order Order
	// Workers is the number of goroutines; zero means GOMAXPROCS.
	Workers int
	Limits  Limits
}

// Stats describes how a table was built.
type Stats struct {
	Rows    int           `json:"rows"`
	Workers int           `json:"workers"`
	Elapsed time.Duration `json:"elapsedNs"`
}

// Table is a fully evaluated truth table. Inputs[i] and Outputs[i] describe
// the same row; Outputs has one column per group and the last column is the
// whole expression.
type Table struct {
	Variables []string
	Labels    []string
	Order     Order
	Inputs    [][]bool
	Outputs   [][]bool
	Stats     Stats
}

// Class is the classification of an expression over all its rows.
type Class int

const (
	Contingent Class = iota
	Tautology
	Contradiction
)

func (c Class) String() string {
	switch c {
	case Tautology:
		return "tautology"
	case Contradiction:
		return "contradiction"
	}
	return "contingent"
}

// MarshalText encodes the class by name.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Rows returns the number of rows needed for n variables.
func Rows(n int) int {
	return 1 << uint(n)
}

// Build evaluates groups against all assignments of variables. labels may be
// nil; otherwise it must hold one label per group.
func Build(ctx context.Context, groups []program.Group, variables, labels []string, opts Options) (*Table, error) {
	if len(groups) == 0 {
		return nil, errors.New("truthtable: empty program")
	}
	if labels != nil && len(labels) != len(groups) {
		return nil, fmt.Errorf("truthtable: %d labels for %d groups", len(labels), len(groups))
	}
	if err := opts.Limits.Check(len(variables)); err != nil {
		return nil, err
	}

	start := hiresNow()
	n := len(variables)
	rows := Rows(n)
	cols := len(groups)

	// one backing array per side keeps rows contiguous
	inBuf := make([]bool, rows*n)
	outBuf := make([]bool, rows*cols)
	t := &Table{
		Variables: variables,
		Labels:    labels,
		Order:     opts.Order,
		Inputs:    make([][]bool, rows),
		Outputs:   make([][]bool, rows),
	}
	for r := 0; r < rows; r++ {
		t.Inputs[r] = inBuf[r*n : (r+1)*n : (r+1)*n]
		t.Outputs[r] = outBuf[r*cols : (r+1)*cols : (r+1)*cols]
	}

	workers := workerCount(opts.Workers, rows)
	depth := evaluator.StackDepth(groups)
	chunk := (rows + workers - 1) / workers

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, rows)
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			if err := t.fill(ctx, groups, depth, lo, hi); err != nil {
				errOnce.Do(func() { firstErr = err })
			}
		}(lo, hi)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	t.Stats = Stats{Rows: rows, Workers: workers, Elapsed: hiresSince(start)}
	return t, nil
}

func workerCount(requested, rows int) int {
	w := requested
	if w <= 0 {
		w = goruntime.GOMAXPROCS(0)
	}
	if most := (rows + minChunk - 1) / minChunk; w > most {
		w = most
	}
	return max(w, 1)
}

// fill evaluates rows [lo, hi).
func (t *Table) fill(ctx context.Context, groups []program.Group, depth, lo, hi int) error {
	m := evaluator.NewMachine(depth)
	for r := lo; r < hi; r++ {
		if (r-lo)%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		Assign(r, t.Inputs[r], t.Order)
		m.Evaluate(groups, t.Inputs[r], t.Outputs[r])
	}
	return nil
}

// Result returns the whole-expression value of row.
func (t *Table) Result(row int) bool {
	out := t.Outputs[row]
	return out[len(out)-1]
}

// TrueRows counts the rows where the whole expression is true.
func (t *Table) TrueRows() int {
	count := 0
	for r := range t.Outputs {
		if t.Result(r) {
			count++
		}
	}
	return count
}

// Classify classifies the whole-expression column.
func (t *Table) Classify() Class {
	switch t.TrueRows() {
	case len(t.Outputs):
		return Tautology
	case 0:
		return Contradiction
	}
	return Contingent
}
