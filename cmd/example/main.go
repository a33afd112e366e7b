// Package main walks through the variable core of the cip package:
// transformation, bound propagation, aggregation, implications, cliques,
// and snapshots, plus a batch presolve run on the worker pool.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/branchbound/cip/internal/parallel"
	"github.com/branchbound/cip/pkg/cip"
)

func main() {
	fmt.Println("=== cip Examples ===")
	fmt.Println()

	boundsAndEvents()
	aggregationExample()
	implicationExample()
	cliqueExample()
	snapshotExample()
	batchPresolve()
}

// transformed creates an original variable and returns its active
// counterpart, which is what all propagation operates on.
func transformed(p *cip.Problem, name string, vt cip.VarType, lb, ub, obj float64) *cip.Variable {
	o, err := p.NewVariable(name, vt, lb, ub, obj)
	if err != nil {
		fmt.Fprintln(os.Stderr, "variable:", err)
		os.Exit(1)
	}
	v, err := p.TransformVar(o)
	if err != nil {
		fmt.Fprintln(os.Stderr, "transform:", err)
		os.Exit(1)
	}
	return v
}

// boundsAndEvents demonstrates global bound tightening and the event queue.
func boundsAndEvents() {
	fmt.Println("1. Bounds and Events:")

	p := cip.NewProblem()
	rec := &cip.RecordingSink{}
	p.Events().AddSink(rec)

	x := transformed(p, "x", cip.VarTypeInteger, 0, 10, 1)
	if _, infeasible := x.ChgLbGlobal(2.3); infeasible {
		fmt.Println("   unexpected infeasibility")
		return
	}

	fmt.Printf("   x after lb tightening to 2.3: [%g,%g] (integral rounding)\n",
		x.LbGlobal(), x.UbGlobal())
	for _, ev := range rec.Events {
		fmt.Printf("   event: %v %v -> %v\n", ev.Kind, ev.OldValue, ev.NewValue)
	}
	fmt.Println()
}

// aggregationExample replaces x by 2y+1 and shows how bounds, objective,
// and queries flow through the representative.
func aggregationExample() {
	fmt.Println("2. Aggregation (x = 2y + 1):")

	p := cip.NewProblem()
	x := transformed(p, "x", cip.VarTypeContinuous, 1, 9, 3)
	y := transformed(p, "y", cip.VarTypeContinuous, 0, 4, 0)

	aggregated, infeasible := x.Aggregate(y, 2, 1)
	fmt.Printf("   aggregated=%v infeasible=%v\n", aggregated, infeasible)
	fmt.Printf("   y: [%g,%g] obj=%g (objective moved over)\n",
		y.LbGlobal(), y.UbGlobal(), y.Obj())
	fmt.Printf("   x: [%g,%g] status=%v (bounds read through the chain)\n",
		x.LbGlobal(), x.UbGlobal(), x.Status())
	fmt.Printf("   objective offset: %g\n", p.ObjOffset())

	// Tightening y is visible through x immediately.
	y.ChgLbGlobal(2)
	fmt.Printf("   after y >= 2: x = [%g,%g]\n", x.LbGlobal(), x.UbGlobal())
	fmt.Println()
}

// implicationExample stores x==1 => y<=0 and fires it by fixing x.
func implicationExample() {
	fmt.Println("3. Implications:")

	p := cip.NewProblem()
	x := transformed(p, "x", cip.VarTypeBinary, 0, 1, 0)
	y := transformed(p, "y", cip.VarTypeBinary, 0, 1, 0)

	infeasible := x.AddImplic(true, y, cip.BoundTypeUpper, 0, true)
	fmt.Printf("   stored x==1 => y==0 (infeasible=%v)\n", infeasible)

	if _, inf := x.ChgLbGlobal(1); inf {
		fmt.Println("   unexpected infeasibility")
		return
	}
	fmt.Printf("   after fixing x=1: y = [%g,%g]\n", y.LbGlobal(), y.UbGlobal())
	fmt.Println()
}

// cliqueExample adds a set-packing clique and fixes one member.
func cliqueExample() {
	fmt.Println("4. Cliques (at most one of x, y, z):")

	p := cip.NewProblem()
	x := transformed(p, "x", cip.VarTypeBinary, 0, 1, 0)
	y := transformed(p, "y", cip.VarTypeBinary, 0, 1, 0)
	z := transformed(p, "z", cip.VarTypeBinary, 0, 1, 0)

	_, infeasible := p.AddClique(
		[]*cip.Variable{x, y, z},
		[]bool{true, true, true},
	)
	fmt.Printf("   clique added (infeasible=%v)\n", infeasible)

	x.ChgLbGlobal(1)
	fmt.Printf("   after x=1: y ub=%g, z ub=%g\n", y.UbGlobal(), z.UbGlobal())
	fmt.Println()
}

// snapshotExample saves the presolved global state and restores it into a
// fresh problem.
func snapshotExample() {
	fmt.Println("5. Snapshot and Restore:")

	src := cip.NewProblem()
	x := transformed(src, "x", cip.VarTypeInteger, 0, 100, 1)
	x.ChgLbGlobal(37)

	data, err := src.Snapshot()
	if err != nil {
		fmt.Fprintln(os.Stderr, "snapshot:", err)
		return
	}
	fmt.Printf("   snapshot: %d bytes\n", len(data))

	dst := cip.NewProblem()
	transformed(dst, "x", cip.VarTypeInteger, 0, 100, 1)
	infeasible, err := dst.Restore(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, "restore:", err)
		return
	}
	restored := dst.VarByName("t_x")
	fmt.Printf("   restored x = [%g,%g] (infeasible=%v)\n",
		restored.LbGlobal(), restored.UbGlobal(), infeasible)
	fmt.Println()
}

// batchPresolve presolves independent problems concurrently on the pool.
func batchPresolve() {
	fmt.Println("6. Batch Presolve on the Worker Pool:")

	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)
	pool := parallel.NewWorkerPool(4)
	defer pool.Shutdown()

	const batch = 16
	var wg sync.WaitGroup
	results := make([]float64, batch)

	start := time.Now()
	for i := 0; i < batch; i++ {
		i := i
		wg.Add(1)
		err := pool.Submit(context.Background(), func() {
			defer wg.Done()
			p := cip.NewProblem(cip.WithLogger(logger))
			x := transformed(p, "x", cip.VarTypeInteger, 0, 1000, 1)
			y := transformed(p, "y", cip.VarTypeInteger, 0, 1000, 1)
			x.Aggregate(y, 1, float64(i))
			y.ChgLbGlobal(float64(10 * i))
			results[i] = x.LbGlobal()
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "submit:", err)
			wg.Done()
		}
	}
	wg.Wait()

	fmt.Printf("   presolved %d problems in %v\n", batch, time.Since(start))
	fmt.Printf("   x lower bounds: %v ... %v\n", results[0], results[batch-1])
	fmt.Println()
}
