// Package cardinal is a solver-agnostic constraint modeling library:
// describe a combinatorial decision problem once, as an expression
// tree over Boolean and integer decision variables, and solve it
// against any backend without rewriting the model.
//
// A model is built from immutable expressions (package expr), compiled
// by a multi-pass rewriting pipeline (package transform) into the
// normal form each backend natively accepts, and executed through a
// uniform adapter contract (package backend) covering incremental
// re-solves, scoped assumptions, unsat cores, optimization and
// solution enumeration. Three backends ship in-tree: an exhaustive
// finite-domain engine, a CNF SAT solver and a pseudo-Boolean solver.
//
//	x := expr.Int("x", 0, 3)
//	y := expr.Int("y", 0, 3)
//	m, _ := cardinal.NewModel(x.Lt(y), x.Add(y).Eq(expr.K(3)))
//	res, _ := m.Solve(context.Background(), "enum")
//	// res.Status == backend.StatusSat; values written to x.Var(), y.Var()
package cardinal
