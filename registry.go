package cardinal

import (
	"sync"

	"github.com/cardinal-go/cardinal/backend"
	"github.com/cardinal-go/cardinal/backend/enum"
	"github.com/cardinal-go/cardinal/backend/pb"
	"github.com/cardinal-go/cardinal/backend/sat"
)

var (
	builtinOnce sync.Once
	builtin     *backend.Registry
)

// Builtin returns the registry of bundled backends:
//
//	enum  exhaustive finite-domain search, all constraint shapes
//	sat   gini CNF solver, Boolean clauses only
//	pb    gophersat pseudo-Boolean solver, linear over 0/1
//
// Callers with external adapters can build their own backend.Registry
// instead; nothing in the session layer depends on this one.
func Builtin() *backend.Registry {
	builtinOnce.Do(func() {
		builtin = backend.NewRegistry()
		for name, f := range map[string]backend.Factory{
			"enum": func() backend.Adapter { return enum.New() },
			"sat":  func() backend.Adapter { return sat.New() },
			"pb":   func() backend.Adapter { return pb.New() },
		} {
			if err := builtin.Register(name, f); err != nil {
				panic(err)
			}
		}
	})
	return builtin
}
