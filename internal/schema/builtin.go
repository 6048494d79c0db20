// Package schema compiles CUE kind declarations into record schemas.
//
// Kinds are declared in CUE rather than Go so a deployment can extend the
// builtin set with its own record kinds without recompiling. The builtin
// declarations cover the storefront admin screens: products, orders,
// users, and the nested catalog items.
package schema

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue/cuecontext"

	"github.com/tallridge/backroom/internal/record"
)

//go:embed builtin.cue
var builtinCUE string

var (
	builtinOnce sync.Once
	builtinSet  map[string]record.Schema
	builtinErr  error
)

// Builtin returns the embedded kind set. The CUE source is compiled once;
// callers receive a shared map and must not modify it.
func Builtin() (map[string]record.Schema, error) {
	builtinOnce.Do(func() {
		v := cuecontext.New().CompileString(builtinCUE)
		builtinSet, builtinErr = CompileAll(v)
	})
	return builtinSet, builtinErr
}

// BuiltinKind returns one embedded kind schema by name.
func BuiltinKind(name string) (record.Schema, error) {
	set, err := Builtin()
	if err != nil {
		return record.Schema{}, err
	}
	s, ok := set[name]
	if !ok {
		return record.Schema{}, fmt.Errorf("unknown kind %q", name)
	}
	return s, nil
}
