package lodestar

import (
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	"github.com/rotisserie/eris"
)

// System is a unit of game logic. Systems run one at a time, in registration order,
// and mutate structure only through the context's command buffer.
type System func(ctx *Context) error

type registeredSystem struct {
	name string
	fn   System
}

// systemName derives a human-readable name from the function symbol, e.g.
// "physics.ApplyVelocity" from its fully qualified name.
func systemName(fn System) (string, error) {
	if fn == nil {
		return "", eris.New("system function cannot be nil")
	}

	name := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, "-fm")
	return name, nil
}
