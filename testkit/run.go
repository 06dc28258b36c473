package testkit

import (
	"reflect"
	"testing"

	"github.com/harrison/fixturekit/internal/logger"
)

var (
	typeT     = reflect.TypeFor[*testing.T]()
	typeTB    = reflect.TypeFor[testing.TB]()
	typeError = reflect.TypeFor[error]()
)

// Run executes fn as the body of c. fn is a function whose parameters are
// each one of *testing.T, testing.TB, Root, RootFS or *runner.Runner; it may
// return nothing or an error. Hooks registered with Suite.BeforeEach run
// first, outermost suite first, with parameters from the same invocation, so
// a hook and the body see the same working root and the same runner. The
// working root is released by t.Cleanup, so teardown runs even when the body
// calls t.Fatal.
func (c *Case) Run(t *testing.T, fn any) {
	t.Helper()

	body := c.checkFunc(t, "body", fn)
	hooks := c.hooks()
	checked := make([]reflect.Value, len(hooks))
	for i, hook := range hooks {
		checked[i] = c.checkFunc(t, "before-each hook", hook)
	}

	ext := c.extension()
	inv, err := ext.beforeEach(c, func(level string) logger.Logger {
		return logger.NewTestLogger(t, level)
	})
	if err != nil {
		t.Fatalf("testkit: %s: %v", c.Name(), err)
	}
	t.Cleanup(func() { ext.AfterEach(inv) })

	for _, hook := range checked {
		c.invoke(t, inv, "before-each hook", hook)
	}
	c.invoke(t, inv, "body", body)
}

// checkFunc validates the shape of a body or hook.
func (c *Case) checkFunc(t *testing.T, kind string, fn any) reflect.Value {
	t.Helper()

	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		t.Fatalf("testkit: %s: %s must be a function, got %T", c.Name(), kind, fn)
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		t.Fatalf("testkit: %s: variadic %ss are not supported", c.Name(), kind)
	}
	if ft.NumOut() > 1 || (ft.NumOut() == 1 && ft.Out(0) != typeError) {
		t.Fatalf("testkit: %s: %s must return nothing or an error", c.Name(), kind)
	}
	return fv
}

// invoke resolves the parameters of fv through inv and calls it.
func (c *Case) invoke(t *testing.T, inv *Invocation, kind string, fv reflect.Value) {
	t.Helper()

	ft := fv.Type()
	args := make([]reflect.Value, ft.NumIn())
	for i := range args {
		pt := ft.In(i)
		if pt == typeT || pt == typeTB {
			args[i] = reflect.ValueOf(t)
			continue
		}

		p := ParamFor(pt)
		p.Index = i
		value, err := inv.Resolve(p)
		if err != nil {
			t.Fatalf("testkit: %s: %s: %v", c.Name(), kind, err)
		}
		args[i] = reflect.ValueOf(value)
	}

	out := fv.Call(args)
	if len(out) == 1 && !out[0].IsNil() {
		t.Fatalf("testkit: %s: %s: %v", c.Name(), kind, out[0].Interface())
	}
}
