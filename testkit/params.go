package testkit

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"

	"github.com/harrison/fixturekit/runner"
)

// Root is the working root path of the current invocation. A test body
// parameter of this type receives it.
type Root string

// RootFS is the working root as a read-only file system.
type RootFS interface {
	fs.FS
}

// Capability is what a parameter asks the extension to provide.
type Capability int

const (
	// CapabilityNone marks a parameter the extension cannot serve.
	CapabilityNone Capability = iota
	// CapabilityRoot asks for the working root.
	CapabilityRoot
	// CapabilityRunner asks for the configured invocation runner.
	CapabilityRunner
)

func (c Capability) String() string {
	switch c {
	case CapabilityRoot:
		return "root"
	case CapabilityRunner:
		return "runner"
	default:
		return "none"
	}
}

var (
	typeString = reflect.TypeFor[string]()
	typeRoot   = reflect.TypeFor[Root]()
	typeFS     = reflect.TypeFor[fs.FS]()
	typeRootFS = reflect.TypeFor[RootFS]()
	typeRunner = reflect.TypeFor[*runner.Runner]()
)

// Param describes one parameter to resolve: its capability tag and the
// declared type the value must be delivered as.
type Param struct {
	Name       string
	Index      int
	Capability Capability
	Type       reflect.Type
}

// ParamFor infers the capability from a declared type. Root and RootFS tag
// the working root, *runner.Runner the runner. Untagged types get
// CapabilityNone.
func ParamFor(t reflect.Type) Param {
	p := Param{Type: t}
	switch t {
	case typeRoot, typeRootFS:
		p.Capability = CapabilityRoot
	case typeRunner:
		p.Capability = CapabilityRunner
	}
	return p
}

func (p Param) String() string {
	name := p.Name
	if name == "" {
		name = fmt.Sprintf("#%d", p.Index)
	}
	return fmt.Sprintf("parameter %s (%s, %v)", name, p.Capability, p.Type)
}

// Supports reports whether p names a capability and type Resolve can serve.
func Supports(p Param) bool {
	switch p.Capability {
	case CapabilityRoot:
		return p.Type == typeString || p.Type == typeRoot || p.Type == typeFS || p.Type == typeRootFS
	case CapabilityRunner:
		return p.Type == typeRunner
	default:
		return false
	}
}

// ErrUnsupportedParameter is matched by every UnsupportedParameterError.
var ErrUnsupportedParameter = errors.New("unsupported parameter")

// UnsupportedParameterError reports a parameter the extension cannot
// resolve.
type UnsupportedParameterError struct {
	Param  Param
	Reason string
}

func (e *UnsupportedParameterError) Error() string {
	return fmt.Sprintf("cannot resolve %s: %s", e.Param, e.Reason)
}

func (e *UnsupportedParameterError) Unwrap() error {
	return ErrUnsupportedParameter
}

// ValidationError reports a filesystem path that is missing or of the wrong
// kind before a test runs.
type ValidationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s '%s': %v", e.Reason, e.Path, e.Err)
	}
	return fmt.Sprintf("%s '%s'", e.Reason, e.Path)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
