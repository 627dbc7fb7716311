package network

import (
	"sync"

	"github.com/pkg/errors"
)

var registry = struct {
	sync.Mutex

	operators   map[string]func() Operator
	costFuncs   map[string]func() CostFunction
	optimizers  map[string]func() Optimizer
	penalties   map[string]func() Penalty
	hyperParams map[string]func() HyperParameter
}{
	operators:   make(map[string]func() Operator),
	costFuncs:   make(map[string]func() CostFunction),
	optimizers:  make(map[string]func() Optimizer),
	penalties:   make(map[string]func() Penalty),
	hyperParams: make(map[string]func() HyperParameter),
}

// RegisterAll registers each of the constructors in the list, so that Networks using them can be
// loaded. Each element must have one of the types:
//
//	func() Operator
//	func() CostFunction
//	func() Optimizer
//	func() Penalty
//	func() HyperParameter
//
// The TypeString of the constructed value is the name it is registered under.
//
// Either ErrRegisterWrongType, ErrRegisterNilReturn or ErrRegisterDuplicate will be returned,
// wrapped with the index of the offending element. Elements before it will have been registered.
func RegisterAll(list []interface{}) error {
	registry.Lock()
	defer registry.Unlock()

	for i, f := range list {
		var err error

		switch f := f.(type) {
		case func() Operator:
			err = register(registry.operators, f)
		case func() CostFunction:
			err = register(registry.costFuncs, f)
		case func() Optimizer:
			err = register(registry.optimizers, f)
		case func() Penalty:
			err = register(registry.penalties, f)
		case func() HyperParameter:
			err = register(registry.hyperParams, f)
		default:
			err = ErrRegisterWrongType
		}

		if err != nil {
			return errors.Wrapf(err, "Can't register element %d (%T)", i, f)
		}
	}

	return nil
}

type typeStringer interface {
	TypeString() string
}

func register[T typeStringer](m map[string]func() T, f func() T) error {
	v := f()
	if typeStringer(v) == nil {
		return ErrRegisterNilReturn
	}

	name := v.TypeString()
	if _, ok := m[name]; ok {
		return ErrRegisterDuplicate
	}

	m[name] = f
	return nil
}

func lookup[T any](m map[string]func() T, name string) (T, error) {
	registry.Lock()
	defer registry.Unlock()

	f, ok := m[name]
	if !ok {
		var zero T
		return zero, errors.Wrapf(ErrNotRegistered, "No type registered as %q", name)
	}

	return f(), nil
}
