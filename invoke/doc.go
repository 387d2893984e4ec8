// Package invoke turns arbitrary Go func values into type-erased callables.
//
// An [Invokable] is built once per function and records everything overload
// resolution needs: a stable identity, the ordered parameter types, the
// declared result type, and the runtime name used to derive default
// registration names. Calling an Invokable converts each argument to the
// declared parameter type, recovers panics, and separates a trailing error
// result from the value result.
//
// # Result Shapes
//
// The following shapes are accepted:
//
//	func(...)              no value
//	func(...) error        no value, may fail
//	func(...) T            declares T
//	func(...) (T, error)   declares T, may fail
//
// Variadic functions and functions returning more than one value are
// rejected with [ErrInvalidFunc].
//
// # Identity
//
// Two func values have the same identity when they share the same closure
// object. A top-level function or method expression always yields the same
// identity; every evaluation of a method value (obj.Method) or a function
// literal creates a new closure and therefore a new identity.
package invoke
