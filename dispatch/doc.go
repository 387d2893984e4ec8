// Package dispatch registers Go functions under names and invokes the best
// matching overload for a set of runtime arguments.
//
// Callers register arbitrary func values. Functions sharing a name are
// overloads. An invocation names the overload set, supplies arguments and,
// for value-returning calls, the requested result type as a type parameter:
//
//	reg := dispatch.New(dispatch.Options{})
//	_ = reg.Register(func(a, b int) int { return a + b }, dispatch.WithName("Add"))
//	_ = reg.Register(func(a, b float64) float64 { return a + b }, dispatch.WithName("Add"))
//
//	sum, err := dispatch.Execute[int](reg, "Add", 2, 6) // 8, int overload
//
// # Resolution
//
// Candidates are considered in registration order and pass three stages:
//
//  1. Arity: the parameter count equals the argument count. A no-value
//     request keeps only functions declaring no value.
//  2. Assignability: the declared result fits the requested type and every
//     parameter accepts its argument, directly, through an interface, through
//     an embedded struct, or by native conversion.
//  3. Best match: for each argument, left to right, only candidates declaring
//     the closest parameter type survive (see typematch). Finally the result
//     type narrows the set once more, preferring the most general acceptable
//     result. The first survivor runs.
//
// A nil argument matches any parameter that can hold nil and does not narrow
// the selection.
//
// # Results
//
// [Execute] converts the result to the requested type when it is not
// already of that type. If no conversion exists the zero value is returned
// without error; [Invoke] reports this as [Degraded] and the registry logs a
// warning. Errors returned by a function and panics inside it are reported
// as [ErrExecutionFailed].
//
// # Thread Safety
//
// A Registry is safe for concurrent use. Invocations of the same function
// are serialized; invocations of different functions run in parallel.
package dispatch
