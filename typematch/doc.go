// Package typematch ranks Go types by how well they fit a desired type.
//
// It is the type oracle behind runtime overload resolution: given the runtime
// type of an argument (or a requested result type) and the declared types of
// the candidate callables, it decides which declared type is the closest fit.
//
// # Strategies
//
// Two independent strategies are used, selected by whether the desired type
// is native:
//
//   - Native scoring: for bool, integer, float, string and decimal types a
//     fixed score table ranks candidates (exact match first, then lossless
//     numeric widenings, decimals, string-family matches, and finally any
//     candidate the value merely converts to). See [Score].
//   - Hierarchy matching: for every other type a [TypeNode] tree is built
//     from the type's embedded structs and the interfaces it implements, one
//     non-redundant layer per level. The candidate found at the smallest
//     level is the most specific. See [Oracle.Closest].
//
// # Interfaces
//
// Go interfaces are satisfied implicitly, so a type cannot list the
// interfaces it implements. An [Oracle] therefore keeps a universe of
// interface types: every interface passed to [Oracle.Declare] or appearing
// among the candidates of a query. Trees only contain universe interfaces.
//
// # Direction
//
// Parameters prefer the most specific declared type ([Specific]). Results
// prefer the most general acceptable type ([General]): the caller only bounds
// what it accepts, so the candidate closest to the requested type wins.
//
// # Caching
//
// Trees are built lazily per root type and cached. A tree is stamped with the
// universe generation it was built against and rebuilt once the universe
// grows. The cache is unbounded by default; [Options] can bound its size or
// age entries out.
//
// # Thread Safety
//
// All Oracle methods are safe for concurrent use. Concurrent builds of the
// same tree are collapsed into one.
package typematch
