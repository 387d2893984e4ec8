package invoke

import (
	"fmt"
	"strings"
)

// Behavior selects how a default registration name is derived.
type Behavior int

const (
	// ClassAndMethodName names a method Receiver.Method, a function literal
	// Scope.funcN and a top-level function pkg.Func.
	ClassAndMethodName Behavior = iota
	// MethodName keeps only the last segment: Method, funcN or Func.
	MethodName
)

func (b Behavior) String() string {
	switch b {
	case ClassAndMethodName:
		return "class-and-method"
	case MethodName:
		return "method"
	default:
		return fmt.Sprintf("behavior(%d)", int(b))
	}
}

// deriveName shortens a runtime function name such as
// "example.com/calc.(*Calculator).Add-fm" according to b.
func deriveName(full string, b Behavior) string {
	if full == "" {
		return ""
	}
	name := full
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	name = stripTypeArgs(name)

	segs := strings.Split(name, ".")
	for i, s := range segs {
		segs[i] = strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(s, "("), "*"), ")")
	}
	last := segs[len(segs)-1]
	if b == MethodName || len(segs) == 1 {
		return last
	}
	return segs[len(segs)-2] + "." + last
}

// stripTypeArgs removes instantiation brackets, "Map[...]" becoming "Map".
func stripTypeArgs(name string) string {
	var b strings.Builder
	depth := 0
	for _, r := range name {
		switch {
		case r == '[':
			depth++
		case r == ']':
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
