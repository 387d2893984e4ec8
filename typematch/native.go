package typematch

import (
	"math"
	"reflect"

	"github.com/shopspring/decimal"
)

// Scores returned by Score.
const (
	ScoreNone        = 0
	ScoreConvertible = 1
	ScoreAmbiguous   = 2
	ScoreDecimal     = 3
	ScoreWidening    = 4
	ScoreExact       = 6
)

var (
	decimalType = reflect.TypeFor[decimal.Decimal]()
	stringType  = reflect.TypeFor[string]()
)

// IsNative reports whether t belongs to the native type set: bool, every
// integer and float kind, string, and decimal.Decimal. Named types over
// those kinds are native too.
func IsNative(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t == decimalType {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String, reflect.Float32, reflect.Float64:
		return true
	}
	return isSigned(t) || isUnsigned(t)
}

func isSigned(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUnsigned(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isInteger(t reflect.Type) bool { return isSigned(t) || isUnsigned(t) }

func isNumeric(t reflect.Type) bool {
	if t == decimalType {
		return true
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		return true
	}
	return isInteger(t)
}

func isStringKind(t reflect.Type) bool { return t != decimalType && t.Kind() == reflect.String }

// maxValue returns the largest value an integer type can hold.
func maxValue(t reflect.Type) uint64 {
	switch t.Kind() {
	case reflect.Int8:
		return math.MaxInt8
	case reflect.Int16:
		return math.MaxInt16
	case reflect.Int32:
		return math.MaxInt32
	case reflect.Int64:
		return math.MaxInt64
	case reflect.Int:
		return math.MaxInt
	case reflect.Uint8:
		return math.MaxUint8
	case reflect.Uint16:
		return math.MaxUint16
	case reflect.Uint32:
		return math.MaxUint32
	case reflect.Uint, reflect.Uintptr:
		return math.MaxUint
	default:
		return math.MaxUint64
	}
}

// Score rates candidate as a target for a value of type input.
//
// Exact matches score 6. Between numeric types a float64 candidate scores 4,
// integer candidates score by range (see integerScore) and a decimal
// candidate scores 3. Between string-kinded types the predeclared string
// scores 4 and any other string kind 3. Anything else scores 1 when input
// is assignable or convertible to candidate, 0 otherwise.
func Score(input, candidate reflect.Type) int {
	if input == nil || candidate == nil {
		return ScoreNone
	}
	score := ScoreNone
	switch {
	case input == candidate:
		score = ScoreExact
	case isNumeric(input) && isNumeric(candidate):
		score = numericScore(input, candidate)
	case isStringKind(input) && isStringKind(candidate):
		score = stringScore(candidate)
	}
	if score == ScoreNone && AssignableOrConvertible(input, candidate) {
		score = ScoreConvertible
	}
	return score
}

func numericScore(input, candidate reflect.Type) int {
	switch {
	case candidate.Kind() == reflect.Float64:
		return ScoreWidening
	case isInteger(input) && isInteger(candidate):
		return integerScore(input, candidate)
	case candidate == decimalType:
		return ScoreDecimal
	}
	return ScoreNone
}

// integerScore ranks integer conversions. Signed candidates accept any
// signed input and unsigned inputs whose range fits. Unsigned candidates
// score 4 for unsigned widenings, 2 for unsigned narrowings and 2 for
// signed inputs whose positive range fits.
func integerScore(input, candidate reflect.Type) int {
	in, limit := maxValue(input), maxValue(candidate)
	switch {
	case isSigned(candidate):
		if isSigned(input) || in <= limit {
			return ScoreWidening
		}
	case isUnsigned(input):
		if in <= limit {
			return ScoreWidening
		}
		return ScoreAmbiguous
	default:
		if in <= limit {
			return ScoreAmbiguous
		}
	}
	return ScoreNone
}

func stringScore(candidate reflect.Type) int {
	if candidate == stringType {
		return ScoreWidening
	}
	return ScoreDecimal
}

// BestNative returns the candidate with the strictly highest Score against
// desired. Ties keep the earlier candidate. It reports false when every
// candidate scores 0.
func (o *Oracle) BestNative(desired reflect.Type, candidates []reflect.Type) (reflect.Type, bool) {
	var best reflect.Type
	bestScore := ScoreNone
	for _, candidate := range candidates {
		if candidate == nil {
			continue
		}
		score := Score(desired, candidate)
		if score <= bestScore {
			continue
		}
		best, bestScore = candidate, score
	}
	return best, best != nil
}
