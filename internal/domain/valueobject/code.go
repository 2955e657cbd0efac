package valueobject

import (
	"strconv"
)

// Code is a nullable integer code recorded for a clinical variable.
// The zero value is null (missing or unknown).
type Code struct {
	value int
	valid bool
}

// NewCode returns a non-null Code.
func NewCode(v int) Code {
	return Code{value: v, valid: true}
}

// NullCode returns a null Code.
func NullCode() Code {
	return Code{}
}

// Value returns the integer code and whether it is present.
func (c Code) Value() (int, bool) {
	return c.value, c.valid
}

// IsNull reports whether the code is missing.
func (c Code) IsNull() bool {
	return !c.valid
}

// Equal reports whether two codes agree. Two null codes are equal.
func (c Code) Equal(other Code) bool {
	if c.valid != other.valid {
		return false
	}
	return !c.valid || c.value == other.value
}

// Fixed1 formats the code with one decimal place, or "" when null.
func (c Code) Fixed1() string {
	if !c.valid {
		return ""
	}
	return strconv.Itoa(c.value) + ".0"
}

// String returns the bare integer, or "null".
func (c Code) String() string {
	if !c.valid {
		return "null"
	}
	return strconv.Itoa(c.value)
}
