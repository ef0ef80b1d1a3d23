package event

import "slices"

// InputValue is the shape of an InputChange: one of InputBool, InputString
// or InputStrings. The shape sent by the client is kept as is.
type InputValue interface {
	inputValue()
}

// InputBool is the checked state of a checkbox or radio input.
type InputBool struct {
	value bool
}

func (v InputBool) Value() bool { return v.value }

type InputString struct {
	value string
}

func (v InputString) Value() string { return v.value }

// InputStrings is the selected options of a multi-select, in DOM order.
// It holds a slice, so it and any InputChange or Data wrapping it are not
// comparable: == on such values panics. Compare with reflect.DeepEqual, or
// slices.Equal on Values.
type InputStrings struct {
	values []string
}

// Values returns a copy of the selected options.
func (v InputStrings) Values() []string { return slices.Clone(v.values) }

func (v InputStrings) Len() int { return len(v.values) }

func (InputBool) inputValue()    {}
func (InputString) inputValue()  {}
func (InputStrings) inputValue() {}
