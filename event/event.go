// Package event is the typed view of what a liveview client did.
//
// From classifies a raw wire.Message into one of the Data variants, or into
// nothing for interactions that carry no data (clicks, window focus and blur,
// mounts). Every variant is an immutable snapshot: fields are unexported and
// only readable through accessors.
//
// Data is closed to other packages but may grow. Match it with a type switch
// that keeps a default case:
//
//	switch e := data.(type) {
//	case event.FormSubmit:
//		save(e.Query())
//	case event.Key:
//		...
//	default:
//	}
package event

// Data is a normalized client event. Variants are comparable with == except
// an InputChange holding InputStrings; use reflect.DeepEqual when that case
// is possible.
type Data interface {
	kind() Kind
}

// Kind names a Data variant, for logs and metrics.
type Kind string

const (
	KindFormSubmit  Kind = "form_submit"
	KindFormChange  Kind = "form_change"
	KindInputChange Kind = "input_change"
	KindInputFocus  Kind = "input_focus"
	KindInputBlur   Kind = "input_blur"
	KindKey         Kind = "key"
	KindMouse       Kind = "mouse"
	KindScroll      Kind = "scroll"
)

// KindOf returns the variant name of d, or "" for nil.
func KindOf(d Data) Kind {
	if d == nil {
		return ""
	}
	return d.kind()
}

// FormSubmit is a submitted form, serialized as a query string.
type FormSubmit struct {
	query string
}

func (e FormSubmit) Query() string { return e.query }

// FormChange is a change to any input of a form, with the whole form
// serialized as a query string.
type FormChange struct {
	query string
}

func (e FormChange) Query() string { return e.query }

type InputFocus struct {
	value string
}

func (e InputFocus) Value() string { return e.value }

type InputBlur struct {
	value string
}

func (e InputBlur) Value() string { return e.value }

// InputChange is a change to a single input, select or textarea.
type InputChange struct {
	value InputValue
}

func (e InputChange) Value() InputValue { return e.value }

type Key struct {
	key   string
	code  string
	alt   bool
	ctrl  bool
	shift bool
	meta  bool
}

// Key is the DOM KeyboardEvent.key value, e.g. "Enter" or "a".
func (e Key) Key() string { return e.key }

// Code is the DOM KeyboardEvent.code value, e.g. "KeyA".
func (e Key) Code() string { return e.code }

func (e Key) Alt() bool   { return e.alt }
func (e Key) Ctrl() bool  { return e.ctrl }
func (e Key) Shift() bool { return e.shift }
func (e Key) Meta() bool  { return e.meta }

type Mouse struct {
	clientX   float64
	clientY   float64
	pageX     float64
	pageY     float64
	offsetX   float64
	offsetY   float64
	movementX float64
	movementY float64
	screenX   float64
	screenY   float64
}

func (e Mouse) ClientX() float64   { return e.clientX }
func (e Mouse) ClientY() float64   { return e.clientY }
func (e Mouse) PageX() float64     { return e.pageX }
func (e Mouse) PageY() float64     { return e.pageY }
func (e Mouse) OffsetX() float64   { return e.offsetX }
func (e Mouse) OffsetY() float64   { return e.offsetY }
func (e Mouse) MovementX() float64 { return e.movementX }
func (e Mouse) MovementY() float64 { return e.movementY }
func (e Mouse) ScreenX() float64   { return e.screenX }
func (e Mouse) ScreenY() float64   { return e.screenY }

type Scroll struct {
	scrollX float64
	scrollY float64
}

func (e Scroll) ScrollX() float64 { return e.scrollX }
func (e Scroll) ScrollY() float64 { return e.scrollY }

func (FormSubmit) kind() Kind  { return KindFormSubmit }
func (FormChange) kind() Kind  { return KindFormChange }
func (InputChange) kind() Kind { return KindInputChange }
func (InputFocus) kind() Kind  { return KindInputFocus }
func (InputBlur) kind() Kind   { return KindInputBlur }
func (Key) kind() Kind         { return KindKey }
func (Mouse) kind() Kind       { return KindMouse }
func (Scroll) kind() Kind      { return KindScroll }
