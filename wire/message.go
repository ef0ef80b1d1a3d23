// Package wire holds the decoded-but-unclassified form of the messages a
// liveview browser client sends over its socket, and the frames the server
// sends back.
//
// A client frame is a JSON array of three elements:
//
//	[liveviewID, topic, data]
//
// where topic is "axum/mount-liveview" or "axum/<attr>" for a bound DOM
// attribute (axm-click, axm-submit, axm-keydown, ...), and data is an object
// using the client's short keys:
//
//	e        DOM event name
//	m        attribute message (JSON value, or the raw attribute string)
//	v        form object or input value (string, []string or bool)
//	cx cy    client x/y       px py  page x/y      ox oy  offset x/y
//	mx my    movement x/y     sx sy  screen x/y    scx scy scroll x/y
//	k kc     key and code     a c s me  alt, ctrl, shift, meta
//
// The only other client frame is the health reply {"h":"ok"}.
//
// DecodeFrame turns bytes into a Frame whose Message is one of the variants
// below. Messages are classified into application events by package event.
package wire

// Message is one raw client interaction. The set of variants is closed:
// every implementation lives in this package and is listed in Visitor.
type Message interface {
	Accept(v Visitor)
	message()
}

// Visitor has one method per Message variant. A new variant adds a method
// here, which breaks every implementation until the new case is handled.
type Visitor interface {
	VisitClick(Click)
	VisitWindowFocus(WindowFocus)
	VisitWindowBlur(WindowBlur)
	VisitNone(None)
	VisitFormSubmit(FormSubmit)
	VisitFormChange(FormChange)
	VisitInputFocus(InputFocus)
	VisitInputBlur(InputBlur)
	VisitInputChange(InputChange)
	VisitKey(Key)
	VisitMouse(Mouse)
	VisitScroll(Scroll)
}

type Click struct{}

type WindowFocus struct{}

type WindowBlur struct{}

// None is a frame that carries no interaction data, such as a mount.
type None struct{}

type FormSubmit struct {
	Query string
}

type FormChange struct {
	Query string
}

type InputFocus struct {
	Value string
}

type InputBlur struct {
	Value string
}

type InputChange struct {
	Value InputValue
}

type Key struct {
	Key   string
	Code  string
	Alt   bool
	Ctrl  bool
	Shift bool
	Meta  bool
}

type Mouse struct {
	ClientX   float64
	ClientY   float64
	PageX     float64
	PageY     float64
	OffsetX   float64
	OffsetY   float64
	MovementX float64
	MovementY float64
	ScreenX   float64
	ScreenY   float64
}

type Scroll struct {
	ScrollX float64
	ScrollY float64
}

func (m Click) Accept(v Visitor)       { v.VisitClick(m) }
func (m WindowFocus) Accept(v Visitor) { v.VisitWindowFocus(m) }
func (m WindowBlur) Accept(v Visitor)  { v.VisitWindowBlur(m) }
func (m None) Accept(v Visitor)        { v.VisitNone(m) }
func (m FormSubmit) Accept(v Visitor)  { v.VisitFormSubmit(m) }
func (m FormChange) Accept(v Visitor)  { v.VisitFormChange(m) }
func (m InputFocus) Accept(v Visitor)  { v.VisitInputFocus(m) }
func (m InputBlur) Accept(v Visitor)   { v.VisitInputBlur(m) }
func (m InputChange) Accept(v Visitor) { v.VisitInputChange(m) }
func (m Key) Accept(v Visitor)         { v.VisitKey(m) }
func (m Mouse) Accept(v Visitor)       { v.VisitMouse(m) }
func (m Scroll) Accept(v Visitor)      { v.VisitScroll(m) }

func (Click) message()       {}
func (WindowFocus) message() {}
func (WindowBlur) message()  {}
func (None) message()        {}
func (FormSubmit) message()  {}
func (FormChange) message()  {}
func (InputFocus) message()  {}
func (InputBlur) message()   {}
func (InputChange) message() {}
func (Key) message()         {}
func (Mouse) message()       {}
func (Scroll) message()      {}

// InputValue is the value of an input-change: a checkbox or radio state, a
// text value, or the selected options of a multi-select.
type InputValue interface {
	AcceptInput(v InputValueVisitor)
	inputValue()
}

type InputValueVisitor interface {
	VisitBool(InputBool)
	VisitString(InputString)
	VisitStrings(InputStrings)
}

type InputBool bool

type InputString string

type InputStrings []string

func (x InputBool) AcceptInput(v InputValueVisitor)    { v.VisitBool(x) }
func (x InputString) AcceptInput(v InputValueVisitor)  { v.VisitString(x) }
func (x InputStrings) AcceptInput(v InputValueVisitor) { v.VisitStrings(x) }

func (InputBool) inputValue()    {}
func (InputString) inputValue()  {}
func (InputStrings) inputValue() {}
