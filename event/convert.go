package event

import (
	"slices"

	"github.com/kleeedolinux/liveview/wire"
)

var (
	_ wire.Visitor           = (*converter)(nil)
	_ wire.InputValueVisitor = (*inputConverter)(nil)
)

// From classifies a raw message. It reports false for messages that carry
// no event data: clicks, window focus and blur, and None. From is pure and
// safe for concurrent use.
func From(msg wire.Message) (Data, bool) {
	if msg == nil {
		return nil, false
	}
	var c converter
	msg.Accept(&c)
	return c.data, c.data != nil
}

type converter struct {
	data Data
}

func (c *converter) VisitClick(wire.Click)             {}
func (c *converter) VisitWindowFocus(wire.WindowFocus) {}
func (c *converter) VisitWindowBlur(wire.WindowBlur)   {}
func (c *converter) VisitNone(wire.None)               {}

func (c *converter) VisitFormSubmit(m wire.FormSubmit) {
	c.data = FormSubmit{query: m.Query}
}

func (c *converter) VisitFormChange(m wire.FormChange) {
	c.data = FormChange{query: m.Query}
}

func (c *converter) VisitInputFocus(m wire.InputFocus) {
	c.data = InputFocus{value: m.Value}
}

func (c *converter) VisitInputBlur(m wire.InputBlur) {
	c.data = InputBlur{value: m.Value}
}

func (c *converter) VisitInputChange(m wire.InputChange) {
	if m.Value == nil {
		return
	}
	var ic inputConverter
	m.Value.AcceptInput(&ic)
	c.data = InputChange{value: ic.value}
}

func (c *converter) VisitKey(m wire.Key) {
	c.data = Key{
		key:   m.Key,
		code:  m.Code,
		alt:   m.Alt,
		ctrl:  m.Ctrl,
		shift: m.Shift,
		meta:  m.Meta,
	}
}

func (c *converter) VisitMouse(m wire.Mouse) {
	c.data = Mouse{
		clientX:   m.ClientX,
		clientY:   m.ClientY,
		pageX:     m.PageX,
		pageY:     m.PageY,
		offsetX:   m.OffsetX,
		offsetY:   m.OffsetY,
		movementX: m.MovementX,
		movementY: m.MovementY,
		screenX:   m.ScreenX,
		screenY:   m.ScreenY,
	}
}

func (c *converter) VisitScroll(m wire.Scroll) {
	c.data = Scroll{scrollX: m.ScrollX, scrollY: m.ScrollY}
}

type inputConverter struct {
	value InputValue
}

func (c *inputConverter) VisitBool(v wire.InputBool) {
	c.value = InputBool{value: bool(v)}
}

func (c *inputConverter) VisitString(v wire.InputString) {
	c.value = InputString{value: string(v)}
}

// The raw slice is copied so the event never aliases the decoded message.
func (c *inputConverter) VisitStrings(v wire.InputStrings) {
	c.value = InputStrings{values: slices.Clone([]string(v))}
}
