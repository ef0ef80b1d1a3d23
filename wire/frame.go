package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	TopicMount  = "axum/mount-liveview"
	topicPrefix = "axum/"
)

// Bound DOM attributes. The topic of an event frame is "axum/" + attr.
const (
	AttrClick         = "axm-click"
	AttrInput         = "axm-input"
	AttrBlur          = "axm-blur"
	AttrFocus         = "axm-focus"
	AttrChange        = "axm-change"
	AttrSubmit        = "axm-submit"
	AttrKeydown       = "axm-keydown"
	AttrKeyup         = "axm-keyup"
	AttrMouseenter    = "axm-mouseenter"
	AttrMouseover     = "axm-mouseover"
	AttrMouseleave    = "axm-mouseleave"
	AttrMouseout      = "axm-mouseout"
	AttrMousemove     = "axm-mousemove"
	AttrScroll        = "axm-scroll"
	AttrWindowKeydown = "axm-window-keydown"
	AttrWindowKeyup   = "axm-window-keyup"
	AttrWindowFocus   = "axm-window-focus"
	AttrWindowBlur    = "axm-window-blur"
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownTopic   = errors.New("unknown topic")
	ErrInvalidField   = errors.New("invalid field")
)

var healthReply = []byte(`{"h":"ok"}`)

// Topic returns the frame topic for a bound attribute.
func Topic(attr string) string {
	return topicPrefix + attr
}

// Frame is one decoded client frame.
type Frame struct {
	LiveviewID string
	Topic      string
	// Msg is the attribute message ("m") as raw JSON, nil when absent.
	Msg     json.RawMessage
	Message Message
	Health  bool
}

func (f Frame) IsMount() bool {
	return f.Topic == TopicMount
}

// DecodeFrame decodes one text frame from a liveview client. It checks the
// JSON shape only; the meaning of queries and values is left to the caller.
func DecodeFrame(data []byte) (Frame, error) {
	if !gjson.ValidBytes(data) {
		return Frame{}, fmt.Errorf("%w: invalid json", ErrMalformedFrame)
	}
	root := gjson.ParseBytes(data)

	if root.IsObject() {
		if root.Get("h").String() == "ok" {
			return Frame{Health: true}, nil
		}
		return Frame{}, fmt.Errorf("%w: unexpected object", ErrMalformedFrame)
	}
	if !root.IsArray() {
		return Frame{}, fmt.Errorf("%w: expected array", ErrMalformedFrame)
	}

	parts := root.Array()
	if len(parts) != 3 {
		return Frame{}, fmt.Errorf("%w: expected 3 elements, got %d", ErrMalformedFrame, len(parts))
	}
	if parts[0].Type != gjson.String || parts[1].Type != gjson.String {
		return Frame{}, fmt.Errorf("%w: liveview id and topic must be strings", ErrMalformedFrame)
	}
	if !parts[2].IsObject() {
		return Frame{}, fmt.Errorf("%w: data must be an object", ErrMalformedFrame)
	}

	frame := Frame{
		LiveviewID: parts[0].Str,
		Topic:      parts[1].Str,
	}
	body := parts[2]
	if m := body.Get("m"); m.Exists() {
		frame.Msg = json.RawMessage(m.Raw)
	}

	msg, err := decodeMessage(frame.Topic, body)
	if err != nil {
		return Frame{}, err
	}
	frame.Message = msg
	return frame, nil
}

func decodeMessage(topic string, body gjson.Result) (Message, error) {
	if topic == TopicMount {
		return None{}, nil
	}
	attr, ok := strings.CutPrefix(topic, topicPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}

	switch attr {
	case AttrClick:
		return Click{}, nil
	case AttrWindowFocus:
		return WindowFocus{}, nil
	case AttrWindowBlur:
		return WindowBlur{}, nil
	case AttrFocus:
		value, err := textValue(body.Get("v"))
		if err != nil {
			return nil, err
		}
		return InputFocus{Value: value}, nil
	case AttrBlur:
		value, err := textValue(body.Get("v"))
		if err != nil {
			return nil, err
		}
		return InputBlur{Value: value}, nil
	case AttrInput, AttrChange:
		v := body.Get("v")
		if v.IsObject() {
			query, err := formQuery(v)
			if err != nil {
				return nil, err
			}
			return FormChange{Query: query}, nil
		}
		value, err := inputValue(v)
		if err != nil {
			return nil, err
		}
		return InputChange{Value: value}, nil
	case AttrSubmit:
		v := body.Get("v")
		if v.Exists() && !v.IsObject() {
			return nil, fieldError("v", "object")
		}
		query, err := formQuery(v)
		if err != nil {
			return nil, err
		}
		return FormSubmit{Query: query}, nil
	case AttrKeydown, AttrKeyup, AttrWindowKeydown, AttrWindowKeyup:
		return decodeKey(body)
	case AttrMouseenter, AttrMouseover, AttrMouseleave, AttrMouseout, AttrMousemove:
		return decodeMouse(body)
	case AttrScroll:
		x, err := floatField(body, "scx")
		if err != nil {
			return nil, err
		}
		y, err := floatField(body, "scy")
		if err != nil {
			return nil, err
		}
		return Scroll{ScrollX: x, ScrollY: y}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
}

func decodeKey(body gjson.Result) (Message, error) {
	var (
		key Key
		err error
	)
	if key.Key, err = stringField(body, "k"); err != nil {
		return nil, err
	}
	if key.Code, err = stringField(body, "kc"); err != nil {
		return nil, err
	}
	if key.Alt, err = boolField(body, "a"); err != nil {
		return nil, err
	}
	if key.Ctrl, err = boolField(body, "c"); err != nil {
		return nil, err
	}
	if key.Shift, err = boolField(body, "s"); err != nil {
		return nil, err
	}
	if key.Meta, err = boolField(body, "me"); err != nil {
		return nil, err
	}
	return key, nil
}

func decodeMouse(body gjson.Result) (Message, error) {
	var mouse Mouse
	fields := []struct {
		key string
		dst *float64
	}{
		{"cx", &mouse.ClientX},
		{"cy", &mouse.ClientY},
		{"px", &mouse.PageX},
		{"py", &mouse.PageY},
		{"ox", &mouse.OffsetX},
		{"oy", &mouse.OffsetY},
		{"mx", &mouse.MovementX},
		{"my", &mouse.MovementY},
		{"sx", &mouse.ScreenX},
		{"sy", &mouse.ScreenY},
	}
	for _, f := range fields {
		v, err := floatField(body, f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	return mouse, nil
}

// The client leaves out fields the DOM event does not have, so absent and
// null fields decode as zero values.

func stringField(body gjson.Result, key string) (string, error) {
	r := body.Get(key)
	switch r.Type {
	case gjson.Null:
		return "", nil
	case gjson.String:
		return r.Str, nil
	}
	return "", fieldError(key, "string")
}

func boolField(body gjson.Result, key string) (bool, error) {
	r := body.Get(key)
	switch r.Type {
	case gjson.Null, gjson.False:
		return false, nil
	case gjson.True:
		return true, nil
	}
	return false, fieldError(key, "bool")
}

func floatField(body gjson.Result, key string) (float64, error) {
	r := body.Get(key)
	switch r.Type {
	case gjson.Null:
		return 0, nil
	case gjson.Number:
		return r.Num, nil
	}
	return 0, fieldError(key, "number")
}

func inputValue(v gjson.Result) (InputValue, error) {
	switch v.Type {
	case gjson.Null:
		// The client drops falsy values, so "" and false both arrive absent.
		return InputString(""), nil
	case gjson.True, gjson.False:
		return InputBool(v.Bool()), nil
	case gjson.String:
		return InputString(v.Str), nil
	}
	if v.IsArray() {
		values, err := stringList(v, "v")
		if err != nil {
			return nil, err
		}
		return InputStrings(values), nil
	}
	return nil, fieldError("v", "bool, string or array of strings")
}

func textValue(v gjson.Result) (string, error) {
	switch v.Type {
	case gjson.Null:
		return "", nil
	case gjson.True, gjson.False:
		return strconv.FormatBool(v.Bool()), nil
	case gjson.String:
		return v.Str, nil
	}
	if v.IsArray() {
		values, err := stringList(v, "v")
		if err != nil {
			return "", err
		}
		return strings.Join(values, ","), nil
	}
	return "", fieldError("v", "bool, string or array of strings")
}

func stringList(v gjson.Result, key string) ([]string, error) {
	items := v.Array()
	values := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type != gjson.String {
			return nil, fieldError(key, "array of strings")
		}
		values = append(values, item.Str)
	}
	return values, nil
}

// formQuery serializes a form object built by the client into a query
// string. Checkbox groups arrive as {value: checked} and contribute one
// pair per checked value.
func formQuery(form gjson.Result) (string, error) {
	values := url.Values{}
	var err error
	form.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		switch {
		case value.Type == gjson.String:
			values.Add(name, value.Str)
		case value.Type == gjson.Null:
			values.Add(name, "")
		case value.IsArray():
			var list []string
			if list, err = stringList(value, "v."+name); err != nil {
				return false
			}
			for _, item := range list {
				values.Add(name, item)
			}
		case value.IsObject():
			var checked []string
			value.ForEach(func(option, state gjson.Result) bool {
				if state.Type == gjson.True {
					checked = append(checked, option.String())
				}
				return true
			})
			sort.Strings(checked)
			for _, option := range checked {
				values.Add(name, option)
			}
		default:
			values.Add(name, value.String())
		}
		return true
	})
	if err != nil {
		return "", err
	}
	return values.Encode(), nil
}

func fieldError(key, want string) error {
	return fmt.Errorf("%w: %q must be %s", ErrInvalidField, key, want)
}

// EncodeFrame builds a client frame. A nil data encodes as an empty object.
func EncodeFrame(liveviewID, topic string, data any) ([]byte, error) {
	if data == nil {
		data = struct{}{}
	}
	return json.Marshal([]any{liveviewID, topic, data})
}

// HealthReply is the client's answer to a health ping.
func HealthReply() []byte {
	return append([]byte(nil), healthReply...)
}
