package event

import (
	"reflect"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleeedolinux/liveview/wire"
)

func TestFromDiscardsDatalessMessages(t *testing.T) {
	for _, msg := range []wire.Message{
		wire.Click{},
		wire.WindowFocus{},
		wire.WindowBlur{},
		wire.None{},
		nil,
	} {
		data, ok := From(msg)
		assert.False(t, ok, "%T", msg)
		assert.Nil(t, data, "%T", msg)
	}
}

func TestFromFormQueries(t *testing.T) {
	for _, q := range []string{"", "name=Alice&age=30", "a=%20b&c", "not a query at all ünïcode"} {
		data, ok := From(wire.FormSubmit{Query: q})
		require.True(t, ok)
		submit, isSubmit := data.(FormSubmit)
		require.True(t, isSubmit, "got %T", data)
		assert.Equal(t, q, submit.Query())

		data, ok = From(wire.FormChange{Query: q})
		require.True(t, ok)
		change, isChange := data.(FormChange)
		require.True(t, isChange, "got %T", data)
		assert.Equal(t, q, change.Query())
	}
}

func TestFromFormSubmitScenario(t *testing.T) {
	data, ok := From(wire.FormSubmit{Query: "name=Alice&age=30"})
	require.True(t, ok)
	require.IsType(t, FormSubmit{}, data)
	assert.Equal(t, "name=Alice&age=30", data.(FormSubmit).Query())
	assert.Equal(t, KindFormSubmit, KindOf(data))
}

func TestFromInputFocusAndBlur(t *testing.T) {
	data, ok := From(wire.InputFocus{Value: "hello"})
	require.True(t, ok)
	require.IsType(t, InputFocus{}, data)
	assert.Equal(t, "hello", data.(InputFocus).Value())

	data, ok = From(wire.InputBlur{Value: "bye"})
	require.True(t, ok)
	require.IsType(t, InputBlur{}, data)
	assert.Equal(t, "bye", data.(InputBlur).Value())
}

func TestFromInputChangeKeepsShape(t *testing.T) {
	t.Run("bool", func(t *testing.T) {
		for _, b := range []bool{true, false} {
			data, ok := From(wire.InputChange{Value: wire.InputBool(b)})
			require.True(t, ok)
			value := data.(InputChange).Value()
			require.IsType(t, InputBool{}, value)
			assert.Equal(t, b, value.(InputBool).Value())
		}
	})

	t.Run("string", func(t *testing.T) {
		data, ok := From(wire.InputChange{Value: wire.InputString("true")})
		require.True(t, ok)
		value := data.(InputChange).Value()
		require.IsType(t, InputString{}, value, "a string that looks like a bool stays a string")
		assert.Equal(t, "true", value.(InputString).Value())
	})

	t.Run("strings", func(t *testing.T) {
		data, ok := From(wire.InputChange{Value: wire.InputStrings{"a", "b"}})
		require.True(t, ok)
		value := data.(InputChange).Value()
		require.IsType(t, InputStrings{}, value)
		strs := value.(InputStrings)
		assert.Equal(t, 2, strs.Len())
		assert.Equal(t, []string{"a", "b"}, strs.Values())
	})

	t.Run("single string list", func(t *testing.T) {
		data, ok := From(wire.InputChange{Value: wire.InputStrings{"only"}})
		require.True(t, ok)
		require.IsType(t, InputStrings{}, data.(InputChange).Value())
	})

	t.Run("empty list", func(t *testing.T) {
		data, ok := From(wire.InputChange{Value: wire.InputStrings{}})
		require.True(t, ok)
		strs := data.(InputChange).Value().(InputStrings)
		assert.Equal(t, 0, strs.Len())
		assert.Empty(t, strs.Values())
	})
}

func TestInputStringsIsNotAliased(t *testing.T) {
	raw := wire.InputStrings{"a", "b", "c"}
	data, ok := From(wire.InputChange{Value: raw})
	require.True(t, ok)
	strs := data.(InputChange).Value().(InputStrings)

	raw[0] = "mutated"
	assert.Equal(t, []string{"a", "b", "c"}, strs.Values())

	out := strs.Values()
	out[1] = "mutated"
	assert.Equal(t, []string{"a", "b", "c"}, strs.Values())
}

func TestFromInputChangeWithoutValue(t *testing.T) {
	data, ok := From(wire.InputChange{})
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestFromKeyAllModifierCombinations(t *testing.T) {
	for mask := 0; mask < 16; mask++ {
		in := wire.Key{
			Key:   "Enter",
			Code:  "NumpadEnter",
			Alt:   mask&1 != 0,
			Ctrl:  mask&2 != 0,
			Shift: mask&4 != 0,
			Meta:  mask&8 != 0,
		}
		data, ok := From(in)
		require.True(t, ok)
		key, isKey := data.(Key)
		require.True(t, isKey, "got %T", data)

		assert.Equal(t, "Enter", key.Key(), "mask %04b", mask)
		assert.Equal(t, "NumpadEnter", key.Code(), "mask %04b", mask)
		assert.Equal(t, in.Alt, key.Alt(), "mask %04b", mask)
		assert.Equal(t, in.Ctrl, key.Ctrl(), "mask %04b", mask)
		assert.Equal(t, in.Shift, key.Shift(), "mask %04b", mask)
		assert.Equal(t, in.Meta, key.Meta(), "mask %04b", mask)
	}
}

func TestFromMouseCoordinatesAreIndependent(t *testing.T) {
	fields := []struct {
		name string
		set  func(*wire.Mouse, float64)
		get  func(Mouse) float64
	}{
		{"clientX", func(m *wire.Mouse, v float64) { m.ClientX = v }, Mouse.ClientX},
		{"clientY", func(m *wire.Mouse, v float64) { m.ClientY = v }, Mouse.ClientY},
		{"pageX", func(m *wire.Mouse, v float64) { m.PageX = v }, Mouse.PageX},
		{"pageY", func(m *wire.Mouse, v float64) { m.PageY = v }, Mouse.PageY},
		{"offsetX", func(m *wire.Mouse, v float64) { m.OffsetX = v }, Mouse.OffsetX},
		{"offsetY", func(m *wire.Mouse, v float64) { m.OffsetY = v }, Mouse.OffsetY},
		{"movementX", func(m *wire.Mouse, v float64) { m.MovementX = v }, Mouse.MovementX},
		{"movementY", func(m *wire.Mouse, v float64) { m.MovementY = v }, Mouse.MovementY},
		{"screenX", func(m *wire.Mouse, v float64) { m.ScreenX = v }, Mouse.ScreenX},
		{"screenY", func(m *wire.Mouse, v float64) { m.ScreenY = v }, Mouse.ScreenY},
	}

	for i, field := range fields {
		for _, v := range []float64{-17.25, 0, 1e9 + 0.5} {
			var in wire.Mouse
			field.set(&in, v)

			data, ok := From(in)
			require.True(t, ok)
			mouse, isMouse := data.(Mouse)
			require.True(t, isMouse, "got %T", data)

			for j, other := range fields {
				if i == j {
					assert.Equal(t, v, other.get(mouse), "%s", other.name)
				} else {
					assert.Zero(t, other.get(mouse), "%s changed by %s", other.name, field.name)
				}
			}
		}
	}
}

func TestFromMouseAllFields(t *testing.T) {
	in := wire.Mouse{
		ClientX: 1, ClientY: 2, PageX: 3, PageY: 4, OffsetX: -5,
		OffsetY: 6, MovementX: -7, MovementY: 8, ScreenX: 9.5, ScreenY: 0,
	}
	data, ok := From(in)
	require.True(t, ok)
	mouse := data.(Mouse)

	assert.Equal(t, []float64{1, 2, 3, 4, -5, 6, -7, 8, 9.5, 0}, []float64{
		mouse.ClientX(), mouse.ClientY(), mouse.PageX(), mouse.PageY(), mouse.OffsetX(),
		mouse.OffsetY(), mouse.MovementX(), mouse.MovementY(), mouse.ScreenX(), mouse.ScreenY(),
	})
}

func TestFromScrollScenario(t *testing.T) {
	data, ok := From(wire.Scroll{ScrollX: 0.0, ScrollY: 120.5})
	require.True(t, ok)
	require.IsType(t, Scroll{}, data)
	scroll := data.(Scroll)
	assert.Equal(t, 0.0, scroll.ScrollX())
	assert.Equal(t, 120.5, scroll.ScrollY())
}

func TestFromIsDeterministic(t *testing.T) {
	msgs := []wire.Message{
		wire.Click{},
		wire.FormSubmit{Query: "a=1"},
		wire.FormChange{Query: "b=2"},
		wire.InputFocus{Value: "x"},
		wire.InputBlur{Value: "y"},
		wire.InputChange{Value: wire.InputStrings{"a", "b"}},
		wire.Key{Key: "a", Code: "KeyA", Shift: true},
		wire.Mouse{ClientX: 3, ScreenY: -4},
		wire.Scroll{ScrollX: 1, ScrollY: 2},
	}
	for _, msg := range msgs {
		first, ok1 := From(msg)
		second, ok2 := From(msg)
		assert.Equal(t, ok1, ok2, "%T", msg)
		assert.Equal(t, first, second, "%T", msg)
	}
}

func TestDataEquality(t *testing.T) {
	key1, _ := From(wire.Key{Key: "a", Ctrl: true})
	key2, _ := From(wire.Key{Key: "a", Ctrl: true})
	assert.True(t, key1 == key2)

	multi1, _ := From(wire.InputChange{Value: wire.InputStrings{"a", "b"}})
	multi2, _ := From(wire.InputChange{Value: wire.InputStrings{"a", "b"}})
	assert.Panics(t, func() { _ = multi1 == multi2 })
	assert.True(t, reflect.DeepEqual(multi1, multi2))
	assert.True(t, slices.Equal(
		multi1.(InputChange).Value().(InputStrings).Values(),
		multi2.(InputChange).Value().(InputStrings).Values(),
	))
}

func TestKindOfCoversEveryVariant(t *testing.T) {
	cases := []struct {
		msg  wire.Message
		kind Kind
	}{
		{wire.FormSubmit{}, KindFormSubmit},
		{wire.FormChange{}, KindFormChange},
		{wire.InputChange{Value: wire.InputBool(true)}, KindInputChange},
		{wire.InputFocus{}, KindInputFocus},
		{wire.InputBlur{}, KindInputBlur},
		{wire.Key{}, KindKey},
		{wire.Mouse{}, KindMouse},
		{wire.Scroll{}, KindScroll},
	}
	seen := map[Kind]bool{}
	for _, tc := range cases {
		data, ok := From(tc.msg)
		require.True(t, ok, "%T", tc.msg)
		assert.Equal(t, tc.kind, KindOf(data))
		seen[KindOf(data)] = true
	}
	assert.Len(t, seen, 8)
	assert.Equal(t, Kind(""), KindOf(nil))
}
