package wire

import (
	"encoding/json"
	"fmt"
	"time"
)

// Server message types, the "t" field.
const (
	TypeHealth        = "h"
	TypeInitialRender = "i"
	TypeRendered      = "r"
	TypeJS            = "j"
	TypeLiveviewGone  = "liveview-gone"
)

// Outgoing is a message from the server to a liveview client.
type Outgoing struct {
	T string `json:"t"`
	I string `json:"i,omitempty"`
	D any    `json:"d,omitempty"`
}

func HealthPing() Outgoing {
	return Outgoing{T: TypeHealth}
}

func LiveviewGone(liveviewID string) Outgoing {
	return Outgoing{T: TypeLiveviewGone, I: liveviewID}
}

func JSCommands(liveviewID string, cmds ...JSCommand) Outgoing {
	if cmds == nil {
		cmds = []JSCommand{}
	}
	return Outgoing{T: TypeJS, I: liveviewID, D: cmds}
}

// ServerMessage is an Outgoing as read back by a client, with the payload
// left undecoded.
type ServerMessage struct {
	T string          `json:"t"`
	I string          `json:"i,omitempty"`
	D json.RawMessage `json:"d,omitempty"`
}

func DecodeServerMessage(data []byte) (ServerMessage, error) {
	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ServerMessage{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if msg.T == "" {
		return ServerMessage{}, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}
	return msg, nil
}

// JSCommand asks the client to run a DOM side effect, optionally delayed.
type JSCommand struct {
	DelayMs *int
	Kind    JSCommandKind
}

type JSCommandKind interface {
	commandName() string
}

func Command(kind JSCommandKind) JSCommand {
	return JSCommand{Kind: kind}
}

func DelayedCommand(kind JSCommandKind, delay time.Duration) JSCommand {
	ms := int(delay / time.Millisecond)
	return JSCommand{DelayMs: &ms, Kind: kind}
}

// MarshalJSON encodes the kind externally tagged, {"SetTitle":{...}}.
func (c JSCommand) MarshalJSON() ([]byte, error) {
	if c.Kind == nil {
		return nil, fmt.Errorf("wire: js command without kind")
	}
	return json.Marshal(struct {
		DelayMs *int                     `json:"delay_ms"`
		Kind    map[string]JSCommandKind `json:"kind"`
	}{
		DelayMs: c.DelayMs,
		Kind:    map[string]JSCommandKind{c.Kind.commandName(): c.Kind},
	})
}

type AddClass struct {
	Selector string `json:"selector"`
	Class    string `json:"klass"`
}

type RemoveClass struct {
	Selector string `json:"selector"`
	Class    string `json:"klass"`
}

type ToggleClass struct {
	Selector string `json:"selector"`
	Class    string `json:"klass"`
}

type NavigateTo struct {
	URI string `json:"uri"`
}

type ClearValue struct {
	Selector string `json:"selector"`
}

type SetTitle struct {
	Title string `json:"title"`
}

type HistoryPushState struct {
	URI string `json:"uri"`
}

func (AddClass) commandName() string         { return "AddClass" }
func (RemoveClass) commandName() string      { return "RemoveClass" }
func (ToggleClass) commandName() string      { return "ToggleClass" }
func (NavigateTo) commandName() string       { return "NavigateTo" }
func (ClearValue) commandName() string       { return "ClearValue" }
func (SetTitle) commandName() string         { return "SetTitle" }
func (HistoryPushState) commandName() string { return "HistoryPushState" }
