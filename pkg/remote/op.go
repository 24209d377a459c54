package remote

import (
	"encoding/json"

	"github.com/vango-dev/reflux/pkg/vdom"
)

// Op names on the wire.
const (
	OpCreateElement = "createElement"
	OpCreateText    = "createText"
	OpCreateComment = "createComment"
	OpSetText       = "setText"
	OpSetProp       = "setProp"
	OpInsert        = "insert"
	OpRemove        = "remove"
)

// Op is one encoded host operation.
type Op struct {
	Op     string `json:"op"`
	ID     uint64 `json:"id,omitempty"`
	Tag    string `json:"tag,omitempty"`
	Text   string `json:"text,omitempty"`
	Parent uint64 `json:"parent,omitempty"`
	Anchor uint64 `json:"anchor,omitempty"`
	Key    string `json:"key,omitempty"`
	Value  any    `json:"value,omitempty"`
}

// Frame is a batch of ops committed after one tick. A Reset frame tells the
// client to discard its tree and rebuild it from Ops; reset frames are sent
// to joining clients only and never kept in History.
type Frame struct {
	Seq   uint64 `json:"seq"`
	Reset bool   `json:"reset,omitempty"`
	Ops   []Op   `json:"ops"`
}

// Encode marshals the frame for the wire.
func (f Frame) Encode() ([]byte, error) {
	return json.Marshal(f)
}

// DecodeFrame parses a wire frame.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	err := json.Unmarshal(data, &f)
	return f, err
}

var opNames = map[vdom.OpKind]string{
	vdom.OpCreateElement: OpCreateElement,
	vdom.OpCreateText:    OpCreateText,
	vdom.OpCreateComment: OpCreateComment,
	vdom.OpSetText:       OpSetText,
	vdom.OpSetProp:       OpSetProp,
	vdom.OpInsert:        OpInsert,
	vdom.OpRemove:        OpRemove,
}

// OpName returns the wire name of a host operation kind.
func OpName(k vdom.OpKind) string {
	return opNames[k]
}
