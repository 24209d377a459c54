package vdom

// Host is the table of primitive operations a Renderer drives. Handles are
// opaque to the renderer; they must be comparable when used as containers
// passed to Renderer.Render.
type Host interface {
	CreateElement(tag string) any
	CreateText(text string) any
	CreateComment(text string) any
	SetText(node any, text string)

	// SetProp updates one property. next is nil when the property is removed.
	SetProp(el any, key string, prev, next any)

	// Insert places child in parent before anchor, or last when anchor is nil.
	// Inserting a node that is already attached moves it.
	Insert(child, parent, anchor any)

	// Remove detaches child from its parent.
	Remove(child any)
}

// SiblingHost is a Host that can report the node after a given one.
// With it, a replaced subtree's successor is mounted exactly where the old
// subtree was removed; without it, the successor is mounted in front of the
// old subtree before removal.
type SiblingHost interface {
	Host
	NextSibling(node any) any
}

// OpKind is the type of primitive host operation.
type OpKind uint8

const (
	OpCreateElement OpKind = iota + 1
	OpCreateText
	OpCreateComment
	OpSetText
	OpSetProp
	OpInsert
	OpRemove
)

// String returns the string representation of the OpKind.
func (op OpKind) String() string {
	switch op {
	case OpCreateElement:
		return "CreateElement"
	case OpCreateText:
		return "CreateText"
	case OpCreateComment:
		return "CreateComment"
	case OpSetText:
		return "SetText"
	case OpSetProp:
		return "SetProp"
	case OpInsert:
		return "Insert"
	case OpRemove:
		return "Remove"
	default:
		return "Unknown"
	}
}

// OpKinds lists every OpKind.
func OpKinds() []OpKind {
	return []OpKind{
		OpCreateElement, OpCreateText, OpCreateComment,
		OpSetText, OpSetProp, OpInsert, OpRemove,
	}
}

// observedHost reports each primitive operation before delegating.
type observedHost struct {
	Host
	observe func(OpKind)
}

func (h *observedHost) CreateElement(tag string) any {
	h.observe(OpCreateElement)
	return h.Host.CreateElement(tag)
}

func (h *observedHost) CreateText(text string) any {
	h.observe(OpCreateText)
	return h.Host.CreateText(text)
}

func (h *observedHost) CreateComment(text string) any {
	h.observe(OpCreateComment)
	return h.Host.CreateComment(text)
}

func (h *observedHost) SetText(node any, text string) {
	h.observe(OpSetText)
	h.Host.SetText(node, text)
}

func (h *observedHost) SetProp(el any, key string, prev, next any) {
	h.observe(OpSetProp)
	h.Host.SetProp(el, key, prev, next)
}

func (h *observedHost) Insert(child, parent, anchor any) {
	h.observe(OpInsert)
	h.Host.Insert(child, parent, anchor)
}

func (h *observedHost) Remove(child any) {
	h.observe(OpRemove)
	h.Host.Remove(child)
}
