// Package remote streams reconciler output to browsers over WebSocket.
//
// A Host records the primitive operations a vdom.Renderer performs as
// JSON-encodable Ops addressed by integer handles. After each loop tick the
// Hub commits the recorded ops as one sequenced Frame, keeps it in a
// bounded History and broadcasts it to every connected client.
//
// A client connecting with ?after=<seq> is caught up from History when
// every frame since seq is still held; otherwise, and for new clients, it
// first receives a reset frame that rebuilds the current tree from scratch.
//
// Wire format, one JSON object per WebSocket text message:
//
//	{"seq":12,"ops":[{"op":"createElement","id":7,"tag":"li"},
//	                 {"op":"insert","id":7,"parent":3,"anchor":5}]}
//
// Handle 1 is the root container.
package remote
