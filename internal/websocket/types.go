// internal/websocket/types.go
package websocket

// RPCRequest is a method call from a connected frontend.
type RPCRequest struct {
	ID     string        `json:"id"`     // correlates the response
	Method string        `json:"method"` // bound method name, e.g. "GetIndexProgress"
	Params []interface{} `json:"params"`
}

// RPCResponse answers one RPCRequest.
type RPCResponse struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// WSEvent is a server-initiated push, e.g. "index:progress".
type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WSMessage is the envelope for everything on the wire. Kind is one of
// "rpc_request", "rpc_response" or "event"; exactly one of the pointer
// fields is set.
type WSMessage struct {
	Kind     string       `json:"kind"`
	Request  *RPCRequest  `json:"request,omitempty"`
	Response *RPCResponse `json:"response,omitempty"`
	Event    *WSEvent     `json:"event,omitempty"`
}
