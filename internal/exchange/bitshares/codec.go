package bitshares

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	methodCall   = "call"
	methodNotice = "notice"

	// loginAPI is the api id every node exposes before authentication.
	loginAPI int64 = 1
)

var errMalformedFrame = errors.New("malformed frame")

// errors look like:
//
//	{"id":0,"error":{"code":1,"message":"...","data":{"code":10,"name":"assert_exception","message":"..."}}}
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Code    int    `json:"code"`
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
}

func (e *rpcError) Error() string {
	if e.Data.Name != "" {
		return fmt.Sprintf("venue error %d: %s (%s: %s)", e.Code, e.Message, e.Data.Name, e.Data.Message)
	}
	return fmt.Sprintf("venue error %d: %s", e.Code, e.Message)
}

type callEnvelope struct {
	ID     uint64 `json:"id"`
	Method string `json:"method"`
	Params []any  `json:"params"`
}

// encodeCall builds {id, method:"call", params:[api, method, args]}.
// api is a numeric api id on the websocket and an api name over HTTP.
func encodeCall(id uint64, api any, method string, args []any) ([]byte, error) {
	if args == nil {
		args = []any{}
	}
	return json.Marshal(callEnvelope{ID: id, Method: methodCall, Params: []any{api, method, args}})
}

// reply is the payload handed to a continuation. A zero reply stands for a
// step that was skipped without a round-trip.
type reply struct {
	Result json.RawMessage
	Err    *rpcError
}

func (r reply) skipped() bool { return r.Result == nil && r.Err == nil }

type frameKind int

const (
	frameUnknown frameKind = iota
	frameReply
	frameNotice
)

func (k frameKind) String() string {
	switch k {
	case frameReply:
		return "reply"
	case frameNotice:
		return "notice"
	default:
		return "unknown"
	}
}

type frame struct {
	ID     *uint64           `json:"id"`
	Method string            `json:"method"`
	Result json.RawMessage   `json:"result"`
	Error  *rpcError         `json:"error"`
	Params []json.RawMessage `json:"params"`
}

// decodeFrame classifies an inbound frame as a reply (carries an id) or a
// notice; anything else is frameUnknown.
func decodeFrame(raw []byte) (frame, frameKind, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return f, frameUnknown, fmt.Errorf("%w: %v", errMalformedFrame, err)
	}
	switch {
	case f.ID != nil:
		return f, frameReply, nil
	case f.Method == methodNotice && len(f.Params) == 2:
		return f, frameNotice, nil
	}
	return f, frameUnknown, nil
}

func (f frame) reply() reply {
	r := reply{Result: f.Result, Err: f.Error}
	if r.Result == nil && r.Err == nil {
		r.Result = json.RawMessage("null")
	}
	return r
}

// notice unpacks params [tag, [[item, ...], ...]] into the tag and a flat
// item list.
func (f frame) notice() (uint64, []json.RawMessage, error) {
	var tag uint64
	if err := json.Unmarshal(f.Params[0], &tag); err != nil {
		return 0, nil, fmt.Errorf("%w: notice tag: %v", errMalformedFrame, err)
	}
	var groups []json.RawMessage
	if err := json.Unmarshal(f.Params[1], &groups); err != nil {
		return tag, nil, fmt.Errorf("%w: notice body: %v", errMalformedFrame, err)
	}
	var items []json.RawMessage
	for _, g := range groups {
		var inner []json.RawMessage
		if err := json.Unmarshal(g, &inner); err != nil {
			// flat lists are accepted too
			items = append(items, g)
			continue
		}
		items = append(items, inner...)
	}
	return tag, items, nil
}

type itemKind int

const (
	itemOther itemKind = iota
	itemObject
	itemID
)

// classifyItem looks at the first token only: objects are order states, bare
// strings are removed object ids, anything else (fill echoes) is ignored.
func classifyItem(raw json.RawMessage) itemKind {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return itemOther
	}
	switch t[0] {
	case '{':
		return itemObject
	case '"':
		return itemID
	}
	return itemOther
}
