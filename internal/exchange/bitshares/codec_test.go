package bitshares

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCall(t *testing.T) {
	b, err := encodeCall(3, loginAPI, "login", []any{"u", "p"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"method":"call","params":[1,"login",["u","p"]]}`, string(b))

	b, err = encodeCall(4, "database", "get_chain_id", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":4,"method":"call","params":["database","get_chain_id",[]]}`, string(b))
}

func TestDecodeFrameReply(t *testing.T) {
	f, kind, err := decodeFrame([]byte(`{"id":7,"jsonrpc":"2.0","result":true}`))
	require.NoError(t, err)
	require.Equal(t, frameReply, kind)
	assert.Equal(t, uint64(7), *f.ID)
	r := f.reply()
	assert.Nil(t, r.Err)
	assert.JSONEq(t, `true`, string(r.Result))
	assert.False(t, r.skipped())
}

func TestDecodeFrameNullResultIsNotSkipped(t *testing.T) {
	f, kind, err := decodeFrame([]byte(`{"id":1,"result":null}`))
	require.NoError(t, err)
	require.Equal(t, frameReply, kind)
	assert.False(t, f.reply().skipped())
}

func TestDecodeFrameError(t *testing.T) {
	f, kind, err := decodeFrame([]byte(`{"id":2,"error":{"code":1,"message":"boom","data":{"code":10,"name":"assert_exception","message":"bad"}}}`))
	require.NoError(t, err)
	require.Equal(t, frameReply, kind)
	r := f.reply()
	require.NotNil(t, r.Err)
	assert.Contains(t, r.Err.Error(), "assert_exception")
	assert.Contains(t, r.Err.Error(), "boom")
}

func TestDecodeFrameNotice(t *testing.T) {
	f, kind, err := decodeFrame([]byte(`{"method":"notice","params":[9,[[{"id":"1.7.1"},"1.7.2"],[["1.7.3",1]]]]}`))
	require.NoError(t, err)
	require.Equal(t, frameNotice, kind)
	tag, items, err := f.notice()
	require.NoError(t, err)
	assert.Equal(t, uint64(9), tag)
	require.Len(t, items, 3)
	assert.Equal(t, itemObject, classifyItem(items[0]))
	assert.Equal(t, itemID, classifyItem(items[1]))
	assert.Equal(t, itemOther, classifyItem(items[2]))
}

func TestDecodeFrameFlatNotice(t *testing.T) {
	f, _, err := decodeFrame([]byte(`{"method":"notice","params":[1,["1.7.5"]]}`))
	require.NoError(t, err)
	_, items, err := f.notice()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, itemID, classifyItem(items[0]))
}

func TestDecodeFrameUnknownAndMalformed(t *testing.T) {
	_, kind, err := decodeFrame([]byte(`{"method":"heartbeat"}`))
	require.NoError(t, err)
	assert.Equal(t, frameUnknown, kind)

	_, kind, err = decodeFrame([]byte(`{"method":"notice","params":[1]}`))
	require.NoError(t, err)
	assert.Equal(t, frameUnknown, kind)

	_, _, err = decodeFrame([]byte(`{not json`))
	assert.ErrorIs(t, err, errMalformedFrame)
}

func TestNoticeBadTag(t *testing.T) {
	f := frame{Method: methodNotice, Params: []json.RawMessage{json.RawMessage(`"x"`), json.RawMessage(`[]`)}}
	_, _, err := f.notice()
	assert.ErrorIs(t, err, errMalformedFrame)
}

func TestClassifyItem(t *testing.T) {
	assert.Equal(t, itemOther, classifyItem(nil))
	assert.Equal(t, itemObject, classifyItem(json.RawMessage(`  {"a":1}`)))
	assert.Equal(t, itemID, classifyItem(json.RawMessage(`"1.7.1"`)))
	assert.Equal(t, itemOther, classifyItem(json.RawMessage(`12`)))
}
