package access

import (
	"encoding/json"
	"testing"

	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeCadence(t *testing.T, raw string) CadenceValue {
	t.Helper()
	var v CadenceValue
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestCadenceOptional(t *testing.T) {
	some := decodeCadence(t, `{"type":"Optional","value":{"type":"String","value":"abc"}}`)
	s, err := some.String()
	require.NoError(t, err)
	assert.Equal(t, "abc", s)

	none := decodeCadence(t, `{"type":"Optional","value":null}`)
	assert.True(t, none.IsNil())
	_, err = none.String()
	assert.Error(t, err)

	assert.True(t, decodeCadence(t, `{"type":"Void"}`).IsNil())
}

func TestCadenceDictionaryOfAddresses(t *testing.T) {
	v := decodeCadence(t, `{"type":"Dictionary","value":[
		{"key":{"type":"Address","value":"0x0000000000000001"},"value":{"type":"Dictionary","value":[
			{"key":{"type":"String","value":"name"},"value":{"type":"String","value":"child"}},
			{"key":{"type":"String","value":"icon"},"value":{"type":"Optional","value":null}}
		]}}
	]}`)

	entries, err := v.Dictionary()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	addr, err := entries[0].Key.Address()
	require.NoError(t, err)
	assert.Equal(t, flow.HexToAddress("0x1"), addr)

	meta, err := entries[0].Value.StringMap()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "child"}, meta)
}

func TestCadenceComposite(t *testing.T) {
	v := decodeCadence(t, `{"type":"Struct","value":{"id":"A.01.MetadataViews.Display","fields":[
		{"name":"name","value":{"type":"String","value":"n"}},
		{"name":"count","value":{"type":"UInt64","value":"42"}}
	]}}`)

	fields, err := v.Fields()
	require.NoError(t, err)
	name, err := fields["name"].String()
	require.NoError(t, err)
	assert.Equal(t, "n", name)
	count, err := fields["count"].String()
	require.NoError(t, err)
	assert.Equal(t, "42", count)

	_, err = v.Array()
	assert.Error(t, err)
}

func TestCadenceArguments(t *testing.T) {
	raw, err := json.Marshal(AddressArgument(flow.HexToAddress("0x1")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Address","value":"0x0000000000000001"}`, string(raw))

	raw, err = json.Marshal(StringArgument("hi"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"String","value":"hi"}`, string(raw))
}
