package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMetadata(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		raw         string
		want        Metadata
	}{
		{"absent", ContentText, "", nil},
		{"null", ContentImage, "null", nil},
		{"image", ContentImage, `{"url":"asset:a1","caption":"cat"}`, ImageMetadata{URL: "asset:a1", Caption: "cat"}},
		{"sticker", ContentSticker, `{"name":"wave"}`, StickerMetadata{Name: "wave"}},
		{"location", ContentLocation, `{"name":"Pier","lat":1.5,"lng":2}`, LocationMetadata{Name: "Pier", Lat: 1.5, Lng: 2}},
		{"unknown type", "gift", `{"sku":"rose"}`, OpaqueMetadata{Kind: "gift", Raw: json.RawMessage(`{"sku":"rose"}`)}},
		{"malformed known type", ContentVoice, `"seven seconds"`, OpaqueMetadata{Kind: ContentVoice, Raw: json.RawMessage(`"seven seconds"`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeMetadata(tt.contentType, json.RawMessage(tt.raw)))
		})
	}
}

func TestMessage_OpaqueMetadataPreserved(t *testing.T) {
	in := `{"id":3,"charId":"c1","role":"assistant","type":"red-packet","content":"","timestamp":10,"metadata":{"amount":8.88,"greeting":"lucky"}}`

	var msg Message
	require.NoError(t, json.Unmarshal([]byte(in), &msg))

	opaque, ok := msg.Metadata.(OpaqueMetadata)
	require.True(t, ok)
	assert.Equal(t, "red-packet", opaque.ContentType())

	out, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestMessage_NoMetadataOmitted(t *testing.T) {
	out, err := json.Marshal(Message{ID: 1, CharID: "c1", Role: RoleUser, Type: ContentText, Content: "hi"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "metadata")
}
