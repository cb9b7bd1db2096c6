// ABOUTME: Message metadata modeled as a union keyed by the message content type
// ABOUTME: Unknown or malformed payloads are kept as opaque JSON and written back unchanged

package store

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Message content types.
const (
	ContentText     = "text"
	ContentImage    = "image"
	ContentSticker  = "sticker"
	ContentVoice    = "voice"
	ContentTransfer = "transfer"
	ContentLocation = "location"
)

// Metadata is the content-type specific payload of a message.
type Metadata interface {
	ContentType() string
}

// ImageMetadata accompanies an image message.
type ImageMetadata struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

func (ImageMetadata) ContentType() string { return ContentImage }

// StickerMetadata accompanies a sticker message.
type StickerMetadata struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

func (StickerMetadata) ContentType() string { return ContentSticker }

// VoiceMetadata accompanies a simulated voice note.
type VoiceMetadata struct {
	DurationSec int    `json:"durationSec"`
	Transcript  string `json:"transcript,omitempty"`
}

func (VoiceMetadata) ContentType() string { return ContentVoice }

// TransferMetadata accompanies a simulated money transfer.
type TransferMetadata struct {
	Amount float64 `json:"amount"`
	Note   string  `json:"note,omitempty"`
	Status string  `json:"status,omitempty"` // pending, accepted, returned
}

func (TransferMetadata) ContentType() string { return ContentTransfer }

// LocationMetadata accompanies a shared location.
type LocationMetadata struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

func (LocationMetadata) ContentType() string { return ContentLocation }

// OpaqueMetadata holds a payload this build does not understand.
type OpaqueMetadata struct {
	Kind string
	Raw  json.RawMessage
}

func (o OpaqueMetadata) ContentType() string { return o.Kind }

// MarshalJSON writes the payload back exactly as it was read.
func (o OpaqueMetadata) MarshalJSON() ([]byte, error) {
	if len(o.Raw) == 0 {
		return []byte("null"), nil
	}
	return o.Raw, nil
}

// DecodeMetadata decodes raw into the variant for contentType. It returns nil
// for an absent payload and an OpaqueMetadata when the type is unknown or the
// payload does not fit the variant.
func DecodeMetadata(contentType string, raw json.RawMessage) Metadata {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var (
		md  Metadata
		err error
	)
	switch contentType {
	case ContentImage:
		var v ImageMetadata
		err = json.Unmarshal(raw, &v)
		md = v
	case ContentSticker:
		var v StickerMetadata
		err = json.Unmarshal(raw, &v)
		md = v
	case ContentVoice:
		var v VoiceMetadata
		err = json.Unmarshal(raw, &v)
		md = v
	case ContentTransfer:
		var v TransferMetadata
		err = json.Unmarshal(raw, &v)
		md = v
	case ContentLocation:
		var v LocationMetadata
		err = json.Unmarshal(raw, &v)
		md = v
	default:
		err = errUnknownMetadata
	}
	if err != nil {
		return OpaqueMetadata{Kind: contentType, Raw: append(json.RawMessage(nil), raw...)}
	}
	return md
}

var errUnknownMetadata = errors.New("unknown metadata type")

// MarshalJSON encodes the message with its metadata payload inline.
func (m Message) MarshalJSON() ([]byte, error) {
	type plain Message
	out := struct {
		plain
		Metadata json.RawMessage `json:"metadata,omitempty"`
	}{plain: plain(m)}

	if m.Metadata != nil {
		raw, err := json.Marshal(m.Metadata)
		if err != nil {
			return nil, err
		}
		out.Metadata = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the message and resolves its metadata variant. Fields
// absent from data are left untouched.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	aux := struct {
		*plain
		Metadata json.RawMessage `json:"metadata"`
	}{plain: (*plain)(m)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Metadata != nil {
		m.Metadata = DecodeMetadata(m.Type, aux.Metadata)
	}
	return nil
}
