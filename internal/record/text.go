// internal/record/text.go
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tamzrod/sensorlink/internal/protocol"
)

// EncodeText renders r as a JSON object. Field names match the binary layout
// and the collectors already deployed in the field.
func EncodeText(r SensorRecord) string {
	b, err := json.Marshal(r)
	if err != nil {
		// Only non-finite floats fail to marshal. JSON has no form for them,
		// so the text is a readable placeholder that DecodeText rejects.
		return fmt.Sprintf("%+v", r)
	}
	return string(b)
}

// DecodeText parses the JSON form produced by EncodeText.
// The input must be a single JSON object; null, arrays, unknown fields and
// trailing data are rejected.
func DecodeText(s string) (SensorRecord, error) {
	var r SensorRecord

	body := bytes.TrimLeft([]byte(s), " \t\r\n")
	if len(body) == 0 || body[0] != '{' {
		return SensorRecord{}, fmt.Errorf("record: text record is not a JSON object: %w", protocol.ErrMalformedRecord)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&r); err != nil {
		return SensorRecord{}, fmt.Errorf("record: text decode: %v: %w", err, protocol.ErrMalformedRecord)
	}
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return SensorRecord{}, fmt.Errorf("record: trailing data after text record: %w", protocol.ErrMalformedRecord)
	}
	return r, nil
}

// Decode applies the server's selection rule: a payload of exactly
// protocol.RecordSize bytes is binary, anything else is tried as text.
//
// NOTE: length is the only discriminator. A 63-byte payload that is not a
// record is decoded as binary (and only rejected if a flag byte is invalid).
func Decode(payload []byte) (SensorRecord, error) {
	if len(payload) == protocol.RecordSize {
		return DecodeBinary(payload)
	}
	return DecodeText(string(payload))
}
