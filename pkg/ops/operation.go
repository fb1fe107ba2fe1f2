package ops

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// TimeLayout is the zone-less UTC layout nodes use for timestamps.
const TimeLayout = "2006-01-02T15:04:05"

// Operation is one entry of an account's history.
type Operation struct {
	Type      string
	Timestamp time.Time
	Block     uint64
	Index     uint64
	TrxID     string
	Virtual   bool
	// Body is the JSON object holding the type-specific fields.
	Body []byte
	// Header is the node envelope around Body, when decoded from one.
	Header []byte
	// Payload, when set, is used instead of decoding Body.
	Payload Payload
}

// New builds an operation around an already typed payload.
func New(ts time.Time, block, index uint64, payload Payload) Operation {
	return Operation{
		Type:      payload.OpType(),
		Timestamp: ts,
		Block:     block,
		Index:     index,
		Payload:   payload,
	}
}

// FromJSON decodes a history entry. Three shapes are accepted:
//   - the flattened form {"type": "transfer", "timestamp": ..., "from": ...}
//   - the node tuple [index, {"block": ..., "op": ["transfer", {...}]}]
//   - the appbase op object {"type": "transfer_operation", "value": {...}} inside "op"
func FromJSON(raw []byte) (Operation, error) {
	if !gjson.ValidBytes(raw) {
		return Operation{}, fmt.Errorf("invalid operation json")
	}
	root := gjson.ParseBytes(raw)

	if root.IsArray() {
		parts := root.Array()
		if len(parts) != 2 || !parts[1].IsObject() {
			return Operation{}, fmt.Errorf("history tuple must be [index, object]")
		}
		op, err := fromEnvelope(parts[1])
		if err != nil {
			return Operation{}, err
		}
		op.Index = parts[0].Uint()
		return op, nil
	}
	if !root.IsObject() {
		return Operation{}, fmt.Errorf("operation must be a json object")
	}
	if root.Get("op").Exists() {
		return fromEnvelope(root)
	}

	op := Operation{Body: []byte(root.Raw)}
	op.Type = normalizeType(root.Get("type").String())
	if op.Type == "" {
		return Operation{}, &MissingFieldError{Field: "type"}
	}
	if err := readHeader(&op, root); err != nil {
		return Operation{}, err
	}
	op.Index = root.Get("index").Uint()
	return op, nil
}

func fromEnvelope(env gjson.Result) (Operation, error) {
	var op Operation
	body := env.Get("op")
	switch {
	case body.IsArray():
		pair := body.Array()
		if len(pair) != 2 {
			return Operation{}, fmt.Errorf("op must be [type, body]")
		}
		op.Type = normalizeType(pair[0].String())
		op.Body = []byte(pair[1].Raw)
	case body.IsObject():
		op.Type = normalizeType(body.Get("type").String())
		op.Body = []byte(body.Get("value").Raw)
	}
	if op.Type == "" {
		return Operation{}, &MissingFieldError{Field: "op.type"}
	}
	if len(op.Body) == 0 {
		op.Body = []byte("{}")
	}
	if err := readHeader(&op, env); err != nil {
		return Operation{}, err
	}
	op.Header = []byte(env.Raw)
	return op, nil
}

func readHeader(op *Operation, r gjson.Result) error {
	ts := r.Get("timestamp")
	if !ts.Exists() {
		return &MissingFieldError{Type: op.Type, Field: "timestamp"}
	}
	t, err := ParseTime(ts.String())
	if err != nil {
		return fmt.Errorf("%s: %w", op.Type, err)
	}
	op.Timestamp = t
	op.Block = r.Get("block").Uint()
	op.TrxID = r.Get("trx_id").String()
	op.Virtual = r.Get("virtual_op").Bool()
	return nil
}

func normalizeType(t string) string {
	return strings.TrimSuffix(t, "_operation")
}

// ParseTime parses node timestamps, with or without a zone.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(TimeLayout, s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return t.UTC(), nil
}

// SearchText renders the operation as a JSON array of its values, the text
// substring and regex searches run against. Envelope values such as trx_id
// and block come first. Operations built with New render their payload
// instead of a body.
func (o Operation) SearchText() string {
	raw := o.Body
	if len(raw) == 0 && o.Payload != nil {
		raw, _ = json.Marshal(o.Payload)
	}
	body := gjson.ParseBytes(raw)
	header := gjson.ParseBytes(o.Header)

	var values []string
	if !body.Get("type").Exists() {
		t, _ := json.Marshal(o.Type)
		values = append(values, string(t))
	}
	header.ForEach(func(key, value gjson.Result) bool {
		if key.String() != "op" {
			values = append(values, value.Raw)
		}
		return true
	})
	body.ForEach(func(_, value gjson.Result) bool {
		values = append(values, value.Raw)
		return true
	})
	if !body.Get("timestamp").Exists() && !header.Get("timestamp").Exists() {
		values = append(values, `"`+o.Timestamp.UTC().Format(TimeLayout)+`"`)
	}
	return "[" + strings.Join(values, ", ") + "]"
}
