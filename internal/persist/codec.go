package persist

import (
	"fmt"

	gojson "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/models"
	"github.com/kmmelissat/analisis-al-instante-sub001/internal/store"
)

// envelopeVersion is bumped when the persisted layout changes incompatibly.
const envelopeVersion = 1

// envelope wraps the projection with a version tag.
type envelope struct {
	Version int             `json:"version" msgpack:"version"`
	State   store.Persisted `json:"state" msgpack:"state"`
}

// Codec turns a projection into bytes and back.
type Codec interface {
	Name() string
	Encode(p store.Persisted) ([]byte, error)
	Decode(data []byte) (store.Persisted, error)
}

// JSONCodec stores the projection as JSON.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(p store.Persisted) ([]byte, error) {
	return gojson.Marshal(envelope{Version: envelopeVersion, State: p})
}

func (JSONCodec) Decode(data []byte) (store.Persisted, error) {
	var env envelope
	if err := gojson.Unmarshal(data, &env); err != nil {
		return store.Persisted{}, fmt.Errorf("decoding json state: %w", err)
	}
	return checkVersion(env)
}

// MsgpackCodec stores the projection as MessagePack.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return "msgpack" }

func (MsgpackCodec) Encode(p store.Persisted) ([]byte, error) {
	return msgpack.Marshal(envelope{Version: envelopeVersion, State: p})
}

func (MsgpackCodec) Decode(data []byte) (store.Persisted, error) {
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return store.Persisted{}, fmt.Errorf("decoding msgpack state: %w", err)
	}
	return checkVersion(env)
}

func checkVersion(env envelope) (store.Persisted, error) {
	if env.Version != envelopeVersion {
		return store.Persisted{}, fmt.Errorf("unsupported state version %d", env.Version)
	}
	normalizeRows(&env.State)
	return env.State, nil
}

// normalizeRows makes row values codec-independent: every number in preview
// and chart data decodes as float64, and nested maps as map[string]any.
func normalizeRows(p *store.Persisted) {
	for i := range p.Suggestions {
		for _, row := range p.Suggestions[i].PreviewData {
			normalizeRow(row)
		}
	}
	for i := range p.SelectedCharts {
		for _, row := range p.SelectedCharts[i].Data {
			normalizeRow(row)
		}
	}
}

func normalizeRow(row models.Row) {
	for k, v := range row {
		row[k] = normalizeValue(v)
	}
}

func normalizeValue(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case map[string]any:
		for k, e := range n {
			n[k] = normalizeValue(e)
		}
		return n
	case map[any]any:
		out := make(map[string]any, len(n))
		for k, e := range n {
			out[fmt.Sprint(k)] = normalizeValue(e)
		}
		return out
	case []any:
		for i, e := range n {
			n[i] = normalizeValue(e)
		}
		return n
	}
	return v
}

// CodecByName resolves a configured codec name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	}
	return nil, fmt.Errorf("unknown state codec: %q", name)
}
