package mqtt

import (
	"bytes"

	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/ptypes"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/samber/lo"

	"github.com/robotalks/reflex/pkg/arcade"
	"github.com/robotalks/reflex/pkg/button"
	"github.com/robotalks/reflex/pkg/leaderboard"
)

var marshaler = jsonpb.Marshaler{OrigName: true}

func str(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

func num(n float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: n}}
}

func list(values []*structpb.Value) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_ListValue{ListValue: &structpb.ListValue{Values: values}}}
}

func colors(cs []button.Color) *structpb.Value {
	return list(lo.Map(cs, func(c button.Color, _ int) *structpb.Value { return str(c.String()) }))
}

// ResultStruct converts a finished game into a Struct.
func ResultStruct(g *arcade.Game) (*structpb.Struct, error) {
	at, err := ptypes.TimestampProto(g.At)
	if err != nil {
		return nil, err
	}
	r := g.Result
	fields := map[string]*structpb.Value{
		"id":        str(g.ID),
		"cabinet":   str(g.Cabinet),
		"at":        str(ptypes.TimestampString(at)),
		"outcome":   str(r.Outcome.String()),
		"level":     num(float64(r.Level)),
		"completed": num(float64(r.Completed)),
		"score":     num(float64(r.Score())),
		"rank":      num(float64(g.Rank)),
		"sequence":  colors(r.Sequence),
		"replay":    colors(r.Replay),
	}
	if g.Rank >= 0 {
		fields["name"] = str(g.Name.String())
	}
	return &structpb.Struct{Fields: fields}, nil
}

// LeaderboardStruct converts ranked records into a Struct.
func LeaderboardStruct(cabinet string, entries []leaderboard.Record) *structpb.Struct {
	rows := lo.Map(entries, func(r leaderboard.Record, _ int) *structpb.Value {
		return &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: &structpb.Struct{
			Fields: map[string]*structpb.Value{
				"name":  str(r.Name.String()),
				"score": num(float64(r.Score)),
			},
		}}}
	})
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"cabinet": str(cabinet),
		"entries": list(rows),
	}}
}

func encode(s *structpb.Struct) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshaler.Marshal(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeResult encodes a finished game as JSON.
func EncodeResult(g *arcade.Game) ([]byte, error) {
	s, err := ResultStruct(g)
	if err != nil {
		return nil, err
	}
	return encode(s)
}

// EncodeLeaderboard encodes ranked records as JSON.
func EncodeLeaderboard(cabinet string, entries []leaderboard.Record) ([]byte, error) {
	return encode(LeaderboardStruct(cabinet, entries))
}

// DecodePayload decodes any payload published by this package.
func DecodePayload(payload []byte) (*structpb.Struct, error) {
	var s structpb.Struct
	if err := jsonpb.Unmarshal(bytes.NewReader(payload), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// FormatPayload formats a decoded payload as compact JSON.
func FormatPayload(s *structpb.Struct) string {
	out, err := marshaler.MarshalToString(s)
	if err != nil {
		return err.Error()
	}
	return out
}
