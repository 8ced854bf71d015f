package mqtt

import (
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/reflex/pkg/arcade"
	"github.com/robotalks/reflex/pkg/button"
	"github.com/robotalks/reflex/pkg/game"
	"github.com/robotalks/reflex/pkg/leaderboard"
)

func TestMatchTopic(t *testing.T) {
	cases := []struct {
		topic, filter string
		match         bool
	}{
		{"c1/result", "c1/result", true},
		{"c1/result", "+/result", true},
		{"c1/result", "#", true},
		{"c1/result", "c1/#", true},
		{"c1", "c1/#", true},
		{"c1/result", "+/meta", false},
		{"c1/result/x", "+/result", false},
		{"c1", "+/result", false},
	}
	for _, c := range cases {
		require.Equal(t, c.match, MatchTopic(c.topic, c.filter), "%s ~ %s", c.topic, c.filter)
	}
}

func TestClientOptionsFromURL(t *testing.T) {
	opts, prefix, err := ClientOptionsFromURL("mqtt://user:pw@broker:1883/arcade/?client-id=cab1")
	require.NoError(t, err)
	require.Equal(t, "arcade/", prefix)
	require.Len(t, opts.Servers, 1)
	require.Equal(t, "tcp://broker:1883", opts.Servers[0].String())
	require.Equal(t, "user", opts.Username)
	require.Equal(t, "pw", opts.Password)
	require.Equal(t, "cab1", opts.ClientID)
}

func TestQueueHandlers(t *testing.T) {
	q := NewQueue(paho.NewClientOptions(), "arcade/")
	var got []string
	first := q.Sub("+/result", func(topic string, payload []byte) { got = append(got, "first:"+topic) })
	second := q.Sub("+/result", func(topic string, payload []byte) { got = append(got, "second:"+topic) })
	q.Sub("c1/#", func(topic string, payload []byte) { got = append(got, "all:"+topic) })

	require.Len(t, q.handlers("c1/result"), 3)
	require.Len(t, q.handlers("c2/result"), 2)
	require.Len(t, q.handlers("c2/meta"), 0)

	require.NoError(t, second.Close())
	for _, h := range q.handlers("c2/result") {
		h("c2/result", nil)
	}
	require.Equal(t, []string{"first:c2/result"}, got)
	first.Close()
	require.Empty(t, q.handlers("c2/result"))
	require.Equal(t, map[string]byte{"arcade/c1/#": 0}, q.filters())
}

func TestEncodeResult(t *testing.T) {
	name, err := leaderboard.ParseName("ABC")
	require.NoError(t, err)
	g := &arcade.Game{
		ID:      "0d9f",
		Cabinet: "c1",
		At:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Name:    name,
		Rank:    2,
		Result: &game.Result{
			Outcome:        game.Mismatch,
			Level:          3,
			Completed:      2,
			PointsPerLevel: 10,
			Sequence:       []button.Color{button.Red, button.Blue, button.White},
			Replay:         []button.Color{button.Red, button.Green},
		},
	}
	payload, err := EncodeResult(g)
	require.NoError(t, err)
	s, err := DecodePayload(payload)
	require.NoError(t, err)

	f := s.GetFields()
	require.Equal(t, "c1", f["cabinet"].GetStringValue())
	require.Equal(t, "2024-05-01T12:00:00Z", f["at"].GetStringValue())
	require.Equal(t, "mismatch", f["outcome"].GetStringValue())
	require.Equal(t, float64(20), f["score"].GetNumberValue())
	require.Equal(t, float64(2), f["rank"].GetNumberValue())
	require.Equal(t, "ABC", f["name"].GetStringValue())
	seq := f["sequence"].GetListValue().GetValues()
	require.Len(t, seq, 3)
	require.Equal(t, "blue", seq[1].GetStringValue())
}

func TestEncodeLeaderboard(t *testing.T) {
	entries := []leaderboard.Record{
		{Name: leaderboard.Name{'X', 'Y', 'Z'}, Score: 90},
		{Name: leaderboard.Name{'A', 'B', 'C'}, Score: 40},
	}
	payload, err := EncodeLeaderboard("c1", entries)
	require.NoError(t, err)
	s, err := DecodePayload(payload)
	require.NoError(t, err)
	rows := s.GetFields()["entries"].GetListValue().GetValues()
	require.Len(t, rows, 2)
	first := rows[0].GetStructValue().GetFields()
	require.Equal(t, "XYZ", first["name"].GetStringValue())
	require.Equal(t, float64(90), first["score"].GetNumberValue())
}

func TestDecodePayloadInvalid(t *testing.T) {
	_, err := DecodePayload([]byte("not json"))
	require.Error(t, err)
}
