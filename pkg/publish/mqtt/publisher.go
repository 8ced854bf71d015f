package mqtt

import (
	"context"
	"errors"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/reflex/pkg/arcade"
	"github.com/robotalks/reflex/pkg/leaderboard"
)

// Topics below the cabinet id.
const (
	TopicMeta        = "meta"
	TopicResult      = "result"
	TopicLeaderboard = "leaderboard"
)

// DefaultPublishTimeout bounds the wait for a publish acknowledgement.
const DefaultPublishTimeout = 5 * time.Second

// ErrPublishTimeout indicates the broker did not acknowledge in time.
var ErrPublishTimeout = errors.New("publish timed out")

// Publisher implements arcade.Publisher. The retained meta topic of the
// cabinet is cleared by the broker when the connection drops.
type Publisher struct {
	Queue   *Queue
	Cabinet string
	Timeout time.Duration

	meta []byte
}

// NewPublisher creates a Publisher for a cabinet.
func NewPublisher(brokerURL, cabinet string) (*Publisher, error) {
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(prefix+cabinet+"/"+TopicMeta, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("reflex:" + cabinet)
	}
	meta, err := encode(&structpb.Struct{Fields: map[string]*structpb.Value{
		"cabinet": str(cabinet),
		"started": str(time.Now().UTC().Format(time.RFC3339)),
	}})
	if err != nil {
		return nil, err
	}
	p := &Publisher{
		Queue:   NewQueue(opts, prefix),
		Cabinet: cabinet,
		Timeout: DefaultPublishTimeout,
		meta:    meta,
	}
	p.Queue.OnConnect = func(q *Queue) {
		q.PubWith(p.topic(TopicMeta), p.meta, 1, true)
	}
	return p, nil
}

func (p *Publisher) topic(name string) string {
	return p.Cabinet + "/" + name
}

// Run connects and stays connected until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	p.Queue.Connect()
	<-ctx.Done()
	p.Queue.PubWith(p.topic(TopicMeta), nil, 1, true).WaitTimeout(p.Timeout)
	return p.Queue.Close()
}

func (p *Publisher) wait(token paho.Token) error {
	if !token.WaitTimeout(p.Timeout) {
		return ErrPublishTimeout
	}
	return token.Error()
}

// PublishResult implements arcade.Publisher.
func (p *Publisher) PublishResult(ctx context.Context, g *arcade.Game) error {
	payload, err := EncodeResult(g)
	if err != nil {
		return err
	}
	glog.V(2).Infof("publish game %s", g.ID)
	return p.wait(p.Queue.PubWith(p.topic(TopicResult), payload, 1, false))
}

// PublishLeaderboard implements arcade.Publisher. The leaderboard is
// retained so new subscribers see the current standings.
func (p *Publisher) PublishLeaderboard(ctx context.Context, cabinet string, entries []leaderboard.Record) error {
	payload, err := EncodeLeaderboard(cabinet, entries)
	if err != nil {
		return err
	}
	return p.wait(p.Queue.PubWith(p.topic(TopicLeaderboard), payload, 1, true))
}
