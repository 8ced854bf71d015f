package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robotalks/reflex/pkg/env"
	"github.com/robotalks/reflex/pkg/publish/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/reflex/"
)

func init() {
	if err := env.LoadDotEnv(); err != nil {
		log.Printf("load .env: %v", err)
	}
	if val := os.Getenv("REFLEX_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	q.Sub("#", func(topic string, payload []byte) {
		if len(payload) == 0 {
			if strings.HasSuffix(topic, "/"+mqtt.TopicMeta) {
				log.Printf("%s: offline", topic)
			}
			return
		}
		s, err := mqtt.DecodePayload(payload)
		if err != nil {
			log.Printf("%s: bad payload: %v", topic, err)
			return
		}
		log.Printf("%s: %s", topic, mqtt.FormatPayload(s))
	})
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	defer q.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
}
