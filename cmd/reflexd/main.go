package main

import (
	"context"
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/reflex/pkg/api"
	"github.com/robotalks/reflex/pkg/arcade"
	"github.com/robotalks/reflex/pkg/bytestore"
	"github.com/robotalks/reflex/pkg/console"
	"github.com/robotalks/reflex/pkg/env"
	fx "github.com/robotalks/reflex/pkg/framework"
	"github.com/robotalks/reflex/pkg/game"
	"github.com/robotalks/reflex/pkg/publish/mqtt"
)

var noColor bool

func init() {
	env.SetupFlags()
	game.SetupFlags()
	bytestore.SetupFlags()
	arcade.SetupFlags()
	api.SetupFlags()
	flag.BoolVar(&noColor, "no-color", noColor, "Draw indicators without colors.")
}

func main() {
	flag.Parse()
	defer glog.Flush()
	if err := run(); err != nil {
		glog.Exit(err)
	}
}

func run() error {
	con := console.New(os.Stdin, os.Stdout)
	if noColor {
		con.DisableColor()
	}
	if term, err := console.OpenTerminal(os.Stdin); err != nil {
		glog.Warningf("keys are line buffered: %v", err)
	} else {
		defer term.Restore()
	}

	conf := env.Default()
	e, err := conf.NewEnv(con, bytestore.Default())
	if err != nil {
		return err
	}
	defer e.Close()

	engine := game.Default().NewEngine(e.Random, e.Board, e.Events, e.Clock)
	cabConf := arcade.NewConfig()
	cabConf.Cabinet = conf.Cabinet
	cab := cabConf.NewCabinet(e.Board, engine, e.Mailbox, e.Scores, e.Clock)
	cab.Names = e.NameEntry()
	cab.Renderer = con

	runner := fx.NewRunner(context.Background())
	runnables := []fx.Runnable{
		fx.NamedRun("board", fx.RunFunc(e.Board.Run)),
		fx.NamedRun("cabinet", fx.RunFunc(func(ctx context.Context) error {
			defer runner.Stop()
			return cab.Run(ctx)
		})),
	}
	if conf.MQTTBrokerURL != "" {
		pub, err := mqtt.NewPublisher(conf.MQTTBrokerURL, conf.Cabinet)
		if err != nil {
			return err
		}
		cab.Publisher = pub
		runnables = append(runnables, fx.NamedRun("mqtt", pub))
	}
	if apiConf := api.Default(); apiConf.Addr != "" {
		runnables = append(runnables, fx.NamedRun("api", apiConf.NewServer(cab, e.Scores)))
	}

	glog.Infof("cabinet %s ready", conf.Cabinet)
	con.Printf("Press any button to start\n")
	return runner.HandleSignals().Go(runnables...).Wait()
}
