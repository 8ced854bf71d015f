package main

import (
	"context"
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/reflex/pkg/cli/sh"
	"github.com/robotalks/reflex/pkg/env"
)

//go-build: CGO_ENABLED=0

var imagePath = "reflex.eeprom"

func init() {
	if err := env.LoadDotEnv(); err != nil {
		glog.Warningf("load .env: %v", err)
	}
	if val := os.Getenv("REFLEX_STORE"); val != "" {
		imagePath = val
	}
	flag.StringVar(&imagePath, "store", imagePath, "EEPROM image file.")
	sh.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()
	img, err := sh.OpenImage(context.Background(), imagePath)
	if err != nil {
		glog.Exit(err)
	}
	if err := sh.New(img).Run(flag.Args()...); err != nil {
		glog.Exit(err)
	}
}
