package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/sutcheck/pkg/framework"
	"github.com/robotalks/sutcheck/pkg/sim"
)

func init() {
	sim.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	server, err := sim.NewConfig().NewServer()
	if err != nil {
		glog.Exitln(err)
	}
	defer server.SUT.Board.Close()
	if err := framework.NewRunner().HandleSignals().Go(server).Wait(); err != nil {
		glog.Errorf("sut: %v", err)
	}
}
