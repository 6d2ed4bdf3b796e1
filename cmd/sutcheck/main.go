package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/sutcheck/pkg/env"
	"github.com/robotalks/sutcheck/pkg/framework"
	"github.com/robotalks/sutcheck/pkg/harness"
	"github.com/robotalks/sutcheck/pkg/report/mqtt"
	"github.com/robotalks/sutcheck/pkg/verify"
)

// Exit codes.
const (
	exitFailed = 1
	exitError  = 2
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.MustLoad()
	tester, err := harness.NewFromConfig(conf)
	if err != nil {
		glog.Exitln(err)
	}
	err = framework.NewRunner().HandleSignals().Go(tester).Wait()
	tester.Close()

	if r := tester.Report(); r != nil && conf.MQTTURL != "" {
		if perr := publish(conf, tester); perr != nil {
			glog.Errorf("publish report: %v", perr)
		}
	}

	switch {
	case err == nil:
	case errors.Is(err, verify.ErrFailed):
		glog.Flush()
		os.Exit(exitFailed)
	default:
		glog.Errorf("tester: %v", err)
		glog.Flush()
		os.Exit(exitError)
	}
}

func publish(conf *env.Config, tester *harness.Tester) error {
	pub, err := mqtt.NewPublisher(conf.MQTTURL, conf.TesterID)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), mqtt.DefaultTimeout)
	defer cancel()
	return pub.Publish(ctx, tester.Report())
}
