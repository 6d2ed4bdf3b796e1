package main

import (
	"github.com/robotalks/sutcheck/pkg/cli/sh"
	"github.com/robotalks/sutcheck/pkg/env"

	_ "github.com/robotalks/sutcheck/pkg/cli/cmds/mem"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
