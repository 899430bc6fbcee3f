package main

//go-build: CGO_ENABLED=0

import (
	"github.com/robotalks/swali.go/pkg/cli/sh"
	"github.com/robotalks/swali.go/pkg/env"

	_ "github.com/robotalks/swali.go/pkg/cli/cmds/channels"
)

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
