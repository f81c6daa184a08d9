// Package main is the entry point for the finadvisor question answering service.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/finadvisor/cmd/advisor/app"
)

func main() {
	app.NewApp().Run()
}
