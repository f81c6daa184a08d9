// Package main is the entry point for the finadvisor indexing job.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/finadvisor/cmd/indexer/app"
)

func main() {
	app.NewApp().Run()
}
