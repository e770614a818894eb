package main

import (
	"github.com/iotaledger/purity/components/app"
	"github.com/iotaledger/purity/pkg/toolset"
)

func main() {
	if toolset.ShouldHandleTools() {
		toolset.HandleTools()
		// HandleTools will call os.Exit
	}

	app.App().Run()
}
