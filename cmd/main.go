package main

import (
	"os"

	"quizhub/internal/cli"
	"quizhub/internal/logger"
)

func main() {
	logger.Init()
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
