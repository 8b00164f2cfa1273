package main

import (
	"github.com/seethb/GraphRAG/internal/server"
	"github.com/seethb/GraphRAG/internal/util"
	"github.com/seethb/GraphRAG/pkg/logger"
	"github.com/seethb/GraphRAG/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
