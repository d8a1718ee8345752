package main

import (
	"github.com/OFFIS-RIT/netexplorer/internal/server"
	"github.com/OFFIS-RIT/netexplorer/internal/util"
	"github.com/OFFIS-RIT/netexplorer/pkg/logger"
	"github.com/OFFIS-RIT/netexplorer/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
		JSON:  util.GetEnvBool("LOG_JSON", false),
	})
	logger.Init(consoleLogger)

	server.Init()
}
