package main

import (
	"mesctx/internal/server"
	"mesctx/internal/util"
	"mesctx/pkg/logger"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	logger.Init(logger.Params{
		Debug: debug,
	})

	server.Init()
}
