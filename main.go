package main

import (
	"context"
	"os"

	"github.com/danthegoodman1/csv2parquet/converter"
	"github.com/danthegoodman1/csv2parquet/gologger"
)

var logger = gologger.NewLogger()

func main() {
	logger.Debug().Msg("starting csv2parquet")

	root, err := converter.ExecutableRoot()
	if err != nil {
		logger.Error().Err(err).Msg("error resolving project root")
		os.Exit(1)
	}

	paths, err := converter.ResolvePaths(root)
	if err != nil {
		logger.Error().Err(err).Msg("error resolving paths")
		os.Exit(1)
	}

	if _, err := converter.Convert(context.Background(), paths, os.Stdout); err != nil {
		logger.Error().Err(err).Msg("conversion failed")
		os.Exit(1)
	}
}
