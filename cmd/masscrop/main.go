package main

import (
	"log"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
)

var Version = "dev"

type CLI struct {
	Verbose bool    `short:"v" help:"Enable debug logging"`
	Crop    CropCmd `cmd:"" help:"Crop images with one shared region and package the results"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("masscrop"),
		kong.Description("Crop many images with the same percent-based region."),
	)

	logger, err := newLogger(cli.Verbose)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	err = ctx.Run(logger)
	ctx.FatalIfErrorf(err)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
