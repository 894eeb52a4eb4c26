package main

import (
	"os"
	"strings"

	"github.com/aduadu321/wooting-aim/internal/cmd"
	"github.com/aduadu321/wooting-aim/internal/configpaths"
	"github.com/aduadu321/wooting-aim/internal/log"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
)

func main() {
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(configFlag(os.Args[1:]))

	var cli cmd.CLI
	ctx := kong.Parse(&cli,
		kong.Name("wooting-aim"),
		kong.Description("Adaptive per-key actuation tuner for analog keyboards"),
		kong.UsageOnError(),
		// Load configuration from JSON/YAML/TOML in priority order; flags/env override config values.
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	logger, closeFiles, err := log.SetupLogger(cli.Log.Level, cli.Log.File)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		for _, c := range closeFiles {
			_ = c.Close()
		}
	}()

	ctx.Bind(logger)

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}

// configFlag pre-scans argv for the --config flag so the layered
// loaders can prioritize that file before kong itself has parsed the
// command line. Falls back to the environment.
func configFlag(args []string) string {
	for i, a := range args {
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			return v
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv("WOOTING_AIM_CONFIG")
}
