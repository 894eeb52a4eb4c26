package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/aduadu321/wooting-aim/internal/config"
	"github.com/aduadu321/wooting-aim/internal/configpaths"
)

// ConfigCommand groups config-related subcommands.
type ConfigCommand struct {
	Init ConfigInit `cmd:"" help:"Generate a tuning-file template"`
}

// ConfigInit writes the default tuning configuration. The native cfg
// format is the commented key=value file the controller creates on
// first run; json, yaml and toml render the same key set, and the
// loader picks the parser from the file extension.
type ConfigInit struct {
	Format string `help:"Output format" enum:"cfg,json,yaml,toml" default:"cfg"`
	Output string `help:"Destination file path (defaults to current directory)"`
	Force  bool   `help:"Overwrite if the file already exists"`
}

// Run is called by kong.
func (c *ConfigInit) Run() error {
	data, err := config.Default().Render(c.Format)
	if err != nil {
		return err
	}

	dest := c.Output
	if dest == "" {
		dest = "wooting-aim." + c.Format
	}
	if got := config.FormatForPath(dest); got != c.Format {
		return fmt.Errorf("destination %s would load as %s, not %s", dest, got, c.Format)
	}

	if !c.Force {
		if _, err := os.Stat(dest); err == nil {
			return errors.New("destination exists; use --force to overwrite")
		}
	}
	if err := configpaths.EnsureDir(dest); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}
