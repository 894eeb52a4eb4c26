// Package cmd defines the kong command tree.
package cmd

// CLI is the root command structure. Flags and the layered config
// files (json/yaml/toml) feed the same fields; flags win.
type CLI struct {
	Log struct {
		Level string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"WOOTING_AIM_LOG_LEVEL"`
		File  string `help:"Log file path (console when empty)" env:"WOOTING_AIM_LOG_FILE"`
	} `embed:"" prefix:"log."`

	Config string `help:"Daemon config file (json/yaml/toml)" type:"path" env:"WOOTING_AIM_CONFIG"`

	Run       Run           `cmd:"" default:"withargs" help:"Run the controller (read-only without --adaptive)"`
	ConfigCmd ConfigCommand `cmd:"" name:"config" help:"Configuration utilities"`
}
