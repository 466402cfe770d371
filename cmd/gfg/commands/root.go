// Package commands provides the CLI commands for the go-flow-graph tool.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-flow-graph/internal/config"
	"github.com/l3aro/go-flow-graph/internal/log"
)

// appConfig is loaded before every command runs.
var appConfig = config.DefaultConfig()

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "gfg",
	Short: "go-flow-graph - control flow, dependence and SSA graphs for Java methods",
	Long: `go-flow-graph builds graphs of a single Java method and prints them as
Graphviz DOT (default), JSON, msgpack, TOON or a text table.

Commands:
  cfg         Control flow graph
  ddg         Data dependence graph
  pdg         Program dependence graph
  ssa         Static single assignment form with phi nodes
  slice       Backward or forward slice from a line
  stats       Structural metrics (loops, dominators, complexity)
  methods     List the methods of a file
  batch       Render every method under a directory
  init        Create a configuration file interactively

Use "gfg [command] --help" for more information about a command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		appConfig = cfg

		level := log.InfoLevel
		if cfg.Verbose {
			level = log.DebugLevel
		}
		logger := log.New(log.LoggerConfig{Level: level, JSONOutput: cfg.LogJSON, Output: cmd.ErrOrStderr()})
		cmd.SetContext(log.WithLogger(cmd.Context(), logger))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig reads the config file named by --config, or the global and project
// files, then applies the persistent flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("log-json") {
		cfg.LogJSON, _ = flags.GetBool("log-json")
	}
	if flags.Changed("format") {
		cfg.Format, _ = flags.GetString("format")
	}
	if flags.Changed("true-label") {
		cfg.TrueLabel, _ = flags.GetString("true-label")
	}
	if flags.Changed("false-label") {
		cfg.FalseLabel, _ = flags.GetString("false-label")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	pf := RootCmd.PersistentFlags()
	pf.String("config", "", "Config file path (default: ~/.gfg/config.yaml and ./.gfg/config.yaml)")
	pf.BoolP("verbose", "v", false, "Debug logging")
	pf.Bool("log-json", false, "Log as JSON lines")
	pf.StringP("format", "f", "", "Output format: dot, json, msgpack, toon, table")
	pf.StringP("out", "o", "", "Write output to a file instead of stdout")
	pf.String("true-label", "", "Caption of true branch edges")
	pf.String("false-label", "", "Caption of false branch edges")

	RootCmd.AddCommand(cfgCmd)
	RootCmd.AddCommand(ddgCmd)
	RootCmd.AddCommand(pdgCmd)
	RootCmd.AddCommand(ssaCmd)
	RootCmd.AddCommand(sliceCmd)
	RootCmd.AddCommand(statsCmd)
	RootCmd.AddCommand(methodsCmd)
	RootCmd.AddCommand(batchCmd)
	RootCmd.AddCommand(initCmd)
}
