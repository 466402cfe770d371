package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-flow-graph/internal/config"
	"github.com/l3aro/go-flow-graph/pkg/analyze"
	"github.com/l3aro/go-flow-graph/pkg/render"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize gfg configuration interactively",
	Long: `Guides you through setting up gfg configuration step by step.
Creates a config file with the default output format, graph kind, branch
captions and result cache settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd.OutOrStdout())
	},
}

func runInit(w io.Writer) error {
	cfg := config.DefaultConfig()

	// === SECTION 1: Output ===
	formatOptions := make([]huh.Option[string], 0, len(render.Formats))
	for _, f := range render.Formats {
		formatOptions = append(formatOptions, huh.NewOption(string(f), string(f)))
	}
	kindOptions := []huh.Option[string]{
		huh.NewOption("Control flow graph", string(analyze.KindCFG)),
		huh.NewOption("Data dependence graph", string(analyze.KindDDG)),
		huh.NewOption("Program dependence graph", string(analyze.KindPDG)),
		huh.NewOption("SSA form", string(analyze.KindSSA)),
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Output format").
				Description("Format used when --format is not given").
				Options(formatOptions...).
				Value(&cfg.Format),
			huh.NewSelect[string]().
				Title("Graph kind").
				Description("Graph rendered by 'gfg batch' when --kind is not given").
				Options(kindOptions...).
				Value(&cfg.Kind),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 2: Labels ===
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Caption of true branch edges").
				Placeholder("true").
				Value(&cfg.TrueLabel),
			huh.NewInput().
				Title("Caption of false branch edges").
				Placeholder("false").
				Value(&cfg.FalseLabel),
			huh.NewConfirm().
				Title("SSA versions").
				Description("Write versions as x_1 instead of x₁?").
				Affirmative("ASCII").
				Negative("Subscripts").
				Value(&cfg.ASCIIVersions),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 3: Cache ===
	cacheSize := strconv.Itoa(cfg.CacheSize)
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Result cache directory (optional, press Enter to disable)").
				Placeholder(".gfg/cache").
				Value(&cfg.CacheDir),
			huh.NewInput().
				Title("Maximum cached graphs").
				Placeholder("1000").
				Validate(func(s string) error {
					if n, err := strconv.Atoi(s); err != nil || n <= 0 {
						return fmt.Errorf("must be a positive number")
					}
					return nil
				}).
				Value(&cacheSize),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.CacheSize, _ = strconv.Atoi(cacheSize)

	// === SECTION 4: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.gfg/config.yaml)", "global"),
					huh.NewOption("Project (./.gfg/config.yaml)", "project"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	configPath := config.ProjectConfigFilePath()
	if saveLocationChoice == "global" {
		configPath = config.GlobalConfigFilePath()
	}

	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Fprintln(w, "Cancelled.")
			return nil
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	printConfigPreview(w, cfg, configPath)

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(w, "Configuration saved to: %s\n", configPath)
	return nil
}

func printConfigPreview(w io.Writer, cfg *config.Config, path string) {
	fmt.Fprintln(w, "\n=== Configuration Preview ===")
	fmt.Fprintf(w, "Config path: %s\n", path)
	fmt.Fprintf(w, "Format: %s\n", cfg.Format)
	fmt.Fprintf(w, "Kind: %s\n", cfg.Kind)
	fmt.Fprintf(w, "Branch labels: %s / %s\n", cfg.TrueLabel, cfg.FalseLabel)
	fmt.Fprintf(w, "ASCII versions: %t\n", cfg.ASCIIVersions)
	if cfg.CacheDir == "" {
		fmt.Fprintln(w, "Cache: disabled")
	} else {
		fmt.Fprintf(w, "Cache: %s (%d graphs)\n", cfg.CacheDir, cfg.CacheSize)
	}
	fmt.Fprintln(w, "================================")
}
