package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gsh/internal/config"
	"gsh/internal/shell"
)

var (
	cfgPath string
	command string
)

// rootCmd runs the interactive shell, or a single command line when
// invoked with -c.
var rootCmd = &cobra.Command{
	Use:   "gsh",
	Short: "An interactive shell with job control",
	Long: `gsh is an interactive command shell with pipelines, I/O redirection
and job control: jobs, fg, bg, kill and stop.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		s, err := shell.New(cfg)
		if err != nil {
			return fmt.Errorf("initializing shell: %w", err)
		}

		if command != "" {
			defer s.Close()
			if err := s.Execute(command); err != nil {
				fmt.Fprintf(os.Stderr, "gsh: %v\n", err)
			}
			return nil
		}

		return s.Run()
	},
}

// Execute runs the root command. Called once from main.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.Flags().StringVar(&cfgPath, "config", "config.yml", "config file path")
	rootCmd.Flags().StringVarP(&command, "command", "c", "", "run a single command line and exit")
}
