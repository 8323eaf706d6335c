// Package cmd provides the command-line interface of bcachectl.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/ParkGyuhwan/buffercache/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bcachectl",
	Short: "bcachectl reads and writes disk images through a buffer cache.",
	Long: `bcachectl reads and writes disk images through a write-back ` +
		`buffer cache. It can create images, inspect and patch sectors, ` +
		`and run workloads that report cache statistics.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("env-file", "",
		"Read settings from this file instead of .env")
	rootCmd.PersistentFlags().Int("frames", 0,
		"Number of cache frames (overrides BCACHE_NUM_FRAMES)")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}
}

// loadConfig reads the settings and applies the flags that the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var files []string

	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		files = append(files, envFile)
	}

	c, err := config.Load(files...)
	if err != nil {
		return config.Config{}, err
	}

	if cmd.Flags().Changed("frames") {
		c.NumFrames, _ = cmd.Flags().GetInt("frames")
	}

	return c, c.Validate()
}
