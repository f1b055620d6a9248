// Package cli provides the command-line interface for Storyboard
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	documentFile string
	verbosity    string
	logFile      string
	notify       bool
	version      string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "storyboard",
	Short: "Scene description to media generation pipeline",
	Long: `🎬 Storyboard - Turn declarative scene descriptions into generated media

Storyboard reads a scene description document (characters, templates, scenes
of frames), resolves every reference and template variable, and generates the
described images and speech audio through a concurrency-bounded, cached
pipeline. Rerunning an unchanged document costs nothing: every asset is
content-addressed.`,

	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("🎬 Storyboard v%s\n", version)
			return
		}
		cmd.Help()
	},
}

// Execute runs the CLI
func Execute(v string) error {
	version = v

	// Initialize the root command explicitly (avoiding init())
	initializeRootCommand()

	return rootCmd.Execute()
}

// initializeRootCommand sets up the root command and its flags.
// This replaces the init() function to make initialization explicit and testable.
func initializeRootCommand() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&documentFile, "file", "f", "storyboard.yaml", "main scene description file")
	rootCmd.PersistentFlags().StringVarP(&verbosity, "verbosity", "v", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")
	rootCmd.PersistentFlags().BoolVar(&notify, "notify", false, "send desktop notifications on run completion")

	rootCmd.Flags().Bool("version", false, "Print version information and quit")

	// Add subcommands
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newScenesCmd())
	rootCmd.AddCommand(newTimelineCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func initConfig() {
	viper.SetEnvPrefix("STORYBOARD")
	viper.AutomaticEnv()

	if f := viper.GetString("file"); f != "" && !rootCmd.PersistentFlags().Changed("file") {
		documentFile = f
	}
	if v := viper.GetString("verbosity"); v != "" && !rootCmd.PersistentFlags().Changed("verbosity") {
		verbosity = v
	}
}

// Helper functions

func printSuccess(message string) {
	fmt.Printf("🎬 %s %s\n", color.GreenString("[Storyboard]"), message)
}

func printError(message string) {
	fmt.Fprintf(os.Stderr, "🎬 %s %s\n", color.RedString("[Storyboard]"), message)
}

func printInfo(message string) {
	fmt.Printf("🎬 %s %s\n", color.CyanString("[Storyboard]"), message)
}

func printWarning(message string) {
	fmt.Printf("🎬 %s %s\n", color.YellowString("[Storyboard]"), message)
}

func documentPath() string {
	if filepath.IsAbs(documentFile) {
		return documentFile
	}
	wd, err := os.Getwd()
	if err != nil {
		return documentFile
	}
	return filepath.Join(wd, documentFile)
}
