package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/go-pkgz/lgr"
	"github.com/spf13/cobra"
)

var (
	profilesFile string
	debug        bool

	version = "dev"
)

func printVersionInfo() {
	fmt.Printf("unidb v%s\n", version)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "unidb",
	Short: "Polymorphic database client",
	Long: "A command line client for working with relational, document, key-value and REST " +
		"databases through one set of commands and named connection profiles.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Lookup("version").Changed {
			printVersionInfo()
			return nil
		}
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profilesFile, "profiles",
		os.ExpandEnv("$HOME/.unidb/profiles.json"), "Path to the connection profiles file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.Flags().Bool("version", false, "Show version information and exit")

	cobra.OnInitialize(func() {
		if debug {
			lgr.Setup(lgr.Debug)
		}
	})

	setupProfileCommands()
	setupDatabaseCommands()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
