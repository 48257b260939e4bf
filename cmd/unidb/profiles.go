package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redbco/unidb/pkg/adapter"
	"github.com/redbco/unidb/pkg/profile"
)

var addFlags struct {
	dbType   string
	host     string
	port     int
	username string
	password string
	database string
	filePath string
	url      string
	apiKey   string
	ssl      bool
	def      bool
}

// profilesCmd represents the profiles command
var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage connection profiles",
	Long:  "Commands for listing, adding, removing and defaulting named connection profiles.",
}

var listProfilesCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := profile.Load(profilesFile)
		if err != nil {
			return err
		}
		def := m.Default()
		for _, name := range m.List() {
			p, err := m.Get(name)
			if err != nil {
				return err
			}
			marker := " "
			if name == def {
				marker = "*"
			}
			fmt.Printf("%s %-20s %s\n", marker, name, p.Type)
		}
		return nil
	},
}

var addProfileCmd = &cobra.Command{
	Use:   "add [profile-name]",
	Short: "Add a connection profile",
	Long:  "Add a named connection profile. The first profile added becomes the default.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := profile.Load(profilesFile)
		if err != nil {
			return err
		}
		config := adapter.ConnectionConfig{
			Host:         addFlags.host,
			Port:         addFlags.port,
			Username:     addFlags.username,
			Password:     addFlags.password,
			DatabaseName: addFlags.database,
			FilePath:     addFlags.filePath,
			URL:          addFlags.url,
			APIKey:       addFlags.apiKey,
			SSL:          addFlags.ssl,
		}
		if err := m.Add(args[0], addFlags.dbType, config, addFlags.def); err != nil {
			return err
		}
		return m.Save()
	},
}

var removeProfileCmd = &cobra.Command{
	Use:   "remove [profile-name]",
	Short: "Remove a connection profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := profile.Load(profilesFile)
		if err != nil {
			return err
		}
		if err := m.Remove(args[0]); err != nil {
			return err
		}
		return m.Save()
	},
}

var setDefaultProfileCmd = &cobra.Command{
	Use:   "set-default [profile-name]",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := profile.Load(profilesFile)
		if err != nil {
			return err
		}
		if err := m.SetDefault(args[0]); err != nil {
			return err
		}
		return m.Save()
	},
}

func setupProfileCommands() {
	addProfileCmd.Flags().StringVar(&addFlags.dbType, "type", "", "Database type (mysql, postgres, sqlite, mongodb, redis, supabase)")
	addProfileCmd.Flags().StringVar(&addFlags.host, "host", "", "Database host")
	addProfileCmd.Flags().IntVar(&addFlags.port, "port", 0, "Database port (0 uses the backend default)")
	addProfileCmd.Flags().StringVar(&addFlags.username, "username", "", "Username")
	addProfileCmd.Flags().StringVar(&addFlags.password, "password", "", "Password")
	addProfileCmd.Flags().StringVar(&addFlags.database, "database", "", "Database name")
	addProfileCmd.Flags().StringVar(&addFlags.filePath, "file", "", "Database file path (sqlite)")
	addProfileCmd.Flags().StringVar(&addFlags.url, "url", "", "Connection URL (mongodb, supabase)")
	addProfileCmd.Flags().StringVar(&addFlags.apiKey, "api-key", "", "API key (supabase)")
	addProfileCmd.Flags().BoolVar(&addFlags.ssl, "ssl", false, "Use SSL/TLS")
	addProfileCmd.Flags().BoolVar(&addFlags.def, "default", false, "Make this profile the default")
	addProfileCmd.MarkFlagRequired("type")

	profilesCmd.AddCommand(listProfilesCmd)
	profilesCmd.AddCommand(addProfileCmd)
	profilesCmd.AddCommand(removeProfileCmd)
	profilesCmd.AddCommand(setDefaultProfileCmd)
	rootCmd.AddCommand(profilesCmd)
}
