package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/redbco/unidb"
	"github.com/redbco/unidb/pkg/adapter"
	"github.com/redbco/unidb/pkg/profile"
)

var (
	profileName string
	selectFlags struct {
		fields []string
		where  []string
		limit  int
		offset int
	}
)

// openClient builds a client from the named profile, empty meaning the
// default profile.
func openClient() (adapter.Client, error) {
	m, err := profile.Load(profilesFile)
	if err != nil {
		return nil, err
	}
	return m.Client(profileName)
}

// parseWhere turns repeated "column=value" flags into a condition.
func parseWhere(pairs []string) (adapter.Condition, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	condition := adapter.Condition{}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid condition %q, expected column=value", pair)
		}
		condition[k] = v
	}
	return condition, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List supported database types",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, t := range unidb.SupportedTypes() {
			fmt.Println(t)
		}
		return nil
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check connectivity for a profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		return adapter.WithClient(context.Background(), client, func(ctx context.Context, c adapter.Client) error {
			if err := c.Ping(ctx); err != nil {
				return err
			}
			fmt.Printf("%s: ok\n", c.ID())
			return nil
		})
	},
}

var execCmd = &cobra.Command{
	Use:   "exec [statement]",
	Short: "Run a native statement",
	Long: "Run a statement in the backend's native language, e.g. SQL for the relational " +
		"backends or a raw command for Redis. Results are printed as JSON.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		return adapter.WithClient(context.Background(), client, func(ctx context.Context, c adapter.Client) error {
			extra := make([]any, 0, len(args)-1)
			for _, a := range args[1:] {
				extra = append(extra, a)
			}
			res, err := c.Execute(ctx, args[0], extra...)
			if err != nil {
				return err
			}
			if res.Rows != nil {
				return printJSON(res.Rows)
			}
			fmt.Printf("rows affected: %d\n", res.RowsAffected)
			return nil
		})
	},
}

var selectCmd = &cobra.Command{
	Use:   "select [table]",
	Short: "Select rows from a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		condition, err := parseWhere(selectFlags.where)
		if err != nil {
			return err
		}
		client, err := openClient()
		if err != nil {
			return err
		}
		return adapter.WithClient(context.Background(), client, func(ctx context.Context, c adapter.Client) error {
			rows, err := c.Select(ctx, args[0], adapter.SelectOptions{
				Fields:    selectFlags.fields,
				Condition: condition,
				Limit:     selectFlags.limit,
				Offset:    selectFlags.offset,
			})
			if err != nil {
				return err
			}
			return printJSON(rows)
		})
	},
}

func setupDatabaseCommands() {
	for _, cmd := range []*cobra.Command{pingCmd, execCmd, selectCmd} {
		cmd.Flags().StringVar(&profileName, "profile", "", "Profile name (empty uses the default profile)")
	}
	selectCmd.Flags().StringSliceVar(&selectFlags.fields, "fields", nil, "Columns to return (default all)")
	selectCmd.Flags().StringArrayVar(&selectFlags.where, "where", nil, "Equality condition as column=value, repeatable")
	selectCmd.Flags().IntVar(&selectFlags.limit, "limit", 0, "Maximum rows to return (0 means no limit)")
	selectCmd.Flags().IntVar(&selectFlags.offset, "offset", 0, "Rows to skip")

	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(selectCmd)
}
