package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/abdul-hamid-achik/chitose/packages/kv"
	"github.com/spf13/cobra"
)

// DefaultStorePath is used when neither --db nor a session is configured
const DefaultStorePath = "chitose.db"

var kvDBFlag string

var kvCmd = &cobra.Command{
	Use:   "kv",
	Short: "Manage the session store",
	Long: `Manage the SQLite store that holds session cookies.

Entries are keyed by (name, domain, path).

Examples:
  chitose kv set session example.com / abc123
  chitose kv get session example.com /
  chitose kv list example.com
  chitose kv delete session example.com / --db ./cookies.db`,
}

var kvSetCmd = &cobra.Command{
	Use:   "set <name> <domain> <path> <value>",
	Short: "Store a value, replacing any existing one",
	Args:  usageArgs(cobra.ExactArgs(4)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s kv.Store) error {
			return kv.InsertPart(cmd.Context(), s, args[0], args[1], args[2], args[3])
		})
	},
}

var kvGetCmd = &cobra.Command{
	Use:   "get <name> <domain> <path>",
	Short: "Print a stored value",
	Args:  usageArgs(cobra.ExactArgs(3)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s kv.Store) error {
			value, ok, err := s.Get(cmd.Context(), kv.MakeKey(args[0], args[1], args[2]))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no entry for %s", kv.MakeKey(args[0], args[1], args[2]))
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		})
	},
}

var kvUpdateCmd = &cobra.Command{
	Use:   "update <name> <domain> <path> <value>",
	Short: "Replace an existing value and print the old one",
	Args:  usageArgs(cobra.ExactArgs(4)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s kv.Store) error {
			key := kv.MakeKey(args[0], args[1], args[2])
			old, ok, err := s.Update(cmd.Context(), key, args[3])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no entry for %s", key)
			}
			fmt.Fprintln(cmd.OutOrStdout(), old)
			return nil
		})
	},
}

var kvDeleteCmd = &cobra.Command{
	Use:   "delete <name> <domain> <path>",
	Short: "Remove an entry",
	Args:  usageArgs(cobra.ExactArgs(3)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s kv.Store) error {
			return s.Delete(cmd.Context(), kv.MakeKey(args[0], args[1], args[2]))
		})
	},
}

var kvListCmd = &cobra.Command{
	Use:   "list [domain]",
	Short: "List entries, optionally for one domain",
	Args:  usageArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		domain := ""
		if len(args) == 1 {
			domain = args[0]
		}
		return withStore(func(s kv.Store) error {
			entries, err := s.List(cmd.Context(), domain)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDOMAIN\tPATH\tVALUE")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Key.Name, e.Key.Domain, e.Key.Path, e.Value)
			}
			return w.Flush()
		})
	},
}

func init() {
	kvCmd.PersistentFlags().StringVar(&kvDBFlag, "db", "", "Store file (default: the configured session, else "+DefaultStorePath+")")
	kvCmd.AddCommand(kvSetCmd, kvGetCmd, kvUpdateCmd, kvDeleteCmd, kvListCmd)
}

func storePath() string {
	switch {
	case kvDBFlag != "":
		return kvDBFlag
	case cfg.Session != "":
		return cfg.Session
	default:
		return DefaultStorePath
	}
}

func withStore(fn func(kv.Store) error) error {
	store, err := kv.NewSQLiteStore(storePath())
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	return errors.Join(fn(store), store.Close())
}
