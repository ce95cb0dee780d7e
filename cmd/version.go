package cmd

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"persona-panel/store"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version and the storage schema versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := Version
		if sv, err := semver.NewVersion(Version); err == nil {
			v = sv.String()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "persona-panel %s\n", v)

		rows := pterm.TableData{{"Key", "Schema"}}
		for _, key := range store.Keys {
			rows = append(rows, []string{key, store.SchemaVersion(key)})
		}
		return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(rows).Render()
	},
}
