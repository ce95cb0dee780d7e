package cmd

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"persona-panel/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or clear the stored persona history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List history entries, oldest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <index>",
	Short: "Print the YAML of one history entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every history entry",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyClearCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	st, err := openOffline(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	entries := st.LoadHistory(cmd.Context())
	if len(entries) == 0 {
		pterm.Info.Println("History is empty")
		return nil
	}
	rows := pterm.TableData{{"#", "Time", "Kind", "Name", "Instruction"}}
	for i, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(i),
			e.Timestamp.Local().Format(time.DateTime),
			string(e.Kind),
			e.Name,
			truncate(e.Instruction, 48),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid index %q", args[0])
	}
	st, err := openOffline(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	c := history.NewCache(st.LoadHistory(cmd.Context()), math.MaxUint, nil)
	e, err := c.Restore(index)
	if err != nil {
		return fmt.Errorf("entry %d: %w", index, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), e.YAML)
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	st, err := openOffline(cmd)
	if err != nil {
		return err
	}
	failed := failures(st)
	n := len(st.LoadHistory(cmd.Context()))
	st.SaveHistory(nil)
	if err := errors.Join(failed(), st.Close()); err != nil {
		return err
	}
	pterm.Success.Printfln("Removed %d history entries", n)
	return nil
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
