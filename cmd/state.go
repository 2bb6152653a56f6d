package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pairscope/statarb-cli/internal/engine"
	"github.com/pairscope/statarb-cli/pkg/formatters"
)

func init() {
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateClearCmd)

	stateShowCmd.Flags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(stateCmd)
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset the persisted pair trade state",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show entry, exit, and cooldown records for every pair",
	RunE:  runStateShow,
}

var stateClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all trade state (cooldowns and open-pair records)",
	RunE:  runStateClear,
}

func runStateShow(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	all, err := stateStore.All()
	if err != nil {
		return fmt.Errorf("read trade state: %w", err)
	}

	if asJSON {
		data, err := json.MarshalIndent(all, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Println(formatters.FormatStateTable(all, keys))
	return nil
}

func runStateClear(cmd *cobra.Command, args []string) error {
	fs, ok := stateStore.(*engine.FileStore)
	if !ok {
		return fmt.Errorf("state store does not support clearing")
	}
	if err := fs.Clear(); err != nil {
		return fmt.Errorf("clear trade state: %w", err)
	}
	fmt.Println("Trade state cleared")
	return nil
}
