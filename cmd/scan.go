package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/RianMcHale/Container-Security-Scanner/internal/config"
	"github.com/RianMcHale/Container-Security-Scanner/internal/logging"
	"github.com/RianMcHale/Container-Security-Scanner/internal/model"
	"github.com/RianMcHale/Container-Security-Scanner/internal/scanner"
	"github.com/RianMcHale/Container-Security-Scanner/internal/summary"
)

var (
	scanOutput string
	scanRaw    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <image>",
	Short: "Scan a container image and print its severity summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(debugMode)
		log := logging.Logger
		defer log.Sync()

		cfg := config.Get()
		image := args[0]

		inv := scanner.NewTrivy(cfg.TrivyPath(), cfg.CacheDir(), cfg.ScanTimeout(), log)
		report, err := inv.Scan(cmd.Context(), image)
		if err != nil {
			return err
		}

		if scanRaw {
			fmt.Println(string(report))
			return nil
		}

		counts := summary.Summarize(report)

		switch strings.ToLower(scanOutput) {
		case "json":
			encoded, err := json.MarshalIndent(map[string]any{
				"image":   image,
				"summary": counts,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
		default:
			fmt.Printf("Scan results for %s\n\n", image)
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Severity", "Count"})
			table.SetBorder(false)
			for _, label := range orderedLabels(counts) {
				table.Append([]string{label, strconv.Itoa(counts[label])})
			}
			table.Render()
		}
		return nil
	},
}

// orderedLabels lists the canonical severities first, then any extra
// labels the report introduced, alphabetically.
func orderedLabels(counts model.SeverityCounts) []string {
	seen := make(map[string]bool, len(model.CanonicalSeverities))
	labels := make([]string, 0, len(counts))
	for _, s := range model.CanonicalSeverities {
		labels = append(labels, string(s))
		seen[string(s)] = true
	}
	var extra []string
	for label := range counts {
		if !seen[label] {
			extra = append(extra, label)
		}
	}
	sort.Strings(extra)
	return append(labels, extra...)
}

func init() {
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "table", "output format (table, json)")
	scanCmd.Flags().BoolVar(&scanRaw, "raw", false, "print the full trivy report instead of a summary")
	rootCmd.AddCommand(scanCmd)
}
