package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/intake/internal/config"
	"github.com/MikeSquared-Agency/intake/internal/lead"
	"github.com/MikeSquared-Agency/intake/internal/leadstore"
	"github.com/MikeSquared-Agency/intake/internal/viewer"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored leads, newest first",
	Long:  `Fetch every lead from the store and show the ones matching the filters.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().String("temperature", lead.AllTemperatures, "Temperature filter: all, hot, warm, cold")
	listCmd.Flags().Int("min-score", 0, "Minimum lead score (0-100)")
	listCmd.Flags().StringP("output", "o", "text", "Output format: text, json, yaml")
}

func runList(cmd *cobra.Command, args []string) error {
	temperature, _ := cmd.Flags().GetString("temperature")
	minScore, _ := cmd.Flags().GetInt("min-score")
	format, _ := cmd.Flags().GetString("output")

	filter, err := lead.ParseFilter(temperature, minScore)
	if err != nil {
		return err
	}

	cfg, err := config.LoadStore()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store, closeStore, err := leadstore.Open(cmd.Context(), cfg.StoreOptions(), logger)
	if err != nil {
		return err
	}
	defer closeStore()

	records, err := store.List(cmd.Context())
	if err != nil {
		var storeErr *lead.StoreError
		if errors.As(err, &storeErr) {
			return fmt.Errorf("%s (%v)", storeErr.Notice(), storeErr)
		}
		return err
	}

	return writeLeads(cmd.OutOrStdout(), filter.Apply(records), len(records), format)
}

// writeLeads prints records as text, JSON or YAML. YAML mirrors the JSON field
// names. total is the store size before filtering.
func writeLeads(w io.Writer, records []lead.Record, total int, format string) error {
	if records == nil {
		records = []lead.Record{}
	}
	switch format {
	case "text", "":
		return viewer.Render(w, records, total)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "yaml":
		raw, err := json.Marshal(records)
		if err != nil {
			return fmt.Errorf("marshal leads: %w", err)
		}
		var doc []map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("unmarshal leads: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}
