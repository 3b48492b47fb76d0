package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alimgiray/formpilot/pkg/database"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run a form's email rules for a stored submission",
	RunE:  runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().String("form", "", "form id (required)")
	processCmd.Flags().String("submission", "", "submission id (required)")
	processCmd.Flags().Bool("dry-run", false, "evaluate and render without sending")
	_ = processCmd.MarkFlagRequired("form")
}

func runProcess(cmd *cobra.Command, args []string) error {
	formID, _ := cmd.Flags().GetString("form")
	submissionID, _ := cmd.Flags().GetString("submission")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	var raw map[string]any
	if dryRun {
		if submissionID != "" {
			submission, err := a.submissionService.GetSubmission(ctx, submissionID)
			if err != nil {
				return fmt.Errorf("failed to load submission: %w", err)
			}
			raw = submission.Data
		}
		result, err := a.pipeline.DryRun(ctx, formID, raw)
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	}

	if submissionID == "" {
		return fmt.Errorf("--submission is required unless --dry-run is set")
	}
	result, err := a.pipeline.ProcessEmailRules(ctx, formID, submissionID, nil)
	if err != nil {
		return err
	}
	return printJSON(cmd, result)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
