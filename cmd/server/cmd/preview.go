package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alimgiray/formpilot/internal/rules"
	"github.com/alimgiray/formpilot/internal/services"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render a template file against a JSON context",
	Long: `Render a template file against a JSON object of sample values.
Placeholders without a value are printed verbatim and listed on stderr.`,
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().String("template", "", "template file (required)")
	previewCmd.Flags().String("context", "", "JSON file with sample values")
	_ = previewCmd.MarkFlagRequired("template")
}

func runPreview(cmd *cobra.Command, args []string) error {
	templatePath, _ := cmd.Flags().GetString("template")
	contextPath, _ := cmd.Flags().GetString("context")

	template, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	sample := map[string]any{}
	if contextPath != "" {
		data, err := os.ReadFile(contextPath)
		if err != nil {
			return fmt.Errorf("failed to read context: %w", err)
		}
		if err := json.Unmarshal(data, &sample); err != nil {
			return fmt.Errorf("context must be a JSON object: %w", err)
		}
	}

	fmt.Fprint(cmd.OutOrStdout(), services.RenderPreview(string(template), sample))

	for _, name := range rules.Unresolved(string(template), rules.DataContext(sample)) {
		fmt.Fprintf(cmd.ErrOrStderr(), "unresolved: %s\n", name)
	}
	return nil
}
