/*
Copyright © 2025 The notescrub authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/notescrub/notescrub/internal/client"
	"github.com/notescrub/notescrub/internal/report"
)

var (
	exportOut  string
	exportHTML bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored sentences as a review report",
	Long: `Fetch every stored sentence from the review service and render a
Markdown (or HTML) report grouping them by note, with the original,
redacted and reviewed text side by side.

Example:
  notescrub export -o report.md
  notescrub export --html -o report.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newReviewClient(cmd)

		rows, err := c.FetchSentences(context.Background())
		if err != nil {
			return fmt.Errorf("failed to fetch sentences: %w", err)
		}

		content := report.Markdown(rows)
		if exportHTML {
			content = report.HTML(rows)
		}

		if exportOut == "" || exportOut == "-" {
			fmt.Print(content)
			return nil
		}

		if dir := filepath.Dir(exportOut); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		if err := os.WriteFile(exportOut, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		fmt.Printf("Report written to %s (%d sentences)\n", exportOut, len(rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("server-url", client.DefaultBaseURL, "Review service base URL")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")
	exportCmd.Flags().BoolVar(&exportHTML, "html", false, "Render HTML instead of Markdown")
}
