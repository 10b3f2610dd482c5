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
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notescrub/notescrub/internal/language"
	"github.com/notescrub/notescrub/internal/reader"
	"github.com/notescrub/notescrub/internal/segmenter"
)

var inspectFile string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Preview how an input file would be segmented",
	Long: `Read an input file and report, per note, how many sentences and
redaction segments it would produce and what language it looks like.
Nothing is sent to the model, so this is a cheap way to sanity-check a
spreadsheet before a long run.

Example:
  notescrub inspect -f notes.xlsx --group-size 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bindFlags(cmd, "column", "group-size")

		rows, err := reader.Open(inspectFile, viper.GetString("column"))
		if err != nil {
			return err
		}

		seg, err := segmenter.New()
		if err != nil {
			return fmt.Errorf("failed to build segmenter: %w", err)
		}
		det := language.New()
		groupSize := viper.GetInt("group-size")

		var blank, nonEnglish int
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NOTE\tTITLE\tSENTENCES\tSEGMENTS\tLANGUAGE")

		for i, row := range rows.Rows() {
			noteID := i + 1
			title := snippet(row.Title)
			if title == "" {
				title = "-"
			}

			if strings.TrimSpace(row.Text) == "" {
				blank++
				fmt.Fprintf(w, "%d\t%s\t-\t-\tblank\n", noteID, title)
				continue
			}

			name, ok := det.Name(row.Text)
			if !ok {
				name = "unknown"
			}
			if ok && name != "English" {
				nonEnglish++
				name += " (!)"
			}

			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n",
				noteID, title, len(seg.Sentences(row.Text)), len(seg.Groups(row.Text, groupSize)), name)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Printf("\n%d notes, %d blank, %d non-English\n", len(rows.Rows()), blank, nonEnglish)
		if nonEnglish > 0 {
			fmt.Println("Non-English notes are marked (!): segmentation and redaction assume English text.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectFile, "file", "f", "", "Input spreadsheet (.xlsx, .xlsm or .csv)")
	inspectCmd.Flags().String("column", reader.DefaultTextColumn, "Header of the column holding the note text")
	inspectCmd.Flags().Int("group-size", segmenter.DefaultGroupSize, "Sentences per redaction segment")
}
