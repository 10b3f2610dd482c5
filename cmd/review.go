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
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/notescrub/notescrub/internal/client"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review redacted sentences from the terminal",
	Long: `Fetch sentences from the review service, inspect the redactions, and
record the final approved text for each one.`,
}

var reviewNextCmd = &cobra.Command{
	Use:   "next [user_id]",
	Short: "Show the next unreviewed sentence",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID := 1
		if len(args) == 1 {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			userID = id
		}

		c := newReviewClient(cmd)
		s, err := c.NextSentence(context.Background(), userID)
		if err != nil {
			return fmt.Errorf("failed to fetch next sentence: %w", err)
		}
		if s == nil {
			fmt.Println("No unreviewed sentences left.")
			return nil
		}

		fmt.Printf("Sentence %d (note %d, index %d)\n\n", s.ID, s.NoteID, s.Index)
		fmt.Printf("Original: %s\n", s.Original)
		fmt.Printf("Redacted: %s\n\n", orNotSet(s.LLM))
		fmt.Printf("Approve with: notescrub review approve %d \"<final text>\"\n", s.ID)
		return nil
	},
}

var reviewApproveCmd = &cobra.Command{
	Use:   "approve <id> <final text>",
	Short: "Record the final reviewed text for a sentence",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid sentence id %q", args[0])
		}

		c := newReviewClient(cmd)
		if err := c.Finalize(context.Background(), id, args[1]); err != nil {
			if errors.Is(err, client.ErrNotFound) {
				return fmt.Errorf("sentence %d not found", id)
			}
			return fmt.Errorf("failed to update sentence: %w", err)
		}

		fmt.Printf("Sentence %d updated.\n", id)
		return nil
	},
}

var reviewDiffCmd = &cobra.Command{
	Use:   "diff",
	Short: "List all sentences with their review state",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newReviewClient(cmd)
		rows, err := c.FetchSentences(context.Background())
		if err != nil {
			return fmt.Errorf("failed to fetch sentences: %w", err)
		}

		if len(rows) == 0 {
			fmt.Println("No sentences stored.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNOTE\tIDX\tSTATE\tORIGINAL\tREDACTED")
		for _, s := range rows {
			state := "pending"
			if s.Final != nil {
				state = "approved"
			}
			redacted := "(not set)"
			if s.LLM != nil {
				redacted = snippet(*s.LLM)
			}
			fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\t%s\n",
				s.ID, s.NoteID, s.Index, state, snippet(s.Original), redacted)
		}
		return w.Flush()
	},
}

func orNotSet(s *string) string {
	if s == nil {
		return "(not set)"
	}
	return *s
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.PersistentFlags().String("server-url", client.DefaultBaseURL, "Review service base URL")

	reviewCmd.AddCommand(reviewNextCmd)
	reviewCmd.AddCommand(reviewApproveCmd)
	reviewCmd.AddCommand(reviewDiffCmd)
}
