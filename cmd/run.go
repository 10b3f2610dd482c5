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
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notescrub/notescrub/internal/client"
	"github.com/notescrub/notescrub/internal/pipeline"
	"github.com/notescrub/notescrub/internal/reader"
	"github.com/notescrub/notescrub/internal/redactor"
	"github.com/notescrub/notescrub/internal/segmenter"
)

var runFile string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Redact an input file and start the review service",
	Long: `Run the redaction pipeline over a spreadsheet of discharge summaries.

The review service is started as a child process and stays up after the
pipeline finishes so sentences can be reviewed; press Ctrl+C to quit.
Re-running against the same database skips notes that were already
delivered, so an interrupted run can simply be started again.

Example:
  notescrub run -f notes.xlsx
  notescrub run -f notes.csv --model llama3.3 --group-size 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bindFlags(cmd, "column", "server-url", "listen", "db", "ollama-url",
			"model", "group-size", "no-split", "pull-missing", "ready-timeout")

		log := newLogger()

		policy, err := pullPolicy(viper.GetString("pull-missing"))
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			log.Info().Msg("received signal, stopping...")
			cancel()
		}()

		child, err := startService(viper.GetString("listen"), viper.GetString("db"))
		if err != nil {
			return fmt.Errorf("failed to start review service: %w", err)
		}
		log.Info().Int("pid", child.Process.Pid).Msg("started review service")
		defer stopService(child, log)

		store := client.New(viper.GetString("server-url"), log)
		if err := store.WaitReady(ctx, viper.GetDuration("ready-timeout")); err != nil {
			return err
		}

		rows, err := reader.Open(runFile, viper.GetString("column"))
		if err != nil {
			return err
		}

		seg, err := segmenter.New()
		if err != nil {
			return fmt.Errorf("failed to build segmenter: %w", err)
		}

		red := redactor.New(viper.GetString("ollama-url"), viper.GetString("model"), log)
		red.SetModelMissingPolicy(policy)
		if err := red.IsAvailable(ctx); err != nil {
			return err
		}

		proc := pipeline.NewProcessor(seg, red, log)
		p := pipeline.New(rows, proc, store, pipeline.Config{
			Split:     !viper.GetBool("no-split"),
			GroupSize: viper.GetInt("group-size"),
		}, log)

		summary, err := p.Run(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info().Msg("run interrupted")
				return nil
			}
			return err
		}

		fmt.Printf("Redaction pipeline complete: %d notes processed, %d skipped, %d blank.\n",
			summary.Processed, summary.Skipped, summary.Blank)
		fmt.Printf("Review service is still running at %s. Press Ctrl+C to quit when ready.\n",
			viper.GetString("server-url"))

		<-ctx.Done()
		return nil
	},
}

// startService launches "notescrub serve" as a child process sharing this
// process's stdio.
func startService(listen, dbPath string) (*exec.Cmd, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}

	child := exec.Command(exe, "serve", "--listen", listen, "--db", dbPath, "--log-level", logLevel)
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	if err := child.Start(); err != nil {
		return nil, err
	}
	return child, nil
}

// stopService interrupts the child service and waits briefly for it to shut
// down cleanly before killing it.
func stopService(child *exec.Cmd, log zerolog.Logger) {
	if child.Process == nil {
		return
	}
	log.Info().Int("pid", child.Process.Pid).Msg("stopping review service")

	if err := child.Process.Signal(os.Interrupt); err != nil {
		_ = child.Process.Kill()
		return
	}

	done := make(chan error, 1)
	go func() { done <- child.Wait() }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = child.Process.Kill()
		<-done
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "Input spreadsheet (.xlsx, .xlsm or .csv) (required)")
	runCmd.Flags().String("column", reader.DefaultTextColumn, "Header of the column holding the note text")
	runCmd.Flags().String("server-url", client.DefaultBaseURL, "Review service base URL")
	runCmd.Flags().String("listen", ":8000", "Review service listen address")
	runCmd.Flags().String("db", "./data/notescrub.db", "Review service database path")
	runCmd.Flags().String("ollama-url", redactor.DefaultBaseURL, "Ollama base URL")
	runCmd.Flags().String("model", redactor.DefaultModel, "Ollama model used for redaction")
	runCmd.Flags().Int("group-size", segmenter.DefaultGroupSize, "Sentences per redaction segment")
	runCmd.Flags().Bool("no-split", false, "Redact each note whole instead of per sentence group")
	runCmd.Flags().String("pull-missing", "ask", "What to do when the model is not installed (ask, always, never)")
	runCmd.Flags().Duration("ready-timeout", 30*time.Second, "How long to wait for the review service to come up")

	runCmd.MarkFlagRequired("file")
}
