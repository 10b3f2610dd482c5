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
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notescrub/notescrub/internal/server"
	"github.com/notescrub/notescrub/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sentence review service",
	Long: `Start the HTTP service that stores redacted sentences and serves the
review endpoints. "notescrub run" starts this service itself; use serve
directly to review an existing database without redacting anything new.

Example:
  notescrub serve --db ./data/notescrub.db --listen :8000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bindFlags(cmd, "listen", "db")

		log := newLogger()
		dbPath := viper.GetString("db")

		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create database directory: %w", err)
			}
		}

		db, err := store.New(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			log.Info().Msg("received signal, stopping...")
			cancel()
		}()

		if stats, err := db.Stats(ctx); err == nil {
			log.Info().
				Int("notes", stats.Notes).
				Int("sentences", stats.Sentences).
				Int("unreviewed", stats.Unreviewed).
				Str("path", dbPath).
				Msg("store opened")
		}

		srv := server.New(db, log)
		return srv.ListenAndServe(ctx, viper.GetString("listen"))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", ":8000", "Listen address")
	serveCmd.Flags().String("db", "./data/notescrub.db", "SQLite database path")
}
