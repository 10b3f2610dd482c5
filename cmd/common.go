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
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notescrub/notescrub/internal/client"
	"github.com/notescrub/notescrub/internal/redactor"
)

// newLogger builds the CLI logger honoring --log-level.
func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Logger().Level(level)
}

// bindFlags points viper keys at the executing command's flags so values
// resolve as flag > environment > config file > flag default. Binding at
// run time keeps commands that share flag names from clobbering each other.
func bindFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		_ = viper.BindPFlag(name, cmd.Flag(name))
	}
}

// newReviewClient builds a store client for commands that talk to an
// already-running review service.
func newReviewClient(cmd *cobra.Command) *client.Client {
	bindFlags(cmd, "server-url")
	return client.New(viper.GetString("server-url"), newLogger())
}

// pullPolicy maps the --pull-missing mode to a redactor policy. The "ask"
// mode prompts on the terminal here; the redactor itself never performs
// interactive IO.
func pullPolicy(mode string) (redactor.ModelMissingPolicy, error) {
	switch mode {
	case "always":
		return redactor.PullAlways, nil
	case "never":
		return redactor.PullNever, nil
	case "ask":
		return func(model string) bool {
			fmt.Fprintf(os.Stderr, "Model '%s' not found. Pull it? [y/N]: ", model)
			answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return false
			}
			return strings.TrimSpace(strings.ToLower(answer)) == "y"
		}, nil
	default:
		return nil, fmt.Errorf("invalid --pull-missing mode %q (want ask, always or never)", mode)
	}
}

// snippet shortens a cell for tabular terminal output.
func snippet(s string) string {
	if len(s) > 40 {
		return s[:37] + "..."
	}
	return s
}
