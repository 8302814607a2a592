package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"stressoscope/internal/analysis"
	"stressoscope/internal/jsonx"
	"stressoscope/internal/llm"
)

func newAnalyzeCommand(opts *rootOptions) *cobra.Command {
	var offline bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <results.json|->",
		Short: "Analyse a saved set of game results",
		Long: `Analyse a JSON document shaped like the POST /api/analyze body:

  {"cosmicResults": {...}, "memoryResults": {...}, "narrativeResults": {...}}

Use "-" to read from stdin. --offline skips the AI provider.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if offline {
				cfg.LLM.Provider = llm.ProviderNone
			}

			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			var req analysis.Request
			if err := jsonx.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			analyzer, err := buildAnalyzer(cmd.Context(), cfg, opts.logger(cfg), nil)
			if err != nil {
				return err
			}
			out, err := analyzer.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				encoded, err := jsonx.MarshalIndent(out.Analysis, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(w, string(encoded))
				return err
			}
			if out.Source.IsFallback() {
				fmt.Fprintln(cmd.ErrOrStderr(), statusWarn("fallback analysis ("+string(out.Source)+")"))
			} else {
				fmt.Fprintln(cmd.ErrOrStderr(), statusOK("AI analysis"))
			}
			_, err = fmt.Fprint(w, renderReport(out))
			return err
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Use the fallback heuristic only")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the analysis as JSON")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	return data, nil
}
