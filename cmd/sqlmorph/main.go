// Command sqlmorph analyzes Oracle PL/SQL sources for PostgreSQL
// migration effort and transpiles them rule by rule.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	sqlmorph "github.com/oxhq/sqlmorph"
	"github.com/oxhq/sqlmorph/core"
	"github.com/oxhq/sqlmorph/db"
)

var (
	flagKind    string
	flagContext string
	flagJSON    bool
	flagRule    string
	flagAt      int
	flagWrite   bool
	flagDryRun  bool
	flagInclude []string
	flagExclude []string
)

func main() {
	// Optional .env for SQLMORPH_DB / SQLMORPH_LIBSQL_AUTH_TOKEN.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "sqlmorph",
		Short:         "Estimate and transpile Oracle PL/SQL to PL/pgSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flagKind, "kind", "k", "procedure",
		"object kind: function, procedure, trigger or query")
	root.PersistentFlags().StringVarP(&flagContext, "context", "c", "",
		"JSON file with table/column type context")
	root.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false,
		"emit JSON output")

	root.AddCommand(analyzeCmd(), transpileCmd(), applyCmd(), rulesCmd(), batchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file>",
		Short: "Report migration metadata and rule hits for one source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, ctx, err := loadInput(args[0])
			if err != nil {
				return err
			}
			md, err := sqlmorph.Analyze(flagKind, text, ctx)
			if err != nil {
				return err
			}
			if err := recordAnalysis(args[0], text, md); err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd, md)
			}
			printMetadata(cmd, md)
			return nil
		},
	}
}

func transpileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transpile <file>",
		Short: "Apply every rule to saturation and print or write the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, ctx, err := loadInput(args[0])
			if err != nil {
				return err
			}
			res, err := sqlmorph.Transpile(flagKind, text, ctx)
			if err != nil {
				return err
			}
			if flagWrite {
				writer := core.NewAtomicWriter(core.DefaultAtomicConfig())
				if err := writer.WriteFile(args[0], res.Modified); err != nil {
					return err
				}
			}
			if flagJSON {
				return printJSON(cmd, res)
			}
			if flagWrite {
				fmt.Fprintf(cmd.OutOrStdout(), "%d rule application(s) written to %s\n",
					len(res.Applied), args[0])
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), res.Modified)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&flagWrite, "write", "w", false, "write the result back to the file")
	return cmd
}

func applyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <file>",
		Short: "Apply one rule at one match location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagRule == "" {
				return fmt.Errorf("--rule is required")
			}
			text, ctx, err := loadInput(args[0])
			if err != nil {
				return err
			}

			var loc *core.TextRange
			if flagAt >= 0 {
				md, err := sqlmorph.Analyze(flagKind, text, ctx)
				if err != nil {
					return err
				}
				for _, hit := range md.Rules {
					if hit.Name != flagRule {
						continue
					}
					if flagAt >= len(hit.Locations) {
						return fmt.Errorf("rule %s has %d location(s), index %d is out of range",
							flagRule, len(hit.Locations), flagAt)
					}
					l := hit.Locations[flagAt]
					loc = &l
				}
			}

			res, err := sqlmorph.ApplyRule(flagKind, text, flagRule, loc, ctx)
			if err != nil {
				return err
			}
			if flagWrite {
				writer := core.NewAtomicWriter(core.DefaultAtomicConfig())
				if err := writer.WriteFile(args[0], res.Original); err != nil {
					return err
				}
			}
			if flagJSON {
				return printJSON(cmd, res)
			}
			if res.Diff != "" {
				fmt.Fprint(cmd.OutOrStdout(), res.Diff)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&flagRule, "rule", "r", "", "rule name, e.g. CYAR-0002")
	cmd.Flags().IntVar(&flagAt, "at", -1, "match index to apply at (default: first)")
	cmd.Flags().BoolVarP(&flagWrite, "write", "w", false, "write the result back to the file")
	return cmd
}

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the registered rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			rules := sqlmorph.Rules()
			if flagJSON {
				return printJSON(cmd, rules)
			}
			for _, r := range rules {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", r.Name, r.Description)
			}
			return nil
		},
	}
}

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Analyze or transpile every SQL file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := loadContext()
			if err != nil {
				return err
			}
			walker := core.NewFileWalker()
			paths, err := walker.Walk(core.FileScope{
				Path:    args[0],
				Include: flagInclude,
				Exclude: flagExclude,
			})
			if err != nil {
				return err
			}

			processor := &core.FileProcessor{
				Analyze:   sqlmorph.Analyze,
				Transpile: sqlmorph.Transpile,
				Writer:    core.NewAtomicWriter(core.DefaultAtomicConfig()),
				DryRun:    flagDryRun || !flagWrite,
			}

			var results []core.FileResult
			if flagWrite || flagDryRun {
				results = processor.TranspileFiles(paths, flagKind, ctx)
			} else {
				results = processor.AnalyzeFiles(paths, flagKind, ctx)
			}

			if flagJSON {
				return printJSON(cmd, results)
			}
			for _, r := range results {
				switch {
				case r.Err != nil:
					fmt.Fprintf(cmd.OutOrStdout(), "%s: error: %v\n", r.Path, r.Err)
				case r.Metadata != nil:
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rule hit(s)\n", r.Path, len(r.Metadata.Rules))
				case r.Result != nil:
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rule application(s)\n", r.Path, len(r.Result.Applied))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&flagInclude, "include", nil, "include glob patterns")
	cmd.Flags().StringSliceVar(&flagExclude, "exclude", nil, "exclude glob patterns")
	cmd.Flags().BoolVarP(&flagWrite, "write", "w", false, "transpile and write results back")
	cmd.Flags().BoolVarP(&flagDryRun, "dry-run", "d", false, "transpile without writing")
	return cmd
}

// loadInput reads the source file and the optional context file.
func loadInput(path string) (string, core.Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", core.Context{}, err
	}
	ctx, err := loadContext()
	return string(data), ctx, err
}

func loadContext() (core.Context, error) {
	if flagContext == "" {
		return core.Context{}, nil
	}
	data, err := os.ReadFile(flagContext)
	if err != nil {
		return core.Context{}, err
	}
	var ctx core.Context
	if err := json.Unmarshal(data, &ctx); err != nil {
		return core.Context{}, fmt.Errorf("%w: %v", core.ErrInvalidContext, err)
	}
	return ctx, nil
}

// recordAnalysis persists the analysis when SQLMORPH_DB is configured.
func recordAnalysis(path, text string, md core.Metadata) error {
	dsn := os.Getenv("SQLMORPH_DB")
	if dsn == "" {
		return nil
	}
	gdb, err := db.Connect(dsn, os.Getenv("SQLMORPH_DEBUG") == "1")
	if err != nil {
		return err
	}
	history, err := db.NewHistory(gdb, os.Args[1:])
	if err != nil {
		return err
	}
	if _, err := history.RecordAnalysis(path, flagKind, text, md); err != nil {
		return err
	}
	return history.Close()
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printMetadata(cmd *cobra.Command, md core.Metadata) {
	out := cmd.OutOrStdout()
	switch {
	case md.Function != nil:
		fmt.Fprintf(out, "function %s: %d line(s) of code\n", md.Function.Name, md.Function.LinesOfCode)
	case md.Procedure != nil:
		fmt.Fprintf(out, "procedure %s: %d line(s) of code\n", md.Procedure.Name, md.Procedure.LinesOfCode)
	case md.Trigger != nil:
		fmt.Fprintf(out, "trigger %s: %d line(s) of code\n", md.Trigger.Name, md.Trigger.LinesOfCode)
	case md.Query != nil:
		fmt.Fprintf(out, "query: %d outer join(s)\n", md.Query.OuterJoins)
	}
	for _, hit := range md.Rules {
		for _, loc := range hit.Locations {
			fmt.Fprintf(out, "%s %d:%d-%d:%d %s\n", hit.Name,
				loc.Start.Line, loc.Start.Col, loc.End.Line, loc.End.Col, hit.ShortDesc)
		}
	}
	for _, diag := range md.Diagnostics {
		fmt.Fprintf(out, "parse error %d:%d %s\n", diag.Pos.Line, diag.Pos.Col, diag.Message)
	}
}
