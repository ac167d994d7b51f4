package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/coolbeans/citeflex/pkg/config"
	"github.com/coolbeans/citeflex/pkg/docx"
	"github.com/coolbeans/citeflex/pkg/pipeline"
	"github.com/coolbeans/citeflex/pkg/resolve"
	"github.com/coolbeans/citeflex/pkg/style"
	"github.com/coolbeans/citeflex/pkg/watch"
)

var version = "0.1.0"

var (
	configPath string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "citeflex",
		Short: "Automated citation processor for word documents",
		Long: `Citeflex rewrites the endnotes and footnotes of a word-processing
document as properly formatted citations.

It resolves each raw note against scholarly metadata providers, applies
full, short-form, and ibid conventions in document order, rebuilds
author-date reference lists, and makes every URL clickable.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.DefaultLogger.Level = log.InfoLevel
			if verbose {
				log.DefaultLogger.Level = log.DebugLevel
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(referencesCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(notesCmd())
	rootCmd.AddCommand(stylesCmd())
	rootCmd.AddCommand(updateNoteCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// buildResolver wires the provider federation from configuration.
// Academic indexes always participate; the web index and the oracle
// join only when their API keys are available.
func buildResolver(cfg *config.Config) *resolve.Resolver {
	options := []resolve.Option{
		resolve.WithThreshold(cfg.Resolver.Threshold),
		resolve.WithOracleThreshold(cfg.Resolver.OracleThreshold),
		resolve.WithTimeout(cfg.ResolverTimeout()),
		resolve.WithWorkers(cfg.Resolver.Workers),
	}

	if cfg.OracleEnabled() {
		oracle, err := resolve.NewClaudeOracle(cfg.OracleAPIKey())
		if err != nil {
			log.Warn().Err(err).Msg("oracle unavailable")
		} else {
			options = append(options, resolve.WithOracle(oracle))
		}
	}

	resolver := resolve.NewResolver(options...)

	client := func(name string) resolve.HTTPClient {
		return resolve.NewRateLimitedHTTPClient(nil, cfg.ProviderRateInterval(name))
	}

	if cfg.ProviderEnabled("crossref") {
		resolver.AddProvider(resolve.NewCrossrefProvider(client("crossref")), resolve.WithDOIBoost())
	}
	if cfg.ProviderEnabled("semanticscholar") {
		resolver.AddProvider(resolve.NewSemanticScholarProvider(client("semanticscholar")))
	}
	if cfg.ProviderEnabled("openalex") {
		resolver.AddProvider(resolve.NewOpenAlexProvider(client("openalex")))
	}
	if cfg.ProviderEnabled("websearch") {
		if apiKey := cfg.ProviderAPIKey("websearch"); apiKey != "" {
			resolver.AddProvider(
				resolve.NewWebSearchProvider(client("websearch"), apiKey),
				resolve.WithWebIndexPenalty(),
			)
		} else {
			log.Debug().Msg("web search disabled: no API key")
		}
	}

	return resolver
}

func buildEngine(cfg *config.Config) *pipeline.Engine {
	options := []pipeline.EngineOption{
		pipeline.WithNoteWorkers(cfg.Pipeline.Workers),
	}
	if !cfg.LinksEnabled() {
		options = append(options, pipeline.WithoutLinks())
	}
	return pipeline.NewEngine(buildResolver(cfg), options...)
}

func processCmd() *cobra.Command {
	var outputPath, styleName, resultsPath string

	cmd := &cobra.Command{
		Use:   "process <document.docx>",
		Short: "Rewrite all endnotes and footnotes as formatted citations",
		Long: `Process every endnote and footnote in a document: resolve each raw
note against the metadata providers, then apply full, short-form, and
ibid conventions in document order.

Example:
  citeflex process paper.docx --style "Chicago Manual of Style" -o paper_cited.docx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if styleName == "" {
				styleName = cfg.Pipeline.Style
			}

			fileBytes, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}

			engine := buildEngine(cfg)
			output, results, err := engine.ProcessDocument(cmd.Context(), fileBytes, styleName)
			if err != nil {
				return err
			}

			if outputPath == "" {
				outputPath = watch.OutputPath(filepath.Dir(args[0]), args[0])
			}
			if err := os.WriteFile(outputPath, output, 0o644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}

			succeeded := 0
			for _, result := range results {
				if result.Success {
					succeeded++
				}
			}
			fmt.Printf("Processed %d notes (%d succeeded) -> %s\n", len(results), succeeded, outputPath)

			if resultsPath != "" {
				if err := writeJSON(resultsPath, results); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output document path")
	cmd.Flags().StringVarP(&styleName, "style", "s", "", "citation style name")
	cmd.Flags().StringVar(&resultsPath, "results", "", "write the per-note results log as JSON")
	return cmd
}

func referencesCmd() *cobra.Command {
	var outputPath, styleName string

	cmd := &cobra.Command{
		Use:   "references <document.docx>",
		Short: "Rebuild the reference list from in-text author-date citations",
		Long: `Scan the document body for author-date citations like (Bandura, 1977),
resolve each unique source, and replace the References section with a
freshly formatted, alphabetized list.

Example:
  citeflex references thesis.docx --style "APA (7th ed.)"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if styleName == "" {
				styleName = cfg.Pipeline.Style
			}

			fileBytes, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}

			engine := buildEngine(cfg)
			output, results, err := engine.ProcessAuthorDate(cmd.Context(), fileBytes, styleName)
			if err != nil {
				return err
			}

			if outputPath == "" {
				outputPath = watch.OutputPath(filepath.Dir(args[0]), args[0])
			}
			if err := os.WriteFile(outputPath, output, 0o644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}

			found := 0
			for _, result := range results {
				if result.Found {
					found++
				}
			}
			fmt.Printf("Resolved %d of %d citations -> %s\n", found, len(results), outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output document path")
	cmd.Flags().StringVarP(&styleName, "style", "s", "", "citation style name")
	return cmd
}

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <document.docx>",
		Short: "List the in-text author-date citations without resolving them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileBytes, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}

			engine := pipeline.NewEngine(nil)
			citations, err := engine.ExtractCitations(fileBytes)
			if err != nil {
				return err
			}
			return printJSON(citations)
		},
	}
}

func notesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notes <document.docx>",
		Short: "List the endnotes and footnotes of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileBytes, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}
			archive, err := docx.OpenArchive(fileBytes)
			if err != nil {
				return err
			}

			listing := make(map[string][]docx.Note)
			for _, kind := range []docx.NoteKind{docx.Endnotes, docx.Footnotes} {
				notes, err := archive.Notes(kind)
				if err != nil {
					return err
				}
				if len(notes) > 0 {
					listing[kind.String()+"s"] = notes
				}
			}
			return printJSON(listing)
		},
	}
}

func stylesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List the supported citation styles",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range style.NewRegistry().List() {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func updateNoteCmd() *cobra.Command {
	var footnote bool

	cmd := &cobra.Command{
		Use:   "update-note <document.docx> <note-id> <text>",
		Short: "Rewrite a single note with the given citation text",
		Long: `Rewrite one endnote (or footnote with --footnote) in place. The text
may use <i>...</i> to mark italic spans.

Example:
  citeflex update-note paper_cited.docx 3 'Jones, <i>Foo</i>, 2nd ed. 2001.'`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var noteID int
			if _, err := fmt.Sscanf(args[1], "%d", &noteID); err != nil || noteID < 1 {
				return fmt.Errorf("invalid note ID %q", args[1])
			}

			fileBytes, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}

			kind := docx.Endnotes
			if footnote {
				kind = docx.Footnotes
			}
			output, err := pipeline.UpdateNote(fileBytes, kind, noteID, args[2])
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], output, 0o644); err != nil {
				return fmt.Errorf("failed to write document: %w", err)
			}
			fmt.Printf("Updated %s %d\n", kind, noteID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&footnote, "footnote", false, "update a footnote instead of an endnote")
	return cmd
}

func watchCmd() *cobra.Command {
	var dir, outDir, styleName string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a directory and process every dropped document",
		Long: `Watch a directory for new .docx files and run each one through the
citation pipeline. Processed copies are written with a _cited suffix.

Example:
  citeflex watch --dir ~/drop --style Harvard`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.Watch.Directory
			}
			if dir == "" {
				return fmt.Errorf("no watch directory given (use --dir or the config file)")
			}
			if outDir == "" {
				outDir = cfg.Watch.OutputDirectory
			}
			if styleName == "" {
				styleName = cfg.Watch.Style
			}
			if styleName == "" {
				styleName = cfg.Pipeline.Style
			}

			engine := buildEngine(cfg)
			watcher := watch.New(dir, outDir, func(ctx context.Context, fileBytes []byte) ([]byte, error) {
				output, _, err := engine.ProcessDocument(ctx, fileBytes, styleName)
				return output, err
			})

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := watcher.Start(ctx); err != nil {
				return err
			}
			defer watcher.Stop()

			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory to watch")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (defaults to the watched directory)")
	cmd.Flags().StringVarP(&styleName, "style", "s", "", "citation style name")
	return cmd
}

func printJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
