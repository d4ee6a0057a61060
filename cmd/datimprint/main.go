package main

import (
	"bufio"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"datimprint-go/internal/app"
	"datimprint-go/internal/check"
	"datimprint-go/internal/config"
	"datimprint-go/internal/datim"
	"datimprint-go/internal/fs"
	"datimprint-go/internal/generate"
	"datimprint-go/internal/imprint"
	"datimprint-go/internal/status"

	"github.com/spf13/cobra"
)

// basePathFlushBudget bounds the wait for pending emissions before the base
// path record of the next data root is written.
const basePathFlushBudget = 5 * time.Minute

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "datimprint: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "datimprint",
	Short:         "Data statistics, fingerprint, and verification for file trees",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.ResolveDefaults()
		if err != nil {
			return fmt.Errorf("failed to resolve defaults: %w", err)
		}

		cfg := config.NewConfig(defaults.BaseDir)
		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Log Dir: %s\n", cfg.LogDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.ResolveDefaults()
		if err != nil {
			return fmt.Errorf("failed to resolve defaults: %w", err)
		}

		cfg, err := config.ReadFromFileOrDefault(defaults.ConfigPath, defaults.BaseDir)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Executor:  %s\n", cfg.Executor.Type)
		if cfg.Executor.Workers > 0 {
			fmt.Printf("Workers:   %d\n", cfg.Executor.Workers)
		}
		for _, p := range cfg.Exclude.Paths {
			fmt.Printf("Exclude path:          %s\n", p)
		}
		for _, g := range cfg.Exclude.PathGlobs {
			fmt.Printf("Exclude path glob:     %s\n", g)
		}
		for _, g := range cfg.Exclude.FilenameGlobs {
			fmt.Printf("Exclude filename glob: %s\n", g)
		}
		return nil
	},
}

// generate command
var generateCmd = &cobra.Command{
	Use:   "generate <data>...",
	Short: "Generate a data imprint of the indicated file or directory trees",
	Long: "Generates a data imprint of the indicated file or directory tree. " +
		"The output is written to stdout with the system line separator unless " +
		"an output file is specified, in which case LF and UTF-8 are used by default.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")
		verbose, _ := cmd.Flags().GetBool("verbose")
		outputPath, _ := cmd.Flags().GetString("output")
		outputCharset, _ := cmd.Flags().GetString("output-charset")
		executorType, _ := cmd.Flags().GetString("executor")
		excludePaths, _ := cmd.Flags().GetStringArray("exclude-path")
		excludePathGlobs, _ := cmd.Flags().GetStringArray("exclude-path-glob")
		excludeFilenameGlobs, _ := cmd.Flags().GetStringArray("exclude-filename-glob")

		a, err := app.NewApp("Generate")
		if err != nil {
			return err
		}
		defer a.Close()

		pool, err := a.NewComputePool(executorType, 0)
		if err != nil {
			return err
		}
		excluder, err := a.NewExcluder(excludePaths, excludePathGlobs, excludeFilenameGlobs)
		if err != nil {
			return err
		}

		toFile := outputPath != ""
		var out *app.Output
		var ser *datim.Serializer
		if toFile {
			out, err = app.NewFileOutput(outputPath, outputCharset, a.IDs())
			if err != nil {
				return err
			}
			ser = datim.NewFileSerializer()
		} else {
			out = app.NewStreamOutput(os.Stdout)
			ser = datim.NewSerializer()
		}
		defer out.Discard()

		st := status.New(os.Stderr, imprint.RealClock{})
		if err := ser.WriteHeader(out); err != nil {
			return err
		}

		var counter atomic.Uint64
		consumer := func(im imprint.Imprint) error {
			write := func() error { return ser.WriteImprint(out, im, counter.Add(1)) }
			if toFile {
				return write()
			}
			return st.WithoutStatusLine(write)
		}

		gcfg := generate.Config{
			ComputePool:    pool,
			RecordConsumer: consumer,
			Excluder:       excluder,
			Logger:         a.Logger,
		}
		if !quiet {
			gcfg.Listener = &generateStatus{st: st, verbose: verbose}
		}
		g := generate.New(gcfg)

		var runErr error
		for _, dataPath := range args {
			canonical, err := fs.Canonicalize(dataPath)
			if err != nil {
				runErr = err
				break
			}
			// Ensure imprints of the previous tree precede this base path.
			if err := g.Flush(basePathFlushBudget); err != nil {
				runErr = err
				break
			}
			if err := ser.WriteBasePath(out, canonical); err != nil {
				runErr = err
				break
			}
			if _, err := g.ProduceImprint(cmd.Context(), canonical); err != nil {
				runErr = fmt.Errorf("generating imprint for %s: %w", dataPath, err)
				break
			}
		}
		if err := g.Close(); err != nil && runErr == nil {
			runErr = err
		}
		st.Clear()
		if runErr != nil {
			a.Logger.Error("generate failed", "error", runErr)
			return runErr
		}
		if err := out.Commit(); err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(os.Stderr, "Done. Elapsed time: %s.\n", formatElapsed(st.Elapsed()))
		}
		return nil
	},
}

// check command
var checkCmd = &cobra.Command{
	Use:   "check <data>",
	Short: "Check a file or directory tree against the data imprints in a file",
	Long: "Checks the indicated file or files in the indicated directory tree against " +
		"the data imprints in a file. Imprints are checked even if recorded for " +
		"different paths, as long as their relative paths against the stored base " +
		"paths match those in the subtree. Paths not in the imprints file are not checked.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")
		verbose, _ := cmd.Flags().GetBool("verbose")
		imprintPath, _ := cmd.Flags().GetString("imprint")
		imprintCharset, _ := cmd.Flags().GetString("imprint-charset")
		outputPath, _ := cmd.Flags().GetString("output")
		outputCharset, _ := cmd.Flags().GetString("output-charset")

		a, err := app.NewApp("Check")
		if err != nil {
			return err
		}
		defer a.Close()

		dataPath, err := fs.Canonicalize(args[0])
		if err != nil {
			return err
		}

		in, err := os.Open(imprintPath)
		if err != nil {
			return fmt.Errorf("opening imprint file: %w", err)
		}
		defer in.Close()

		var parser *datim.Parser
		if imprintCharset != "" {
			enc, err := app.EncodingByName(imprintCharset)
			if err != nil {
				return err
			}
			parser = datim.NewParserWithEncoding(bufio.NewReader(in), enc)
		} else {
			parser = datim.NewParser(bufio.NewReader(in))
		}

		toFile := outputPath != ""
		var out *app.Output
		if toFile {
			out, err = app.NewFileOutput(outputPath, outputCharset, a.IDs())
			if err != nil {
				return err
			}
		} else {
			out = app.NewStreamOutput(os.Stdout)
		}
		defer out.Discard()

		st := status.New(os.Stderr, imprint.RealClock{})
		var mismatches atomic.Int64
		ccfg := check.Config{
			Logger: a.Logger,
			ResultConsumer: func(r *check.Result) error {
				if !r.IsMatch() {
					mismatches.Add(1)
				}
				return nil
			},
		}
		if !quiet {
			ccfg.Listener = &checkStatus{st: st, verbose: verbose}
		}
		c := check.New(ccfg)

		var runErr error
		var outcomes []<-chan check.Outcome
		var total int64
		for {
			im, err := parser.ReadImprint()
			if err != nil {
				runErr = err
				break
			}
			if im == nil {
				break
			}
			total++
			st.SetTotal(total)
			livePath, err := parser.RebasedPath(im, dataPath)
			if err != nil {
				runErr = err
				break
			}
			outcomes = append(outcomes, c.CheckPathAsync(livePath, *im))
		}

		// Results are reported in imprint order regardless of the order the
		// checks complete in.
		for _, outcome := range outcomes {
			o := <-outcome
			if o.Err != nil {
				if runErr == nil {
					runErr = o.Err
				}
				continue
			}
			if o.Result.IsMatch() {
				continue
			}
			report := formatReport(o.Result)
			write := func() error {
				if _, err := out.Write([]byte(report)); err != nil {
					return err
				}
				// The report is far smaller than the data being checked;
				// flushing gets it to the user sooner.
				return out.Flush()
			}
			var werr error
			if toFile {
				werr = write()
			} else {
				werr = st.WithoutStatusLine(write)
			}
			if werr != nil && runErr == nil {
				runErr = werr
			}
		}

		if err := c.Close(); err != nil && runErr == nil {
			runErr = err
		}
		st.Clear()
		if runErr != nil {
			a.Logger.Error("check failed", "error", runErr)
			return runErr
		}
		if err := out.Commit(); err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(os.Stderr, "Done. Elapsed time: %s.\n", formatElapsed(st.Elapsed()))
		}
		if n := mismatches.Load(); n > 0 {
			return fmt.Errorf("%d path(s) did not match the imprint", n)
		}
		return nil
	},
}

// formatReport renders the mismatch report for one result: a description
// line and a detail line per mismatch, most severe first.
func formatReport(r *check.Result) string {
	var report string
	if r.Kind == check.Missing {
		report = fmt.Sprintf("- Missing path `%s` to match imprint for path `%s`.\n", r.Path, r.Imprint.Path)
		return report
	}
	report = fmt.Sprintf("- Path `%s` does not match imprint for path `%s`.\n", r.Path, r.Imprint.Path)
	for _, m := range r.Mismatches() {
		switch m {
		case check.MismatchContentFingerprint:
			report += fmt.Sprintf("  * Path content fingerprint `%s` did not match `%s` of the imprint.\n",
				r.ContentFingerprint.Checksum(), r.Imprint.ContentFingerprint.Checksum())
		case check.MismatchContentModifiedAt:
			report += fmt.Sprintf("  * Path modification timestamp %s did not match %s of the imprint.\n",
				r.ContentModifiedAt.UTC().Format(time.RFC3339Nano), r.Imprint.ContentModifiedAt.UTC().Format(time.RFC3339Nano))
		case check.MismatchFilename:
			liveName, _ := imprint.Filename(r.Path)
			imprintName, _ := imprint.Filename(r.Imprint.Path)
			report += fmt.Sprintf("  * Path filename `%s` did not match `%s` of the imprint.\n", liveName, imprintName)
		}
	}
	return report
}

// formatElapsed renders a duration as H:MM:SS.
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// generateStatus prints status information to stderr as the generator
// traverses the tree. Callbacks arrive from arbitrary worker goroutines; the
// underlying status is mutex-guarded.
type generateStatus struct {
	st      *status.Status
	verbose bool
}

func (s *generateStatus) OnGenerateImprint(string) {
	s.st.IncrementCount()
}

func (s *generateStatus) OnEnterDirectory(directory string) {
	if s.verbose {
		s.st.PrintLine(directory)
	}
}

func (s *generateStatus) BeforeHashFile(file string) {
	s.st.AddWork(file)
}

func (s *generateStatus) AfterHashFile(file string) {
	s.st.RemoveWork(file)
}

// OnSkipUnreadablePath warns for unreadable paths except those marked DOS
// hidden+system, which are expected to deny access (e.g. `System Volume
// Information` on Windows filesystems).
func (s *generateStatus) OnSkipUnreadablePath(path string) {
	if fs.IsHiddenSystem(path) {
		return
	}
	s.st.PrintLine(fmt.Sprintf("Skipping unreadable path `%s`.", path))
}

func (s *generateStatus) OnSkipExcludedPath(string) {}

// checkStatus prints status information to stderr as paths are checked.
// Directories are printed separately in verbose mode to give some indication
// of progress; no content fingerprint is computed for them during a check, so
// they pass through the in-flight work set only briefly.
type checkStatus struct {
	st      *status.Status
	verbose bool
}

func (s *checkStatus) OnCheckPath(path string, _ imprint.Imprint) {
	if !s.verbose {
		return
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		s.st.PrintLine(path)
	}
}

func (s *checkStatus) BeforeCheckPath(path string) {
	s.st.AddWork(path)
}

func (s *checkStatus) AfterCheckPath(path string) {
	s.st.IncrementCount()
	s.st.RemoveWork(path)
}

func (s *checkStatus) OnResultMismatch(result *check.Result) {
	if result.Kind == check.Missing {
		s.st.PrintLine(fmt.Sprintf("Missing path `%s` for imprint.", result.Path))
		return
	}
	s.st.PrintLine(fmt.Sprintf("Path `%s` does not match imprint.", result.Path))
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringP("output", "o", "", "File in which to store the output; UTF-8 and LF are used unless overridden")
	generateCmd.Flags().String("output-charset", "", "Charset for text encoding the output file")
	generateCmd.Flags().String("executor", "", "Executor strategy: fixedthread, cachedthread, forkjoinfifo, or forkjoinlifo")
	generateCmd.Flags().StringArray("exclude-path", nil, "Literal path to exclude; may be repeated")
	generateCmd.Flags().StringArray("exclude-path-glob", nil, "Glob of paths to exclude, e.g. '**/*.txt'; may be repeated")
	generateCmd.Flags().StringArray("exclude-filename-glob", nil, "Glob of filenames to exclude, e.g. '*.t?t'; may be repeated")
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringP("imprint", "i", "", "File containing imprints against which to check the data files")
	checkCmd.MarkFlagRequired("imprint")
	checkCmd.Flags().String("imprint-charset", "", "Charset of the imprints file; detected from any BOM when omitted, defaulting to UTF-8")
	checkCmd.Flags().StringP("output", "o", "", "File in which to store the report; UTF-8 is used unless overridden")
	checkCmd.Flags().String("output-charset", "", "Charset for text encoding the report file")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress progress status")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print directories as they are processed")
}
