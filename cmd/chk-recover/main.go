package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quidome/chk-recover/pkg/classify"
	"github.com/quidome/chk-recover/pkg/config"
	"github.com/quidome/chk-recover/pkg/extract"
	"github.com/quidome/chk-recover/pkg/logging"
	"github.com/quidome/chk-recover/pkg/recovery"
	"github.com/quidome/chk-recover/pkg/scan"
	"github.com/quidome/chk-recover/pkg/signature"
)

const version = "0.1.0"

var (
	infoColor    = color.New(color.FgCyan).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()

	rootCmd := &cobra.Command{
		Use:     "chk-recover",
		Short:   "Recover the real type and date of lost-and-found .CHK files",
		Long:    "chk-recover identifies files left behind by a disk check (FILE0001.CHK and friends) by their leading bytes, restores the proper extension and dates each file from its embedded metadata.",
		Version: version,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("CHK Recover CLI")
			cmd.Printf("Version: %s\n", version)
			cmd.Println("")
			cmd.Println("Use --help to see available commands and options")
		},
	}

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolP("dry-run", "n", false, "perform a dry run without making changes")
	_ = v.BindPFlag(config.KeyVerbose, rootCmd.PersistentFlags().Lookup("verbose"))
	_ = v.BindPFlag(config.KeyDryRun, rootCmd.PersistentFlags().Lookup("dry-run"))

	rootCmd.AddCommand(newRecoverCmd(v))
	rootCmd.AddCommand(newScanCmd(v))
	rootCmd.AddCommand(newSignaturesCmd())

	return rootCmd
}

func newRecoverCmd(v *viper.Viper) *cobra.Command {
	var configFile string

	recoverCmd := &cobra.Command{
		Use:   "recover <source> [destination]",
		Short: "Recover files from a lost-and-found directory",
		Long:  "Classify every file below source, give it its real extension and set its modification time to the recovered creation date. Files are copied to destination, or renamed in place with --rename. Existing files are never overwritten.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v.Set(config.KeySource, args[0])
			if len(args) == 2 {
				v.Set(config.KeyDestination, args[1])
			}

			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}

			reg, err := signature.DefaultRegistry()
			if err != nil {
				return err
			}

			logPath := cfg.ResolvedLogPath(time.Now())
			log, closer, err := logging.Open(logPath, cmd.ErrOrStderr(), cfg.Verbose)
			if err != nil {
				return err
			}
			defer closer.Close()

			log.Info().
				Str("version", version).
				Str("source", cfg.Source).
				Str("destination", cfg.Destination).
				Bool("rename", cfg.Rename).
				Bool("dry_run", cfg.DryRun).
				Str("tz", cfg.Location.String()).
				Msg("starting")

			scanOpts := scan.DefaultOptions()
			scanOpts.MaxDepth = cfg.MaxDepth
			scanOpts.Extensions = cfg.Extensions
			scanOpts.Exclude = append(scanOpts.Exclude, filepath.Base(logPath))

			records, err := scan.ScanRecords(os.DirFS(cfg.Source), ".", scanOpts)
			if err != nil {
				return fmt.Errorf("scan %s: %w", cfg.Source, err)
			}
			paths := make([]string, 0, len(records))
			for _, r := range records {
				paths = append(paths, filepath.Join(cfg.Source, filepath.FromSlash(r.Path)))
			}

			rec, err := recovery.New(reg, extract.New(log), log, recovery.Options{
				Plan:     cfg.PlanOptions(),
				Location: cfg.Location,
				DryRun:   cfg.DryRun,
			})
			if err != nil {
				return fmt.Errorf("%w: %v", config.ErrInvalid, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			obs := newProgressObserver(cmd.ErrOrStderr(), len(paths), cfg.Verbose)
			sum := rec.Run(ctx, paths, cfg.Workers, obs)
			obs.finish()

			printSummary(cmd.OutOrStdout(), sum, cfg, logPath)
			return nil
		},
	}

	f := recoverCmd.Flags()
	f.Bool("rename", false, "rename files in place instead of copying them")
	f.StringSlice("ext", nil, "only process files with these extensions, e.g. .chk (default: all files)")
	f.String("log", "", "operation log path (default: <source>/recovery_log_YYYYMMDD_HHMMSS.txt)")
	f.Bool("by-year", false, "copy into <destination>/<YYYY>/ using the recovered date")
	f.Int("workers", 1, "number of files processed concurrently")
	f.Int("max-depth", -1, "maximum recursion depth (0 = no recursion, -1 = unlimited)")
	f.String("tz", "Local", "time zone for timestamps that carry none")
	f.StringVar(&configFile, "config", "", "config file (yaml, toml or json)")

	bind := map[string]string{
		config.KeyRename:   "rename",
		config.KeyExt:      "ext",
		config.KeyLog:      "log",
		config.KeyByYear:   "by-year",
		config.KeyWorkers:  "workers",
		config.KeyMaxDepth: "max-depth",
		config.KeyTimezone: "tz",
	}
	for key, name := range bind {
		_ = v.BindPFlag(key, f.Lookup(name))
	}

	return recoverCmd
}

func newScanCmd(v *viper.Viper) *cobra.Command {
	var (
		maxDepth int
		exts     []string
	)

	scanCmd := &cobra.Command{
		Use:   "scan <source>",
		Short: "List candidate files and their detected type",
		Long:  "Scan a directory and print every candidate file (relative to the scan root) with its detected format. Nothing is changed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			directory := args[0]

			reg, err := signature.DefaultRegistry()
			if err != nil {
				return err
			}

			scanOpts := scan.DefaultOptions()
			scanOpts.MaxDepth = maxDepth
			scanOpts.Extensions = exts

			records, err := scan.ScanRecords(os.DirFS(directory), ".", scanOpts)
			if err != nil {
				return err
			}

			detected := 0
			for _, r := range records {
				kind := detect(filepath.Join(directory, filepath.FromSlash(r.Path)), r.FileSizeBytes, reg)
				if kind != "empty" && kind != "unknown" && kind != "error" {
					detected++
				}
				cmd.Printf("%s\t%s\t%d\n", r.Path, kind, r.FileSizeBytes)
			}

			if v.GetBool(config.KeyVerbose) {
				cmd.PrintErrf("found %d files, %d with a known type\n", len(records), detected)
			}

			return nil
		},
	}

	scanCmd.Flags().IntVar(&maxDepth, "max-depth", -1, "maximum recursion depth (0 = no recursion)")
	scanCmd.Flags().StringSliceVar(&exts, "ext", nil, "only list files with these extensions")

	return scanCmd
}

func detect(path string, size int64, reg *signature.Registry) string {
	if size == 0 {
		return "empty"
	}
	f, err := os.Open(path)
	if err != nil {
		return "error"
	}
	defer f.Close()

	m, ok, err := classify.Classify(f, reg)
	switch {
	case err != nil:
		return "error"
	case !ok:
		return "unknown"
	default:
		return string(m.Format)
	}
}

func newSignaturesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signatures",
		Short: "Print the signature table in lookup order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := signature.DefaultRegistry()
			if err != nil {
				return err
			}
			for _, r := range reg.Rules() {
				cmd.Printf("%-48s %-5s %s\n", fmt.Sprintf("% X", r.Pattern), r.Format, r.Kind)
			}
			return nil
		},
	}
}

type progressObserver struct {
	bar     *progressbar.ProgressBar
	out     io.Writer
	verbose bool
}

func newProgressObserver(out io.Writer, total int, verbose bool) *progressObserver {
	o := &progressObserver{out: out, verbose: verbose}
	if !verbose && total > 0 {
		o.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("Recovering"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionClearOnFinish(),
		)
	}
	return o
}

func (o *progressObserver) OnStart(int) {}

func (o *progressObserver) OnFileDone(_, _ int, _ recovery.Outcome, _ error, _ time.Duration) {
	if o.bar != nil {
		_ = o.bar.Add(1)
	}
}

func (o *progressObserver) finish() {
	if o.bar != nil {
		_ = o.bar.Finish()
	}
}

func printSummary(w io.Writer, sum recovery.Summary, cfg config.Config, logPath string) {
	if cfg.DryRun || cfg.Verbose {
		for _, out := range sum.Outcomes {
			printOutcome(w, out)
		}
		fmt.Fprintln(w)
	}

	header := "Recovery summary"
	if cfg.DryRun {
		header += " (dry run, nothing changed)"
	}
	fmt.Fprintln(w, infoColor(header))
	fmt.Fprintf(w, "  Files:     %d\n", sum.Total)
	fmt.Fprintf(w, "  Recovered: %s\n", successColor(sum.Recovered))

	for _, f := range sortedKeys(sum.Formats) {
		fmt.Fprintf(w, "    %-6s %d\n", f, sum.Formats[f])
	}
	for _, s := range sortedKeys(sum.Sources) {
		fmt.Fprintf(w, "    dated %-22s %d\n", s, sum.Sources[s])
	}

	for _, reason := range []recovery.SkipReason{
		recovery.SkipEmpty,
		recovery.SkipUnknownType,
		recovery.SkipAlreadyExists,
		recovery.SkipFailed,
	} {
		n := sum.Skipped[reason]
		if n == 0 {
			continue
		}
		line := fmt.Sprintf("  Skipped (%s): %d", reason, n)
		if reason == recovery.SkipFailed {
			line = errorColor(line)
		}
		fmt.Fprintln(w, line)
	}

	if sum.Suspicious > 0 {
		fmt.Fprintln(w, warningColor(fmt.Sprintf("  Size does not match duration: %d", sum.Suspicious)))
	}
	if sum.Thumbnails > 0 {
		fmt.Fprintln(w, warningColor(fmt.Sprintf("  Likely thumbnails: %d", sum.Thumbnails)))
	}
	if sum.StampFailures > 0 {
		fmt.Fprintln(w, errorColor(fmt.Sprintf("  Timestamp not applied: %d", sum.StampFailures)))
	}
	if pending := sum.Total - sum.Processed; pending > 0 {
		fmt.Fprintln(w, warningColor(fmt.Sprintf("  Not processed (interrupted): %d", pending)))
	}
	fmt.Fprintf(w, "  Elapsed:   %s\n", sum.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  Log:       %s\n", logPath)
}

func printOutcome(w io.Writer, out recovery.Outcome) {
	name := filepath.Base(out.Source)
	switch {
	case out.Recovered():
		fmt.Fprintf(w, "%s -> %s (%s, %s)\n", name, out.Target, out.Match.Format, out.Timestamp.Source)
	case out.Skip == recovery.SkipAlreadyExists:
		fmt.Fprintf(w, "%s: skipped, %s exists (%s)\n", name, out.Target, out.Existing)
	default:
		fmt.Fprintf(w, "%s: skipped (%s)\n", name, out.Skip)
	}
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
