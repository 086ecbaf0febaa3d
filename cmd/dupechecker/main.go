package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/On-Jun9/DupeChecker/internal/config"
	"github.com/On-Jun9/DupeChecker/internal/pipeline"
	"github.com/On-Jun9/DupeChecker/pkg/types"
	"github.com/spf13/cobra"
)

var (
	appVersion  = "0.1.0"
	cfgFile     string
	root        string
	jobs        int
	sortKey     string
	ascending   bool
	ffprobePath string
	noShell     bool
	cacheFile   string
	ignoreCache bool
	logFile     string
	logJSON     bool
	jsonOutput  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dupechecker",
	Short: "List video files with their size, duration and modification time",
	Long: `DupeChecker scans a folder tree for video files, reads each file's duration
(MP4 atoms, ffprobe, then the OS shell), and lists them sorted by duration so
long duplicates and forgotten recordings are easy to spot and delete.`,
	SilenceUsage: true,
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a folder and list its videos",
	RunE:  runScan,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <path>...",
	Short: "Delete video files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(appVersion)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "output JSON logs")

	scanCmd.Flags().StringVarP(&root, "root", "r", "", "folder to scan")
	scanCmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "number of concurrent workers (0=auto)")
	scanCmd.Flags().StringVar(&sortKey, "sort", "", "sort key: name, size, duration, modified")
	scanCmd.Flags().BoolVar(&ascending, "asc", false, "sort ascending instead of descending")
	scanCmd.Flags().StringVar(&ffprobePath, "ffprobe", "", "ffprobe binary name or path")
	scanCmd.Flags().BoolVar(&noShell, "no-shell", false, "disable the OS shell duration fallback")
	scanCmd.Flags().StringVar(&cacheFile, "cache-file", "", "probe cache file")
	scanCmd.Flags().BoolVar(&ignoreCache, "ignore-cache", false, "probe every file again")
	scanCmd.Flags().BoolVar(&jsonOutput, "json", false, "print records as JSON")
}

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadFromFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if root != "" {
		cfg.Root = root
	}
	if jobs > 0 {
		cfg.Jobs = jobs
	}
	if sortKey != "" {
		cfg.SortKey = types.SortKey(sortKey)
		cfg.SortDirection = types.SortDescending
	}
	if ascending {
		cfg.SortDirection = types.SortAscending
	}
	if ffprobePath != "" {
		cfg.FFprobePath = ffprobePath
	}
	if noShell {
		cfg.ShellFallback = false
	}
	if cacheFile != "" {
		cfg.CacheFile = cacheFile
	}
	if ignoreCache {
		cfg.IgnoreCache = true
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if logJSON {
		cfg.LogJSON = true
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer p.Close()

	stderr := cmd.ErrOrStderr()
	p.Logger().SetConsole(stderr)
	p.SetProgressCallback(func(update pipeline.ProgressUpdate) {
		if update.Type == pipeline.UpdateLoadProgress {
			p.Logger().Progress(update.Current, update.Total, update.Filename)
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	files, _, err := p.ScanAndLoad(ctx, cfg.Root)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(files)
	}

	writeTable(out, files)
	recent, ok := p.Catalog().MostRecentModified()
	writeFooter(out, len(files), recent, ok)
	return nil
}

func writeTable(w io.Writer, files []types.VideoFile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tDURATION\tMODIFIED")
	for _, f := range files {
		duration := f.DurationDisplay
		if duration == "" {
			duration = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Name, f.SizeDisplay, duration, f.ModifiedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

func writeFooter(w io.Writer, count int, recent time.Time, ok bool) {
	fmt.Fprintf(w, "\n%d files", count)
	if ok {
		fmt.Fprintf(w, ", most recent %s", recent.Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(w)
}

func runDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if logJSON {
		cfg.LogJSON = true
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer p.Close()

	var failed []error
	for _, path := range args {
		if err := p.DeleteFile(path); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			failed = append(failed, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", path)
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d deletes failed: %w", len(failed), len(args), errors.Join(failed...))
	}
	return nil
}
