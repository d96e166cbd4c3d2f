package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/linuxmatters/dropcue/internal/cli"
	"github.com/linuxmatters/dropcue/internal/logging"
	"github.com/linuxmatters/dropcue/internal/mains"
	"github.com/linuxmatters/dropcue/internal/processor"
	"github.com/linuxmatters/dropcue/internal/ui"
	"github.com/linuxmatters/dropcue/internal/watch"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

var (
	version = "0.0.1"
)

// CLI defines the command-line interface
type CLI struct {
	Version bool     `short:"v" help:"Show version information"`
	Config  string   `short:"c" type:"path" help:"Path to TOML config file (optional)"`
	Logs    bool     `help:"Save a detailed analysis report next to each file"`
	JSON    string   `name:"json" placeholder:"path" help:"Export drop timestamps as JSON (use - for the default dated name)"`
	Jobs    int      `short:"j" default:"1" help:"Number of files to analyse in parallel"`
	Debug   bool     `help:"Write frame and group traces to dropcue-debug.log"`
	Plain   bool     `help:"Print a summary table instead of the interactive UI"`
	Watch   string   `type:"existingdir" placeholder:"dir" help:"Analyse greetings as they arrive in a directory"`
	Files   []string `arg:"" name:"files" help:"Voicemail greetings to analyse (WAV or FLAC)" type:"existingfile" optional:""`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("dropcue"),
		kong.Description("Voicemail drop timestamp detector"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	// Validate input
	if len(cliArgs.Files) == 0 && cliArgs.Watch == "" {
		cli.PrintError("No input files specified")
		ctx.PrintUsage(false)
		os.Exit(1)
	}

	config := processor.DefaultAnalysisConfig()
	if cliArgs.Config != "" {
		loaded, err := processor.LoadConfig(cliArgs.Config)
		if err != nil {
			cli.PrintError(err.Error())
			os.Exit(1)
		}
		config = loaded
	}

	if err := run(cliArgs, config); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// run analyses the requested files, or watches a directory, and writes the
// requested outputs. Deferred cleanup runs before main exits.
func run(cliArgs *CLI, config *processor.AnalysisConfig) error {
	log := zerolog.Nop()
	opts := processor.BatchOptions{Jobs: cliArgs.Jobs}
	if cliArgs.Debug {
		debugLog, closer, err := logging.OpenDebugLog(logging.DebugLogName, zerolog.TraceLevel)
		if err != nil {
			cli.PrintWarning(fmt.Sprintf("debug log disabled: %v", err))
		} else {
			defer closer.Close()
			log = debugLog.With().Str("run", uuid.NewString()).Logger()
			opts.Tracer = processor.NewLogTracer(log, true)
		}
	}
	log.Info().Str("version", version).Int("files", len(cliArgs.Files)).Int("jobs", cliArgs.Jobs).Msg("starting batch")

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cliArgs.Watch != "" {
		results, err := runWatch(runCtx, cliArgs.Watch, config, opts, log)
		if err != nil {
			return err
		}
		return finish(cliArgs, results, config, log)
	}

	// The TUI needs a terminal; redirected output gets the table
	if !cliArgs.Plain && !term.IsTerminal(int(os.Stdout.Fd())) {
		cliArgs.Plain = true
	}

	var (
		results []processor.FileResult
		runErr  error
	)
	if cliArgs.Plain {
		results, runErr = processor.AnalyzeFiles(runCtx, cliArgs.Files, config, opts)
	} else {
		results, runErr = runInteractive(runCtx, stop, cliArgs.Files, config, opts, log)
	}

	if results == nil && runErr != nil {
		return runErr
	}
	if errors.Is(runErr, context.Canceled) {
		cli.PrintWarning("analysis cancelled; unfinished files were skipped")
	}

	if cliArgs.Plain {
		fmt.Print(logging.SummaryTable(results))
	}

	return finish(cliArgs, results, config, log)
}

// finish writes the optional reports and JSON export for a set of results
func finish(cliArgs *CLI, results []processor.FileResult, config *processor.AnalysisConfig, log zerolog.Logger) error {
	if cliArgs.Logs {
		writeReports(results, config, log)
	}

	if cliArgs.JSON != "" {
		path := cliArgs.JSON
		if path == "-" {
			path = logging.DefaultExportName(time.Now())
		}
		if err := logging.ExportJSON(path, results); err != nil {
			return fmt.Errorf("JSON export failed: %w", err)
		}
		cli.PrintKeyValue("Exported", path)
	}

	log.Info().Int("errors", processor.ErrorCount(results)).Msg("batch finished")
	return nil
}

// runWatch analyses each greeting that settles in dir until ctx is cancelled,
// printing one line per file.
func runWatch(ctx context.Context, dir string, config *processor.AnalysisConfig, opts processor.BatchOptions, log zerolog.Logger) ([]processor.FileResult, error) {
	var results []processor.FileResult
	w := watch.New(dir, watch.WithLogger(log))

	var analyseOpts []processor.Option
	if opts.Tracer != nil {
		analyseOpts = append(analyseOpts, processor.WithTracer(opts.Tracer))
	}

	err := w.Run(ctx, func(path string) {
		start := time.Now()
		result, md, err := processor.AnalyzeFile(path, config, analyseOpts...)
		fr := processor.FileResult{
			Index:    len(results),
			Path:     path,
			Result:   result,
			Metadata: md,
			Elapsed:  time.Since(start),
			Err:      err,
		}
		results = append(results, fr)

		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("analysis failed")
		}
		if result != nil {
			fmt.Printf("%s  %s  %.3fs  %s\n", filepath.Base(path), result.Trigger.Label(), result.DropTimestamp, result.Details)
		}
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// runInteractive drives the batch behind the Bubbletea UI. Quitting the UI
// cancels files that have not started yet.
func runInteractive(ctx context.Context, cancel func(), files []string, config *processor.AnalysisConfig, opts processor.BatchOptions, log zerolog.Logger) ([]processor.FileResult, error) {
	model := ui.NewModel(files, cancel, log)
	p := tea.NewProgram(model, tea.WithAltScreen())

	var (
		results []processor.FileResult
		runErr  error
	)
	done := make(chan struct{})
	opts.Progress = func(ev processor.FileEvent) {
		p.Send(ui.MsgFromEvent(ev))
	}

	go func() {
		defer close(done)
		results, runErr = processor.AnalyzeFiles(ctx, files, config, opts)
		p.Send(ui.AllCompleteMsg{Results: results, Err: runErr})
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		<-done
		return results, fmt.Errorf("UI error: %w", err)
	}

	// The UI may quit before the batch has drained
	<-done

	if m, ok := final.(ui.Model); ok {
		fmt.Print(m.View())
	}
	return results, runErr
}

// writeReports saves one analysis report per analysed file
func writeReports(results []processor.FileResult, config *processor.AnalysisConfig, log zerolog.Logger) {
	mainsHz := mains.Frequency()
	for _, fr := range results {
		if fr.Skipped() {
			continue
		}
		end := time.Now()
		path, err := logging.GenerateReport(logging.ReportData{
			InputPath: fr.Path,
			StartTime: end.Add(-fr.Elapsed),
			EndTime:   end,
			Metadata:  fr.Metadata,
			Result:    fr.Result,
			Config:    config,
			MainsHz:   mainsHz,
		})
		if err != nil {
			log.Error().Err(err).Str("file", fr.Path).Msg("report failed")
			cli.PrintWarning(fmt.Sprintf("could not write report for %s: %v", fr.Path, err))
			continue
		}
		log.Debug().Str("file", fr.Path).Str("report", path).Msg("report written")
	}
}
