package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/alecthomas/kingpin.v2"

	livecmn "github.com/ieee0824/livecmn-go"
	"github.com/ieee0824/livecmn-go/feature"
)

// cliOptions holds the parsed command line.
type cliOptions struct {
	wavPaths    []string
	initialMean float64
	window      int
	shiftWindow int
	noCMN       bool
	deltas      bool
	format      string
	logLevel    string
	progress    bool
}

func newApp() (*kingpin.Application, *cliOptions) {
	o := &cliOptions{}
	app := kingpin.New("livecmn", "Compute live mean-normalized cepstra for WAV utterances.")
	app.Version("0.1.0")

	app.Arg("wav", "WAV files, one utterance each, processed in order on one normalizer").Required().ExistingFilesVar(&o.wavPaths)
	app.Flag("initial-mean", "Initial estimate of the c0 mean").Default("12.0").Envar("LIVECMN_INITIAL_MEAN").Float64Var(&o.initialMean)
	app.Flag("window", "Frames the running sum is decayed to after a recalculation").Default("100").Envar("LIVECMN_WINDOW").IntVar(&o.window)
	app.Flag("shift-window", "Frames between mean recalculations").Default("160").Envar("LIVECMN_SHIFT_WINDOW").IntVar(&o.shiftWindow)
	app.Flag("no-cmn", "Emit raw cepstra without mean normalization").Envar("LIVECMN_NO_CMN").BoolVar(&o.noCMN)
	app.Flag("deltas", "Append delta and delta-delta coefficients").Short('d').Envar("LIVECMN_DELTAS").BoolVar(&o.deltas)
	app.Flag("format", "Output format").Short('f').Default("text").Envar("LIVECMN_FORMAT").EnumVar(&o.format, "text", "jsonl")
	app.Flag("log-level", "Log level").Default("info").Envar("LIVECMN_LOG_LEVEL").EnumVar(&o.logLevel, "debug", "info", "warn", "error")
	app.Flag("progress", "Show per-file progress on stderr").Short('p').BoolVar(&o.progress)
	return app, o
}

func main() {
	// Load .env before parsing so it can feed the flag envars.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: load .env: %v\n", err)
	}

	app, opts := newApp()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := newLogger(opts.logLevel)
	if err := run(logger, opts, os.Stdout); err != nil {
		logger.Error("livecmn failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
}

func buildConfig(o *cliOptions) feature.Config {
	cfg := feature.DefaultConfig()
	cfg.UseCMN = !o.noCMN
	cfg.CMN = feature.LiveCMNConfig{
		InitialMean: o.initialMean,
		Window:      o.window,
		ShiftWindow: o.shiftWindow,
	}
	cfg.UseDelta = o.deltas
	cfg.UseDeltaDelta = o.deltas
	return cfg
}

func run(logger *slog.Logger, o *cliOptions, stdout io.Writer) error {
	cfg := buildConfig(o)
	fe, err := livecmn.New(livecmn.WithFeatureConfig(cfg), livecmn.WithLogger(logger))
	if err != nil {
		return err
	}
	logger.Debug("front end ready",
		"cmn", cfg.UseCMN,
		"initial_mean", cfg.CMN.InitialMean,
		"window", cfg.CMN.Window,
		"shift_window", cfg.CMN.ShiftWindow,
		"dim", cfg.FeatureDim())

	out := bufio.NewWriter(stdout)
	defer out.Flush()
	enc, err := newEncoder(o.format, out)
	if err != nil {
		return err
	}

	tm := newTaskManager(o.progress)
	defer tm.Stop()

	for i, path := range o.wavPaths {
		task := tm.Start(path)
		feats, err := fe.ProcessFile(path)
		if err != nil {
			task.Fail(err)
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := enc.Utterance(i, path, feats); err != nil {
			task.Fail(err)
			return fmt.Errorf("write %s: %w", path, err)
		}
		task.Done(len(feats))

		attrs := []any{"path", path, "frames", len(feats)}
		if cmn := fe.CMN(); cmn != nil {
			attrs = append(attrs, "pending", cmn.Frames())
		}
		logger.Info("utterance normalized", attrs...)
	}
	return nil
}
