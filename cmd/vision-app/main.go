package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/chzyer/readline"

	visionapp "github.com/menta2k/vision-app"
	"github.com/menta2k/vision-app/internal/config"
	"github.com/menta2k/vision-app/internal/logging"
	"github.com/menta2k/vision-app/internal/metrics"
	"github.com/menta2k/vision-app/internal/server"
	"github.com/menta2k/vision-app/internal/utils"
	"github.com/menta2k/vision-app/pkg/controller"
)

const consoleHelp = `Enter or "t"  describe the garment in front of the camera (tap)
"r" or "h"    repeat the last description (long press)
"s"           show controller status
"q"           quit`

type options struct {
	configPath string
	backend    string
	in         string
	speech     string
	addr       string
	logLevel   string
	logFormat  string
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.WithError(err).Fatal("vision-app failed")
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("vision-app", flag.ContinueOnError)
	var opts options
	var showVersion bool
	fs.StringVar(&opts.configPath, "config", "", "config file (default: "+config.GetConfigPath()+" if present)")
	fs.StringVar(&opts.backend, "backend", "", "vision backend: openai or ollama")
	fs.StringVar(&opts.in, "in", "", "describe this image file or the newest image in this directory instead of the camera")
	fs.StringVar(&opts.speech, "speech", "", "speech backend: command or writer")
	fs.StringVar(&opts.addr, "addr", "", "listen address for serve")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&opts.logFormat, "log-format", "", "log format: cli, text or json")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [flags] [console|serve|describe|init-config]\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Println(visionapp.GetVersion())
		return nil
	}

	mode := "console"
	if fs.NArg() > 0 {
		mode = fs.Arg(0)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if err := logging.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "console":
		return runConsole(ctx, cfg)
	case "serve":
		return runServe(ctx, cfg)
	case "describe":
		return runDescribe(ctx, cfg)
	case "init-config":
		return initConfig(cfg, opts.configPath)
	}
	fs.Usage()
	return fmt.Errorf("unknown mode %q", mode)
}

func loadConfig(opts options) (*config.Config, error) {
	path := opts.configPath
	if path == "" && utils.FileExists(config.GetConfigPath()) {
		path = config.GetConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if opts.backend != "" {
		cfg.Vision.Backend = opts.backend
	}
	if opts.in != "" {
		cfg.Capture.Backend = "file"
		cfg.Capture.Path = opts.in
	}
	if opts.speech != "" {
		cfg.Speech.Backend = opts.speech
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	return cfg, nil
}

func runConsole(ctx context.Context, cfg *config.Config) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "q",
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = rl.Close()
	}()

	app, err := visionapp.New(cfg, visionapp.Options{Output: rl.Stdout()})
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Fprintln(rl.Stdout(), consoleHelp)
	app.Controller.Startup(ctx)

	var wg sync.WaitGroup
	defer wg.Wait()

	for ctx.Err() == nil {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if err != nil { // io.EOF
			return nil
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "", "t", "tap":
			// Taps do not block the prompt, so a second tap while busy is
			// rejected by the controller.
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := app.Controller.Describe(ctx); errors.Is(err, controller.ErrBusy) {
					fmt.Fprintln(rl.Stdout(), "(busy)")
				}
			}()
		case "r", "h", "hold", "replay":
			app.Controller.Replay(ctx)
		case "s", "status":
			printStatus(rl.Stdout(), app)
		case "q", "quit", "exit":
			return nil
		case "?", "help":
			fmt.Fprintln(rl.Stdout(), consoleHelp)
		default:
			fmt.Fprintf(rl.Stdout(), "unknown command %q\n", line)
		}
	}
	return nil
}

func printStatus(w io.Writer, app *visionapp.App) {
	st := app.Controller.Status()
	fmt.Fprintf(w, "state=%s busy=%t last_description=%t backend=%s\n",
		st.State, st.Busy, st.HasLastDescription, app.Backend.Name())
}

func runServe(ctx context.Context, cfg *config.Config) error {
	metrics.Register()

	app, err := visionapp.New(cfg, visionapp.Options{})
	if err != nil {
		return err
	}
	defer app.Close()

	app.Controller.Startup(ctx)
	return server.New(app.Controller, visionapp.Version).Run(ctx, cfg.Server.Addr)
}

// runDescribe performs a single tap and exits non-zero if it failed.
func runDescribe(ctx context.Context, cfg *config.Config) error {
	app, err := visionapp.New(cfg, visionapp.Options{})
	if err != nil {
		return err
	}
	defer app.Close()

	text, err := app.Controller.Describe(ctx)
	waitForSpeech(ctx, app)
	if err != nil {
		return err
	}
	log.WithField("description", text).Info("done")
	return nil
}

// waitForSpeech lets a command synthesizer finish before the process exits.
func waitForSpeech(ctx context.Context, app *visionapp.App) {
	s, ok := app.Speaker.(interface{ Speaking() bool })
	if !ok {
		return
	}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for s.Speaking() {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func initConfig(cfg *config.Config, path string) error {
	if path == "" {
		path = config.GetConfigPath()
	}
	if utils.FileExists(path) {
		return fmt.Errorf("%s already exists", path)
	}
	if err := cfg.SaveToFile(path); err != nil {
		return err
	}
	log.WithField("path", path).Info("config written")
	return nil
}
