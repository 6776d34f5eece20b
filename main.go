package main

// Go module path: github.com/lian/grab

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/lian/grab/internal/config"
	"github.com/lian/grab/internal/logging"
	"github.com/lian/grab/internal/notify"
	"github.com/lian/grab/internal/selection"
)

const appName = "grab"

// options are the global command line flags.
type options struct {
	configPath string
	dest       string
	state      string
	verbose    bool
	noAuto     bool
}

// printHelp displays the command-line usage instructions for the tool.
func printHelp() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "%s: collect files from the file manager and move them in one go\n\n", appName)
	fmt.Fprintln(out, "Grabs the files selected in Finder into a list that survives between runs, then")
	fmt.Fprintln(out, "moves, copies or trashes the whole batch into a folder found by name.")
	fmt.Fprintln(out, "\nUsage:")
	fmt.Fprintf(out, "  %s [flags] [command] [args]\n", appName)
	fmt.Fprintln(out, "\nCommands:")
	fmt.Fprintln(out, "  ui                 Interactive list (default on a terminal).")
	fmt.Fprintln(out, "  quick              Grab the current Finder selection and exit.")
	fmt.Fprintln(out, "  add PATH...        Grab the given files.")
	fmt.Fprintln(out, "  list               Show grabbed files (default when not on a terminal).")
	fmt.Fprintln(out, "  remove PATH        Forget one grabbed file.")
	fmt.Fprintln(out, "  clear              Forget all grabbed files.")
	fmt.Fprintln(out, "  move [DEST]        Move all grabbed files to DEST (default destination if omitted).")
	fmt.Fprintln(out, "  copy [DEST]        Copy all grabbed files to DEST.")
	fmt.Fprintln(out, "  trash [-y]         Move all grabbed files to the Trash.")
	fmt.Fprintln(out, "  search QUERY       List folders whose name contains QUERY.")
	fmt.Fprintln(out, "  open [PATH]        Open PATH or the default destination in the file manager.")
	fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
	fmt.Fprintln(out, "\nKeybindings (within the UI):")
	fmt.Fprintln(out, "  a                  Grab the Finder selection.")
	fmt.Fprintln(out, "  x, delete          Remove the focused file.      X  Clear all.")
	fmt.Fprintln(out, "  m / c              Move / copy everything to a folder (type to search).")
	fmt.Fprintln(out, "  t                  Move everything to the Trash (asks first).")
	fmt.Fprintln(out, "  o                  Open the default destination.  y  Copy paths to clipboard.")
	fmt.Fprintln(out, "  /                  Filter the list.               r  Reload from disk.")
	fmt.Fprintln(out, "  q, ctrl+c          Quit.")
	fmt.Fprintf(out, "\nConfiguration is read from %s.\n", config.DefaultPath())
}

func main() {
	log.SetFlags(0)

	var opts options
	var showHelp bool
	flag.StringVar(&opts.configPath, "config", config.DefaultPath(), "Path to the YAML config file")
	flag.StringVar(&opts.dest, "dest", "", "Default destination (overrides default_destination)")
	flag.StringVar(&opts.state, "state", "", "State directory (overrides state_dir)")
	flag.BoolVar(&opts.verbose, "v", false, "Log debug output to stderr")
	flag.BoolVar(&opts.noAuto, "no-auto", false, "Do not grab the Finder selection when the UI starts")
	flag.BoolVar(&showHelp, "help", false, "Show help message and exit")
	flag.BoolVar(&showHelp, "h", false, "Show help message and exit (shorthand)")
	flag.Usage = printHelp
	flag.Parse()

	if showHelp {
		printHelp()
		os.Exit(0)
	}

	os.Exit(run(opts, flag.Args()))
}

// run executes one invocation and returns the process exit code.
func run(opts options, args []string) int {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	if opts.dest != "" {
		cfg.DefaultDestination = opts.dest
	}
	if opts.state != "" {
		cfg.StateDir = opts.state
	}

	tty := isTerminal(os.Stdout)
	cmd := "list"
	if tty {
		cmd = "ui"
	}
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	// The UI owns the terminal, so logs go to a file unless -v asks for stderr
	// on a plain command.
	logCfg := logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, OutputPath: cfg.LogFile()}
	if opts.verbose && cmd != "ui" {
		logCfg.Format = "console"
		logCfg.OutputPath = "stderr"
	}
	if err := logging.Init(logCfg); err != nil {
		log.Printf("Warning: logging disabled: %v", err)
	}
	if opts.verbose {
		logging.SetLevel("debug")
	}
	defer logging.Sync()
	logger := logging.Named("cli")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, logging.L(), selection.Default(), nil)
	if n, ok := a.load(ctx); !ok {
		notify.Send(&notify.Console{W: os.Stderr}, n)
	}
	logger.Debug("start", zap.String("command", cmd), zap.String("state", a.statePath()))

	if cmd == "ui" {
		if !tty {
			fmt.Fprintln(os.Stderr, "Error: ui needs a terminal")
			return 2
		}
		if len(args) != 0 {
			fmt.Fprintln(os.Stderr, "Error: ui takes no arguments")
			return 2
		}
		if err := runUI(ctx, a, !opts.noAuto); err != nil {
			logger.Error("ui", zap.Error(err))
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	err = newCLI(a, tty).run(ctx, cmd, args)
	var ue *usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ue):
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		fmt.Fprintf(os.Stderr, "Run '%s -h' for usage.\n", appName)
		return 2
	case errors.Is(err, errReported):
		return 1
	default:
		logger.Error("command failed", zap.String("command", cmd), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
}
