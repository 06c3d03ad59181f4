// Package command implements the bencode-cli subcommands. Every subcommand
// reads from the Context's streams rather than the process ones, so tests can
// drive them with in-memory buffers.
package command

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/mertwole/bencode-cli/bencode/decode"
	"github.com/mertwole/bencode-cli/config"
	"github.com/mertwole/bencode-cli/version"
)

const programName = "bencode-cli"

type Context struct {
	Config *config.Config
	Log    *zap.SugaredLogger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

type Command struct {
	Name        string
	Summary     string
	Usage       string
	Interactive bool
	Flags       func(flagSet *pflag.FlagSet)
	Run         func(context *Context, flagSet *pflag.FlagSet, args []string) error
}

func commands() []*Command {
	return []*Command{
		decodeCommand(),
		encodeCommand(),
		validateCommand(),
		inspectCommand(),
		torrentCommand(),
		versionCommand(),
	}
}

// Run parses global flags, picks the subcommand named by the first
// positional argument and runs it.
func Run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error {
	var (
		debug         bool
		logFile       string
		encoding      string
		maxDepth      int
		duplicateKeys string
	)

	flagSet := pflag.NewFlagSet(programName, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.BoolVar(&debug, "debug", os.Getenv("BENCODE_DEBUG") == "1", "log debug records to stderr")
	flagSet.StringVar(&logFile, "log-file", "", "write JSON log records to this file")
	flagSet.StringVarP(&encoding, "encoding", "e", "", "decode byte strings as text and encode text in this encoding")
	flagSet.IntVar(&maxDepth, "max-depth", decode.DefaultMaxDepth, "maximum nesting of lists and dictionaries, 0 disables the limit")
	flagSet.StringVar(&duplicateKeys, "duplicate-keys", "last", "duplicate dictionary keys on input: last, first or reject")
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	positional := flagSet.Args()
	if len(positional) == 0 {
		printUsage(stderr, flagSet)
		return fmt.Errorf("no command given")
	}

	selected := findCommand(positional[0])
	if selected == nil {
		printUsage(stderr, flagSet)
		return fmt.Errorf("unknown command %q", positional[0])
	}

	policy, err := config.ParseDuplicateKeys(duplicateKeys)
	if err != nil {
		return err
	}

	if selected.Interactive && logFile == "" {
		logFile = config.DefaultLogFile
	}

	cfg := config.NewConfig(
		config.WithDebug(debug),
		config.WithLogFile(logFile),
		config.WithEncoding(encoding),
		config.WithMaxDepth(maxDepth),
		config.WithDuplicateKeys(policy),
		config.WithConsole(stderr),
	)

	log := cfg.Logger(selected.Name, selected.Interactive)
	defer log.Sync()

	commandFlags := pflag.NewFlagSet(programName+" "+selected.Name, pflag.ContinueOnError)
	commandFlags.SetOutput(stderr)
	if selected.Flags != nil {
		selected.Flags(commandFlags)
	}
	commandFlags.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s %s\n\n%s\n\n", programName, selected.Usage, selected.Summary)
		commandFlags.PrintDefaults()
	}

	if err := commandFlags.Parse(positional[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	context := &Context{
		Config: cfg,
		Log:    log,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	log.Debugw("running command", "command", selected.Name, "args", commandFlags.Args())

	if err := selected.Run(context, commandFlags, commandFlags.Args()); err != nil {
		log.Errorw("command failed", "command", selected.Name, "error", err)
		return err
	}

	return nil
}

func findCommand(name string) *Command {
	for _, candidate := range commands() {
		if candidate.Name == name {
			return candidate
		}
	}

	return nil
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, "usage: %s [global flags] <command> [flags] [args]\n\ncommands:\n", programName)
	for _, c := range commands() {
		fmt.Fprintf(w, "  %-10s %s\n", c.Name, c.Summary)
	}
	fmt.Fprintf(w, "\nglobal flags:\n")
	flagSet.PrintDefaults()
}

// readInput reads the file named by the single positional argument, or
// stdin when there is none or it is "-".
func readInput(context *Context, args []string) ([]byte, string, error) {
	if len(args) > 1 {
		return nil, "", fmt.Errorf("expected at most one input file, got %s", strings.Join(args, " "))
	}

	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(context.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, "stdin", nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	return data, args[0], nil
}

func versionCommand() *Command {
	return &Command{
		Name:    "version",
		Summary: "Print the program version",
		Usage:   "version",
		Run: func(context *Context, _ *pflag.FlagSet, _ []string) error {
			_, err := fmt.Fprintln(context.Stdout, version.String(programName))
			return err
		},
	}
}
