package command

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/mertwole/bencode-cli/bencode"
	"github.com/mertwole/bencode-cli/bencode/value"
	"github.com/mertwole/bencode-cli/ui"
)

func inspectCommand() *Command {
	return &Command{
		Name:        "inspect",
		Summary:     "Browse a bencoded file in the terminal",
		Usage:       "inspect [FILE]",
		Interactive: true,
		Run: func(context *Context, _ *pflag.FlagSet, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("expected at most one file to inspect")
			}

			decodeFile := func(path string) (value.Value, error) {
				data, err := os.ReadFile(path)
				if err != nil {
					return nil, fmt.Errorf("failed to read %s: %w", path, err)
				}

				return bencode.Decode(data, context.Config.DecodeOptions()...)
			}

			options := ui.Options{
				DecodeFile: decodeFile,
				Log:        context.Log,
			}

			if len(args) == 1 {
				root, err := decodeFile(args[0])
				if err != nil {
					return err
				}
				options.Root = root
				options.Title = args[0]
			}

			return ui.StartUI(options)
		},
	}
}
