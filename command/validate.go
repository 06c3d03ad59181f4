package command

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/mertwole/bencode-cli/bencode"
	"github.com/mertwole/bencode-cli/bencode/codec_error"
)

var errNotCanonical = errors.New("input is valid but not canonical")

func validateCommand() *Command {
	var strict bool

	return &Command{
		Name:    "validate",
		Summary: "Check that input is one well-formed bencoded value",
		Usage:   "validate [--strict] [FILE]",
		Flags: func(flagSet *pflag.FlagSet) {
			flagSet.BoolVar(&strict, "strict", false, "fail when the input is not in canonical form")
		},
		Run: func(context *Context, _ *pflag.FlagSet, args []string) error {
			data, source, err := readInput(context, args)
			if err != nil {
				return err
			}

			decoded, err := bencode.Decode(data, context.Config.DecodeOptions()...)
			if err != nil {
				var codecError *codec_error.Error
				if errors.As(err, &codecError) {
					fmt.Fprintf(context.Stdout, "%s: invalid: %s at offset %d\n", source, codecError.Kind, codecError.Offset)
				}
				return fmt.Errorf("failed to validate %s: %w", source, err)
			}

			// Unsorted or duplicate keys decode fine but re-encode differently.
			encoded, err := bencode.Encode(decoded, context.Config.EncodeOptions()...)
			if err != nil {
				return fmt.Errorf("failed to re-encode %s: %w", source, err)
			}
			canonical := bytes.Equal(encoded, data)

			form := "canonical"
			if !canonical {
				form = "not canonical"
			}
			fmt.Fprintf(context.Stdout, "%s: valid %s, %s\n", source, decoded.Kind(), form)

			if strict && !canonical {
				return errNotCanonical
			}

			return nil
		},
	}
}
