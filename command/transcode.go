package command

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/mertwole/bencode-cli/bencode"
	"github.com/mertwole/bencode-cli/bencode/value"
	"github.com/mertwole/bencode-cli/convert"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatCBOR = "cbor"
)

func checkFormat(format string) error {
	switch format {
	case formatJSON, formatYAML, formatCBOR:
		return nil
	default:
		return fmt.Errorf("unknown format %q, expected json, yaml or cbor", format)
	}
}

func decodeCommand() *Command {
	var (
		format  string
		compact bool
	)

	return &Command{
		Name:    "decode",
		Summary: "Decode bencode into JSON, YAML or CBOR",
		Usage:   "decode [--format json|yaml|cbor] [--compact] [FILE]",
		Flags: func(flagSet *pflag.FlagSet) {
			flagSet.StringVarP(&format, "format", "f", formatJSON, "output format: json, yaml or cbor")
			flagSet.BoolVarP(&compact, "compact", "c", false, "write JSON on a single line")
		},
		Run: func(context *Context, _ *pflag.FlagSet, args []string) error {
			format = strings.ToLower(format)
			if err := checkFormat(format); err != nil {
				return err
			}

			data, source, err := readInput(context, args)
			if err != nil {
				return err
			}

			decoded, err := bencode.Decode(data, context.Config.DecodeOptions()...)
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", source, err)
			}

			context.Log.Debugw("decoded input", "source", source, "size", len(data), "kind", decoded.Kind().String())

			switch format {
			case formatYAML:
				return convert.ToYAML(context.Stdout, decoded)
			case formatCBOR:
				encoded, err := convert.ToCBOR(decoded)
				if err != nil {
					return err
				}
				_, err = context.Stdout.Write(encoded)
				return err
			default:
				return convert.ToJSON(context.Stdout, decoded, compact)
			}
		},
	}
}

func encodeCommand() *Command {
	var format string

	return &Command{
		Name:    "encode",
		Summary: "Encode JSON, YAML or CBOR as bencode",
		Usage:   "encode [--format json|yaml|cbor] [FILE]",
		Flags: func(flagSet *pflag.FlagSet) {
			flagSet.StringVarP(&format, "format", "f", formatJSON, "input format: json, yaml or cbor")
		},
		Run: func(context *Context, _ *pflag.FlagSet, args []string) error {
			format = strings.ToLower(format)
			if err := checkFormat(format); err != nil {
				return err
			}

			data, source, err := readInput(context, args)
			if err != nil {
				return err
			}

			var options []convert.Option
			if context.Config.Encoding != "" {
				options = append(options, convert.WithEncoding(context.Config.Encoding))
			}

			var entity value.Value
			switch format {
			case formatYAML:
				entity, err = convert.FromYAML(data, options...)
			case formatCBOR:
				entity, err = convert.FromCBOR(data, options...)
			default:
				entity, err = convert.FromJSON(data, options...)
			}
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", source, err)
			}

			encoded, err := bencode.Encode(entity, context.Config.EncodeOptions()...)
			if err != nil {
				return fmt.Errorf("failed to encode %s: %w", source, err)
			}

			context.Log.Debugw("encoded input", "source", source, "format", format, "size", len(encoded))

			_, err = context.Stdout.Write(encoded)
			return err
		},
	}
}
