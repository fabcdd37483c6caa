package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"evmjit/internal/abi"
	"evmjit/internal/ui"
)

// typeColumnReserve is the width taken by every column but the type column
// in a descriptor table.
const typeColumnReserve = 40

var errBinaryToTerminal = errors.New("refusing to write msgpack to a terminal; use -o")

var (
	abiFormat string
	abiOutput string
)

func init() {
	abiCmd.Flags().StringVar(&abiFormat, "format", "table", "output format (table|json|msgpack)")
	abiCmd.Flags().StringVarP(&abiOutput, "output", "o", "", "write the descriptor to a file instead of stdout")
	abiCmd.AddCommand(abiVerifyCmd)
}

var abiCmd = &cobra.Command{
	Use:   "abi",
	Short: "Describe the records shared between generated code and the host",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(abiFormat)
		switch format {
		case "table", "json", "msgpack":
		default:
			return fmt.Errorf("unsupported format %q (must be table, json or msgpack)", abiFormat)
		}
		if format == "msgpack" && (abiOutput == "" || abiOutput == "-") && isTerminal(os.Stdout) {
			return errBinaryToTerminal
		}

		session, cleanup, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		d, err := session.Descriptor()
		if err != nil {
			return err
		}
		data, err := encodeDescriptor(d, format, tableOptions())
		if err != nil {
			return err
		}
		if err := writeOutput(cmd, abiOutput, data); err != nil {
			return err
		}
		printTimings(cmd, session)
		return nil
	},
}

var abiVerifyCmd = &cobra.Command{
	Use:   "verify <descriptor>",
	Short: "Compare a saved descriptor (msgpack or .json) with the current session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		saved, err := readDescriptor(args[0])
		if err != nil {
			return err
		}
		session, cleanup, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		current, err := session.Descriptor()
		if err != nil {
			return err
		}
		diffs := abi.Diff(current, saved)
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderDiff(diffs, tableOptions()))
		if len(diffs) > 0 {
			return fmt.Errorf("%s: %d ABI difference(s)", args[0], len(diffs))
		}
		return nil
	},
}

// encodeDescriptor renders d in one of the abi command formats.
func encodeDescriptor(d *abi.Descriptor, format string, opts ui.TableOptions) ([]byte, error) {
	switch format {
	case "table":
		return []byte(ui.RenderDescriptor(d, opts)), nil
	case "json":
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "msgpack":
		var buf bytes.Buffer
		if err := abi.EncodeDescriptor(&buf, d); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// readDescriptor loads a descriptor written by the abi command. Files ending
// in .json are read as JSON, everything else as msgpack.
func readDescriptor(path string) (*abi.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		var d abi.Descriptor
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if d.Schema != abi.DescriptorSchemaVersion {
			return nil, fmt.Errorf("%s: %w: got %d, want %d", path, abi.ErrDescriptorSchema, d.Schema, abi.DescriptorSchemaVersion)
		}
		return &d, nil
	}
	d, err := abi.DecodeDescriptor(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func tableOptions() ui.TableOptions {
	opts := ui.TableOptions{Color: !color.NoColor}
	if isTerminal(os.Stdout) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > typeColumnReserve {
			opts.Width = w - typeColumnReserve
		}
	}
	return opts
}
