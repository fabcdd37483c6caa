package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"evmjit/internal/jit"
	"evmjit/internal/jit/constants"
)

type irOptions struct {
	name      string
	ret       string
	callbacks bool
}

var (
	irName      string
	irReturn    string
	irCallbacks bool
	irOutput    string
)

func init() {
	irCmd.Flags().StringVar(&irName, "name", "main", "contract function name")
	irCmd.Flags().StringVar(&irReturn, "return", constants.Stop.String(), "result code the function returns (stop|return|revert|out-of-gas|...)")
	irCmd.Flags().BoolVar(&irCallbacks, "callbacks", false, "declare every host callback in the module")
	irCmd.Flags().StringVarP(&irOutput, "output", "o", "", "write the module to a file instead of stdout")
}

var irCmd = &cobra.Command{
	Use:   "ir",
	Short: "Print the IR of a contract function that unpacks its runtime and returns",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, cleanup, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		text, err := emitContract(session, irOptions{name: irName, ret: irReturn, callbacks: irCallbacks})
		if err != nil {
			return err
		}
		if err := writeOutput(cmd, irOutput, []byte(text)); err != nil {
			return err
		}
		printTimings(cmd, session)
		return nil
	},
}

// emitContract builds one contract function in session and returns the
// printed module.
func emitContract(session *jit.Context, opts irOptions) (string, error) {
	code, err := constants.ParseReturnCode(opts.ret)
	if err != nil {
		return "", err
	}
	if opts.callbacks {
		if _, err := session.Callbacks().DeclareAll(session.Module()); err != nil {
			return "", err
		}
	}
	fn, err := session.DeclareContract(opts.name)
	if err != nil {
		return "", err
	}
	if _, err := session.BeginFunction(fn); err != nil {
		return "", err
	}
	if err := session.EmitReturn(code); err != nil {
		return "", err
	}
	if err := session.Verify(); err != nil {
		return "", fmt.Errorf("verify module: %w", err)
	}
	return session.Module().String(), nil
}
