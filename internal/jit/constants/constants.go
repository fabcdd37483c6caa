// Package constants provides the constant values generated code compares
// against and returns: word literals, gas and stack limits, and the result
// codes of a contract function.
package constants

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/holiman/uint256"

	"evmjit/internal/ir"
	"evmjit/internal/jit/evmtypes"
	"evmjit/internal/jit/provider"
)

const key = "constants"

// StackLimit is the maximum depth of the EVM operand stack.
const StackLimit = 1024

// ReturnCode is the value a contract function returns to the host.
// Non-negative codes are normal halts, negative codes are exceptional halts.
type ReturnCode int32

const (
	Stop               ReturnCode = 0
	Return             ReturnCode = 1
	Revert             ReturnCode = 2
	OutOfGas           ReturnCode = -1
	StackUnderflow     ReturnCode = -2
	BadJumpDestination ReturnCode = -3
	InvalidInstruction ReturnCode = -4
	StackOverflow      ReturnCode = -5
)

var returnCodeNames = map[ReturnCode]string{
	Stop:               "stop",
	Return:             "return",
	Revert:             "revert",
	OutOfGas:           "out-of-gas",
	StackUnderflow:     "stack-underflow",
	BadJumpDestination: "bad-jump-destination",
	InvalidInstruction: "invalid-instruction",
	StackOverflow:      "stack-overflow",
}

func (c ReturnCode) String() string {
	if s, ok := returnCodeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("ReturnCode(%d)", int32(c))
}

// IsException reports whether c is an exceptional halt.
func (c ReturnCode) IsException() bool { return c < 0 }

// ReturnCodes lists all known codes, normal halts first.
func ReturnCodes() []ReturnCode {
	return []ReturnCode{Stop, Return, Revert, OutOfGas, StackUnderflow, BadJumpDestination, InvalidInstruction, StackOverflow}
}

// ParseReturnCode converts a code name such as "out-of-gas" back to its value.
func ParseReturnCode(s string) (ReturnCode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for code, n := range returnCodeNames {
		if n == name {
			return code, nil
		}
	}
	return 0, fmt.Errorf("unknown return code %q", s)
}

// Constants holds the shared constants of one session.
type Constants struct {
	types *evmtypes.Types
	codes map[ReturnCode]*ir.ConstInt

	WordZero   *ir.ConstInt
	WordOne    *ir.ConstInt
	WordMax    *ir.ConstInt // 2^256-1
	GasMax     *ir.ConstInt // largest signed gas value
	StackLimit *ir.ConstInt // StackLimit as a Size
}

// Get returns the session's constants.
func Get(r *provider.Registry) (*Constants, error) {
	return provider.Lookup(r, key, build)
}

func build(r *provider.Registry) (*Constants, error) {
	ts, err := evmtypes.Get(r)
	if err != nil {
		return nil, err
	}
	allOnes := new(uint256.Int).SetAllOne()
	c := &Constants{
		types:      ts,
		codes:      make(map[ReturnCode]*ir.ConstInt, len(returnCodeNames)),
		WordZero:   ir.NewConstInt(ts.Word, uint256.NewInt(0)),
		WordOne:    ir.NewConstInt(ts.Word, uint256.NewInt(1)),
		WordMax:    ir.NewConstInt(ts.Word, allOnes),
		GasMax:     ir.NewConstIntSigned(ts.Gas, 1<<63-1),
		StackLimit: ir.NewConstInt(ts.Size, uint256.NewInt(StackLimit)),
	}
	for _, code := range ReturnCodes() {
		c.codes[code] = ir.NewConstIntSigned(ts.MainReturn, int64(code))
	}
	return c, nil
}

// Word returns v as a Word constant.
func (c *Constants) Word(v *uint256.Int) *ir.ConstInt {
	return ir.NewConstInt(c.types.Word, v)
}

// Size returns n as a Size constant. Negative n is rejected.
func (c *Constants) Size(n int) (*ir.ConstInt, error) {
	u, err := safecast.Conv[uint64](n)
	if err != nil {
		return nil, fmt.Errorf("size constant %d: %w", n, err)
	}
	return ir.NewConstInt(c.types.Size, uint256.NewInt(u)), nil
}

// Code returns the MainReturn constant for code.
func (c *Constants) Code(code ReturnCode) *ir.ConstInt {
	if v, ok := c.codes[code]; ok {
		return v
	}
	return ir.NewConstIntSigned(c.types.MainReturn, int64(code))
}
