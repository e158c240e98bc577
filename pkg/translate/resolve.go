/*
Copyright © 2022 Jeff Berkowitz (pdxjjb@gmail.com)

This program is free software: you can redistribute it and/or modify it
under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful, but
WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public
License along with this program. If not, see
<http://www.gnu.org/licenses/>.
*/

package translate

import (
	"github.com/pkg/errors"

	"github.com/pdxjjb/m6800asm/pkg/token"
)

// ModeError reports that an operand sequence matches no addressing mode.
type ModeError struct {
	Mnemonic token.Mnemonic
	Operands []token.Token
}

func (e *ModeError) Error() string {
	return errors.Errorf("no addressing mode for %s with %d operand(s)", e.Mnemonic, len(e.Operands)).Error()
}

// isAccumulator reports whether t is the bare register A or B.
func isAccumulator(t token.Token) bool {
	return t.Kind == token.RegisterKind && (t.Register == token.A || t.Register == token.B)
}

// stripSelector removes a leading accumulator-selector register (A or B)
// from ops, the way "ADD A $10" carries A only to pick AccA vs AccB, not
// as part of the addressing-mode decision itself.
func stripSelector(ops []token.Token) []token.Token {
	if len(ops) > 0 && isAccumulator(ops[0]) {
		return ops[1:]
	}
	return ops
}

// ResolveMode implements spec.md §4.3's direct classifier: rules
// evaluated in order, first match wins.
func ResolveMode(mnemonic token.Mnemonic, ops []token.Token) (token.Mode, error) {
	if token.BranchMnemonics[mnemonic] && len(ops) == 1 && ops[0].Kind == token.DispAddrInt8 {
		return token.REL, nil
	}
	for _, o := range ops {
		if o.Kind == token.ImmUint8 || o.Kind == token.ImmUint16 {
			return token.IMM, nil
		}
	}
	rest := stripSelector(ops)
	if len(rest) == 3 &&
		rest[0].Kind == token.DirAddrUint8 &&
		rest[1].Kind == token.Comma &&
		rest[2].Kind == token.RegisterKind && rest[2].Register == token.X {
		return token.IDX, nil
	}
	if len(rest) == 1 && rest[0].Kind == token.DirAddrUint8 {
		return token.DIR, nil
	}
	if len(rest) == 1 && rest[0].Kind == token.ExtAddrUint16 {
		return token.EXT, nil
	}
	if len(rest) == 0 && len(ops) == 1 && isAccumulator(ops[0]) {
		return token.ACC, nil
	}
	if len(ops) == 0 {
		return token.INH, nil
	}
	return token.Mode{}, &ModeError{Mnemonic: mnemonic, Operands: ops}
}

// smState is the state-machine variant's state.
type smState struct{ s int }

var (
	smStart    = smState{0}
	smSawReg   = smState{1}
	smSawLit   = smState{2}
	smSawComma = smState{3}
	smSawX     = smState{4}
	smError    = smState{5}
)

// ResolveModeStateMachine is spec.md §4.3's second, equivalent
// formulation: it walks the operand sequence token by token through
// START → SAW_REG → SAW_LIT → SAW_COMMA → SAW_X, existing only for
// testability against ResolveMode - both MUST agree on every input.
func ResolveModeStateMachine(mnemonic token.Mnemonic, ops []token.Token) (token.Mode, error) {
	if token.BranchMnemonics[mnemonic] && len(ops) == 1 && ops[0].Kind == token.DispAddrInt8 {
		return token.REL, nil
	}
	for _, o := range ops {
		if o.Kind == token.ImmUint8 || o.Kind == token.ImmUint16 {
			return token.IMM, nil
		}
	}

	state := smStart
	for _, o := range ops {
		switch {
		case state == smStart && isAccumulator(o):
			state = smSawReg
		case (state == smStart || state == smSawReg) &&
			(o.Kind == token.DirAddrUint8 || o.Kind == token.ExtAddrUint16):
			state = smSawLit
		case state == smSawLit && o.Kind == token.Comma:
			state = smSawComma
		case state == smSawComma && o.Kind == token.RegisterKind && o.Register == token.X:
			state = smSawX
		default:
			state = smError
		}
	}

	switch state {
	case smSawX:
		// Indexed addressing takes an 8-bit offset only.
		if ops[len(ops)-3].Kind == token.DirAddrUint8 {
			return token.IDX, nil
		}
	case smSawLit:
		// Distinguish DIR vs EXT by the literal kind actually seen.
		last := ops[len(ops)-1]
		if last.Kind == token.ExtAddrUint16 {
			return token.EXT, nil
		}
		return token.DIR, nil
	case smSawReg:
		return token.ACC, nil
	case smStart:
		if len(ops) == 0 {
			return token.INH, nil
		}
	}
	return token.Mode{}, &ModeError{Mnemonic: mnemonic, Operands: ops}
}
