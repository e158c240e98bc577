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

// Package translate is pass 2's back end: it resolves each parsed
// instruction's addressing mode, encodes its opcode and operand bytes,
// and applies its register and flag effects to a simulated Registers
// file, per spec.md §4.4/§4.5. The assembler runs instructions strictly
// in source order - PC always advances by the instruction just encoded,
// regardless of what a branch or jump mnemonic would do on real
// hardware, since this is a translator, not an emulator: there is no
// control-flow redirection to simulate.
package translate

import (
	"github.com/pkg/errors"

	"github.com/pdxjjb/m6800asm/pkg/fixedint"
	"github.com/pdxjjb/m6800asm/pkg/parser"
	"github.com/pdxjjb/m6800asm/pkg/token"
)

// ErrDisplacementRange reports a branch target more than 127 bytes ahead
// or 128 bytes behind the instruction following the branch.
var ErrDisplacementRange = errors.New("translate: branch displacement out of range")

// decoded is one instruction's operands reduced to what encoding and
// register effects both need: which accumulator it selects, and the raw
// bytes of its single IMM/DIR/EXT/IDX-offset literal, if any.
type decoded struct {
	isA     bool
	literal []byte
}

func selectsA(operands []token.Token) bool {
	for _, o := range operands {
		if o.Kind != token.RegisterKind {
			continue
		}
		if o.Register == token.A {
			return true
		}
		if o.Register == token.B {
			return false
		}
	}
	return true
}

// Length reports the encoded byte length mnemonic/operands will produce.
// An instruction's size depends only on its mnemonic and addressing
// mode, never on an operand's resolved value, so this needs neither a
// live Registers nor a resolved branch target - pkg/asm uses it to lay
// out label addresses before any branch target can be known.
func Length(mnemonic token.Mnemonic, operands []token.Token) (int, error) {
	if token.BranchMnemonics[mnemonic] {
		return 2, nil
	}
	mode, err := ResolveMode(mnemonic, operands)
	if err != nil {
		return 0, err
	}
	d, err := decodeOperands(operands)
	if err != nil {
		return 0, err
	}
	out, err := encodeBytes(mnemonic, mode, d)
	if err != nil {
		return 0, err
	}
	return len(out), nil
}

func decodeOperands(operands []token.Token) (decoded, error) {
	d := decoded{isA: selectsA(operands)}
	for _, o := range operands {
		switch o.Kind {
		case token.ImmUint8, token.ImmUint16, token.DirAddrUint8, token.ExtAddrUint16:
			b, err := parser.ParseImmediateValue(o.Text)
			if err != nil {
				return decoded{}, errors.Wrapf(err, "decoding operand %q", o.Text)
			}
			d.literal = b
			return d, nil
		}
	}
	return d, nil
}

// Dispatch encodes mnemonic/operands into machine code and applies its
// simulated register and flag effects to regs. target is the resolved
// absolute address a branch or BSR operand names; callers that already
// know mnemonic isn't a branch may pass 0.
func Dispatch(mnemonic token.Mnemonic, operands []token.Token, regs *Registers, target uint16) ([]byte, error) {
	if token.BranchMnemonics[mnemonic] {
		return dispatchBranch(mnemonic, regs, target)
	}

	mode, err := ResolveMode(mnemonic, operands)
	if err != nil {
		return nil, err
	}
	d, err := decodeOperands(operands)
	if err != nil {
		return nil, err
	}
	out, err := encodeBytes(mnemonic, mode, d)
	if err != nil {
		return nil, err
	}

	applyEffects(mnemonic, mode, d, regs, len(out))
	regs.PC = regs.PC.ResetRaw().Add(len(out))
	return out, nil
}

func dispatchBranch(mnemonic token.Mnemonic, regs *Registers, target uint16) ([]byte, error) {
	opcode, ok := branchOpcodes[mnemonic]
	if !ok {
		return nil, errors.Errorf("%s is not a branch mnemonic", mnemonic)
	}
	pcAfter := int(regs.PC.Num) + 2
	disp := int(target) - pcAfter
	if disp < -128 || disp > 127 {
		return nil, errors.Wrapf(ErrDisplacementRange, "%s to $%04X from $%04X", mnemonic, target, regs.PC.Num)
	}
	regs.PC = regs.PC.ResetRaw().Add(2)
	return []byte{opcode, byte(int8(disp))}, nil
}

func unsupportedMode(mnemonic token.Mnemonic, mode token.Mode) error {
	return errors.Errorf("%s does not support addressing mode %s", mnemonic, mode)
}

// encodeBytes selects the opcode byte(s) for mnemonic/mode from the
// declarative tables in opcodes.go and appends d's literal operand bytes,
// per spec.md §9's preference for a lookup table over one function per
// mnemonic.
func encodeBytes(mnemonic token.Mnemonic, mode token.Mode, d decoded) ([]byte, error) {
	if opc, ok := inherentOpcodes[mnemonic]; ok {
		return []byte{opc}, nil
	}
	if pp, ok := pushPullOpcodes[mnemonic]; ok {
		return []byte{pp[d.isA]}, nil
	}
	if acc, ok := accumulatorOpcodes[mnemonic]; ok {
		opc, found := acc.lookup(mode, d.isA)
		if !found {
			return nil, unsupportedMode(mnemonic, mode)
		}
		return append([]byte{opc}, d.literal...), nil
	}

	var table map[token.Mode]byte
	switch mnemonic {
	case token.CPX:
		table = cpxOpcodes
	case token.LDS:
		table = ldsOpcodes
	case token.LDX:
		table = ldxOpcodes
	case token.STS:
		table = stsOpcodes
	case token.STX:
		table = stxOpcodes
	case token.JMP:
		table = jmpOpcodes
	case token.JSR:
		table = jsrOpcodes
	default:
		return nil, errors.Errorf("translate: unsupported mnemonic %s", mnemonic)
	}
	opc, ok := table[mode]
	if !ok {
		return nil, unsupportedMode(mnemonic, mode)
	}
	return append([]byte{opc}, d.literal...), nil
}

func operandInt(d decoded) int {
	v := 0
	for _, b := range d.literal {
		v = v<<8 | int(b)
	}
	return v
}

func effectiveAddress(mode token.Mode, d decoded, regs *Registers) (uint16, bool) {
	switch mode {
	case token.DIR, token.EXT:
		return uint16(operandInt(d)), true
	case token.IDX:
		return regs.X.Num + uint16(operandInt(d)), true
	}
	return 0, false
}

func memoryOperand(mode token.Mode, d decoded, regs *Registers) int {
	if mode == token.IMM {
		return operandInt(d)
	}
	if addr, ok := effectiveAddress(mode, d, regs); ok {
		return int(regs.readMemory(addr))
	}
	return 0
}

func memoryOperand16(mode token.Mode, d decoded, regs *Registers) int {
	if mode == token.IMM {
		return operandInt(d)
	}
	if addr, ok := effectiveAddress(mode, d, regs); ok {
		return int(regs.readMemory(addr))<<8 | int(regs.readMemory(addr+1))
	}
	return 0
}

func updateZS8(regs *Registers, v uint8) {
	regs.SR[FlagZ] = v == 0
	regs.SR[FlagS] = v&0x80 != 0
}

func updateZS16(regs *Registers, v uint16) {
	regs.SR[FlagZ] = v == 0
	regs.SR[FlagS] = v&0x8000 != 0
}

func bit3CarryOut(before uint8, operand int, subtract bool) bool {
	lo := int(before & 0x0F)
	op := operand & 0x0F
	if subtract {
		return lo-op < 0
	}
	return lo+op > 0x0F
}

// updateArith8 sets C/Z/S/O/AC from an 8-bit add or subtract, per
// spec.md §4.5: C from the unmasked accumulator, Z/S from the masked
// result, O from a sign disagreement between the operands that the
// result doesn't share, AC from a carry or borrow out of bit 3.
func updateArith8(regs *Registers, before, after fixedint.U8, operand int, subtract bool) {
	regs.SR[FlagC] = fixedint.CarryOut8(after.Raw)
	updateZS8(regs, after.Num)

	signBefore := before.Num&0x80 != 0
	signOperand := operand&0x80 != 0
	signAfter := after.Num&0x80 != 0
	if subtract {
		regs.SR[FlagO] = signBefore != signOperand && signAfter != signBefore
	} else {
		regs.SR[FlagO] = signBefore == signOperand && signAfter != signBefore
	}
	regs.SR[FlagAC] = bit3CarryOut(before.Num, operand, subtract)
}

func shift(mnemonic token.Mnemonic, v uint8, carryIn bool) (uint8, bool) {
	switch mnemonic {
	case token.ASL:
		return v << 1, v&0x80 != 0
	case token.LSR:
		return v >> 1, v&0x01 != 0
	case token.ASR:
		return (v >> 1) | (v & 0x80), v&0x01 != 0
	case token.ROL:
		var cin uint8
		if carryIn {
			cin = 1
		}
		return (v << 1) | cin, v&0x80 != 0
	case token.ROR:
		var cin uint8
		if carryIn {
			cin = 0x80
		}
		return (v >> 1) | cin, v&0x01 != 0
	}
	return v, false
}

func setSRFromByte(regs *Registers, b uint8) {
	for i := 0; i < 6; i++ {
		regs.SR[i] = b&(1<<uint(i)) != 0
	}
}

func srByte(regs *Registers) uint8 {
	var b uint8
	for i := 0; i < 6; i++ {
		if regs.SR[i] {
			b |= 1 << uint(i)
		}
	}
	return b
}

// daa implements the standard MC6800 BCD-adjust algorithm: opcode.py
// never got a working implementation to port (the Processor decorator
// it relies on lives in a data.py this pack doesn't carry), so this
// follows the reference nibble-correction sequence directly.
func daa(regs *Registers) {
	a := regs.AccA.Num
	lo := a & 0x0F
	hi := (a & 0xF0) >> 4
	var adjust uint8
	carry := regs.SR[FlagC]
	if lo > 9 || regs.SR[FlagAC] {
		adjust |= 0x06
	}
	if hi > 9 || carry || (hi >= 9 && lo > 9) {
		adjust |= 0x60
		carry = true
	}
	sum := int(a) + int(adjust)
	regs.AccA = fixedint.U8{Raw: sum, Num: uint8(sum)}
	updateZS8(regs, regs.AccA.Num)
	regs.SR[FlagC] = carry
}

// applyEffects mutates regs per mnemonic's real 6800 register and flag
// behavior, grouped by category in one switch (grounded on
// oisee-z80-optimizer/pkg/cpu/exec.go's single-dispatch-switch idiom)
// rather than one function per mnemonic. instrLen is the just-encoded
// instruction's total byte length, needed for JSR's return-address push.
func applyEffects(mnemonic token.Mnemonic, mode token.Mode, d decoded, regs *Registers, instrLen int) {
	acc := func() fixedint.U8 {
		if d.isA {
			return regs.AccA
		}
		return regs.AccB
	}
	setAcc := func(v fixedint.U8) {
		if d.isA {
			regs.AccA = v
		} else {
			regs.AccB = v
		}
	}

	switch mnemonic {
	case token.LDA:
		v := memoryOperand(mode, d, regs)
		n := fixedint.NewU8(v)
		setAcc(n)
		updateZS8(regs, n.Num)
		regs.SR[FlagO] = false

	case token.STA:
		n := acc()
		if addr, ok := effectiveAddress(mode, d, regs); ok {
			regs.writeMemory(addr, n.Num)
		}
		updateZS8(regs, n.Num)
		regs.SR[FlagO] = false

	case token.ADD, token.ADC:
		before := acc()
		v := memoryOperand(mode, d, regs)
		carryIn := 0
		if mnemonic == token.ADC && regs.SR[FlagC] {
			carryIn = 1
		}
		operand := v + carryIn
		after := before.ResetRaw().Add(operand)
		setAcc(after)
		updateArith8(regs, before, after, operand, false)

	case token.SUB, token.SBC, token.CMP:
		before := acc()
		v := memoryOperand(mode, d, regs)
		carryIn := 0
		if mnemonic == token.SBC && regs.SR[FlagC] {
			carryIn = 1
		}
		operand := v + carryIn
		after := before.ResetRaw().Sub(operand)
		if mnemonic != token.CMP {
			setAcc(after)
		}
		updateArith8(regs, before, after, operand, true)

	case token.AND, token.BIT:
		before := acc()
		v := memoryOperand(mode, d, regs)
		result := before.Num & uint8(v)
		if mnemonic == token.AND {
			setAcc(fixedint.NewU8(int(result)))
		}
		updateZS8(regs, result)
		regs.SR[FlagO] = false

	case token.ORA:
		before := acc()
		v := memoryOperand(mode, d, regs)
		after := fixedint.NewU8(int(before.Num | uint8(v)))
		setAcc(after)
		updateZS8(regs, after.Num)
		regs.SR[FlagO] = false

	case token.EOR:
		before := acc()
		v := memoryOperand(mode, d, regs)
		after := fixedint.NewU8(int(before.Num ^ uint8(v)))
		setAcc(after)
		updateZS8(regs, after.Num)
		regs.SR[FlagO] = false

	case token.TST:
		updateZS8(regs, acc().Num)
		regs.SR[FlagC] = false
		regs.SR[FlagO] = false

	case token.CLR:
		setAcc(fixedint.NewU8(0))
		regs.SR[FlagZ] = true
		regs.SR[FlagS] = false
		regs.SR[FlagC] = false
		regs.SR[FlagO] = false

	case token.COM:
		after := fixedint.NewU8(int(^acc().Num))
		setAcc(after)
		updateZS8(regs, after.Num)
		regs.SR[FlagC] = true
		regs.SR[FlagO] = false

	case token.NEG:
		before := acc()
		raw := 0 - int(before.Num)
		after := fixedint.U8{Raw: raw, Num: uint8(raw)}
		setAcc(after)
		updateZS8(regs, after.Num)
		regs.SR[FlagC] = after.Num != 0
		regs.SR[FlagO] = after.Num == 0x80

	case token.INC:
		before := acc()
		after := before.ResetRaw().Add(1)
		setAcc(after)
		updateZS8(regs, after.Num)
		regs.SR[FlagO] = before.Num == 0x7F

	case token.DEC:
		before := acc()
		after := before.ResetRaw().Sub(1)
		setAcc(after)
		updateZS8(regs, after.Num)
		regs.SR[FlagO] = before.Num == 0x80

	case token.ASL, token.ASR, token.LSR, token.ROL, token.ROR:
		before := acc().Num
		after, carryOut := shift(mnemonic, before, regs.SR[FlagC])
		setAcc(fixedint.NewU8(int(after)))
		updateZS8(regs, after)
		regs.SR[FlagC] = carryOut
		regs.SR[FlagO] = regs.SR[FlagS] != regs.SR[FlagC]

	case token.ABA:
		after := regs.AccA.ResetRaw().Add(int(regs.AccB.Num))
		updateArith8(regs, regs.AccA, after, int(regs.AccB.Num), false)
		regs.AccA = after

	case token.SBA:
		before := regs.AccA
		after := before.ResetRaw().Sub(int(regs.AccB.Num))
		updateArith8(regs, before, after, int(regs.AccB.Num), true)
		regs.AccA = after

	case token.CBA:
		before := regs.AccA
		after := before.ResetRaw().Sub(int(regs.AccB.Num))
		updateArith8(regs, before, after, int(regs.AccB.Num), true)

	case token.TAB:
		regs.AccB = regs.AccA.ResetRaw()
		updateZS8(regs, regs.AccB.Num)
		regs.SR[FlagO] = false

	case token.TBA:
		regs.AccA = regs.AccB.ResetRaw()
		updateZS8(regs, regs.AccA.Num)
		regs.SR[FlagO] = false

	case token.TAP:
		setSRFromByte(regs, regs.AccA.Num)

	case token.TPA:
		regs.AccA = fixedint.NewU8(int(srByte(regs)))

	case token.TSX:
		regs.X = regs.SP.ResetRaw().Add(1)

	case token.TXS:
		regs.SP = regs.X.ResetRaw().Sub(1)

	case token.INX:
		regs.X = regs.X.ResetRaw().Add(1)
		regs.SR[FlagZ] = regs.X.Num == 0

	case token.DEX:
		regs.X = regs.X.ResetRaw().Sub(1)
		regs.SR[FlagZ] = regs.X.Num == 0

	case token.INS:
		regs.SP = regs.SP.ResetRaw().Add(1)

	case token.DES:
		regs.SP = regs.SP.ResetRaw().Sub(1)

	case token.CPX:
		before := regs.X
		v := memoryOperand16(mode, d, regs)
		after := before.ResetRaw().Sub(v)
		updateZS16(regs, after.Num)
		regs.SR[FlagC] = fixedint.CarryOut16(after.Raw)
		signBefore := before.Num&0x8000 != 0
		signOperand := v&0x8000 != 0
		signAfter := after.Num&0x8000 != 0
		regs.SR[FlagO] = signBefore != signOperand && signAfter != signBefore

	case token.LDX:
		v := memoryOperand16(mode, d, regs)
		regs.X = fixedint.NewU16(v)
		updateZS16(regs, regs.X.Num)
		regs.SR[FlagO] = false

	case token.LDS:
		v := memoryOperand16(mode, d, regs)
		regs.SP = fixedint.NewU16(v)
		updateZS16(regs, regs.SP.Num)
		regs.SR[FlagO] = false

	case token.STX:
		if addr, ok := effectiveAddress(mode, d, regs); ok {
			regs.writeMemory16(addr, regs.X.Num)
		}
		updateZS16(regs, regs.X.Num)
		regs.SR[FlagO] = false

	case token.STS:
		if addr, ok := effectiveAddress(mode, d, regs); ok {
			regs.writeMemory16(addr, regs.SP.Num)
		}
		updateZS16(regs, regs.SP.Num)
		regs.SR[FlagO] = false

	case token.PSH:
		regs.writeMemory(regs.SP.Num, acc().Num)
		regs.SP = regs.SP.ResetRaw().Sub(1)

	case token.PUL:
		regs.SP = regs.SP.ResetRaw().Add(1)
		setAcc(fixedint.NewU8(int(regs.readMemory(regs.SP.Num))))

	case token.JSR:
		returnAddr := regs.PC.Num + uint16(instrLen)
		regs.writeMemory16(regs.SP.Num-1, returnAddr)
		regs.SP = regs.SP.ResetRaw().Sub(2)

	case token.RTS, token.RTI:
		regs.SP = regs.SP.ResetRaw().Add(2)

	case token.CLC:
		regs.SR[FlagC] = false
	case token.SEC:
		regs.SR[FlagC] = true
	case token.CLI:
		regs.SR[FlagI] = false
	case token.SEI:
		regs.SR[FlagI] = true
	case token.CLV:
		regs.SR[FlagO] = false
	case token.SEV:
		regs.SR[FlagO] = true

	case token.DAA:
		daa(regs)

	case token.SWI:
		regs.SR[FlagI] = true

	case token.NOP, token.JMP, token.WAI:
		// No register or flag effect.
	}
}
