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
	"errors"
	"testing"

	"github.com/pdxjjb/m6800asm/pkg/token"
)

func reg(r token.Register) token.Token {
	return token.Token{Kind: token.RegisterKind, Register: r}
}

func imm8(text string) token.Token {
	return token.Token{Kind: token.ImmUint8, Text: text}
}

func dir(text string) token.Token {
	return token.Token{Kind: token.DirAddrUint8, Text: text}
}

func ext(text string) token.Token {
	return token.Token{Kind: token.ExtAddrUint16, Text: text}
}

func comma() token.Token {
	return token.Token{Kind: token.Comma}
}

func disp(text string) token.Token {
	return token.Token{Kind: token.DispAddrInt8, Text: text}
}

func TestDispatchLDAImmediate(t *testing.T) {
	regs := NewRegisters(0)
	ops := []token.Token{reg(token.A), imm8("#$10")}

	out, err := Dispatch(token.LDA, ops, regs, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x86, 0x10}
	if !bytesEqual(out, want) {
		t.Errorf("got % X, want % X", out, want)
	}
	if regs.AccA.Num != 0x10 {
		t.Errorf("got AccA %#x, want 0x10", regs.AccA.Num)
	}
	if regs.SR[FlagZ] {
		t.Errorf("Z flag should be clear for a nonzero load")
	}
	if regs.SR[FlagO] {
		t.Errorf("O flag must always clear on LDA")
	}
}

func TestDispatchABAFlags(t *testing.T) {
	regs := NewRegisters(0)
	regs.AccA = regs.AccA.ResetRaw().Add(0xF0)
	regs.AccB = regs.AccB.ResetRaw().Add(0x20)

	out, err := Dispatch(token.ABA, nil, regs, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0] != 0x1B {
		t.Errorf("got % X, want [0x1B]", out)
	}
	if regs.AccA.Num != 0x10 {
		t.Errorf("got AccA %#x, want 0x10 (0xF0+0x20 wraps)", regs.AccA.Num)
	}
	if !regs.SR[FlagC] {
		t.Errorf("expected carry out of 0xF0+0x20")
	}
}

func TestDispatchADCCarryWrap(t *testing.T) {
	regs := NewRegisters(0)
	regs.AccA = regs.AccA.ResetRaw().Add(0xFF)
	regs.SR[FlagC] = true

	ops := []token.Token{reg(token.A), imm8("#$00")}
	_, err := Dispatch(token.ADC, ops, regs, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if regs.AccA.Num != 0x00 {
		t.Errorf("got AccA %#x, want 0x00 (0xFF+0+carry wraps)", regs.AccA.Num)
	}
	if !regs.SR[FlagC] {
		t.Errorf("expected carry out of 0xFF+1")
	}
	if !regs.SR[FlagZ] {
		t.Errorf("expected Z set for a zero result")
	}
	if !regs.SR[FlagAC] {
		t.Errorf("expected AC set: 0xFF + 0x00 + carry-in crosses the nibble boundary")
	}
}

// TestDispatchADCCarryInIsPartOfTheOperand pins down the carry-in's
// contribution to AC: 0x0F + 0x00 alone doesn't cross the nibble
// boundary, but folding in the pending carry does.
func TestDispatchADCCarryInIsPartOfTheOperand(t *testing.T) {
	regs := NewRegisters(0)
	regs.AccA = regs.AccA.ResetRaw().Add(0x0F)
	regs.SR[FlagC] = true

	_, err := Dispatch(token.ADC, []token.Token{reg(token.A), imm8("#$00")}, regs, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if regs.AccA.Num != 0x10 {
		t.Errorf("got AccA %#x, want 0x10", regs.AccA.Num)
	}
	if !regs.SR[FlagAC] {
		t.Errorf("expected AC set: 0x0F + 0x00 + carry-in = 0x10 crosses the nibble boundary")
	}
}

// TestDispatchSBCCarryInIsPartOfTheOperand mirrors the ADC case for
// SBC's borrow-out-of-bit-3 computation.
func TestDispatchSBCCarryInIsPartOfTheOperand(t *testing.T) {
	regs := NewRegisters(0)
	regs.AccA = regs.AccA.ResetRaw().Add(0x10)
	regs.SR[FlagC] = true

	_, err := Dispatch(token.SBC, []token.Token{reg(token.A), imm8("#$00")}, regs, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if regs.AccA.Num != 0x0F {
		t.Errorf("got AccA %#x, want 0x0F", regs.AccA.Num)
	}
	if !regs.SR[FlagAC] {
		t.Errorf("expected AC set: borrowing the carry-in out of 0x10's bit 3 underflows the low nibble")
	}
}

func TestDispatchIndexedAddressing(t *testing.T) {
	regs := NewRegisters(0)
	regs.X = regs.X.ResetRaw().Add(0x2000)
	regs.Memory[0x2010] = 0x42

	ops := []token.Token{reg(token.A), dir("$10"), comma(), reg(token.X)}
	out, err := Dispatch(token.LDA, ops, regs, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0xA6, 0x10}
	if !bytesEqual(out, want) {
		t.Errorf("got % X, want % X", out, want)
	}
	if regs.AccA.Num != 0x42 {
		t.Errorf("got AccA %#x, want 0x42 (loaded from X+$10)", regs.AccA.Num)
	}
}

func TestDispatchExtendedStore(t *testing.T) {
	regs := NewRegisters(0)
	regs.AccB = regs.AccB.ResetRaw().Add(0x99)

	ops := []token.Token{reg(token.B), ext("$1234")}
	out, err := Dispatch(token.STA, ops, regs, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0xF7, 0x12, 0x34}
	if !bytesEqual(out, want) {
		t.Errorf("got % X, want % X", out, want)
	}
	if regs.Memory[0x1234] != 0x99 {
		t.Errorf("got memory[$1234] = %#x, want 0x99", regs.Memory[0x1234])
	}
}

func TestDispatchBranchDisplacement(t *testing.T) {
	regs := NewRegisters(0x8000)
	out, err := Dispatch(token.BNE, []token.Token{disp("TARGET")}, regs, 0x8010)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || out[0] != 0x26 {
		t.Fatalf("got % X, want opcode 0x26 plus displacement", out)
	}
	// PC after the 2-byte branch is $8002; target $8010 is 14 bytes ahead.
	if int8(out[1]) != 14 {
		t.Errorf("got displacement %d, want 14", int8(out[1]))
	}
}

func TestDispatchBranchDisplacementOutOfRange(t *testing.T) {
	regs := NewRegisters(0x0000)
	_, err := Dispatch(token.BRA, []token.Token{disp("FAR")}, regs, 0x0100)
	if !errors.Is(err, ErrDisplacementRange) {
		t.Fatalf("got %v, want ErrDisplacementRange", err)
	}
}

func TestDaaAdjustsAfterBCDAdd(t *testing.T) {
	regs := NewRegisters(0)
	// 0x09 + 0x01 = 0x0A, not a valid BCD digit: DAA corrects to 0x10.
	regs.AccA = regs.AccA.ResetRaw().Add(0x09)
	_, err := Dispatch(token.ADD, []token.Token{reg(token.A), imm8("#$01")}, regs, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := Dispatch(token.DAA, nil, regs, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if regs.AccA.Num != 0x10 {
		t.Errorf("got AccA %#x after DAA, want 0x10", regs.AccA.Num)
	}
}

func TestLengthDependsOnlyOnMode(t *testing.T) {
	cases := []struct {
		mnemonic token.Mnemonic
		ops      []token.Token
		want     int
	}{
		{token.LDA, []token.Token{reg(token.A), imm8("#$10")}, 2},
		{token.LDA, []token.Token{reg(token.A), dir("$10")}, 2},
		{token.LDA, []token.Token{reg(token.A), ext("$1234")}, 3},
		{token.LDA, []token.Token{reg(token.A), dir("$10"), comma(), reg(token.X)}, 2},
		{token.NOP, nil, 1},
		{token.BNE, []token.Token{disp("X")}, 2},
	}
	for _, c := range cases {
		n, err := Length(c.mnemonic, c.ops)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", c.mnemonic, err)
			continue
		}
		if n != c.want {
			t.Errorf("%s: got length %d, want %d", c.mnemonic, n, c.want)
		}
	}
}

// TestResolverAgreement checks ResolveMode and ResolveModeStateMachine
// agree on every addressing-mode shape spec.md §4.3 describes; the two
// formulations exist specifically to be checked against each other.
func TestResolverAgreement(t *testing.T) {
	cases := []struct {
		name     string
		mnemonic token.Mnemonic
		ops      []token.Token
	}{
		{"immediate", token.LDA, []token.Token{reg(token.A), imm8("#$10")}},
		{"direct", token.LDA, []token.Token{reg(token.A), dir("$10")}},
		{"extended", token.LDA, []token.Token{reg(token.A), ext("$1234")}},
		{"indexed", token.LDA, []token.Token{reg(token.A), dir("$10"), comma(), reg(token.X)}},
		{"accumulator-only", token.ASL, []token.Token{reg(token.A)}},
		{"inherent", token.NOP, nil},
		{"branch", token.BNE, []token.Token{disp("X")}},
	}
	for _, c := range cases {
		got, err1 := ResolveMode(c.mnemonic, c.ops)
		want, err2 := ResolveModeStateMachine(c.mnemonic, c.ops)
		if (err1 == nil) != (err2 == nil) {
			t.Errorf("%s: ResolveMode err=%v, ResolveModeStateMachine err=%v", c.name, err1, err2)
			continue
		}
		if err1 == nil && got != want {
			t.Errorf("%s: ResolveMode=%s, ResolveModeStateMachine=%s", c.name, got, want)
		}
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
