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

import "github.com/pdxjjb/m6800asm/pkg/token"

// accOpcodes holds an accumulator instruction's opcode per addressing
// mode, split by destination register (A or B). Modes the mnemonic does
// not support are left at the zero entry; lookup reports that absence.
type accOpcodes struct {
	imm, dir, ext, idx, acc map[bool]byte // keyed by isA
}

func accTable(imm, dir, ext, idx, acc [2]byte) accOpcodes {
	return accOpcodes{
		imm: map[bool]byte{true: imm[0], false: imm[1]},
		dir: map[bool]byte{true: dir[0], false: dir[1]},
		ext: map[bool]byte{true: ext[0], false: ext[1]},
		idx: map[bool]byte{true: idx[0], false: idx[1]},
		acc: map[bool]byte{true: acc[0], false: acc[1]},
	}
}

func (a accOpcodes) lookup(mode token.Mode, isA bool) (byte, bool) {
	var m map[bool]byte
	switch mode {
	case token.IMM:
		m = a.imm
	case token.DIR:
		m = a.dir
	case token.EXT:
		m = a.ext
	case token.IDX:
		m = a.idx
	case token.ACC:
		m = a.acc
	}
	if m == nil {
		return 0, false
	}
	b, ok := m[isA]
	return b, ok && b != 0
}

// accumulatorOpcodes is the ISA table for the ten IMM/DIR/EXT/IDX
// accumulator ops plus BIT, per spec.md §4.4's opcode table. {0,0} marks
// a mode the mnemonic doesn't support.
var accumulatorOpcodes = map[token.Mnemonic]accOpcodes{
	token.LDA: accTable([2]byte{0x86, 0xC6}, [2]byte{0x96, 0xD6}, [2]byte{0xB6, 0xF6}, [2]byte{0xA6, 0xE6}, [2]byte{0, 0}),
	token.STA: accTable([2]byte{0, 0}, [2]byte{0x97, 0xD7}, [2]byte{0xB7, 0xF7}, [2]byte{0xA7, 0xE7}, [2]byte{0, 0}),
	token.ADD: accTable([2]byte{0x8B, 0xCB}, [2]byte{0x9B, 0xDB}, [2]byte{0xBB, 0xFB}, [2]byte{0xAB, 0xEB}, [2]byte{0, 0}),
	token.ADC: accTable([2]byte{0x89, 0xC9}, [2]byte{0x99, 0xD9}, [2]byte{0xB9, 0xF9}, [2]byte{0xA9, 0xE9}, [2]byte{0, 0}),
	token.AND: accTable([2]byte{0x84, 0xC4}, [2]byte{0x94, 0xD4}, [2]byte{0xB4, 0xF4}, [2]byte{0xA4, 0xE4}, [2]byte{0, 0}),
	token.CMP: accTable([2]byte{0x81, 0xC1}, [2]byte{0x91, 0xD1}, [2]byte{0xB1, 0xF1}, [2]byte{0xA1, 0xE1}, [2]byte{0, 0}),
	token.SUB: accTable([2]byte{0x80, 0xC0}, [2]byte{0x90, 0xD0}, [2]byte{0xB0, 0xF0}, [2]byte{0xA0, 0xE0}, [2]byte{0, 0}),
	token.SBC: accTable([2]byte{0x82, 0xC2}, [2]byte{0x92, 0xD2}, [2]byte{0xB2, 0xF2}, [2]byte{0xA2, 0xE2}, [2]byte{0, 0}),
	token.ORA: accTable([2]byte{0x8A, 0xCA}, [2]byte{0x9A, 0xDA}, [2]byte{0xBA, 0xFA}, [2]byte{0xAA, 0xEA}, [2]byte{0, 0}),
	token.EOR: accTable([2]byte{0x88, 0xC8}, [2]byte{0x98, 0xD8}, [2]byte{0xB8, 0xF8}, [2]byte{0xA8, 0xE8}, [2]byte{0, 0}),
	// BIT is absent from opcode.py (not completed in the original) and
	// from spec.md's table; its opcodes are the standard MC6800 values,
	// the same row shape as AND - see DESIGN.md.
	token.BIT: accTable([2]byte{0x85, 0xC5}, [2]byte{0x95, 0xD5}, [2]byte{0xB5, 0xF5}, [2]byte{0xA5, 0xE5}, [2]byte{0, 0}),

	// ACC-only single-register ops: one opcode per register, no operand.
	token.ASL: accTable([2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0x48, 0x58}),
	token.ASR: accTable([2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0x47, 0x57}),
	token.LSR: accTable([2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0x44, 0x54}),
	token.CLR: accTable([2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0x4F, 0x5F}),
	token.COM: accTable([2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0x43, 0x53}),
	token.DEC: accTable([2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0x4A, 0x5A}),
	token.INC: accTable([2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0x4C, 0x5C}),
	token.NEG: accTable([2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0x40, 0x50}),
	token.ROL: accTable([2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0x49, 0x59}),
	token.ROR: accTable([2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0x46, 0x56}),
	token.TST: accTable([2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0, 0}, [2]byte{0x4D, 0x5D}),
}

// pushPullOpcodes: PSH/PUL take a register operand but no addressing
// mode, one opcode per register - grounded on opcode.py's psh()/pul().
var pushPullOpcodes = map[token.Mnemonic]map[bool]byte{
	token.PSH: {true: 0x36, false: 0x37},
	token.PUL: {true: 0x32, false: 0x33},
}

// inherentOpcodes: fixed single-byte, no operand, no register selection.
var inherentOpcodes = map[token.Mnemonic]byte{
	token.ABA: 0x1B, token.SBA: 0x10, token.CBA: 0x11, token.DAA: 0x19,
	token.NOP: 0x01, token.TAB: 0x16, token.TBA: 0x17, token.TAP: 0x06,
	token.TPA: 0x07, token.TSX: 0x30, token.TXS: 0x35, token.INX: 0x08,
	token.DEX: 0x09, token.INS: 0x31, token.DES: 0x34, token.CLC: 0x0C,
	token.SEC: 0x0D, token.CLI: 0x0E, token.SEI: 0x0F, token.CLV: 0x0A,
	token.SEV: 0x0B, token.RTI: 0x3B, token.RTS: 0x39, token.SWI: 0x3F,
	token.WAI: 0x3E,
}

// branchOpcodes: the 16 REL mnemonics, one byte each.
var branchOpcodes = map[token.Mnemonic]byte{
	token.BRA: 0x20, token.BHI: 0x22, token.BLS: 0x23, token.BCC: 0x24,
	token.BCS: 0x25, token.BNE: 0x26, token.BEQ: 0x27, token.BVC: 0x28,
	token.BVS: 0x29, token.BPL: 0x2A, token.BMI: 0x2B, token.BGE: 0x2C,
	token.BLT: 0x2D, token.BGT: 0x2E, token.BLE: 0x2F, token.BSR: 0x8D,
}

// cpxOpcodes: CPX has IMM/DIR/EXT but no IDX, and no A/B split (there's
// only one X register).
var cpxOpcodes = map[token.Mode]byte{token.IMM: 0x8C, token.DIR: 0x9C, token.EXT: 0xBC}

// ldsOpcodes/ldxOpcodes: LDS and LDX each have IMM/DIR forms;
// stsOpcodes/stxOpcodes: STS and STX each have DIR/EXT forms.
var ldsOpcodes = map[token.Mode]byte{token.IMM: 0x8E, token.DIR: 0x9E}
var ldxOpcodes = map[token.Mode]byte{token.IMM: 0xCE, token.DIR: 0xDE}
var stsOpcodes = map[token.Mode]byte{token.DIR: 0x9F, token.EXT: 0xBF}
var stxOpcodes = map[token.Mode]byte{token.DIR: 0xDF, token.EXT: 0xFF}

// jmpOpcodes/jsrOpcodes: EXT/IDX only, no register split.
var jmpOpcodes = map[token.Mode]byte{token.EXT: 0x7E, token.IDX: 0x6E}
var jsrOpcodes = map[token.Mode]byte{token.EXT: 0xBD, token.IDX: 0xAD}
