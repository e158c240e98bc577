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

// Package asm drives the complete two-pass assembly of one source
// string: pass 1 (pkg/lexer) builds the symbol table, a layout pass over
// pkg/parser assigns every label its real assembled address, and a final
// generation pass drives pkg/translate to produce machine code.
//
// original_source/axel/assembler.py's assemble never got further than
// returning an empty buffer - the lexer-parser-translator wiring below
// has no working original to port and is built directly from spec.md.
package asm

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/pdxjjb/m6800asm/pkg/lexer"
	"github.com/pdxjjb/m6800asm/pkg/parser"
	"github.com/pdxjjb/m6800asm/pkg/symbol"
	"github.com/pdxjjb/m6800asm/pkg/token"
	"github.com/pdxjjb/m6800asm/pkg/translate"
)

// Assembler assembles one source string starting at a configured origin
// address.
type Assembler struct {
	source string
	origin uint16
}

// New returns an Assembler for source, with instruction addresses
// starting at origin.
func New(source string, origin uint16) *Assembler {
	return &Assembler{source: source, origin: origin}
}

// Assemble runs the full pipeline and returns the assembled bytes
// together with the final register/flag state every instruction's
// simulated effect left behind.
func (a *Assembler) Assemble() ([]byte, *translate.Registers, error) {
	symbols, err := a.scan()
	if err != nil {
		return nil, nil, err
	}

	addrs, err := a.layout(symbols)
	if err != nil {
		return nil, nil, err
	}

	return a.generate(symbols, addrs)
}

// scan is pass 1: it drains a Lexer over the whole source so every label
// and variable definition it encounters is recorded in the symbol table.
func (a *Assembler) scan() (*symbol.Table, error) {
	lx := lexer.New(a.source)
	for {
		if _, ok := lx.Next(); !ok {
			return lx.Symbols(), nil
		}
	}
}

// layout runs the parser over the source once to assign every label its
// real assembled address. A branch mnemonic always encodes to 2 bytes
// and every other mnemonic's length is fixed by its addressing mode, so
// this can compute addresses without knowing any label's value yet -
// which is exactly the value this pass exists to produce.
func (a *Assembler) layout(symbols *symbol.Table) (map[string]uint16, error) {
	p := parser.New(a.source, symbols)
	addrs := make(map[string]uint16)
	pc := a.origin

	for {
		instr, more, err := p.Line()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		if instr == nil {
			continue
		}
		if instr.Label != "" {
			addrs[instr.Label] = pc
		}
		n, err := translate.Length(instr.Mnemonic, instr.Operands)
		if err != nil {
			return nil, err
		}
		pc += uint16(n)
	}
	return addrs, nil
}

// generate is pass 2's back half: a fresh parser walks the source again,
// and each instruction is resolved and encoded against the real
// Registers, appending its bytes to the output in source order.
func (a *Assembler) generate(symbols *symbol.Table, addrs map[string]uint16) ([]byte, *translate.Registers, error) {
	p := parser.New(a.source, symbols)
	regs := translate.NewRegisters(a.origin)
	var out []byte

	for {
		instr, more, err := p.Line()
		if err != nil {
			return nil, nil, err
		}
		if !more {
			break
		}
		if instr == nil {
			continue
		}

		target, err := resolveTarget(instr, addrs)
		if err != nil {
			return nil, nil, err
		}

		encoded, err := translate.Dispatch(instr.Mnemonic, instr.Operands, regs, target)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, encoded...)
	}
	return out, regs, nil
}

// resolveTarget looks up a branch or BSR operand's absolute address: a
// label recorded by layout, or a bare $NN/$NNNN literal decoded directly.
// Non-branch instructions have no target; 0 is returned and ignored.
func resolveTarget(instr *parser.Instruction, addrs map[string]uint16) (uint16, error) {
	if !token.BranchMnemonics[instr.Mnemonic] {
		return 0, nil
	}
	if len(instr.Operands) != 1 {
		return 0, errors.Errorf("%s: expected exactly one branch operand", instr.Mnemonic)
	}
	text := instr.Operands[0].Text
	if strings.HasPrefix(text, "$") {
		b, err := parser.ParseImmediateValue(text)
		if err != nil {
			return 0, errors.Wrapf(err, "decoding branch target %q", text)
		}
		v := 0
		for _, by := range b {
			v = v<<8 | int(by)
		}
		return uint16(v), nil
	}
	addr, ok := addrs[text]
	if !ok {
		return 0, errors.Errorf("undefined branch target %q", text)
	}
	return addr, nil
}
