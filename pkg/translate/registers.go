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

import "github.com/pdxjjb/m6800asm/pkg/fixedint"

// Flag bit positions within Registers.SR, per spec.md §4.4/§4.5.
const (
	FlagC  = 0
	FlagZ  = 1
	FlagS  = 2
	FlagO  = 3
	FlagI  = 4
	FlagAC = 5
)

// Registers is the simulated 6800 register file the translator mutates.
// Owned per-assembler, not process-global: a second Assembler over a
// second source gets its own, independent Registers.
type Registers struct {
	AccA   fixedint.U8
	AccB   fixedint.U8
	X      fixedint.U16
	SP     fixedint.U16
	PC     fixedint.U16
	SR     [6]bool // indexed by Flag* above
	Memory map[uint16]byte
}

// NewRegisters returns a zeroed register file with PC set to origin (the
// assembler's configured program-counter starting address).
func NewRegisters(origin uint16) *Registers {
	return &Registers{PC: fixedint.NewU16(int(origin)), Memory: make(map[uint16]byte)}
}

func (r *Registers) readMemory(addr uint16) byte { return r.Memory[addr] }

func (r *Registers) writeMemory(addr uint16, v byte) { r.Memory[addr] = v }

func (r *Registers) writeMemory16(addr uint16, v uint16) {
	r.Memory[addr] = byte(v >> 8)
	r.Memory[addr+1] = byte(v)
}
