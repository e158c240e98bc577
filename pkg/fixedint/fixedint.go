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

// Package fixedint provides the fixed-width integer values the 6800
// register file and translator are built on: an 8-bit unsigned value, an
// 8-bit two's-complement signed value, and a 16-bit unsigned value.
//
// The unsigned types retain a "raw" pre-mask accumulator alongside the
// masked value. raw tracks every Add/Sub since construction without
// clamping; masked always satisfies raw ≡ masked (mod 2^N). The flag
// wrapper in pkg/translate reads raw to detect carry and overflow, then
// resets it so flags describe the most recent operation only.
package fixedint

// U8 is an 8-bit unsigned value with wrapping arithmetic.
type U8 struct {
	Raw int // unclamped accumulator, the carry/overflow witness
	Num uint8
}

func NewU8(n int) U8 {
	return U8{Raw: n, Num: uint8(n)}
}

// Add returns a new U8 with of added, masked to 8 bits, carrying Raw forward.
func (u U8) Add(of int) U8 {
	return U8{Raw: u.Raw + of, Num: uint8(int(u.Num) + of)}
}

// Sub returns a new U8 with of subtracted, masked to 8 bits, carrying Raw forward.
func (u U8) Sub(of int) U8 {
	return U8{Raw: u.Raw - of, Num: uint8(int(u.Num) - of)}
}

// ResetRaw reseeds Raw from the current masked value, so the next
// Add/Sub's carry witness describes only that operation.
func (u U8) ResetRaw() U8 {
	return U8{Raw: int(u.Num), Num: u.Num}
}

// I8 is an 8-bit two's-complement signed value, range [-128, 127].
type I8 struct {
	Num int8
}

func NewI8(n int) I8 {
	return I8{Num: toInt8(n)}
}

func (i I8) Add(of int) I8 {
	return I8{Num: toInt8(int(i.Num) + of)}
}

func (i I8) Sub(of int) I8 {
	return I8{Num: toInt8(int(i.Num) - of)}
}

func toInt8(n int) int8 {
	m := n & 0xFF
	if m&0x80 != 0 {
		return int8(m - 0x100)
	}
	return int8(m)
}

// U16 is a 16-bit unsigned value with wrapping arithmetic and a raw
// pre-mask accumulator, mirroring U8.
type U16 struct {
	Raw int
	Num uint16
}

func NewU16(n int) U16 {
	return U16{Raw: n, Num: uint16(n)}
}

func (u U16) Add(of int) U16 {
	return U16{Raw: u.Raw + of, Num: uint16(int(u.Num) + of)}
}

func (u U16) Sub(of int) U16 {
	return U16{Raw: u.Raw - of, Num: uint16(int(u.Num) - of)}
}

func (u U16) ResetRaw() U16 {
	return U16{Raw: int(u.Num), Num: u.Num}
}

// CarryOut8 reports whether raw crossed the unsigned 8-bit boundary (above
// or below), the carry witness for 8-bit arithmetic.
func CarryOut8(raw int) bool {
	return raw > 0xFF || raw < 0
}

// CarryOut16 is CarryOut8's 16-bit counterpart.
func CarryOut16(raw int) bool {
	return raw > 0xFFFF || raw < 0
}
