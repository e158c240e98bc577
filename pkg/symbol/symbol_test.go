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

package symbol

import "testing"

func TestTableSetGet(t *testing.T) {
	tbl := New()
	if _, ok := tbl.Get("LOOP"); ok {
		t.Fatalf("empty table returned an entry for LOOP")
	}

	tbl.Set("LOOP", 0x10, Label, uint16(0x10))
	entry, ok := tbl.Get("LOOP")
	if !ok {
		t.Fatalf("expected LOOP to be present")
	}
	if entry.Addr != 0x10 || entry.Kind != Label {
		t.Errorf("got %+v", entry)
	}
}

func TestSetOverwrites(t *testing.T) {
	tbl := New()
	tbl.Set("COUNT", 5, Variable, "#$01")
	tbl.Set("COUNT", 5, Variable, []byte{0x01})

	entry, ok := tbl.Get("COUNT")
	if !ok {
		t.Fatalf("expected COUNT to be present")
	}
	b, isBytes := entry.Value.([]byte)
	if !isBytes || len(b) != 1 || b[0] != 0x01 {
		t.Errorf("expected finalized []byte value, got %#v", entry.Value)
	}
}

func TestKindString(t *testing.T) {
	if Label.String() != "label" {
		t.Errorf("Label.String() = %q", Label.String())
	}
	if Variable.String() != "variable" {
		t.Errorf("Variable.String() = %q", Variable.String())
	}
}

func TestAllReturnsEveryEntry(t *testing.T) {
	tbl := New()
	tbl.Set("A", 1, Label, uint16(1))
	tbl.Set("B", 2, Variable, "#$02")

	all := tbl.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}
}
