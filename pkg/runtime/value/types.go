// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package value implements the runtime's type lattice and the polymorphic
// Input value that flows between command instances (§3, §9 of the
// pipeline specification).
package value

import "strings"

// TypeMask is a bitset over the ten base types a command's input or
// return position may accept. A typed position may be a union of bases,
// e.g. "String | ArrayString".
type TypeMask uint16

const (
	TypeString TypeMask = 1 << iota
	TypeBytes
	TypeJSON
	TypePath
	TypeInt
	TypeArrayString
	TypeArrayBytes
	TypeMapPath
	TypeMapString
	TypeMapBytes
)

var typeNames = map[TypeMask]string{
	TypeString:      "String",
	TypeBytes:       "Bytes",
	TypeJSON:        "Json",
	TypePath:        "Path",
	TypeInt:         "Int",
	TypeArrayString: "ArrayString",
	TypeArrayBytes:  "ArrayBytes",
	TypeMapPath:     "MapPath",
	TypeMapString:   "MapString",
	TypeMapBytes:    "MapBytes",
}

// String renders a TypeMask as its "A | B | C" union form.
func (m TypeMask) String() string {
	if m == 0 {
		return "<none>"
	}
	var parts []string
	for mask := TypeString; mask <= TypeMapBytes; mask <<= 1 {
		if m&mask != 0 {
			parts = append(parts, typeNames[mask])
		}
	}
	return strings.Join(parts, " | ")
}

// Intersects reports whether m and other share at least one base type.
// The pipeline engine rejects an edge at build time when a child's return
// type mask and its parent's input type mask are disjoint.
func (m TypeMask) Intersects(other TypeMask) bool {
	return m&other != 0
}

// Contains reports whether m includes every base type set in other.
func (m TypeMask) Contains(other TypeMask) bool {
	return m&other == other
}
