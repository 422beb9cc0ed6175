// Copyright (c) 2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package codec

import (
	"fmt"
	"strings"
)

// LogicalType identifies the storage type of one clustering component.
type LogicalType int

const (
	// Int is a 32 bit signed integer (CQL int).
	Int LogicalType = iota + 1
	// BigInt is a 64 bit signed integer (CQL bigint).
	BigInt
	// Boolean is a true/false value.
	Boolean
	// Double is a 64 bit IEEE-754 floating point number.
	Double
	// Text is a UTF-8 string.
	Text
	// Blob is an opaque byte string.
	Blob
	// UUID is a lexically ordered 16 byte uuid.
	UUID
	// TimeUUID is a version 1 uuid ordered by its embedded timestamp.
	TimeUUID
	// Timestamp is a point in time with millisecond precision.
	Timestamp
)

// Tag is the one byte type marker written in front of every encoded
// component. Tag values stay clear of the marker byte range so that a
// boundary marker never collides with the tag of a following component.
type Tag byte

const (
	intTag       Tag = 0x10
	bigIntTag    Tag = 0x11
	booleanTag   Tag = 0x12
	doubleTag    Tag = 0x13
	textTag      Tag = 0x14
	blobTag      Tag = 0x15
	uuidTag      Tag = 0x16
	timeUUIDTag  Tag = 0x17
	timestampTag Tag = 0x18
)

var typeNames = map[LogicalType]string{
	Int:       "int",
	BigInt:    "bigint",
	Boolean:   "boolean",
	Double:    "double",
	Text:      "text",
	Blob:      "blob",
	UUID:      "uuid",
	TimeUUID:  "timeuuid",
	Timestamp: "timestamp",
}

// aliases accepted by ParseType on top of the canonical names.
var typeAliases = map[string]LogicalType{
	"integer": Int,
	"long":    BigInt,
	"bool":    Boolean,
	"varchar": Text,
	"string":  Text,
	"bytes":   Blob,
}

// String returns the CQL name of the type.
func (t LogicalType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("LogicalType(%d)", int(t))
}

// ParseType converts a type name from configuration into a LogicalType.
func ParseType(name string) (LogicalType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for t, tn := range typeNames {
		if tn == n {
			return t, nil
		}
	}
	if t, ok := typeAliases[n]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("unknown logical type %q", name)
}

// ValueError is returned when a codec cannot represent a value.
type ValueError struct {
	Type   LogicalType
	Value  interface{}
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("cannot encode %T(%v) as %s: %s",
		e.Value, e.Value, e.Type, e.Reason)
}

func valueError(t LogicalType, v interface{}, reason string) error {
	return &ValueError{Type: t, Value: v, Reason: reason}
}
