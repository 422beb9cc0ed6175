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
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gocql/gocql"
	"github.com/pborman/uuid"
)

// VariableWidth is returned by Codec.Width for types whose encoded length
// depends on the value.
const VariableWidth = -1

// Codec converts the values of one logical type to and from their binary
// component form and defines the natural ordering of that type. For every
// pair of values a, b accepted by Encode, Compare(a, b) < 0 implies that
// Encode(a) sorts before Encode(b) once length prefixed.
type Codec interface {
	// Type returns the logical type served by the codec.
	Type() LogicalType
	// Tag returns the type marker written in front of encoded values.
	Tag() Tag
	// Width returns the fixed encoded length, or VariableWidth.
	Width() int
	// Encode returns the binary form of v.
	Encode(v interface{}) ([]byte, error)
	// Decode is the inverse of Encode and returns the canonical Go value.
	Decode(b []byte) (interface{}, error)
	// Compare orders two values of the type.
	Compare(a, b interface{}) (int, error)
	// Normalize converts any accepted Go value to its canonical form.
	Normalize(v interface{}) (interface{}, error)
	// Parse reads a value from its textual form.
	Parse(s string) (interface{}, error)
}

func checkWidth(t LogicalType, b []byte, width int) error {
	if len(b) != width {
		return fmt.Errorf("%s value must be %d bytes, got %d", t, width, len(b))
	}
	return nil
}

// compareVariable orders variable width values the way the length prefixed
// wire form sorts them: shorter values first, then bytewise.
func compareVariable(a, b []byte) int {
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return bytes.Compare(a, b)
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

type intCodec struct{}

func (intCodec) Type() LogicalType { return Int }
func (intCodec) Tag() Tag          { return intTag }
func (intCodec) Width() int        { return 4 }

func (c intCodec) Normalize(v interface{}) (interface{}, error) {
	var n int64
	switch x := v.(type) {
	case int32:
		return x, nil
	case int:
		n = int64(x)
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int64:
		n = x
	case uint8:
		n = int64(x)
	case uint16:
		n = int64(x)
	case uint32:
		n = int64(x)
	default:
		return nil, valueError(Int, v, "unsupported Go type")
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, valueError(Int, v, "out of 32 bit range")
	}
	return int32(n), nil
}

func (c intCodec) Encode(v interface{}) ([]byte, error) {
	n, err := c.Normalize(v)
	if err != nil {
		return nil, err
	}
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(n.(int32))^(1<<31))
	return b, nil
}

func (c intCodec) Decode(b []byte) (interface{}, error) {
	if err := checkWidth(Int, b, 4); err != nil {
		return nil, err
	}
	return int32(binary.BigEndian.Uint32(b) ^ (1 << 31)), nil
}

func (c intCodec) Compare(a, b interface{}) (int, error) {
	x, err := c.Normalize(a)
	if err != nil {
		return 0, err
	}
	y, err := c.Normalize(b)
	if err != nil {
		return 0, err
	}
	return compareInt64(int64(x.(int32)), int64(y.(int32))), nil
}

func (c intCodec) Parse(s string) (interface{}, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return nil, err
	}
	return int32(n), nil
}

type bigIntCodec struct{}

func (bigIntCodec) Type() LogicalType { return BigInt }
func (bigIntCodec) Tag() Tag          { return bigIntTag }
func (bigIntCodec) Width() int        { return 8 }

func (c bigIntCodec) Normalize(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, valueError(BigInt, v, "out of 64 bit signed range")
		}
		return int64(x), nil
	}
	return nil, valueError(BigInt, v, "unsupported Go type")
}

func (c bigIntCodec) Encode(v interface{}) ([]byte, error) {
	n, err := c.Normalize(v)
	if err != nil {
		return nil, err
	}
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(n.(int64))^(1<<63))
	return b, nil
}

func (c bigIntCodec) Decode(b []byte) (interface{}, error) {
	if err := checkWidth(BigInt, b, 8); err != nil {
		return nil, err
	}
	return int64(binary.BigEndian.Uint64(b) ^ (1 << 63)), nil
}

func (c bigIntCodec) Compare(a, b interface{}) (int, error) {
	x, err := c.Normalize(a)
	if err != nil {
		return 0, err
	}
	y, err := c.Normalize(b)
	if err != nil {
		return 0, err
	}
	return compareInt64(x.(int64), y.(int64)), nil
}

func (c bigIntCodec) Parse(s string) (interface{}, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

type booleanCodec struct{}

func (booleanCodec) Type() LogicalType { return Boolean }
func (booleanCodec) Tag() Tag          { return booleanTag }
func (booleanCodec) Width() int        { return 1 }

func (c booleanCodec) Normalize(v interface{}) (interface{}, error) {
	if x, ok := v.(bool); ok {
		return x, nil
	}
	return nil, valueError(Boolean, v, "unsupported Go type")
}

func (c booleanCodec) Encode(v interface{}) ([]byte, error) {
	x, err := c.Normalize(v)
	if err != nil {
		return nil, err
	}
	if x.(bool) {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

func (c booleanCodec) Decode(b []byte) (interface{}, error) {
	if err := checkWidth(Boolean, b, 1); err != nil {
		return nil, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return nil, fmt.Errorf("invalid boolean byte 0x%02x", b[0])
}

func (c booleanCodec) Compare(a, b interface{}) (int, error) {
	x, err := c.Normalize(a)
	if err != nil {
		return 0, err
	}
	y, err := c.Normalize(b)
	if err != nil {
		return 0, err
	}
	switch {
	case x.(bool) == y.(bool):
		return 0, nil
	case y.(bool):
		return -1, nil
	}
	return 1, nil
}

func (c booleanCodec) Parse(s string) (interface{}, error) {
	return strconv.ParseBool(strings.TrimSpace(s))
}

type doubleCodec struct{}

func (doubleCodec) Type() LogicalType { return Double }
func (doubleCodec) Tag() Tag          { return doubleTag }
func (doubleCodec) Width() int        { return 8 }

func (c doubleCodec) Normalize(v interface{}) (interface{}, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	default:
		return nil, valueError(Double, v, "unsupported Go type")
	}
	if math.IsNaN(f) {
		return nil, valueError(Double, v, "NaN has no position in the ordering")
	}
	if f == 0 {
		// -0 and +0 compare equal and must encode identically.
		f = 0
	}
	return f, nil
}

func (c doubleCodec) Encode(v interface{}) ([]byte, error) {
	x, err := c.Normalize(v)
	if err != nil {
		return nil, err
	}
	bits := math.Float64bits(x.(float64))
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, bits)
	return b, nil
}

func (c doubleCodec) Decode(b []byte) (interface{}, error) {
	if err := checkWidth(Double, b, 8); err != nil {
		return nil, err
	}
	bits := binary.BigEndian.Uint64(b)
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	f := math.Float64frombits(bits)
	if math.IsNaN(f) {
		return nil, fmt.Errorf("encoded double is NaN")
	}
	return f, nil
}

func (c doubleCodec) Compare(a, b interface{}) (int, error) {
	x, err := c.Normalize(a)
	if err != nil {
		return 0, err
	}
	y, err := c.Normalize(b)
	if err != nil {
		return 0, err
	}
	fx, fy := x.(float64), y.(float64)
	switch {
	case fx < fy:
		return -1, nil
	case fx > fy:
		return 1, nil
	}
	return 0, nil
}

func (c doubleCodec) Parse(s string) (interface{}, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

type textCodec struct{}

func (textCodec) Type() LogicalType { return Text }
func (textCodec) Tag() Tag          { return textTag }
func (textCodec) Width() int        { return VariableWidth }

func (c textCodec) Normalize(v interface{}) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return nil, valueError(Text, v, "unsupported Go type")
	}
	if !utf8.ValidString(s) {
		return nil, valueError(Text, v, "invalid UTF-8")
	}
	return s, nil
}

func (c textCodec) Encode(v interface{}) ([]byte, error) {
	s, err := c.Normalize(v)
	if err != nil {
		return nil, err
	}
	return []byte(s.(string)), nil
}

func (c textCodec) Decode(b []byte) (interface{}, error) {
	if !utf8.Valid(b) {
		return nil, fmt.Errorf("text value is not valid UTF-8")
	}
	return string(b), nil
}

func (c textCodec) Compare(a, b interface{}) (int, error) {
	x, err := c.Normalize(a)
	if err != nil {
		return 0, err
	}
	y, err := c.Normalize(b)
	if err != nil {
		return 0, err
	}
	return compareVariable([]byte(x.(string)), []byte(y.(string))), nil
}

func (c textCodec) Parse(s string) (interface{}, error) {
	return c.Normalize(s)
}

type blobCodec struct{}

func (blobCodec) Type() LogicalType { return Blob }
func (blobCodec) Tag() Tag          { return blobTag }
func (blobCodec) Width() int        { return VariableWidth }

func (c blobCodec) Normalize(v interface{}) (interface{}, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, valueError(Blob, v, "unsupported Go type")
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (c blobCodec) Encode(v interface{}) ([]byte, error) {
	n, err := c.Normalize(v)
	if err != nil {
		return nil, err
	}
	return n.([]byte), nil
}

func (c blobCodec) Decode(b []byte) (interface{}, error) {
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (c blobCodec) Compare(a, b interface{}) (int, error) {
	x, err := c.Normalize(a)
	if err != nil {
		return 0, err
	}
	y, err := c.Normalize(b)
	if err != nil {
		return 0, err
	}
	return compareVariable(x.([]byte), y.([]byte)), nil
}

func (c blobCodec) Parse(s string) (interface{}, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	return hex.DecodeString(s)
}

type uuidCodec struct{}

func (uuidCodec) Type() LogicalType { return UUID }
func (uuidCodec) Tag() Tag          { return uuidTag }
func (uuidCodec) Width() int        { return 16 }

func (c uuidCodec) Normalize(v interface{}) (interface{}, error) {
	var b []byte
	switch x := v.(type) {
	case uuid.UUID:
		b = x
	case []byte:
		b = x
	case [16]byte:
		b = x[:]
	case gocql.UUID:
		b = x.Bytes()
	case string:
		b = uuid.Parse(x)
		if b == nil {
			return nil, valueError(UUID, v, "malformed uuid string")
		}
	default:
		return nil, valueError(UUID, v, "unsupported Go type")
	}
	if len(b) != 16 {
		return nil, valueError(UUID, v, "uuid must be 16 bytes")
	}
	out := make(uuid.UUID, 16)
	copy(out, b)
	return out, nil
}

func (c uuidCodec) Encode(v interface{}) ([]byte, error) {
	u, err := c.Normalize(v)
	if err != nil {
		return nil, err
	}
	return []byte(u.(uuid.UUID)), nil
}

func (c uuidCodec) Decode(b []byte) (interface{}, error) {
	if err := checkWidth(UUID, b, 16); err != nil {
		return nil, err
	}
	out := make(uuid.UUID, 16)
	copy(out, b)
	return out, nil
}

func (c uuidCodec) Compare(a, b interface{}) (int, error) {
	x, err := c.Normalize(a)
	if err != nil {
		return 0, err
	}
	y, err := c.Normalize(b)
	if err != nil {
		return 0, err
	}
	return bytes.Compare(x.(uuid.UUID), y.(uuid.UUID)), nil
}

func (c uuidCodec) Parse(s string) (interface{}, error) {
	return c.Normalize(strings.TrimSpace(s))
}

// timeUUIDCodec moves the timestamp fields of a version 1 uuid to the front
// (time_hi, time_mid, time_low) so that raw byte order follows time order.
type timeUUIDCodec struct{}

func (timeUUIDCodec) Type() LogicalType { return TimeUUID }
func (timeUUIDCodec) Tag() Tag          { return timeUUIDTag }
func (timeUUIDCodec) Width() int        { return 16 }

func (c timeUUIDCodec) Normalize(v interface{}) (interface{}, error) {
	var u gocql.UUID
	switch x := v.(type) {
	case gocql.UUID:
		u = x
	case [16]byte:
		u = gocql.UUID(x)
	case uuid.UUID:
		if len(x) != 16 {
			return nil, valueError(TimeUUID, v, "uuid must be 16 bytes")
		}
		copy(u[:], x)
	case string:
		parsed, err := gocql.ParseUUID(x)
		if err != nil {
			return nil, valueError(TimeUUID, v, err.Error())
		}
		u = parsed
	default:
		return nil, valueError(TimeUUID, v, "unsupported Go type")
	}
	if u.Version() != 1 {
		return nil, valueError(TimeUUID, v, "not a version 1 uuid")
	}
	return u, nil
}

func (c timeUUIDCodec) Encode(v interface{}) ([]byte, error) {
	x, err := c.Normalize(v)
	if err != nil {
		return nil, err
	}
	u := x.(gocql.UUID)
	b := make([]byte, 16)
	copy(b[0:2], u[6:8])
	copy(b[2:4], u[4:6])
	copy(b[4:8], u[0:4])
	copy(b[8:16], u[8:16])
	return b, nil
}

func (c timeUUIDCodec) Decode(b []byte) (interface{}, error) {
	if err := checkWidth(TimeUUID, b, 16); err != nil {
		return nil, err
	}
	var u gocql.UUID
	copy(u[6:8], b[0:2])
	copy(u[4:6], b[2:4])
	copy(u[0:4], b[4:8])
	copy(u[8:16], b[8:16])
	if u.Version() != 1 {
		return nil, fmt.Errorf("decoded uuid has version %d, want 1", u.Version())
	}
	return u, nil
}

func (c timeUUIDCodec) Compare(a, b interface{}) (int, error) {
	x, err := c.Normalize(a)
	if err != nil {
		return 0, err
	}
	y, err := c.Normalize(b)
	if err != nil {
		return 0, err
	}
	ux, uy := x.(gocql.UUID), y.(gocql.UUID)
	if r := compareInt64(ux.Timestamp(), uy.Timestamp()); r != 0 {
		return r, nil
	}
	return bytes.Compare(ux[8:], uy[8:]), nil
}

func (c timeUUIDCodec) Parse(s string) (interface{}, error) {
	return c.Normalize(strings.TrimSpace(s))
}

type timestampCodec struct{}

func (timestampCodec) Type() LogicalType { return Timestamp }
func (timestampCodec) Tag() Tag          { return timestampTag }
func (timestampCodec) Width() int        { return 8 }

func (c timestampCodec) Normalize(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case time.Time:
		return time.UnixMilli(x.UnixMilli()).UTC(), nil
	case int64:
		return time.UnixMilli(x).UTC(), nil
	}
	return nil, valueError(Timestamp, v, "unsupported Go type")
}

func (c timestampCodec) Encode(v interface{}) ([]byte, error) {
	x, err := c.Normalize(v)
	if err != nil {
		return nil, err
	}
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(x.(time.Time).UnixMilli())^(1<<63))
	return b, nil
}

func (c timestampCodec) Decode(b []byte) (interface{}, error) {
	if err := checkWidth(Timestamp, b, 8); err != nil {
		return nil, err
	}
	ms := int64(binary.BigEndian.Uint64(b) ^ (1 << 63))
	return time.UnixMilli(ms).UTC(), nil
}

func (c timestampCodec) Compare(a, b interface{}) (int, error) {
	x, err := c.Normalize(a)
	if err != nil {
		return 0, err
	}
	y, err := c.Normalize(b)
	if err != nil {
		return 0, err
	}
	return compareInt64(x.(time.Time).UnixMilli(), y.(time.Time).UnixMilli()), nil
}

func (c timestampCodec) Parse(s string) (interface{}, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, err
	}
	return c.Normalize(t)
}
