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

package composite

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/uber/sliceplan/pkg/storage/composite/codec"
)

const (
	// MaxValueLength is the largest value the 2 byte length prefix can carry.
	MaxValueLength = math.MaxUint16

	// tag(1) + length(2)
	componentHeaderLen = 3
)

// Key is a byte encoded composite key. Plain byte comparison of two keys of
// the same shape follows the ordering of the tuples they encode.
type Key []byte

// Compare orders two keys bytewise.
func (k Key) Compare(other Key) int {
	return bytes.Compare(k, other)
}

// String returns the hex form of the key.
func (k Key) String() string {
	return hex.EncodeToString(k)
}

// FormatError reports a byte layout that does not match the expected
// components.
type FormatError struct {
	// Offset of the offending byte within the key.
	Offset int
	// Reason describes the mismatch.
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed composite key at offset %d: %s",
		e.Offset, e.Reason)
}

func formatError(offset int, format string, args ...interface{}) error {
	return &FormatError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// IsFormatError returns true if the cause of err is a FormatError.
func IsFormatError(err error) bool {
	_, ok := errors.Cause(err).(*FormatError)
	return ok
}

// Encode encodes a tuple without a trailing marker.
func Encode(values []TypedValue) (Key, error) {
	return encode(values, nil)
}

// EncodeBound encodes a tuple as a range bound. The marker is appended as
// an end-of-component byte after the final component.
func EncodeBound(values []TypedValue, marker RelationalMarker) (Key, error) {
	eoc := marker.EOC()
	return encode(values, &eoc)
}

// EncodeRow encodes the full clustering tuple of a stored row. Row keys end
// with the Equal marker so bounds over the complete tuple compare against
// them correctly.
func EncodeRow(values []TypedValue) (Key, error) {
	eoc := EOCEqual
	return encode(values, &eoc)
}

func encode(values []TypedValue, eoc *EOC) (Key, error) {
	var buf bytes.Buffer
	for i, v := range values {
		if v.IsAbsent() {
			return nil, errors.Errorf(
				"component %d (%s) is absent and cannot be encoded",
				i, v.Spec.Name)
		}
		if v.IsNull() {
			return nil, errors.Errorf(
				"component %d (%s) is null and cannot be encoded",
				i, v.Spec.Name)
		}
		if v.Spec.Codec == nil {
			return nil, errors.Errorf(
				"component %d (%s) has no codec", i, v.Spec.Name)
		}
		b, err := v.Spec.Codec.Encode(v.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "component %d (%s)", i, v.Spec.Name)
		}
		if len(b) > MaxValueLength {
			return nil, &codec.ValueError{
				Type:   v.Spec.Type,
				Value:  v.Value,
				Reason: fmt.Sprintf("encoded length %d exceeds %d", len(b), MaxValueLength),
			}
		}
		var header [componentHeaderLen]byte
		header[0] = byte(v.Spec.Codec.Tag())
		binary.BigEndian.PutUint16(header[1:], uint16(len(b)))
		buf.Write(header[:])
		buf.Write(b)
	}
	if eoc != nil && len(values) > 0 {
		buf.WriteByte(byte(*eoc))
	}
	return Key(buf.Bytes()), nil
}

// Decoded is the result of DecodeKey.
type Decoded struct {
	// Values holds one present value per decoded component.
	Values []TypedValue
	// EOC is the trailing end-of-component byte, valid if HasEOC is set.
	EOC EOC
	// HasEOC is true when the key ended with a marker byte.
	HasEOC bool
}

// Decode is the left inverse of Encode. A trailing marker byte written by
// EncodeBound or EncodeRow is accepted and dropped.
func Decode(key Key, specs []ComponentSpec) ([]TypedValue, error) {
	d, err := DecodeKey(key, specs)
	if err != nil {
		return nil, err
	}
	return d.Values, nil
}

// DecodeKey decodes a key against the expected components and reports the
// trailing marker byte if any.
func DecodeKey(key Key, specs []ComponentSpec) (Decoded, error) {
	var d Decoded
	d.Values = make([]TypedValue, 0, len(specs))
	offset := 0
	for i, spec := range specs {
		if spec.Codec == nil {
			return Decoded{}, errors.Errorf(
				"component %d (%s) has no codec", i, spec.Name)
		}
		if len(key)-offset < componentHeaderLen {
			return Decoded{}, formatError(offset,
				"truncated header for component %d (%s)", i, spec.Name)
		}
		tag := codec.Tag(key[offset])
		if tag != spec.Codec.Tag() {
			return Decoded{}, formatError(offset,
				"type tag 0x%02x does not match %s (0x%02x) for component %d",
				byte(tag), spec.Type, byte(spec.Codec.Tag()), i)
		}
		length := int(binary.BigEndian.Uint16(key[offset+1:]))
		valueStart := offset + componentHeaderLen
		if len(key)-valueStart < length {
			return Decoded{}, formatError(offset+1,
				"declared length %d exceeds remaining %d bytes",
				length, len(key)-valueStart)
		}
		if w := spec.Codec.Width(); w != codec.VariableWidth && w != length {
			return Decoded{}, formatError(offset+1,
				"declared length %d does not match %s width %d",
				length, spec.Type, w)
		}
		v, err := spec.Codec.Decode(key[valueStart : valueStart+length])
		if err != nil {
			return Decoded{}, formatError(valueStart, "%s", err.Error())
		}
		d.Values = append(d.Values, Value(spec, v))
		offset = valueStart + length
	}
	switch rest := len(key) - offset; {
	case rest == 0:
	case rest == 1 && len(specs) > 0:
		if !validEOC(key[offset]) {
			return Decoded{}, formatError(offset,
				"invalid marker byte 0x%02x", key[offset])
		}
		d.EOC = EOC(key[offset])
		d.HasEOC = true
	default:
		return Decoded{}, formatError(offset, "%d trailing bytes", rest)
	}
	return d, nil
}

// RawComponent is one component of a key split without a schema.
type RawComponent struct {
	Offset int
	Tag    codec.Tag
	Value  []byte
}

// Split parses the component framing of a key without decoding values.
// The trailing marker byte, if any, is returned separately.
func Split(key Key) ([]RawComponent, *EOC, error) {
	var comps []RawComponent
	offset := 0
	for len(key)-offset >= componentHeaderLen {
		length := int(binary.BigEndian.Uint16(key[offset+1:]))
		start := offset + componentHeaderLen
		if len(key)-start < length {
			return nil, nil, formatError(offset+1,
				"declared length %d exceeds remaining %d bytes",
				length, len(key)-start)
		}
		comps = append(comps, RawComponent{
			Offset: offset,
			Tag:    codec.Tag(key[offset]),
			Value:  key[start : start+length],
		})
		offset = start + length
	}
	switch len(key) - offset {
	case 0:
		return comps, nil, nil
	case 1:
		if len(comps) > 0 && validEOC(key[offset]) {
			eoc := EOC(key[offset])
			return comps, &eoc, nil
		}
	}
	return nil, nil, formatError(offset, "unexpected trailing bytes")
}
