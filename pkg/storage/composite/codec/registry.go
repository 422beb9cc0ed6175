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
)

// Registry resolves codecs by logical type or by wire tag. A Registry is
// immutable once built and safe for concurrent use.
type Registry struct {
	byType map[LogicalType]Codec
	byTag  map[Tag]Codec
}

// NewRegistry builds a registry from the given codecs. Registering two
// codecs for the same type or tag is an error.
func NewRegistry(codecs ...Codec) (*Registry, error) {
	r := &Registry{
		byType: make(map[LogicalType]Codec, len(codecs)),
		byTag:  make(map[Tag]Codec, len(codecs)),
	}
	for _, c := range codecs {
		if _, ok := r.byType[c.Type()]; ok {
			return nil, fmt.Errorf("duplicate codec for type %s", c.Type())
		}
		if _, ok := r.byTag[c.Tag()]; ok {
			return nil, fmt.Errorf("duplicate codec for tag 0x%02x", byte(c.Tag()))
		}
		if !validTag(c.Tag()) {
			return nil, fmt.Errorf("tag 0x%02x of %s overlaps the marker range",
				byte(c.Tag()), c.Type())
		}
		r.byType[c.Type()] = c
		r.byTag[c.Tag()] = c
	}
	return r, nil
}

// validTag keeps tags strictly between the lower and equal marker bytes
// (0x00, 0x01) and the upper marker byte (0xff).
func validTag(t Tag) bool {
	return t > 0x01 && t < 0xff
}

var defaultRegistry = mustDefault()

func mustDefault() *Registry {
	r, err := NewRegistry(
		intCodec{},
		bigIntCodec{},
		booleanCodec{},
		doubleCodec{},
		textCodec{},
		blobCodec{},
		uuidCodec{},
		timeUUIDCodec{},
		timestampCodec{},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the registry holding the built-in codecs.
func Default() *Registry {
	return defaultRegistry
}

// Lookup returns the codec for a logical type.
func (r *Registry) Lookup(t LogicalType) (Codec, error) {
	c, ok := r.byType[t]
	if !ok {
		return nil, fmt.Errorf("no codec registered for type %s", t)
	}
	return c, nil
}

// LookupTag returns the codec registered for a wire tag.
func (r *Registry) LookupTag(tag Tag) (Codec, bool) {
	c, ok := r.byTag[tag]
	return c, ok
}

// Types returns the logical types known to the registry.
func (r *Registry) Types() []LogicalType {
	types := make([]LogicalType, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	return types
}
