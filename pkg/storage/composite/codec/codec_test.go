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
	"math"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/pborman/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLookup(t *testing.T, lt LogicalType) Codec {
	c, err := Default().Lookup(lt)
	require.NoError(t, err)
	return c
}

// orderedValues lists values of each type in ascending natural order.
func orderedValues() map[LogicalType][]interface{} {
	base := time.Date(2019, 3, 1, 12, 0, 0, 0, time.UTC)
	return map[LogicalType][]interface{}{
		Int:       {int32(math.MinInt32), int32(-1), int32(0), int32(1), int32(math.MaxInt32)},
		BigInt:    {int64(math.MinInt64), int64(-7), int64(0), int64(7), int64(math.MaxInt64)},
		Boolean:   {false, true},
		Double:    {math.Inf(-1), -1.5, -math.SmallestNonzeroFloat64, 0.0, 0.25, 3e10, math.Inf(1)},
		Text:      {"", "a", "b", "z", "aa", "ab"},
		Blob:      {[]byte{}, []byte{0x00}, []byte{0xff}, []byte{0x00, 0x00}},
		UUID: {
			uuid.Parse("00000000-0000-4000-8000-000000000000"),
			uuid.Parse("7fffffff-0000-4000-8000-000000000000"),
			uuid.Parse("ffffffff-0000-4000-8000-000000000000"),
		},
		TimeUUID: {
			gocql.UUIDFromTime(base),
			gocql.UUIDFromTime(base.Add(time.Millisecond)),
			gocql.UUIDFromTime(base.Add(time.Hour)),
			gocql.UUIDFromTime(base.Add(24 * 365 * time.Hour)),
		},
		Timestamp: {
			time.Unix(-86400, 0).UTC(),
			time.Unix(0, 0).UTC(),
			base,
			base.Add(time.Millisecond),
		},
	}
}

func TestRoundTrip(t *testing.T) {
	for lt, values := range orderedValues() {
		c := mustLookup(t, lt)
		for _, v := range values {
			b, err := c.Encode(v)
			require.NoError(t, err, "%s %v", lt, v)
			if c.Width() != VariableWidth {
				assert.Len(t, b, c.Width(), "%s %v", lt, v)
			}
			out, err := c.Decode(b)
			require.NoError(t, err, "%s %v", lt, v)
			cmp, err := c.Compare(v, out)
			require.NoError(t, err)
			assert.Equal(t, 0, cmp, "%s %v decoded as %v", lt, v, out)
		}
	}
}

func TestEncodingFollowsOrder(t *testing.T) {
	for lt, values := range orderedValues() {
		c := mustLookup(t, lt)
		for i := 0; i+1 < len(values); i++ {
			cmp, err := c.Compare(values[i], values[i+1])
			require.NoError(t, err)
			assert.Equal(t, -1, cmp, "%s: %v < %v", lt, values[i], values[i+1])

			a, err := c.Encode(values[i])
			require.NoError(t, err)
			b, err := c.Encode(values[i+1])
			require.NoError(t, err)
			if c.Width() == VariableWidth {
				assert.Equal(t, -1, compareVariable(a, b), "%s: %v < %v", lt, values[i], values[i+1])
			} else {
				assert.Equal(t, -1, bytes.Compare(a, b), "%s: %v < %v", lt, values[i], values[i+1])
			}
		}
	}
}

func TestCanonicalDecodeTypes(t *testing.T) {
	cases := []struct {
		lt   LogicalType
		in   interface{}
		want interface{}
	}{
		{Int, 42, int32(42)},
		{BigInt, int32(-3), int64(-3)},
		{Boolean, true, true},
		{Double, float32(0.5), 0.5},
		{Text, "héllo", "héllo"},
		{Blob, []byte("x"), []byte("x")},
		{Timestamp, int64(1500), time.UnixMilli(1500).UTC()},
	}
	for _, tc := range cases {
		c := mustLookup(t, tc.lt)
		b, err := c.Encode(tc.in)
		require.NoError(t, err)
		out, err := c.Decode(b)
		require.NoError(t, err)
		assert.Equal(t, tc.want, out, "%s", tc.lt)
	}
}

func TestDoubleNormalization(t *testing.T) {
	c := mustLookup(t, Double)

	_, err := c.Encode(math.NaN())
	assert.Error(t, err)
	assert.IsType(t, &ValueError{}, err)

	neg, err := c.Encode(math.Copysign(0, -1))
	require.NoError(t, err)
	pos, err := c.Encode(0.0)
	require.NoError(t, err)
	assert.Equal(t, pos, neg)
}

func TestBlobEncodeCopies(t *testing.T) {
	c := mustLookup(t, Blob)

	in := []byte{0x01, 0x02}
	out, err := c.Encode(in)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, out)

	in[0] = 0xff
	assert.Equal(t, byte(0x01), out[0])

	_, err = c.Encode("0102")
	assert.IsType(t, &ValueError{}, err)
}

func TestTimestampTruncatesToMillis(t *testing.T) {
	c := mustLookup(t, Timestamp)
	in := time.Date(2020, 1, 2, 3, 4, 5, 6789012, time.FixedZone("x", 3600))

	out, err := c.Normalize(in)
	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(in.UnixMilli()).UTC(), out)
	assert.Equal(t, time.UTC, out.(time.Time).Location())
}

func TestTimeUUIDLayout(t *testing.T) {
	c := mustLookup(t, TimeUUID)
	u := gocql.UUIDFromTime(time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC))

	b, err := c.Encode(u)
	require.NoError(t, err)
	assert.Equal(t, u[6:8], b[0:2])
	assert.Equal(t, u[4:6], b[2:4])
	assert.Equal(t, u[0:4], b[4:8])
	assert.Equal(t, u[8:16], b[8:16])

	out, err := c.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, u, out)

	_, err = c.Encode(gocql.UUID(uuid.NewRandom().Array()))
	assert.Error(t, err)
}

func TestUUIDAcceptedForms(t *testing.T) {
	c := mustLookup(t, UUID)
	s := "e3a94b81-ebb3-4607-8a65-10a30fab0efd"
	want := uuid.Parse(s)

	g, err := gocql.ParseUUID(s)
	require.NoError(t, err)

	for _, in := range []interface{}{s, want, []byte(want), [16]byte(want.Array()), g} {
		out, err := c.Normalize(in)
		require.NoError(t, err, "%T", in)
		assert.Equal(t, want, out, "%T", in)
	}

	_, err = c.Normalize("not-a-uuid")
	assert.Error(t, err)
	_, err = c.Normalize([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestEncodeRejectsValues(t *testing.T) {
	cases := []struct {
		lt LogicalType
		v  interface{}
	}{
		{Int, int64(math.MaxInt32) + 1},
		{Int, "1"},
		{BigInt, uint64(math.MaxUint64)},
		{BigInt, 1.5},
		{Boolean, 1},
		{Double, 1},
		{Text, string([]byte{0xff, 0xfe})},
		{Text, []byte("x")},
		{Blob, "x"},
		{Timestamp, "2019-01-01"},
	}
	for _, tc := range cases {
		_, err := mustLookup(t, tc.lt).Encode(tc.v)
		assert.Error(t, err, "%s %v", tc.lt, tc.v)
		_, ok := err.(*ValueError)
		assert.True(t, ok, "%s %v: %T", tc.lt, tc.v, err)
	}
}

func TestDecodeRejectsWidth(t *testing.T) {
	for _, lt := range []LogicalType{Int, BigInt, Boolean, Double, UUID, TimeUUID, Timestamp} {
		c := mustLookup(t, lt)
		_, err := c.Decode(make([]byte, c.Width()+1))
		assert.Error(t, err, "%s", lt)
	}
	_, err := mustLookup(t, Boolean).Decode([]byte{2})
	assert.Error(t, err)
	_, err = mustLookup(t, Text).Decode([]byte{0xff})
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	cases := []struct {
		lt   LogicalType
		in   string
		want interface{}
	}{
		{Int, " 12 ", int32(12)},
		{BigInt, "-9", int64(-9)},
		{Boolean, "true", true},
		{Double, "2.5", 2.5},
		{Text, "abc", "abc"},
		{Blob, "0x0aff", []byte{0x0a, 0xff}},
		{Timestamp, "1500", time.UnixMilli(1500).UTC()},
		{Timestamp, "2019-03-01T12:00:00Z", time.Date(2019, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		out, err := mustLookup(t, tc.lt).Parse(tc.in)
		require.NoError(t, err, "%s %q", tc.lt, tc.in)
		assert.Equal(t, tc.want, out, "%s %q", tc.lt, tc.in)
	}

	_, err := mustLookup(t, Int).Parse("99999999999")
	assert.Error(t, err)
}

func TestParseType(t *testing.T) {
	for lt, name := range typeNames {
		got, err := ParseType(name)
		require.NoError(t, err)
		assert.Equal(t, lt, got)
		assert.Equal(t, name, lt.String())
	}
	got, err := ParseType(" VARCHAR ")
	require.NoError(t, err)
	assert.Equal(t, Text, got)

	_, err = ParseType("decimal")
	assert.Error(t, err)
	assert.Equal(t, "LogicalType(99)", LogicalType(99).String())
}
