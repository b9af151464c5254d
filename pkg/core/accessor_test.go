package core_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/jdoc/pkg/core"
	"github.com/aretw0/jdoc/pkg/interval"
)

type address struct {
	City string `json:"city"`
	Zip  string `json:"zip"`
}

func TestGet_Coercion(t *testing.T) {
	codec := core.NewCodec()
	doc, err := codec.New(nil, core.Fields{
		"count":      42,
		"count_text": "42",
		"flag":       "true",
		"name":       "alice",
		"braced":     "{not json",
		"address":    address{City: "Lisbon", Zip: "1000"},
		"address_js": `{"city":"Porto","zip":"4000"}`,
		"ids":        []uuid.UUID{uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")},
		"when":       "2024-03-01T12:00:00Z",
		"day":        "2024-03-01",
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		get  func() (any, bool)
		want any
	}{
		{"number as int", func() (any, bool) { return core.Get[int](doc, "count") }, 42},
		{"number as string", func() (any, bool) { return core.Get[string](doc, "count") }, "42"},
		{"string holding number as int", func() (any, bool) { return core.Get[int](doc, "count_text") }, 42},
		{"string holding bool as bool", func() (any, bool) { return core.Get[bool](doc, "flag") }, true},
		{"string verbatim", func() (any, bool) { return core.Get[string](doc, "name") }, "alice"},
		{"braced string verbatim", func() (any, bool) { return core.Get[string](doc, "braced") }, "{not json"},
		{"nested object as struct", func() (any, bool) { return core.Get[address](doc, "address") }, address{"Lisbon", "1000"}},
		{"json string as struct", func() (any, bool) { return core.Get[address](doc, "address_js") }, address{"Porto", "4000"}},
		{"any keeps strings", func() (any, bool) { return core.Get[any](doc, "count_text") }, "42"},
		{"generic slice of ids", func() (any, bool) { return core.Get[[]uuid.UUID](doc, "ids") },
			[]uuid.UUID{uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")}},
		{"string as time", func() (any, bool) { return core.Get[time.Time](doc, "when") },
			time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.get()
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}

	day, ok := doc.Time("day")
	require.True(t, ok, "plain dates are accepted by the lenient accessor")
	assert.Equal(t, 2024, day.Year())
}

func TestGet_MissReturnsAbsent(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	codec := core.NewCodec(core.WithLogger(logger))

	doc, err := codec.New(nil, core.Fields{"count": "not a number", "when": "yesterday", "id": "nope"})
	require.NoError(t, err)

	n, ok := core.Get[int](doc, "count")
	assert.False(t, ok)
	assert.Zero(t, n)

	_, ok = core.Get[time.Time](doc, "when")
	assert.False(t, ok)
	_, ok = doc.Time("when")
	assert.False(t, ok)
	_, ok = doc.UUID("id")
	assert.False(t, ok)

	_, ok = core.Get[string](doc, "absent")
	assert.False(t, ok)

	assert.Equal(t, 7, core.GetOr(doc, "count", 7))
	assert.Contains(t, logs.String(), "coercion miss")
	assert.Contains(t, logs.String(), "field=count")
}

func TestGetInto_LeavesTargetOnMiss(t *testing.T) {
	doc, err := core.New(core.Fields{"list": []int{1, 2}, "text": "abc"})
	require.NoError(t, err)

	target := []int{9}
	assert.True(t, doc.GetInto("list", &target))
	assert.Equal(t, []int{1, 2}, target)

	n := 5
	assert.False(t, doc.GetInto("text", &n))
	assert.Equal(t, 5, n)

	assert.False(t, doc.GetInto("list", target), "non-pointer target")
}

func TestGet_IntervalMultimapField(t *testing.T) {
	scale := interval.NewMultimap[int, string]()
	scale.Put(interval.Of(1, 5), "1")
	scale.Put(interval.Of(7, 10), "2")

	doc, err := core.New(core.Fields{"scale": scale})
	require.NoError(t, err)

	// Round trip through the wire so the field is rehydrated from JSON.
	back, err := core.DefaultCodec().Decode([]byte(doc.String()))
	require.NoError(t, err)

	got, ok := core.Get[interval.Multimap[int, string]](back, "scale")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"1", "2"}, got.Get(interval.Of(4, 8)))
}

func TestGet_NestedDocument(t *testing.T) {
	inner, err := core.New(core.Fields{"city": "Lisbon"})
	require.NoError(t, err)
	outer, err := core.New(core.Fields{"home": inner})
	require.NoError(t, err)

	got, ok := core.Get[*core.Document](outer, "home")
	require.True(t, ok)
	assert.True(t, inner.Equal(got))
}

func TestDecode(t *testing.T) {
	doc, err := core.New(core.Fields{"city": "Lisbon", "zip": 1000})
	require.NoError(t, err)

	var a address
	assert.Error(t, doc.Decode(&a), "zip is a number, the struct wants a string")

	doc, err = core.New(core.Fields{"city": "Lisbon", "zip": "1000"})
	require.NoError(t, err)
	require.NoError(t, doc.Decode(&a))
	assert.Equal(t, address{"Lisbon", "1000"}, a)
}
