package core_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/jdoc/pkg/core"
)

func TestBuilderFromPriorPreservesUntouchedFields(t *testing.T) {
	prior, err := core.NewBuilder(userSchema).
		Set("scope", "read").
		Set("name", "alice").
		Set("familiarity", 1).
		Set("_key", "read:alice").
		Build()
	require.NoError(t, err)

	next, err := core.From(prior).Set("familiarity", 2).Build()
	require.NoError(t, err)

	for _, k := range prior.AllKeys() {
		if k == "familiarity" {
			continue
		}
		want, _ := prior.Value(k)
		got, ok := next.Value(k)
		require.True(t, ok, "field %s lost", k)
		assert.Equal(t, want, got, "field %s", k)
	}
	n, _ := next.Int("familiarity")
	assert.EqualValues(t, 2, n)

	before, _ := prior.Int("familiarity")
	assert.EqualValues(t, 1, before, "the prior document is untouched")
	assert.Same(t, prior.Schema(), next.Schema())
}

func TestBuilderRerunsValidation(t *testing.T) {
	prior, err := core.NewBuilder(userSchema).Set("scope", "read").Build()
	require.NoError(t, err)

	_, err = core.From(prior).Unset("scope").Build()
	assert.True(t, errors.Is(err, core.ErrValidation))

	_, err = core.From(prior).Set("scope", nil).Build()
	assert.True(t, errors.Is(err, core.ErrValidation), "setting nil removes the field")
}

func TestBuilderSetLowersKeys(t *testing.T) {
	b := core.NewBuilder(nil).Set("Name", "a").Set("NAME", "b")
	assert.True(t, b.Has("name"))

	doc, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, `{"name":"b"}`, doc.String())

	again, err := b.Set("other", true).Build()
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Len(), "builds do not share state")
	assert.Equal(t, 2, again.Len())
}

func TestCodecInclusion(t *testing.T) {
	fields := core.Fields{"name": "", "tags": []string{}, "n": 0, "ok": false}

	def, err := core.NewCodec().New(nil, fields)
	require.NoError(t, err)
	assert.Equal(t, []string{"n", "name", "ok", "tags"}, def.Keys())

	nonEmpty, err := core.NewCodec(core.WithInclusion(core.IncludeNonEmpty)).New(nil, fields)
	require.NoError(t, err)
	assert.Equal(t, []string{"n", "ok"}, nonEmpty.Keys(), "zero numbers and false are not empty")
}

func TestCodecComments(t *testing.T) {
	data := []byte(`{
		// who
		"name": "alice", /* trailing comma follows */
		"age": 30,
	}`)

	_, err := core.NewCodec().Decode(data)
	assert.True(t, errors.Is(err, core.ErrValidation), "strict JSON rejects comments")

	doc, err := core.NewCodec(core.WithComments(true)).Decode(data)
	require.NoError(t, err)
	assert.Equal(t, `{"age":30,"name":"alice"}`, doc.String())
}

func TestCodecRejectsNonObjects(t *testing.T) {
	for _, in := range []string{`[1,2]`, `"x"`, `42`, `{"a":1} {"b":2}`, `{`} {
		_, err := core.NewCodec().Decode([]byte(in))
		assert.True(t, errors.Is(err, core.ErrValidation), "input %s", in)
	}
}

func TestCodecInternalPrefix(t *testing.T) {
	codec := core.NewCodec(core.WithInternalPrefix("$"))
	doc, err := codec.New(nil, core.Fields{"$meta": 1, "_plain": 2})
	require.NoError(t, err)
	assert.Equal(t, `{"_plain":2}`, doc.String())
}

type celsius float64

func TestCodecConverter(t *testing.T) {
	codec := core.NewCodec(core.WithConverter(func(v any) (core.Value, bool, error) {
		c, ok := v.(celsius)
		if !ok {
			return nil, false, nil
		}
		return core.String(fmt.Sprintf("%gC", float64(c))), true, nil
	}))

	doc, err := codec.New(nil, core.Fields{"temp": celsius(21.5)})
	require.NoError(t, err)
	assert.Equal(t, `{"temp":"21.5C"}`, doc.String())

	plain, err := core.NewCodec().New(nil, core.Fields{"temp": celsius(21.5)})
	require.NoError(t, err)
	assert.Equal(t, `{"temp":21.5}`, plain.String(), "named floats fall back to numbers")
}

func TestWellKnownTypes(t *testing.T) {
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	doc, err := core.New(core.Fields{
		"a": when,
		"b": strfmt.DateTime(when),
		"c": strfmt.Date(when),
		"d": strfmt.UUID("6BA7B810-9DAD-11D1-80B4-00C04FD430C8"),
		"e": 90 * time.Second,
	})
	require.NoError(t, err)

	a, _ := doc.Text("a")
	b, _ := doc.Text("b")
	assert.Equal(t, a, b, "time.Time and strfmt.DateTime normalize alike")
	c, _ := doc.Text("c")
	assert.Equal(t, "2024-01-02", c)
	d, _ := doc.Text("d")
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", d)
	e, _ := doc.Text("e")
	assert.Equal(t, "1m30s", e)
}

func TestYAML(t *testing.T) {
	doc, err := core.New(core.Fields{"name": "alice", "age": 30, "tags": []string{"x"}, "_key": "k"})
	require.NoError(t, err)

	out, err := doc.Codec().EncodeYAML(doc, true)
	require.NoError(t, err)
	assert.Contains(t, string(out), "_key: k")

	back, err := doc.Codec().DecodeYAML(out)
	require.NoError(t, err)
	assert.True(t, doc.Equal(back))
	assert.True(t, back.Exists("_key"))

	external, err := doc.Codec().EncodeYAML(doc, false)
	require.NoError(t, err)
	assert.NotContains(t, string(external), "_key")
}

func TestYAMLNonStringKeys(t *testing.T) {
	codec := core.DefaultCodec()

	doc, err := codec.DecodeYAML([]byte("a:\n  1: x\n  true: y\n"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"1":"x","true":"y"}}`, doc.String())

	_, err = codec.DecodeYAML([]byte("a: .nan\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrValidation), "bad input is a validation error: %v", err)
	assert.False(t, errors.Is(err, core.ErrInternal))
}

func TestCodecValuePassesScalarsThrough(t *testing.T) {
	codec := core.DefaultCodec()
	for _, in := range []core.Value{core.Null{}, core.Bool(true), core.String("x")} {
		out, err := codec.Value(in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
	n, err := codec.Value(core.Number("2.50"))
	require.NoError(t, err)
	assert.Equal(t, core.Number("2.5"), n)
}

func TestEncodeEmptyDocument(t *testing.T) {
	codec := core.DefaultCodec()
	zero := &core.Document{}
	assert.Equal(t, zero.String(), string(codec.Encode(zero)))
	assert.Equal(t, "{}", string(codec.Encode(nil)))
}
