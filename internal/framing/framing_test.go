package framing

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Foo string `json:"foo"`
	Bar int    `json:"bar"`
}

func TestWriteThenReadMessage_RoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, sample{Foo: "hi", Bar: 42}))

	assert.Equal(t, byte(0), buf.Bytes()[buf.Len()-1], "message must end with a single NUL byte")

	var got sample
	require.NoError(t, ReadMessage(bufio.NewReader(&buf), &got))
	assert.Equal(t, sample{Foo: "hi", Bar: 42}, got)
}

func TestReadMessage_MultipleMessagesOnOneStream(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, sample{Foo: "first"}))
	require.NoError(t, WriteMessage(&buf, sample{Foo: "second"}))

	r := bufio.NewReader(&buf)
	var first, second sample
	require.NoError(t, ReadMessage(r, &first))
	require.NoError(t, ReadMessage(r, &second))
	assert.Equal(t, "first", first.Foo)
	assert.Equal(t, "second", second.Foo)
}

func TestReadMessage_EOFOnEmptyStream(t *testing.T) {
	t.Parallel()
	r := bufio.NewReader(strings.NewReader(""))
	var got sample
	err := ReadMessage(r, &got)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadMessage_RejectsOversizedMessage(t *testing.T) {
	t.Parallel()
	oversized := strings.Repeat("a", MaxMessageSize+1)
	payload := `{"foo":"` + oversized + `"}` + "\x00"
	r := bufio.NewReader(strings.NewReader(payload))

	var got sample
	err := ReadMessage(r, &got)
	require.Error(t, err)
}

func TestWriteMessage_RejectsOversizedMessage(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	oversized := strings.Repeat("a", MaxMessageSize+1)
	err := WriteMessage(&buf, sample{Foo: oversized})
	require.Error(t, err)
}

func TestReadMessage_MalformedJSON(t *testing.T) {
	t.Parallel()
	r := bufio.NewReader(strings.NewReader("not json\x00"))
	var got sample
	err := ReadMessage(r, &got)
	require.Error(t, err)
}
