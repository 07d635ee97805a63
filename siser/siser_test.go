package siser

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert"
)

func TestMarshalLine(t *testing.T) {
	fixedTime := time.Date(2024, 1, 15, 10, 30, 45, 123000000, time.UTC)
	ms := strconv.FormatInt(TimeToUnixMillisecond(fixedTime), 10)

	tests := []struct {
		name     string
		d        []byte
		expected string
	}{
		{"add", []byte("item: Книга"), "--- 16 " + ms + " add\nitem: Книга\n"},
		{"", []byte("x\n"), "--- 2 " + ms + "\nx\n"},
		{"clear", nil, "--- 0 " + ms + " clear\n"},
	}
	for _, tc := range tests {
		got := MarshalLine(tc.name, fixedTime, tc.d, nil)
		assert.Equal(t, tc.expected, string(got))
	}
}

func TestWriteRead(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	now := time.Now()
	recs := []struct {
		name string
		d    string
	}{
		{"add", "item: Книга"},
		{"remove", "item: Обувь\noutcome: not_found\n"},
		{"clear", ""},
		{"", "no name"},
	}
	for _, rec := range recs {
		_, err := w.Write([]byte(rec.d), now, rec.name)
		assert.NoError(t, err)
	}

	r := NewReader(&buf)
	i := 0
	for r.ReadNext() {
		assert.Equal(t, recs[i].name, r.Name)
		assert.Equal(t, recs[i].d, string(r.Data))
		assert.Equal(t, now.UnixMilli(), r.Timestamp.UnixMilli())
		i++
	}
	assert.NoError(t, r.Err())
	assert.Equal(t, len(recs), i)
}

func TestReadErrors(t *testing.T) {
	inputs := []string{
		"garbage\n",
		"--- 5\n",
		"--- x 12 name\n",
		"--- 10 12 name\nshort",
		"--- 3 12",
	}
	for _, s := range inputs {
		r := NewReader(strings.NewReader(s))
		assert.False(t, r.ReadNext(), s)
		assert.Error(t, r.Err(), s)
	}
}
