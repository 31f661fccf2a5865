package lwo

import (
	"errors"
	"reflect"
	"testing"
)

func TestEncodeString(t *testing.T) {
	specs := []struct {
		in  string
		exp []byte
	}{
		{"", []byte{0, 0}},
		{"a", []byte{'a', 0}},
		{"ab", []byte{'a', 'b', 0, 0}},
		{"abc", []byte{'a', 'b', 'c', 0}},
	}

	for specIndex, spec := range specs {
		out := EncodeString(spec.in)
		if !reflect.DeepEqual(out, spec.exp) {
			t.Errorf("[spec %d] expected %v; got %v", specIndex, spec.exp, out)
		}
		if len(out)%2 != 0 {
			t.Errorf("[spec %d] expected even length; got %d", specIndex, len(out))
		}
	}
}

func TestEncodeIndex(t *testing.T) {
	specs := []struct {
		in  uint32
		exp []byte
	}{
		{0, []byte{0x00, 0x00}},
		{0x1234, []byte{0x12, 0x34}},
		{0xFEFF, []byte{0xFE, 0xFF}},
		{0xFF00, []byte{0xFF, 0x00, 0xFF, 0x00}},
		{0x123456, []byte{0xFF, 0x12, 0x34, 0x56}},
	}

	for specIndex, spec := range specs {
		out := EncodeIndex(spec.in)
		if !reflect.DeepEqual(out, spec.exp) {
			t.Errorf("[spec %d] expected %v; got %v", specIndex, spec.exp, out)
		}
	}
}

func TestIndexRoundTrip(t *testing.T) {
	for _, index := range []int{0, 1, 0xFEFF, 0xFF00, 0xFFFF, 0x10000, maxWideIndex} {
		var buf chunkBuffer
		form := selectIndexForm(index+1, 0)
		buf.Index(form, index)
		if err := buf.Err(); err != nil {
			t.Fatalf("index %d: unexpected error %v", index, err)
		}

		got := newPayloadReader(t, buf.Bytes()).index()
		if got != index {
			t.Fatalf("expected decoded index to be %d; got %d", index, got)
		}
	}
}

func TestSelectIndexForm(t *testing.T) {
	specs := []struct {
		points, polygons int
		wide             bool
	}{
		{3, 1, false},
		{maxNarrowIndex, maxNarrowIndex, false},
		{maxNarrowIndex + 1, 1, true},
		{3, maxNarrowIndex + 1, true},
	}

	for specIndex, spec := range specs {
		if form := selectIndexForm(spec.points, spec.polygons); form.wide != spec.wide {
			t.Errorf("[spec %d] expected wide to be %t; got %t", specIndex, spec.wide, form.wide)
		}
	}
}

func TestIndexOverflow(t *testing.T) {
	specs := []struct {
		form  indexForm
		index int
	}{
		{indexForm{}, maxNarrowIndex},
		{indexForm{}, -1},
		{indexForm{wide: true}, -1},
		{indexForm{wide: true}, maxWideIndex + 1},
	}

	for specIndex, spec := range specs {
		var buf chunkBuffer
		buf.Index(spec.form, spec.index)
		if !errors.Is(buf.Err(), ErrIndexOverflow) {
			t.Errorf("[spec %d] expected ErrIndexOverflow; got %v", specIndex, buf.Err())
		}
		if buf.Len() != 0 {
			t.Errorf("[spec %d] expected nothing to be written; got %d bytes", specIndex, buf.Len())
		}
	}
}

func TestSubChunk(t *testing.T) {
	var buf chunkBuffer
	buf.SubChunk("DIFF", []byte{1, 2, 3, 4, 0, 0})
	exp := []byte{'D', 'I', 'F', 'F', 0, 6, 1, 2, 3, 4, 0, 0}
	if !reflect.DeepEqual(buf.Bytes(), exp) {
		t.Fatalf("expected %v; got %v", exp, buf.Bytes())
	}

	buf.Reset()
	buf.SubChunk("BLOK", make([]byte, 0x10000))
	if !errors.Is(buf.Err(), ErrSubChunkTooLarge) {
		t.Fatalf("expected ErrSubChunkTooLarge; got %v", buf.Err())
	}
}

func TestInvalidTag(t *testing.T) {
	var buf chunkBuffer
	buf.Tag("RGB")
	if buf.Err() == nil {
		t.Fatal("expected an error for a 3 character tag")
	}
	if _, err := buf.Payload(); err == nil {
		t.Fatal("expected Payload to report the tag error")
	}
}
