package varint

import (
	"reflect"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := [][]int32{
		nil,
		{0},
		{0, 1, 2, 3},
		{5, 1000, 1001, 70000},
		{0, 127, 128, 16383, 16384, 2097151, 2097152},
	}
	for _, ids := range cases {
		enc := EncodePostings(ids)
		dec := DecodePostings(enc)
		if len(ids) == 0 {
			if len(dec) != 0 {
				t.Errorf("DecodePostings(empty) = %v, want empty", dec)
			}
			continue
		}
		if !reflect.DeepEqual(dec, ids) {
			t.Errorf("round trip %v -> %x -> %v", ids, enc, dec)
		}
	}
}

func TestDecodeCallback(t *testing.T) {
	ids := []int32{1, 5, 9, 20}
	enc := EncodePostings(ids)
	var got []int32
	Decode(enc, func(id int32) bool {
		got = append(got, id)
		return true
	})
	if !reflect.DeepEqual(got, ids) {
		t.Errorf("Decode callback = %v, want %v", got, ids)
	}
}

func TestDecodeEarlyStop(t *testing.T) {
	ids := []int32{1, 5, 9, 20, 100}
	enc := EncodePostings(ids)
	var got []int32
	Decode(enc, func(id int32) bool {
		got = append(got, id)
		return len(got) < 2
	})
	if !reflect.DeepEqual(got, []int32{1, 5}) {
		t.Errorf("Decode early stop = %v, want [1 5]", got)
	}
}

func TestEncodeNonIncreasingPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic for non-increasing doc-ids")
		}
	}()
	EncodePostings([]int32{5, 5})
}
