package format

import "testing"

func TestMetaHeaderRoundTrip(t *testing.T) {
	h := MetaHeader{Version: CurrentVersion, SepCode: DefaultSepCode, Count: 42, BaseCnt: 7}
	buf := EncodeMetaHeader(h)
	if len(buf) != HeaderSize {
		t.Fatalf("len(buf) = %d, want %d", len(buf), HeaderSize)
	}
	got, err := DecodeMetaHeader(buf)
	if err != nil {
		t.Fatalf("DecodeMetaHeader: %v", err)
	}
	if got != h {
		t.Errorf("DecodeMetaHeader = %+v, want %+v", got, h)
	}
}

func TestMetaHeaderBadMagic(t *testing.T) {
	buf := EncodeMetaHeader(MetaHeader{Version: CurrentVersion})
	buf[0] = 'X'
	if _, err := DecodeMetaHeader(buf); err != ErrBadMagic {
		t.Errorf("err = %v, want ErrBadMagic", err)
	}
}

func TestDictHeaderRoundTrip(t *testing.T) {
	h := DictHeader{Version: CurrentVersion, N: 2, Count: 1000}
	buf := EncodeDictHeader(h)
	got, err := DecodeDictHeader(buf)
	if err != nil {
		t.Fatalf("DecodeDictHeader: %v", err)
	}
	if got != h {
		t.Errorf("DecodeDictHeader = %+v, want %+v", got, h)
	}
}

func TestPad4Len(t *testing.T) {
	cases := map[int]int{0: 0, 1: 3, 2: 2, 3: 1, 4: 0, 5: 3}
	for n, want := range cases {
		if got := Pad4Len(n); got != want {
			t.Errorf("Pad4Len(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestStringPoolRoundTrip(t *testing.T) {
	strs := []string{"hello", "", "世界", "z"}
	enc := EncodeStringPool(strs)
	view, n, err := ReadStringPool(enc, 0, len(strs))
	if err != nil {
		t.Fatalf("ReadStringPool: %v", err)
	}
	if n != len(enc) {
		t.Errorf("consumed %d, want %d", n, len(enc))
	}
	for i, want := range strs {
		if got := view.At(i); got != want {
			t.Errorf("At(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestStringPoolEmpty(t *testing.T) {
	enc := EncodeStringPool(nil)
	view, _, err := ReadStringPool(enc, 0, 0)
	if err != nil {
		t.Fatalf("ReadStringPool: %v", err)
	}
	if view.Count() != 0 {
		t.Errorf("Count() = %d, want 0", view.Count())
	}
}

func TestStringPoolTruncated(t *testing.T) {
	enc := EncodeStringPool([]string{"abc"})
	_, _, err := ReadStringPool(enc[:len(enc)-2], 0, 1)
	if err != ErrTruncated {
		t.Errorf("err = %v, want ErrTruncated", err)
	}
}
