package codec

import (
	"bytes"
	"errors"
	"testing"
)

func sampleEntry() *Entry {
	entry := &Entry{
		StatusLine: "HTTP/1.1 200 OK",
		Body:       []byte(`{"id":1}`),
	}
	entry.Header.Set("Content-Type", "application/json")
	entry.Header.Add("Set-Cookie", "a=1")
	entry.Header.Add("Set-Cookie", "b=2")
	return entry
}

func TestRoundTrip(t *testing.T) {
	entry := sampleEntry()
	decoded, err := Decode(Encode(entry))
	if err != nil {
		t.Fatal(err)
	}
	if decoded.StatusLine != entry.StatusLine {
		t.Fatalf("Status line is %q", decoded.StatusLine)
	}
	if !bytes.Equal(decoded.Body, entry.Body) {
		t.Fatalf("Body is %q", decoded.Body)
	}
	if ct, _ := decoded.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type is %q", ct)
	}
	cookies := decoded.Header.Values("Set-Cookie")
	if len(cookies) != 2 || cookies[0] != "a=1" || cookies[1] != "b=2" {
		t.Fatalf("Set-Cookie values are %v", cookies)
	}
}

func TestRoundTripIsByteExact(t *testing.T) {
	first := Encode(sampleEntry())
	decoded, err := Decode(first)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(Encode(decoded), first) {
		t.Fatal("Re-encoded record differs from original")
	}
}

func TestRoundTripEmptyBody(t *testing.T) {
	entry := &Entry{StatusLine: "HTTP/1.1 204 No Content"}
	decoded, err := Decode(Encode(entry))
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Body != nil {
		t.Fatalf("Body is %q", decoded.Body)
	}
}

func TestDecodeTruncatedRecord(t *testing.T) {
	record := Encode(sampleEntry())
	for _, cut := range []int{0, 3, len(record) / 2, len(record) - 1} {
		if _, err := Decode(record[:cut]); !errors.Is(err, ErrCorrupt) {
			t.Fatalf("Error for cut %d is %v", cut, err)
		}
	}
}

func TestDecodeTrailingGarbage(t *testing.T) {
	record := append(Encode(sampleEntry()), 'x')
	if _, err := Decode(record); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Error is %v", err)
	}
}

func TestDecodeOversizedLengthPrefix(t *testing.T) {
	// claims a 4 GiB status line
	record := []byte{0xff, 0xff, 0xff, 0xff, 'h', 'i'}
	if _, err := Decode(record); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Error is %v", err)
	}
}
