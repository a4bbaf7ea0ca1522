package credential

import (
	"strings"
	"testing"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()

	codec, err := NewCodec("test-obfuscation-key")
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	return codec
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	inputs := []string{
		"",
		"a",
		`{"accessToken":"tok1","refreshToken":"ref1"}`,
		strings.Repeat("x", 4096),
		"unicode: héllo wörld 日本語",
		"\x00\x01\x02 binary-ish \xff",
	}

	for _, in := range inputs {
		got := codec.Decode(codec.Encode(in))
		if got != in {
			t.Fatalf("round trip mismatch for %q: got %q", in, got)
		}
	}
}

func TestCodec_EmptyStringIdentity(t *testing.T) {
	codec := newTestCodec(t)

	if codec.Encode("") != "" {
		t.Fatal("Encode(\"\") must return \"\"")
	}
	if codec.Decode("") != "" {
		t.Fatal("Decode(\"\") must return \"\"")
	}
}

func TestCodec_Deterministic(t *testing.T) {
	codec := newTestCodec(t)

	first := codec.Encode("payload")
	second := codec.Encode("payload")
	if first != second {
		t.Fatalf("encoding is not deterministic: %q vs %q", first, second)
	}
}

func TestCodec_DecodeMalformedFailsSoft(t *testing.T) {
	codec := newTestCodec(t)

	inputs := []string{
		"not base64 !!!",
		"YQ",         // too short after decode
		"AAAA",       // wrong version / truncated
		codec.Encode("valid")[:8], // truncated ciphertext
	}

	for _, in := range inputs {
		if got := codec.Decode(in); got != "" {
			t.Fatalf("Decode(%q) = %q, want \"\"", in, got)
		}
	}
}

func TestCodec_DecodeForeignKeyFailsSoft(t *testing.T) {
	codec := newTestCodec(t)

	other, err := NewCodec("another-key")
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	cipher := other.Encode("secret payload")
	if got := codec.Decode(cipher); got != "" {
		t.Fatalf("decode with mismatched key must fail soft, got %q", got)
	}
}

func TestCodec_EmptyKeyRejected(t *testing.T) {
	if _, err := NewCodec(""); err == nil {
		t.Fatal("expected error for empty key")
	}
}

// FuzzCodecDecode exercises Decode with arbitrary inputs.
// Goal: no panics, no non-empty output for inputs Encode never produced.
func FuzzCodecDecode(f *testing.F) {
	codec, err := NewCodec("fuzz-key")
	if err != nil {
		f.Fatalf("NewCodec failed: %v", err)
	}

	f.Add("")
	f.Add("AAAA")
	f.Add(codec.Encode("seed"))
	f.Add(codec.Encode(""))

	f.Fuzz(func(t *testing.T, input string) {
		out := codec.Decode(input)
		if out != "" && codec.Encode(out) != input {
			t.Fatalf("Decode(%q) produced %q which does not re-encode", input, out)
		}
	})
}
