package internal

import (
	"fmt"
	"testing"
)

var (
	tokenInputs = []string{
		"MTlfMTcwMDAwMDAwMF80MjQyXzBhYmNkZWY=",
		"M18xNzAwMDAwMzAwXzEwMDFfZmZmZmZm",
		"MjVfMTcwMDAwMDYwMF85OTk5XzEyMzQ1Ng==",
	}

	markdownInputs = []string{
		"# Why we built it\n\nShort intro paragraph.",
		"## Results\n\n- 40% faster onboarding\n- fewer tickets",
		"A plain paragraph with a [link](https://example.com).",
	}
)

func BenchmarkSHA256_Tokens(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = SHA256sum(tokenInputs[i%len(tokenInputs)])
	}
}

func BenchmarkFastHash_Markdown(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = FastHash(markdownInputs[i%len(markdownInputs)])
	}
}

func TestSHA256sumFormat(t *testing.T) {
	got := SHA256sum("")
	const want = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got != want {
		t.Errorf("wanted %s, got %s", want, got)
	}
}

func TestFastHashCollisions(t *testing.T) {
	seen := map[string]string{}
	for i := 0; i < 10000; i++ {
		input := fmt.Sprintf("insight-%d", i)
		hash := FastHash(input)
		if existing, ok := seen[hash]; ok {
			t.Fatalf("collision: %q and %q both hash to %s", input, existing, hash)
		}
		seen[hash] = input
	}

	for _, input := range markdownInputs {
		hash := FastHash(input)
		if len(hash) == 0 || len(hash) > 16 {
			t.Errorf("hash %q for %q has wrong length", hash, input)
		}
	}
}

func TestFastHashParts(t *testing.T) {
	for _, tt := range []struct {
		name string
		a, b []string
	}{
		{name: "boundary moved", a: []string{"ab", "c"}, b: []string{"a", "bc"}},
		{name: "empty part", a: []string{"abc"}, b: []string{"abc", ""}},
		{name: "namespace", a: []string{"html", "x"}, b: []string{"text", "x"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if FastHash(tt.a...) == FastHash(tt.b...) {
				t.Errorf("%q and %q hash the same", tt.a, tt.b)
			}
		})
	}

	if FastHash("html", "x") != FastHash("html", "x") {
		t.Error("FastHash is not deterministic")
	}
}
