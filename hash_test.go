package invlocale

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestHashText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple text",
			input:    "Hello World",
			expected: "a591a6d40bf420404a011733cfb7b190d62c65bf0bcda32b57b277d9ad9f146e",
		},
		{
			name:     "text with both whitespace",
			input:    "  Hello World  ",
			expected: "a591a6d40bf420404a011733cfb7b190d62c65bf0bcda32b57b277d9ad9f146e",
		},
		{
			name:  "empty string",
			input: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := HashText(tt.input)
			if tt.expected != "" && result != tt.expected {
				t.Errorf("HashText(%q) = %q, want %q", tt.input, result, tt.expected)
			}
			if len(result) != 64 {
				t.Errorf("HashText(%q) length = %d, want 64", tt.input, len(result))
			}
		})
	}
}

func TestComputeHash_InvalidUTF8Collapses(t *testing.T) {
	a, err := ComputeHash(TranslatableContent{Title: "Solar \xff"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := ComputeHash(TranslatableContent{Title: "Solar \xfe"})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("distinct invalid byte sequences should share a hash")
	}
}

func TestCacheKeyExtended(t *testing.T) {
	got := CacheKeyExtended("abc123", LocaleEN, LocaleDE, "0f1e2d3c4b5a")
	if got != "abc123:en:0f1e2d3c4b5a:de" {
		t.Errorf("CacheKeyExtended() = %q", got)
	}
}

func TestComputeHashCanonicalForm(t *testing.T) {
	content := TranslatableContent{
		Title:           "Solar Farm",
		Description:     "Clean energy",
		LongDescription: "A 5MW solar installation.",
		Category:        "Energy",
		Tags:            []string{"solar", "green"},
	}

	canonical := `{"title":"Solar Farm","description":"Clean energy","longDescription":"A 5MW solar installation.","category":"Energy","tags":["green","solar"]}`
	sum := sha256.Sum256([]byte(canonical))
	want := hex.EncodeToString(sum[:])

	got, err := ComputeHash(content)
	if err != nil {
		t.Fatalf("ComputeHash() error: %v", err)
	}
	if got != want {
		t.Errorf("ComputeHash() = %s, want %s", got, want)
	}
}

func TestComputeHashTagOrderIndependent(t *testing.T) {
	a := TranslatableContent{Title: "T", Tags: []string{"b", "a", "c"}}
	b := TranslatableContent{Title: "T", Tags: []string{"c", "b", "a"}}

	if MustComputeHash(a) != MustComputeHash(b) {
		t.Error("permuted tags should hash identically")
	}
	if a.Tags[0] != "b" {
		t.Error("ComputeHash must not reorder the caller's tags")
	}
}

func TestComputeHashNilTagsEqualsEmpty(t *testing.T) {
	a := TranslatableContent{Title: "T", Tags: nil}
	b := TranslatableContent{Title: "T", Tags: []string{}}

	if MustComputeHash(a) != MustComputeHash(b) {
		t.Error("nil and empty tags should hash identically")
	}
}

func TestComputeHashSensitivity(t *testing.T) {
	base := TranslatableContent{
		Title:           "Solar Farm",
		Description:     "Clean energy",
		LongDescription: "Long",
		Category:        "Energy",
		Tags:            []string{"solar"},
	}
	baseHash := MustComputeHash(base)

	variants := map[string]TranslatableContent{
		"title":           {Title: "Solar Farm!", Description: "Clean energy", LongDescription: "Long", Category: "Energy", Tags: []string{"solar"}},
		"description":     {Title: "Solar Farm", Description: "Clean", LongDescription: "Long", Category: "Energy", Tags: []string{"solar"}},
		"longDescription": {Title: "Solar Farm", Description: "Clean energy", LongDescription: "Longer", Category: "Energy", Tags: []string{"solar"}},
		"category":        {Title: "Solar Farm", Description: "Clean energy", LongDescription: "Long", Category: "Technology", Tags: []string{"solar"}},
		"tags":            {Title: "Solar Farm", Description: "Clean energy", LongDescription: "Long", Category: "Energy", Tags: []string{"solar", "wind"}},
		"tag case":        {Title: "Solar Farm", Description: "Clean energy", LongDescription: "Long", Category: "Energy", Tags: []string{"Solar"}},
	}

	for name, v := range variants {
		t.Run(name, func(t *testing.T) {
			if MustComputeHash(v) == baseHash {
				t.Errorf("changing %s should change the hash", name)
			}
		})
	}
}

func TestComputeHashFieldBoundaries(t *testing.T) {
	a := TranslatableContent{Title: "ab", Description: "c"}
	b := TranslatableContent{Title: "a", Description: "bc"}
	if MustComputeHash(a) == MustComputeHash(b) {
		t.Error("field boundaries must be part of the hash")
	}
}

func TestComputeHashDeterministic(t *testing.T) {
	c := TranslatableContent{Title: "Vineyard", Category: "Agriculture", Tags: []string{"wine"}}
	first := MustComputeHash(c)
	for i := 0; i < 10; i++ {
		if MustComputeHash(c) != first {
			t.Fatal("ComputeHash is not deterministic")
		}
	}
}
