package invlocale

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// HashText computes the SHA-256 hash of the trimmed text.
func HashText(text string) string {
	trimmed := strings.TrimSpace(text)
	hash := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(hash[:])
}

// CacheKeyExtended builds the memo key of one string. profile names what
// besides the text shapes the output (model, style, prompt context). The
// target locale is always the last segment.
func CacheKeyExtended(hash string, source, target Locale, profile string) string {
	return hash + ":" + string(source) + ":" + profile + ":" + string(target)
}

// canonicalContent fixes the key order of the hashed document.
type canonicalContent struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	LongDescription string   `json:"longDescription"`
	Category        string   `json:"category"`
	Tags            []string `json:"tags"`
}

// ComputeHash returns the hex SHA-256 of the canonical serialization of
// content. Tag order does not affect the result; a nil tag list hashes the
// same as an empty one. Invalid UTF-8 bytes serialize as the \ufffd
// escape, so distinct invalid byte sequences can share a hash; validated
// input never contains them.
func ComputeHash(content TranslatableContent) (string, error) {
	tags := make([]string, len(content.Tags))
	copy(tags, content.Tags)
	sort.Strings(tags)

	data, err := json.Marshal(canonicalContent{
		Title:           content.Title,
		Description:     content.Description,
		LongDescription: content.LongDescription,
		Category:        content.Category,
		Tags:            tags,
	})
	if err != nil {
		return "", &HashError{Cause: err}
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// MustComputeHash is ComputeHash for callers that hold already validated content.
func MustComputeHash(content TranslatableContent) string {
	h, err := ComputeHash(content)
	if err != nil {
		panic(err)
	}
	return h
}
