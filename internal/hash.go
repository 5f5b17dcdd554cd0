package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// SHA256sum is for keys derived from attacker-supplied material, such as
// CAPTCHA tokens, where a collision must not be constructible.
func SHA256sum(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// FastHash keys caches over content only admins can write, like insight
// markdown. Parts are length-prefixed so ("ab", "c") and ("a", "bc") differ.
func FastHash(parts ...string) string {
	d := xxhash.New()
	for _, p := range parts {
		d.WriteString(strconv.Itoa(len(p)))
		d.WriteString(":")
		d.WriteString(p)
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
