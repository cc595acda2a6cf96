// Package digest computes the answer digests used by issued puzzle packages.
//
// Puzzle packages deliberately store several weak digests of each accepted
// answer instead of one strong hash: a guess can be pre-validated without
// revealing which algorithm guards the real answer, and collisions are
// frequent enough to make offline dictionary attacks unattractive. Every
// algorithm here must stay bit-exact with packages already in the field, so
// do not "fix" any of them.
package digest

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Algorithm names used to tag digest values.
const (
	AlgoDJB2     = "djb2"
	AlgoDJB2XOR  = "djb2xor"
	AlgoSHA256   = "sha256"
	AlgoSHA1Short = "sha1short"
)

// Value is a single digest of an input, tagged with the algorithm that
// produced it.
type Value struct {
	Algorithm string
	Digest    string
}

// DJB2 returns the Bernstein rolling hash of the UTF-8 bytes of s,
// with unsigned 32-bit wraparound. Seed is 5381.
func DJB2(s string) uint32 {
	var h uint32 = 5381
	for _, c := range []byte(s) {
		h = h*33 + uint32(c)
	}
	return h
}

// DJB2XOR is the XOR variant of DJB2: h = (h*33) ^ c per byte.
func DJB2XOR(s string) uint32 {
	var h uint32 = 5381
	for _, c := range []byte(s) {
		h = (h * 33) ^ uint32(c)
	}
	return h
}

// SHA256Hex returns the lowercase hex SHA-256 digest of s.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// SHA1Short returns the first 4 hex characters of the SHA-1 digest of s.
// It is collision-prone on purpose and only ever a "looks plausible"
// signal, like an abbreviated VCS hash.
func SHA1Short(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:4]
}

// All returns every digest of input this package knows how to compute.
// The rolling hashes appear twice, once rendered as decimal and once as
// zero-padded hex, because puzzle packages from different tooling eras
// stored either form.
func All(input string) []Value {
	d := DJB2(input)
	x := DJB2XOR(input)
	return []Value{
		{AlgoDJB2, strconv.FormatUint(uint64(d), 10)},
		{AlgoDJB2, fmt.Sprintf("%08x", d)},
		{AlgoDJB2XOR, strconv.FormatUint(uint64(x), 10)},
		{AlgoDJB2XOR, fmt.Sprintf("%08x", x)},
		{AlgoSHA256, SHA256Hex(input)},
		{AlgoSHA1Short, SHA1Short(input)},
	}
}

// Matches reports whether any digest of candidate appears in accepted.
func Matches(candidate string, accepted []string) bool {
	if len(accepted) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(accepted))
	for _, a := range accepted {
		set[a] = struct{}{}
	}
	for _, v := range All(candidate) {
		if _, ok := set[v.Digest]; ok {
			return true
		}
	}
	return false
}
