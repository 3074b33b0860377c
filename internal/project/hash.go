package project

import (
	"crypto/sha256"
	"strconv"
)

// Digest - фиксированный 256 битный хеш (совместим с source.File.Hash)
type Digest [32]byte

// Combine строит хеш модуля: H( content || dep1 || dep2 ... ).
// Порядок deps должен быть детерминированным (ModuleMeta.Imports отсортированы).
func Combine(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// HashBytes hashes raw bytes, e.g. the interchange document of a module.
func HashBytes(data []byte) Digest {
	return sha256.Sum256(data)
}

// OptionsDigest folds generator settings that change the output into a
// digest, so cached output from other settings is never reused.
func OptionsDigest(version string, lineWidth int, enforce bool) Digest {
	h := sha256.New()
	_, _ = h.Write([]byte(version))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strconv.Itoa(lineWidth)))
	if enforce {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
