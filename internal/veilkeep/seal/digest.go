package seal

import (
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation ensures the same input bytes hash differently in
// different contexts, so a gateway batch attestation can never be
// replayed as anything else. The byte values are the ASCII encoding
// of the domain name, zero-padded to 32 bytes, which keeps the keys
// readable in hex dumps without weakening them (keyed BLAKE3 treats
// the key as an opaque 32-byte value).
type domainKey [32]byte

var batchDomainKey = domainKey{
	'v', 'e', 'i', 'l', 'k', 'e', 'e', 'p', '.', 'g', 'a', 't', 'e', 'w', 'a', 'y',
	'.', 'b', 'a', 't', 'c', 'h', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// authorizationPrefix domain-separates the digest a wallet signs when
// authorizing decryption. Hashed with Keccak-256 rather than BLAKE3
// because the signature scheme is the wallet-native recoverable
// secp256k1 flow, and wallets hash with Keccak.
var authorizationPrefix = []byte("veilkeep.decrypt.authorization\x00")

func keyedSum(key domainKey, data []byte) [32]byte {
	h, err := blake3.NewKeyed(key[:])
	if err != nil {
		// The key is a fixed 32-byte constant; NewKeyed only fails
		// on a wrong key length.
		panic("seal: blake3 keyed hasher: " + err.Error())
	}
	_, _ = h.Write(data)

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Keccak256 hashes the concatenation of the given chunks with
// legacy Keccak-256 (the ledger's native digest).
func Keccak256(chunks ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, c := range chunks {
		_, _ = h.Write(c)
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
