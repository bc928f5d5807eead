package domain

// EncryptedEnvelope pairs the key material used for an encryption with the resulting
// ciphertext (authentication tag appended). It is produced by the crypto engine and
// decomposed by providers into a WrappedCipherText; it is never persisted as is.
type EncryptedEnvelope struct {
	Key        KeyMaterial
	CipherText []byte
}
