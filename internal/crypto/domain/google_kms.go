package domain

import "fmt"

// GoogleKMS identifies a symmetric CryptoKey in Google Cloud KMS.
//
// Only the identity is held locally; the key itself never leaves the service.
type GoogleKMS struct {
	ProjectID      string
	LocationID     string
	KeyRingID      string
	KeyID          string
	CredentialFile string // Path to a service account JSON file, empty for application default credentials
}

// CryptoKeyName returns the resource name used by Encrypt/Decrypt RPCs.
func (g GoogleKMS) CryptoKeyName() string {
	return fmt.Sprintf(
		"projects/%s/locations/%s/keyRings/%s/cryptoKeys/%s",
		g.ProjectID,
		g.LocationID,
		g.KeyRingID,
		g.KeyID,
	)
}
