package patterns

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// VerifySignature checks a detached armored signature over a pattern bundle
// against an armored keyring. Bundles distributed outside the binary should
// be verified before loading.
func VerifySignature(bundle, signature, keyring []byte) error {
	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(keyring))
	if err != nil {
		return fmt.Errorf("reading keyring: %w", err)
	}
	if len(entities) == 0 {
		return fmt.Errorf("keyring contains no keys")
	}

	_, err = openpgp.CheckArmoredDetachedSignature(
		entities,
		bytes.NewReader(bundle),
		bytes.NewReader(signature),
		nil,
	)
	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}

// LoadVerified loads a pattern bundle only if its detached signature checks
// out against the keyring file.
func LoadVerified(bundlePath, sigPath, keyringPath string) (*Library, error) {
	bundle, err := os.ReadFile(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("reading pattern bundle: %w", err)
	}
	sig, err := os.ReadFile(sigPath)
	if err != nil {
		return nil, fmt.Errorf("reading bundle signature: %w", err)
	}
	keyring, err := os.ReadFile(keyringPath)
	if err != nil {
		return nil, fmt.Errorf("reading keyring: %w", err)
	}

	if err := VerifySignature(bundle, sig, keyring); err != nil {
		return nil, err
	}
	return Parse(bundle)
}
