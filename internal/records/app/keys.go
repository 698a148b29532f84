package app

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"

	"github.com/caliperhq/labrecords/pkg/idx"
	"github.com/caliperhq/labrecords/pkg/jwtx"
)

// InitSigningKeys builds the token signer/verifier pair.
//
// With SigningKeyFile set, the Ed25519 key is loaded from a PKCS8 PEM and
// tokens survive restarts. Without it an ephemeral key is generated on
// startup, which invalidates every previously issued token.
func InitSigningKeys(cfg Config, logger *slog.Logger) (jwtx.Signer, jwtx.Verifier, error) {
	kid := idx.New().String()

	if cfg.SigningKeyFile != "" {
		pemBytes, err := os.ReadFile(cfg.SigningKeyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read signing key file: %w", err)
		}
		signer, err := jwtx.NewSignerEdDSAFromPEM(kid, pemBytes)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse signing key: %w", err)
		}
		pub, err := jwtx.PublicKeyFromPEM(pemBytes)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to derive public key: %w", err)
		}

		logger.Info("signing key loaded", "kid", kid, "path", cfg.SigningKeyFile)
		return signer, jwtx.NewVerifierEdDSA(pub, cfg.Issuer), nil
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate signing key: %w", err)
	}
	signer, err := jwtx.NewSignerEdDSA(kid, priv)
	if err != nil {
		return nil, nil, err
	}

	logger.Warn("ephemeral signing key generated; all previously issued tokens are now invalid", "kid", kid)
	return signer, jwtx.NewVerifierEdDSA(pub, cfg.Issuer), nil
}
