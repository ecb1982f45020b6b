package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/campusreach/directory/pkg/jwtx"
)

// InitSigningKey loads the Ed25519 signing key from cfg.SigningKeyFile, or
// generates one when no file exists. A generated key is written back to the
// configured path so restarts keep issuing verifiable tokens; with no path
// configured the key is ephemeral and all tokens die with the process.
func InitSigningKey(cfg Config, logger *slog.Logger) (*jwtx.Signer, error) {
	if cfg.SigningKeyFile != "" {
		pemKey, err := os.ReadFile(cfg.SigningKeyFile)
		switch {
		case err == nil:
			signer, err := jwtx.NewSigner(cfg.SigningKeyID, pemKey)
			if err != nil {
				return nil, fmt.Errorf("failed to parse signing key %s: %w", cfg.SigningKeyFile, err)
			}
			logger.Info("loaded signing key", "path", cfg.SigningKeyFile, "kid", cfg.SigningKeyID)
			return signer, nil
		case errors.Is(err, fs.ErrNotExist):
			// fall through and generate
		default:
			return nil, fmt.Errorf("failed to read signing key %s: %w", cfg.SigningKeyFile, err)
		}
	}

	signer, err := jwtx.NewEphemeralSigner(cfg.SigningKeyID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}

	if cfg.SigningKeyFile != "" {
		pemKey, err := signer.EncodePEM()
		if err != nil {
			return nil, fmt.Errorf("failed to encode signing key: %w", err)
		}
		if err := os.WriteFile(cfg.SigningKeyFile, pemKey, 0o600); err != nil {
			return nil, fmt.Errorf("failed to persist signing key %s: %w", cfg.SigningKeyFile, err)
		}
		logger.Info("generated and persisted signing key", "path", cfg.SigningKeyFile, "kid", cfg.SigningKeyID)
	} else {
		logger.Warn("using ephemeral signing key; tokens will not survive a restart", "kid", cfg.SigningKeyID)
	}

	return signer, nil
}
