package realtime

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Conf holds the asymmetric realtime-token settings. The private key signs
// short-lived RS256 tokens; the public key is published through JWKS so the
// realtime tier can verify without sharing secrets.
type Conf struct {
	Issuer      string        `mapstructure:"issuer"`
	Audience    string        `mapstructure:"audience"`
	KeyId       string        `mapstructure:"keyId"`
	PrivateKey  string        `mapstructure:"privateKey"`
	PublicKey   string        `mapstructure:"publicKey"`
	TokenExpire time.Duration `mapstructure:"tokenExpire"`

	// RetiredPublicKeys keeps previously published keys in the JWKS during
	// rotation, keyed by kid.
	RetiredPublicKeys map[string]string `mapstructure:"retiredPublicKeys"`
}

func (c *Conf) SetDefaults() {
	if c.TokenExpire == 0 {
		c.TokenExpire = time.Hour
	}
	if c.KeyId == "" {
		c.KeyId = "primary"
	}
}

// loadPEM accepts either inline PEM (with literal or escaped newlines) or a
// path to a PEM file.
func loadPEM(value string) (string, error) {
	if strings.Contains(value, "-----BEGIN") {
		return strings.ReplaceAll(value, `\n`, "\n"), nil
	}
	raw, err := os.ReadFile(value)
	if err != nil {
		return "", errors.Wrap(err, "realtime: read key file")
	}
	return string(raw), nil
}

// ParsePrivateKey decodes the PKCS8 PEM private key. A missing or malformed
// key is a deployment error and must abort startup.
func (c *Conf) ParsePrivateKey() (*rsa.PrivateKey, error) {
	pemStr, err := loadPEM(c.PrivateKey)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, errors.New("realtime: private key is not valid PEM")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "realtime: parse PKCS8 private key")
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("realtime: private key is not RSA")
	}
	return rsaKey, nil
}

// ParsePublicKey decodes an SPKI PEM public key, given inline or as a file path.
func ParsePublicKey(value string) (*rsa.PublicKey, error) {
	pemStr, err := loadPEM(value)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, errors.New("realtime: public key is not valid PEM")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "realtime: parse SPKI public key")
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("realtime: public key is not RSA")
	}
	return rsaKey, nil
}
