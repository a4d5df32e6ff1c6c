package realtime

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Claims are the identity claims minted into a realtime token. They are a
// snapshot of who the user is at mint time; the realtime tier never treats
// them as authorization.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	OrgId string `json:"orgId,omitempty"`
	jwt.RegisteredClaims
}

// Issuer mints short-lived RS256 tokens for the realtime tier.
type Issuer struct {
	conf Conf
	key  *rsa.PrivateKey
}

// NewIssuer validates the signing key up front so a misconfigured deploy
// fails at startup, not at first token request.
func NewIssuer(conf Conf) (*Issuer, error) {
	conf.SetDefaults()
	key, err := conf.ParsePrivateKey()
	if err != nil {
		return nil, err
	}
	if conf.Issuer == "" || conf.Audience == "" {
		return nil, errors.New("realtime: issuer and audience are required")
	}
	return &Issuer{conf: conf, key: key}, nil
}

// Mint signs a realtime token for userId with the given identity snapshot.
func (i *Issuer) Mint(userId, email, name, role, orgId string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		Name:  name,
		Role:  role,
		OrgId: orgId,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userId,
			Issuer:    i.conf.Issuer,
			Audience:  jwt.ClaimStrings{i.conf.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.conf.TokenExpire)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = i.conf.KeyId
	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", errors.Wrap(err, "realtime: sign token")
	}
	return signed, nil
}

// KeyId returns the kid advertised in minted token headers.
func (i *Issuer) KeyId() string {
	return i.conf.KeyId
}

// Verifier checks realtime tokens against a set of public keys keyed by kid.
type Verifier struct {
	issuer   string
	audience string
	keys     map[string]*rsa.PublicKey
}

// NewVerifier builds a verifier from the configured public keys,
// retired rotation keys included.
func NewVerifier(conf Conf) (*Verifier, error) {
	conf.SetDefaults()
	keys := make(map[string]*rsa.PublicKey)

	pub, err := ParsePublicKey(conf.PublicKey)
	if err != nil {
		return nil, err
	}
	keys[conf.KeyId] = pub

	for kid, pemStr := range conf.RetiredPublicKeys {
		retired, err := ParsePublicKey(pemStr)
		if err != nil {
			return nil, errors.Wrapf(err, "realtime: retired key %s", kid)
		}
		keys[kid] = retired
	}

	return &Verifier{issuer: conf.Issuer, audience: conf.Audience, keys: keys}, nil
}

// Verify parses and validates a realtime token, including issuer, audience
// and kid resolution. Expired or foreign tokens are rejected.
func (v *Verifier) Verify(token string) (*Claims, error) {
	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		kid, _ := t.Header["kid"].(string)
		key, ok := v.keys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown kid: %q", kid)
		}
		return key, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithAudience(v.audience))
	if err != nil {
		return nil, errors.Wrap(err, "realtime: verify token")
	}
	if !parsed.Valid {
		return nil, errors.New("realtime: invalid token")
	}
	return claims, nil
}
