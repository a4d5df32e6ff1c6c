package realtime

import (
	jose "github.com/go-jose/go-jose/v4"
	"github.com/pkg/errors"
)

// BuildJWKS assembles the public JWKS document for discovery. The active key
// comes first; retired rotation keys follow so tokens signed before a
// rotation stay verifiable until they expire.
func BuildJWKS(conf Conf) (*jose.JSONWebKeySet, error) {
	conf.SetDefaults()

	set := &jose.JSONWebKeySet{}

	pub, err := ParsePublicKey(conf.PublicKey)
	if err != nil {
		return nil, err
	}
	set.Keys = append(set.Keys, jose.JSONWebKey{
		Key:       pub,
		KeyID:     conf.KeyId,
		Algorithm: string(jose.RS256),
		Use:       "sig",
	})

	for kid, pemStr := range conf.RetiredPublicKeys {
		retired, err := ParsePublicKey(pemStr)
		if err != nil {
			return nil, errors.Wrapf(err, "realtime: retired key %s", kid)
		}
		set.Keys = append(set.Keys, jose.JSONWebKey{
			Key:       retired,
			KeyID:     kid,
			Algorithm: string(jose.RS256),
			Use:       "sig",
		})
	}

	return set, nil
}
