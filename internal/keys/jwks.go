package keys

import (
	"github.com/go-jose/go-jose/v4"
)

// JWKS renders the published keys as a JSON Web Key Set.
func (s *Store) JWKS() jose.JSONWebKeySet {
	pubs := s.PublicKeys()

	set := jose.JSONWebKeySet{Keys: make([]jose.JSONWebKey, 0, len(pubs))}
	for _, k := range pubs {
		set.Keys = append(set.Keys, jose.JSONWebKey{
			Key:       k.Key,
			KeyID:     k.ID,
			Algorithm: k.Algorithm,
			Use:       "sig",
		})
	}
	return set
}

// Algorithms lists the distinct signing algorithms of the published keys.
func (s *Store) Algorithms() []string {
	seen := make(map[string]bool)
	var algs []string
	for _, k := range s.PublicKeys() {
		if !seen[k.Algorithm] {
			seen[k.Algorithm] = true
			algs = append(algs, k.Algorithm)
		}
	}
	return algs
}
