package fingerprint

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/schemadiff/schemadiff/internal/model"
)

var genericPlatform = model.Generic()

// SchemaFingerprint represents a fingerprint of a database schema state
type SchemaFingerprint struct {
	Hash string `json:"hash"` // SHA256 of the serialized model
}

// ComputeFingerprint generates a fingerprint for the given database
func ComputeFingerprint(db *model.Database) (*SchemaFingerprint, error) {
	hash, err := hashObject(db)
	if err != nil {
		return nil, fmt.Errorf("failed to compute schema hash: %w", err)
	}

	return &SchemaFingerprint{
		Hash: hash,
	}, nil
}

type fieldSignature struct {
	Name string `json:"n"`
	Type string `json:"t"`
}

// EntitySignature hashes the field name/type pairs of an entity. Entity name, field order,
// indexes and foreign keys do not contribute, so two entities share a signature exactly
// when they have the same column shape.
func EntitySignature(e *model.Entity, platform *model.Platform) (string, error) {
	if platform == nil {
		platform = genericPlatform
	}

	sig := make([]fieldSignature, 0, len(e.Fields))
	for _, f := range e.Fields {
		sig = append(sig, fieldSignature{Name: f.Name, Type: platform.Normalize(f.Type)})
	}
	sort.Slice(sig, func(i, j int) bool { return sig[i].Name < sig[j].Name })

	hash, err := hashObject(sig)
	if err != nil {
		return "", fmt.Errorf("failed to compute signature of %s: %w", e.Name, err)
	}
	return hash, nil
}

// hashObject computes a SHA256 hash of any object
func hashObject(obj any) (string, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}

// String returns a human-readable representation of the fingerprint
func (f *SchemaFingerprint) String() string {
	if len(f.Hash) >= 8 {
		return fmt.Sprintf("Schema fingerprint: %s", f.Hash[:8])
	}
	return fmt.Sprintf("Schema fingerprint: %s", f.Hash)
}
