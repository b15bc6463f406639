// Package identity canonicalizes the shapes a user or document reference
// can take in stored documents.
//
// Older records hold raw ObjectIDs, some hold hex strings, and populated
// lookups embed the referenced document itself with its _id (or legacy id)
// field. Every membership and ownership comparison in the access layer goes
// through Normalize, so no call site re-implements reference coercion.
package identity

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Key is the canonical comparable form of a document identity.
//
// The zero Key means "no identity": it never matches anything, including
// another zero Key, so a malformed reference can never satisfy a
// membership check.
type Key string

// Zero is the Key of a missing or malformed identity.
const Zero Key = ""

// IsZero reports whether k identifies nothing.
func (k Key) IsZero() bool { return k == Zero }

// Keyer is implemented by model types that know their own canonical
// identity.
type Keyer interface {
	IdentityKey() Key
}

// Normalize converts any supported identity shape to its canonical Key.
//
// Supported shapes: Key, primitive.ObjectID and *primitive.ObjectID, hex or
// external-id strings, Ref and *Ref, and any Keyer. Zero values and
// unsupported shapes normalize to Zero; Normalize never panics on foreign
// input.
func Normalize(v any) Key {
	switch x := v.(type) {
	case nil:
		return Zero
	case Key:
		return x
	case primitive.ObjectID:
		if x.IsZero() {
			return Zero
		}
		return Key(x.Hex())
	case *primitive.ObjectID:
		if x == nil {
			return Zero
		}
		return Normalize(*x)
	case string:
		return normalizeString(x)
	case Ref:
		return x.Key()
	case *Ref:
		if x == nil {
			return Zero
		}
		return x.Key()
	case Keyer:
		return x.IdentityKey()
	}
	return Zero
}

// Equal reports whether two identity shapes refer to the same document.
// Two zero identities are never equal.
func Equal(a, b any) bool {
	ka, kb := Normalize(a), Normalize(b)
	if ka.IsZero() || kb.IsZero() {
		return false
	}
	return ka == kb
}

// normalizeString canonicalizes hex ObjectIDs (case-folded via the
// round-trip) and passes other non-empty strings through trimmed, so
// external identifiers still compare.
func normalizeString(s string) Key {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero
	}
	if oid, err := primitive.ObjectIDFromHex(s); err == nil {
		return Key(oid.Hex())
	}
	return Key(s)
}
