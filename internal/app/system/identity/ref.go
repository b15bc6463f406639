// internal/app/system/identity/ref.go
package identity

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ref is a reference field that tolerates every shape the collection
// history contains: a raw ObjectID, a hex string, null, or a populated
// sub-document whose _id (or legacy id) carries the identity.
//
// Decoding never fails. A shape Ref does not understand produces a zero
// Ref, which matches nothing downstream.
type Ref struct {
	id  primitive.ObjectID
	ext string // external (non-ObjectID) identifier, when that is what was stored
}

// NewRef returns a Ref holding the given ObjectID.
func NewRef(id primitive.ObjectID) Ref { return Ref{id: id} }

// Key returns the canonical Key for the referenced document.
func (r Ref) Key() Key {
	switch {
	case !r.id.IsZero():
		return Key(r.id.Hex())
	case r.ext != "":
		return Key(r.ext)
	}
	return Zero
}

// ObjectID returns the underlying ObjectID when the reference holds one.
func (r Ref) ObjectID() (primitive.ObjectID, bool) {
	return r.id, !r.id.IsZero()
}

// IsZero reports whether the reference identifies nothing. The bson codec
// treats zero Refs as empty for omitempty fields.
func (r Ref) IsZero() bool { return r.id.IsZero() && r.ext == "" }

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (r *Ref) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	*r = Ref{}
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.ObjectID:
		if oid, ok := rv.ObjectIDOK(); ok {
			r.id = oid
		}
	case bsontype.String:
		if s, ok := rv.StringValueOK(); ok {
			*r = refFromString(s)
		}
	case bsontype.EmbeddedDocument:
		doc, ok := rv.DocumentOK()
		if !ok {
			return nil
		}
		if idv, err := doc.LookupErr("_id"); err == nil {
			*r = refFromValue(idv)
			return nil
		}
		if idv, err := doc.LookupErr("id"); err == nil {
			*r = refFromValue(idv)
		}
	}
	return nil
}

// MarshalBSONValue implements bson.ValueMarshaler. Refs always marshal in
// the unpopulated form: an ObjectID when one is held, the external string
// otherwise, null when zero.
func (r Ref) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch {
	case !r.id.IsZero():
		return bson.MarshalValue(r.id)
	case r.ext != "":
		return bson.MarshalValue(r.ext)
	}
	return bson.MarshalValue(primitive.Null{})
}

func refFromValue(rv bson.RawValue) Ref {
	if oid, ok := rv.ObjectIDOK(); ok {
		return Ref{id: oid}
	}
	if s, ok := rv.StringValueOK(); ok {
		return refFromString(s)
	}
	return Ref{}
}

func refFromString(s string) Ref {
	k := normalizeString(s)
	if k.IsZero() {
		return Ref{}
	}
	if oid, err := primitive.ObjectIDFromHex(string(k)); err == nil {
		return Ref{id: oid}
	}
	return Ref{ext: string(k)}
}
