package identity

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// refDoc is the carrier struct the decode tests round-trip through, standing
// in for any model with a reference field.
type refDoc struct {
	Head Ref `bson:"head,omitempty"`
}

func decodeRef(t *testing.T, doc bson.M) Ref {
	t.Helper()
	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	var out refDoc
	if err := bson.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	return out.Head
}

func TestRef_DecodeShapes(t *testing.T) {
	oid := primitive.NewObjectID()

	tests := []struct {
		name string
		doc  bson.M
		want Key
	}{
		{"raw object id", bson.M{"head": oid}, Key(oid.Hex())},
		{"hex string", bson.M{"head": oid.Hex()}, Key(oid.Hex())},
		{"external string", bson.M{"head": "legacy-007"}, Key("legacy-007")},
		{"populated doc", bson.M{"head": bson.M{"_id": oid, "full_name": "A Person"}}, Key(oid.Hex())},
		{"populated doc hex id", bson.M{"head": bson.M{"_id": oid.Hex()}}, Key(oid.Hex())},
		{"legacy id field", bson.M{"head": bson.M{"id": oid, "full_name": "A Person"}}, Key(oid.Hex())},
		{"null", bson.M{"head": nil}, Zero},
		{"missing", bson.M{}, Zero},
		{"doc without id", bson.M{"head": bson.M{"full_name": "A Person"}}, Zero},
		{"unsupported int", bson.M{"head": int32(7)}, Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeRef(t, tt.doc)
			if got.Key() != tt.want {
				t.Errorf("decoded key = %q, want %q", got.Key(), tt.want)
			}
		})
	}
}

func TestRef_PrefersPrimaryID(t *testing.T) {
	primary := primitive.NewObjectID()
	legacy := primitive.NewObjectID()

	got := decodeRef(t, bson.M{"head": bson.M{"_id": primary, "id": legacy}})
	if got.Key() != Key(primary.Hex()) {
		t.Errorf("decoded key = %q, want primary _id %q", got.Key(), primary.Hex())
	}
}

func TestRef_DecodeSlice(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	raw, err := bson.Marshal(bson.M{
		"members": bson.A{a, bson.M{"_id": b}, "ghost-id", nil},
	})
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	var out struct {
		Members []Ref `bson:"members"`
	}
	if err := bson.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	want := []Key{Key(a.Hex()), Key(b.Hex()), Key("ghost-id"), Zero}
	if len(out.Members) != len(want) {
		t.Fatalf("decoded %d members, want %d", len(out.Members), len(want))
	}
	for i, m := range out.Members {
		if m.Key() != want[i] {
			t.Errorf("member[%d] key = %q, want %q", i, m.Key(), want[i])
		}
	}
}

func TestRef_MarshalRoundTrip(t *testing.T) {
	oid := primitive.NewObjectID()

	raw, err := bson.Marshal(refDoc{Head: NewRef(oid)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out refDoc
	if err := bson.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Head.Key() != Key(oid.Hex()) {
		t.Errorf("round-trip key = %q, want %q", out.Head.Key(), oid.Hex())
	}

	id, ok := out.Head.ObjectID()
	if !ok || id != oid {
		t.Errorf("round-trip ObjectID = %v/%v, want %v/true", id, ok, oid)
	}
}

func TestRef_ZeroMarshalsOmitted(t *testing.T) {
	raw, err := bson.Marshal(refDoc{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, present := doc["head"]; present {
		t.Errorf("zero Ref with omitempty should be omitted, got %v", doc["head"])
	}
}
