// internal/docstore/memory.go
package docstore

import (
	"context"
	"reflect"
	"sync"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewMemoryCollection returns an in-process Collection with the same
// matching, push and modified-count behavior as the MongoDB adapter.
// Documents round-trip through BSON, so struct tags apply exactly as they
// would against a real server.
func NewMemoryCollection[T any]() Collection[T] {
	return &memoryCollection[T]{}
}

type memoryCollection[T any] struct {
	mu   sync.RWMutex
	docs []bson.M
}

func (m *memoryCollection[T]) Find(_ context.Context, filter bson.M) ([]*T, error) {
	want, err := normalize(filter)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*T
	for _, doc := range m.docs {
		if !matches(doc, want) {
			continue
		}
		v, err := decode[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *memoryCollection[T]) FindByID(_ context.Context, id primitive.ObjectID) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil, ErrNoDocument
	}
	return decode[T](m.docs[i])
}

func (m *memoryCollection[T]) InsertOne(_ context.Context, doc *T) (primitive.ObjectID, error) {
	stored, err := toDocument(doc)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, ok := stored["_id"].(primitive.ObjectID)
	if !ok || id.IsZero() {
		id = primitive.NewObjectID()
		stored["_id"] = id
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexOf(id) >= 0 {
		return primitive.NilObjectID, errors.Errorf("duplicate key %s", id.Hex())
	}
	m.docs = append(m.docs, stored)
	return id, nil
}

func (m *memoryCollection[T]) UpdateByID(_ context.Context, id primitive.ObjectID, u Update) (UpdateResult, error) {
	if u.IsEmpty() {
		return UpdateResult{}, nil
	}
	set, err := normalize(u.Set)
	if err != nil {
		return UpdateResult{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return UpdateResult{}, nil
	}
	before := m.docs[i]
	after := make(bson.M, len(before))
	for k, v := range before {
		after[k] = v
	}
	for k, v := range set {
		after[k] = v
	}
	for field, ids := range u.Push {
		if len(ids) == 0 {
			continue
		}
		var arr bson.A
		if existing, ok := after[field].(bson.A); ok {
			arr = append(arr, existing...)
		} else if after[field] != nil {
			return UpdateResult{}, errors.Errorf("field %q is not an array", field)
		}
		for _, id := range ids {
			arr = append(arr, id)
		}
		after[field] = arr
	}

	res := UpdateResult{Matched: 1}
	if !reflect.DeepEqual(before, after) {
		m.docs[i] = after
		res.Modified = 1
	}
	return res, nil
}

func (m *memoryCollection[T]) DeleteByID(_ context.Context, id primitive.ObjectID) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil, nil
	}
	doc := m.docs[i]
	m.docs = append(m.docs[:i], m.docs[i+1:]...)
	return decode[T](doc)
}

// indexOf must be called with mu held.
func (m *memoryCollection[T]) indexOf(id primitive.ObjectID) int {
	for i, doc := range m.docs {
		if got, ok := doc["_id"].(primitive.ObjectID); ok && got == id {
			return i
		}
	}
	return -1
}

func matches(doc, filter bson.M) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok {
			return false
		}
		if arr, isArr := got.(bson.A); isArr {
			if _, wantArr := want.(bson.A); !wantArr {
				if !contains(arr, want) {
					return false
				}
				continue
			}
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func contains(arr bson.A, v interface{}) bool {
	for _, el := range arr {
		if reflect.DeepEqual(el, v) {
			return true
		}
	}
	return false
}

// normalize round-trips m through BSON so filter values compare equal to
// stored values (time.Time becomes primitive.DateTime, slices become bson.A).
func normalize(m bson.M) (bson.M, error) {
	if len(m) == 0 {
		return bson.M{}, nil
	}
	return toDocument(m)
}

func toDocument(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal document")
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "unmarshal document")
	}
	return doc, nil
}

func decode[T any](doc bson.M) (*T, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "marshal document")
	}
	var v T
	if err := bson.Unmarshal(raw, &v); err != nil {
		return nil, errors.Wrap(err, "decode document")
	}
	return &v, nil
}
