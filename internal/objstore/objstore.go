// Package objstore keeps track of the protocol objects that belong to a
// single client connection.
package objstore

import "golang.org/x/exp/slices"

// Object is a protocol object that can be torn down.
type Object interface {
	Destroy()
}

type Store struct {
	objects map[uint32]Object
}

func New() *Store {
	return &Store{
		objects: make(map[uint32]Object),
	}
}

// Add stores obj under id, replacing anything that was there.
func (s *Store) Add(id uint32, obj Object) {
	s.objects[id] = obj
}

// Get returns the object with the given ID, or nil.
func (s *Store) Get(id uint32) Object {
	return s.objects[id]
}

// Has reports whether there is an object with the given ID.
func (s *Store) Has(id uint32) bool {
	_, ok := s.objects[id]
	return ok
}

// Delete removes the object with the given ID and destroys it.
func (s *Store) Delete(id uint32) {
	obj := s.objects[id]
	delete(s.objects, id)
	if obj != nil {
		obj.Destroy()
	}
}

// Len returns the number of objects in the store.
func (s *Store) Len() int {
	return len(s.objects)
}

// Clear destroys every object in the store, newest first, and empties
// it.
func (s *Store) Clear() {
	objects := s.objects
	s.objects = make(map[uint32]Object)

	ids := make([]uint32, 0, len(objects))
	for id := range objects {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for i := len(ids) - 1; i >= 0; i-- {
		objects[ids[i]].Destroy()
	}
}
