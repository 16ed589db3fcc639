package objectid

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// suffixLength is the number of random characters appended to an object name.
const suffixLength = 12

// Resolver is the shared object-name to object-id lookup table. It is seeded
// once by the host process and grows as drivers declare unseen objects.
type Resolver struct {
	mu     sync.RWMutex
	byName map[string]ObjectID
	byID   map[ObjectID]string
}

// NewResolver creates a Resolver seeded with table. The table is copied.
func NewResolver(table map[string]ObjectID) *Resolver {
	r := &Resolver{
		byName: make(map[string]ObjectID, len(table)),
		byID:   make(map[ObjectID]string, len(table)),
	}
	for name, id := range table {
		r.byName[name] = id
		r.byID[id] = name
	}
	return r
}

// NewObjectID generates a fresh id for name.
func NewObjectID(name string) ObjectID {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLength]
	return ObjectID(name + suffix)
}

// Resolve looks up the id of objectName.
func (r *Resolver) Resolve(objectName string) (ObjectID, bool) {
	if objectName == "" {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[objectName]
	return id, ok
}

// Lookup accepts either an object name or an object id and returns the id.
func (r *Resolver) Lookup(nameOrID string) (ObjectID, bool) {
	if id, ok := r.Resolve(nameOrID); ok {
		return id, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.byID[ObjectID(nameOrID)]; ok {
		return ObjectID(nameOrID), true
	}
	return "", false
}

// Ensure returns the id of objectName, creating and recording one if the name
// has not been seen yet.
func (r *Resolver) Ensure(objectName string) ObjectID {
	if id, ok := r.Resolve(objectName); ok {
		return id
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byName[objectName]; ok {
		return id
	}
	id := NewObjectID(objectName)
	r.byName[objectName] = id
	r.byID[id] = objectName
	return id
}

// Register binds objectName to id, replacing any previous binding of the name.
func (r *Resolver) Register(objectName string, id ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byName[objectName]; ok {
		delete(r.byID, old)
	}
	r.byName[objectName] = id
	r.byID[id] = objectName
}

// Name returns the object name bound to id.
func (r *Resolver) Name(id ObjectID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byID[id]
	return name, ok
}
