// Package memory provides a mutex-guarded in-memory store collection.
// It backs single-process deployments and is the test double for the
// postgres store; both honor the same contract.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/store"
)

// Collection is an in-memory store.Collection with stable insertion order.
// Reads return deep copies so callers can never alias stored state.
type Collection[T store.Keyed] struct {
	name string

	mu    sync.Mutex
	items map[string]T
	order []string
}

// NewCollection creates an empty collection. The name appears in not-found
// errors and matches the collection's bus topic.
func NewCollection[T store.Keyed](name string) *Collection[T] {
	return &Collection[T]{
		name:  name,
		items: make(map[string]T),
	}
}

// clone deep-copies v through JSON. T is always a pointer to a plain
// JSON-serializable struct, so a round trip is lossless.
func clone[T any](v T) (T, error) {
	var out T
	b, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, err
	}
	return out, nil
}

// GetAll returns every item in insertion order.
func (c *Collection[T]) GetAll(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]T, 0, len(c.order))
	for _, id := range c.order {
		item, err := clone(c.items[id])
		if err != nil {
			return nil, apperror.NewStore("copy "+c.name, err)
		}
		result = append(result, item)
	}
	return result, nil
}

// GetByID returns the item with the given id.
func (c *Collection[T]) GetByID(ctx context.Context, id string) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[id]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound(c.name, id)
	}
	copied, err := clone(item)
	if err != nil {
		var zero T
		return zero, apperror.NewStore("copy "+c.name, err)
	}
	return copied, nil
}

// Create inserts a new item. The id must already be assigned.
func (c *Collection[T]) Create(ctx context.Context, item T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := item.Key()
	if id == "" {
		return apperror.NewValidation("cannot store " + c.name + " record without id")
	}
	if _, exists := c.items[id]; exists {
		return apperror.NewDuplicate(c.name, "id", id)
	}

	copied, err := clone(item)
	if err != nil {
		return apperror.NewStore("copy "+c.name, err)
	}
	c.items[id] = copied
	c.order = append(c.order, id)
	return nil
}

// Update replaces an existing item.
func (c *Collection[T]) Update(ctx context.Context, item T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := item.Key()
	if _, ok := c.items[id]; !ok {
		return apperror.NewNotFound(c.name, id)
	}
	copied, err := clone(item)
	if err != nil {
		return apperror.NewStore("copy "+c.name, err)
	}
	c.items[id] = copied
	return nil
}

// Delete removes the item with the given id. Returns false when absent.
func (c *Collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; !ok {
		return false, nil
	}
	delete(c.items, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Len returns the number of stored items.
func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
