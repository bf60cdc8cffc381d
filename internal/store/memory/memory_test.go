package memory

import (
	"context"
	"testing"
	"time"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/domain"
	"cargodesk/internal/store"
)

func newCustomer(id, name string) *domain.Customer {
	c := &domain.Customer{Name: name, Status: domain.CustomerActive}
	c.Stamp(id, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	return c
}

func TestCollectionCRUD(t *testing.T) {
	ctx := context.Background()
	col := NewCollection[*domain.Customer](store.Customers)

	c := newCustomer("c1", "Acme")
	if err := col.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := col.GetByID(ctx, "c1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Acme" {
		t.Errorf("Name = %q, want Acme", got.Name)
	}

	got.Name = "changed"
	if err := col.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, _ := col.GetByID(ctx, "c1")
	if again.Name != "changed" {
		t.Errorf("Name after update = %q", again.Name)
	}

	ok, err := col.Delete(ctx, "c1")
	if err != nil || !ok {
		t.Fatalf("Delete = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = col.Delete(ctx, "c1")
	if err != nil || ok {
		t.Fatalf("second Delete = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestCollectionReturnsClones(t *testing.T) {
	ctx := context.Background()
	col := NewCollection[*domain.Customer](store.Customers)
	if err := col.Create(ctx, newCustomer("c1", "Acme")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Mutating a read result must not leak into the store.
	got, _ := col.GetByID(ctx, "c1")
	got.Name = "mutated"

	fresh, _ := col.GetByID(ctx, "c1")
	if fresh.Name != "Acme" {
		t.Errorf("store was mutated through a read: Name = %q", fresh.Name)
	}
}

func TestCollectionPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	col := NewCollection[*domain.Customer](store.Customers)
	for _, id := range []string{"b", "a", "c"} {
		if err := col.Create(ctx, newCustomer(id, id)); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	all, err := col.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	got := make([]string, len(all))
	for i, c := range all {
		got[i] = c.ID
	}
	want := []string{"b", "a", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestCollectionErrors(t *testing.T) {
	ctx := context.Background()
	col := NewCollection[*domain.Customer](store.Customers)

	if _, err := col.GetByID(ctx, "nope"); !apperror.IsNotFound(err) {
		t.Errorf("GetByID missing = %v, want NOT_FOUND", err)
	}

	c := newCustomer("c1", "Acme")
	if err := col.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := col.Create(ctx, newCustomer("c1", "Other")); !apperror.IsDuplicate(err) {
		t.Errorf("duplicate Create = %v, want DUPLICATE_ENTRY", err)
	}

	missing := newCustomer("ghost", "Ghost")
	if err := col.Update(ctx, missing); !apperror.IsNotFound(err) {
		t.Errorf("Update missing = %v, want NOT_FOUND", err)
	}
}
