package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

type ToFirestoreFunc[T any] func(*T) map[string]interface{}
type FromFirestoreFunc[T any] func(map[string]interface{}) *T

type Collection[T any] struct {
	Ref           *firestore.CollectionRef
	ToFirestore   ToFirestoreFunc[T]
	FromFirestore FromFirestoreFunc[T]
}

func (c *Collection[T]) Doc(id string) *DocumentRef[T] {
	return &DocumentRef[T]{
		Ref:           c.Ref.Doc(id),
		ToFirestore:   c.ToFirestore,
		FromFirestore: c.FromFirestore,
	}
}

// Query starts a filtered read over the collection.
func (c *Collection[T]) Query() *Query[T] {
	return &Query[T]{
		q:             c.Ref.Query,
		FromFirestore: c.FromFirestore,
	}
}

type DocumentRef[T any] struct {
	Ref           *firestore.DocumentRef
	ToFirestore   ToFirestoreFunc[T]
	FromFirestore FromFirestoreFunc[T]
}

func (d *DocumentRef[T]) ID() string {
	return d.Ref.ID
}

func (d *DocumentRef[T]) Get(ctx context.Context) (*T, error) {
	snap, err := d.Ref.Get(ctx)
	if err != nil {
		return nil, err
	}
	return d.FromFirestore(snap.Data()), nil
}

// Set merges data into the document, creating it if absent.
func (d *DocumentRef[T]) Set(ctx context.Context, data *T) error {
	m := d.ToFirestore(data)
	_, err := d.Ref.Set(ctx, m, firestore.MergeAll)
	return err
}

// Replace overwrites the document wholesale. Fields absent from data are
// dropped, which is how queue-control fields disappear when a queue entry
// becomes a receipt.
func (d *DocumentRef[T]) Replace(ctx context.Context, data *T) error {
	m := d.ToFirestore(data)
	_, err := d.Ref.Set(ctx, m)
	return err
}

// Update merges a partial map. Keys must match Firestore snake_case
// fields; no converter runs because updates are often partials/dots.
func (d *DocumentRef[T]) Update(ctx context.Context, updates map[string]interface{}) error {
	_, err := d.Ref.Set(ctx, updates, firestore.MergeAll)
	return err
}

func (d *DocumentRef[T]) Delete(ctx context.Context) error {
	_, err := d.Ref.Delete(ctx)
	return err
}

type Query[T any] struct {
	q             firestore.Query
	FromFirestore FromFirestoreFunc[T]
}

func (q *Query[T]) Where(path, op string, value interface{}) *Query[T] {
	return &Query[T]{q: q.q.Where(path, op, value), FromFirestore: q.FromFirestore}
}

func (q *Query[T]) OrderBy(path string, dir firestore.Direction) *Query[T] {
	return &Query[T]{q: q.q.OrderBy(path, dir), FromFirestore: q.FromFirestore}
}

func (q *Query[T]) Limit(n int) *Query[T] {
	return &Query[T]{q: q.q.Limit(n), FromFirestore: q.FromFirestore}
}

// GetAll runs the query, returning decoded documents alongside their IDs.
func (q *Query[T]) GetAll(ctx context.Context) ([]*T, []string, error) {
	iter := q.q.Documents(ctx)
	defer iter.Stop()

	var out []*T
	var ids []string
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		out = append(out, q.FromFirestore(snap.Data()))
		ids = append(ids, snap.Ref.ID)
	}
	return out, ids, nil
}

// DeleteAll runs the query and deletes every matching document, returning
// the count removed.
func (q *Query[T]) DeleteAll(ctx context.Context) (int, error) {
	iter := q.q.Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return count, err
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
