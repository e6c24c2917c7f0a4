// Package repository joins the remote API and the local cache. Reads come
// from the cache; writes go to the server first and are mirrored on success.
package repository

import (
	"context"
	"fmt"

	"gestion-stock/internal/validation"
)

// Remote is the server side of one entity.
type Remote[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, v T) (T, error)
	Update(ctx context.Context, id int64, v T) (T, error)
	Delete(ctx context.Context, id int64) error
}

// Local is the cache side of one entity.
type Local[T any] interface {
	Watch(ctx context.Context) (<-chan []T, error)
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int64) (T, error)
	Upsert(ctx context.Context, v T) error
	UpsertAll(ctx context.Context, vs []T) error
	ReplaceAll(ctx context.Context, vs []T) error
	Delete(ctx context.Context, id int64) error
}

// Repository holds the behaviour shared by every entity.
type Repository[T any] struct {
	remote   Remote[T]
	local    Local[T]
	validate func(T) validation.Violations
}

func New[T any](remote Remote[T], local Local[T], validate func(T) validation.Violations) *Repository[T] {
	return &Repository[T]{remote: remote, local: local, validate: validate}
}

// Watch streams the cached rows; see cache watchers for delivery rules.
func (r *Repository[T]) Watch(ctx context.Context) (<-chan []T, error) {
	ch, err := r.local.Watch(ctx)
	if err != nil {
		return nil, localErr(err)
	}
	return ch, nil
}

func (r *Repository[T]) ListLocal(ctx context.Context) ([]T, error) {
	out, err := r.local.List(ctx)
	if err != nil {
		return nil, localErr(err)
	}
	return out, nil
}

func (r *Repository[T]) GetLocal(ctx context.Context, id int64) (T, error) {
	out, err := r.local.Get(ctx, id)
	if err != nil {
		return out, localErr(err)
	}
	return out, nil
}

// CreateRemote validates v, creates it on the server and mirrors the
// server's copy. Invalid values never reach the network.
func (r *Repository[T]) CreateRemote(ctx context.Context, v T) (T, error) {
	var zero T
	if err := r.check(v); err != nil {
		return zero, err
	}
	created, err := r.remote.Create(ctx, v)
	if err != nil {
		return zero, err
	}
	if err := r.local.Upsert(ctx, created); err != nil {
		return created, localErr(err)
	}
	return created, nil
}

func (r *Repository[T]) UpdateRemote(ctx context.Context, id int64, v T) (T, error) {
	var zero T
	if err := r.check(v); err != nil {
		return zero, err
	}
	updated, err := r.remote.Update(ctx, id, v)
	if err != nil {
		return zero, err
	}
	if err := r.local.Upsert(ctx, updated); err != nil {
		return updated, localErr(err)
	}
	return updated, nil
}

func (r *Repository[T]) DeleteRemote(ctx context.Context, id int64) error {
	if err := r.remote.Delete(ctx, id); err != nil {
		return err
	}
	if err := r.local.Delete(ctx, id); err != nil {
		return localErr(err)
	}
	return nil
}

// Refresh fetches one entity from the server into the cache.
func (r *Repository[T]) Refresh(ctx context.Context, id int64) (T, error) {
	v, err := r.remote.Get(ctx, id)
	if err != nil {
		return v, err
	}
	if err := r.local.Upsert(ctx, v); err != nil {
		return v, localErr(err)
	}
	return v, nil
}

// Sync replaces the cache with the server list. No merge is attempted.
func (r *Repository[T]) Sync(ctx context.Context) error {
	all, err := r.remote.List(ctx)
	if err != nil {
		return err
	}
	if err := r.local.ReplaceAll(ctx, all); err != nil {
		return localErr(err)
	}
	return nil
}

func (r *Repository[T]) check(v T) error {
	if r.validate == nil {
		return nil
	}
	return r.validate(v).Err()
}

func localErr(err error) error {
	return fmt.Errorf("local cache: %w", err)
}
