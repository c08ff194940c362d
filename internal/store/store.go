// Package store holds rooms and serializes every change made to a room.
package store

import (
	"context"

	"citycouncil/internal/domain"
)

const (
	// DefaultListLimit is used when the caller passes a non-positive limit
	DefaultListLimit = 20

	// MaxListLimit is the most rooms a single List call returns
	MaxListLimit = 100
)

// ListLimit normalizes a caller-supplied List limit
func ListLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}

// UpdateFunc mutates a private copy of a room. Returning an error discards
// the copy, so a failed update never leaves a partial change behind.
type UpdateFunc func(room *domain.Room) error

// RoomStore is the room directory.
//
// Update runs fn with exclusive access to one room; updates to different
// rooms never block each other. Implementations return domain.ErrRoomBusy
// when that access cannot be obtained in bounded time.
type RoomStore interface {
	Create(ctx context.Context, room *domain.Room) error
	Get(ctx context.Context, id string) (*domain.Room, error)
	List(ctx context.Context, limit int) ([]*domain.Room, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (*domain.Room, error)
	Close() error
}
