// Copyright (c) 2025 BVK Chaitanya

// Package idgen creates venue order ids. Ids are derived deterministically
// from a seed string plus a monotonic counter, so id uniqueness within a
// process is guaranteed by construction and an id sequence can be recreated
// from the seed and an offset.
package idgen

import (
	"crypto/md5"
	"encoding/binary"
)

// Generator creates a sequence of uint64 order ids derived from a given seed.
type Generator struct {
	base uint64

	next uint64
}

func New(seed string, offset uint64) *Generator {
	checksum := md5.Sum([]byte(seed))
	// Clear the top bits so a long run of ids cannot wrap around the uint64
	// space.
	base := binary.BigEndian.Uint64(checksum[:8]) >> 16
	return &Generator{base: base, next: offset}
}

// Offset returns the number of ids handed out so far.
func (v *Generator) Offset() uint64 {
	return v.next
}

func (v *Generator) NextID() uint64 {
	id := v.base + v.next
	v.next++
	return id
}

// RevertID returns the most recently generated id back to the generator. Used
// when an order submission fails and the id was never accepted by the venue.
func (v *Generator) RevertID() {
	if v.next > 0 {
		v.next--
	}
}
