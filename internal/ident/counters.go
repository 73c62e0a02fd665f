package ident

import "sync/atomic"

// Counters allocates DependencyId, BlockIdentifier, ChunkUkey and
// ChunkGroupUkey values for a single Compilation. It is never a process-wide
// singleton: each Compilation owns its own Counters instance so that two
// concurrent compilations never observe each other's ids (SPEC_FULL.md §9,
// "no process-wide singletons").
type Counters struct {
	nextDependencyID atomic.Uint32
	nextBlockID      atomic.Uint32
	nextChunkUkey    atomic.Uint32
	nextGroupUkey    atomic.Uint32
}

// NewCounters creates a fresh, zeroed Counters.
func NewCounters() *Counters {
	return &Counters{}
}

// NextDependencyID returns the next unused DependencyId.
func (c *Counters) NextDependencyID() DependencyId {
	return DependencyId(c.nextDependencyID.Add(1) - 1)
}

// NextBlockID returns the next unused BlockIdentifier.
func (c *Counters) NextBlockID() BlockIdentifier {
	return BlockIdentifier(c.nextBlockID.Add(1) - 1)
}

// NextChunkUkey returns the next unused ChunkUkey.
func (c *Counters) NextChunkUkey() ChunkUkey {
	return ChunkUkey(c.nextChunkUkey.Add(1) - 1)
}

// NextGroupUkey returns the next unused ChunkGroupUkey.
func (c *Counters) NextGroupUkey() ChunkGroupUkey {
	return ChunkGroupUkey(c.nextGroupUkey.Add(1) - 1)
}
