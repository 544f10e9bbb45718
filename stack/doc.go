// Package stack provides stack memory providers for fibers.
//
// A provider hands out contiguous Regions that a fiber carves into an
// in-place control block plus a usable execution stack, and reclaims the
// whole region when the fiber's last reference is dropped.
//
// Three providers are included:
//
//	FixedSize  make([]byte)-backed regions, one per Allocate
//	Pooled     recycles regions through a sync.Pool with a bound
//	Guarded    mmap-backed regions with a PROT_NONE guard page (unix only)
//
// FixedSize tracks its outstanding-region count, which doubles as a
// leak/double-free check in tests.
package stack
