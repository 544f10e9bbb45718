// Package registry tracks live fibers for a scheduler.
//
// The table maps fiber identities to their pin objects and lifecycle state.
// It serves three roles:
//
//   - GC pinning: a fiber's control block lives inside raw stack memory the
//     collector does not scan, so every heap value the block references is
//     duplicated into a pin held here until the last reference drops.
//   - Lifecycle events: observers receive started/terminated/released
//     notifications, which drive the interactive scheduler view.
//   - Enumeration: Len and Each expose the live-fiber set for diagnostics.
//
// # Usage
//
//	table := registry.NewTable()
//	table.Insert(id, pin)
//	table.MarkTerminated(id)
//	table.Remove(id)
//
// Entries are not garbage collected automatically; the scheduler removes an
// entry when the fiber's final reference is released. A leaked entry means a
// leaked stack region.
package registry
