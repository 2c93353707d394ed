// Package cmap provides a string-keyed concurrent map split into shards,
// each behind its own lock.
//
// Keys are spread over shards with murmur3. Compute and DeleteFunc hold
// the shard lock while calling back, so per-key read-modify-write is
// atomic.
//
//	m := cmap.New[*visitor](cmap.DefaultShardCount)
//	v := m.Compute(ip, func(v *visitor, ok bool) *visitor { ... })
package cmap
