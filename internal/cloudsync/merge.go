package cloudsync

import "time"

// Record is an item that can be reconciled by last-write-wins
type Record interface {
	SyncKey() string
	LastModified() time.Time
}

// Plan lists what a per-collection merge moves in each direction
type Plan[T Record] struct {
	Upload []T
	Pull   []T
}

// Diff compares local and remote by id. An item goes up when the remote lacks
// it or holds an older copy, and comes down in the mirror case. Equal
// timestamps move nothing.
func Diff[T Record](local, remote []T) Plan[T] {
	localByID := make(map[string]T, len(local))
	for _, it := range local {
		localByID[it.SyncKey()] = it
	}
	remoteByID := make(map[string]T, len(remote))
	for _, it := range remote {
		remoteByID[it.SyncKey()] = it
	}

	var plan Plan[T]
	for _, it := range local {
		r, ok := remoteByID[it.SyncKey()]
		if !ok || newer(it.LastModified(), r.LastModified()) {
			plan.Upload = append(plan.Upload, it)
		}
	}
	for _, it := range remote {
		l, ok := localByID[it.SyncKey()]
		if !ok || newer(it.LastModified(), l.LastModified()) {
			plan.Pull = append(plan.Pull, it)
		}
	}
	return plan
}

// newer compares at millisecond precision, the resolution both replicas keep
func newer(a, b time.Time) bool {
	return a.Truncate(time.Millisecond).After(b.Truncate(time.Millisecond))
}

// Apply merges pulled into current: matching ids are replaced in place,
// the rest are appended in pulled order.
func Apply[T Record](current, pulled []T) []T {
	out := make([]T, len(current), len(current)+len(pulled))
	copy(out, current)

	pos := make(map[string]int, len(out))
	for i, it := range out {
		pos[it.SyncKey()] = i
	}
	for _, it := range pulled {
		if i, ok := pos[it.SyncKey()]; ok {
			out[i] = it
			continue
		}
		pos[it.SyncKey()] = len(out)
		out = append(out, it)
	}
	return out
}
