package socket

import (
	"sort"
	"sync"
)

// MountRegistry tracks which socket currently hosts each mounted liveview.
// A liveview ID has at most one owner; mounting it again from another socket
// moves it, which is what a reconnecting client does.
type MountRegistry struct {
	mu     sync.RWMutex
	owners map[string]Socket
	bySock map[string]map[string]struct{}
}

func NewMountRegistry() *MountRegistry {
	return &MountRegistry{
		owners: make(map[string]Socket),
		bySock: make(map[string]map[string]struct{}),
	}
}

// Mount records s as the owner of liveviewID and returns the previous owner,
// if any.
func (r *MountRegistry) Mount(liveviewID string, s Socket) Socket {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.owners[liveviewID]
	if previous != nil && previous.ID() != s.ID() {
		r.dropLocked(previous.ID(), liveviewID)
	}

	r.owners[liveviewID] = s
	ids, ok := r.bySock[s.ID()]
	if !ok {
		ids = make(map[string]struct{})
		r.bySock[s.ID()] = ids
	}
	ids[liveviewID] = struct{}{}

	return previous
}

// Unmount removes liveviewID if socketID still owns it.
func (r *MountRegistry) Unmount(liveviewID, socketID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.owners[liveviewID]
	if !ok || owner.ID() != socketID {
		return false
	}
	delete(r.owners, liveviewID)
	r.dropLocked(socketID, liveviewID)
	return true
}

// UnmountAll removes every liveview owned by socketID and returns their IDs.
func (r *MountRegistry) UnmountAll(socketID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.bySock[socketID]
	delete(r.bySock, socketID)

	removed := make([]string, 0, len(ids))
	for id := range ids {
		if owner, ok := r.owners[id]; ok && owner.ID() == socketID {
			delete(r.owners, id)
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	return removed
}

func (r *MountRegistry) dropLocked(socketID, liveviewID string) {
	ids, ok := r.bySock[socketID]
	if !ok {
		return
	}
	delete(ids, liveviewID)
	if len(ids) == 0 {
		delete(r.bySock, socketID)
	}
}

func (r *MountRegistry) Lookup(liveviewID string) (Socket, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.owners[liveviewID]
	return s, ok
}

func (r *MountRegistry) MountedOn(socketID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.bySock[socketID]))
	for id := range r.bySock[socketID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *MountRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.owners)
}
