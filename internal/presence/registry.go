// Package presence holds the in-memory directory of which user is bound to
// which live connection.
//
// The registry stores connection ids (socket ids), not socket pointers, so
// callers resolve the transport object through their own connection map.
package presence

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// ConnID identifies one transport-level connection.
type ConnID string

// DefaultShards is the shard count used by NewRegistry.
const DefaultShards = 64

type connEntry struct {
	userID string
	token  string
}

type userShard struct {
	mu    sync.RWMutex
	users map[string]ConnID
}

type connShard struct {
	mu    sync.RWMutex
	conns map[ConnID]connEntry
}

// Registry is the bidirectional userID <-> connection index.
//
// Users and connections are spread over independently locked shards so
// operations on unrelated users do not contend. A write that touches two
// user shards locks them in ascending shard order, and user shards are always
// locked before connection shards.
//
// Invariants:
//   - a user maps to at most one connection;
//   - a connection that authenticated and has not been unregistered keeps its
//     token entry, even after another connection took over its user.
type Registry struct {
	userShards []userShard
	connShards []connShard
}

// NewRegistry creates an empty registry with DefaultShards shards.
func NewRegistry() *Registry {
	return NewRegistryWithShards(DefaultShards)
}

// NewRegistryWithShards creates an empty registry with n shards per index.
// n < 1 is treated as 1.
func NewRegistryWithShards(n int) *Registry {
	if n < 1 {
		n = 1
	}
	r := &Registry{
		userShards: make([]userShard, n),
		connShards: make([]connShard, n),
	}
	for i := range r.userShards {
		r.userShards[i].users = make(map[string]ConnID)
		r.connShards[i].conns = make(map[ConnID]connEntry)
	}
	return r
}

func (r *Registry) userIndex(userID string) int {
	return int(xxhash.Sum64String(userID) % uint64(len(r.userShards)))
}

func (r *Registry) connShard(conn ConnID) *connShard {
	return &r.connShards[xxhash.Sum64String(string(conn))%uint64(len(r.connShards))]
}

// lockUsers write-locks the shards owning the given user ids in ascending
// index order and returns the matching unlock function.
func (r *Registry) lockUsers(userIDs ...string) func() {
	idx := make([]int, 0, len(userIDs))
	seen := make(map[int]struct{}, len(userIDs))
	for _, u := range userIDs {
		i := r.userIndex(u)
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		idx = append(idx, i)
	}
	sort.Ints(idx)

	for _, i := range idx {
		r.userShards[i].mu.Lock()
	}
	return func() {
		for j := len(idx) - 1; j >= 0; j-- {
			r.userShards[idx[j]].mu.Unlock()
		}
	}
}

// Register binds userID to conn and records token for conn.
//
// Any previous binding of conn to another user is dropped, and any previous
// connection of userID is replaced (last register wins). The replaced
// connection keeps its token entry until it is unregistered.
func (r *Registry) Register(userID string, conn ConnID, token string) {
	cs := r.connShard(conn)
	for {
		cs.mu.RLock()
		prev, had := cs.conns[conn]
		cs.mu.RUnlock()

		// The target user's shard is always locked, blank ids included.
		users := []string{userID}
		if had {
			users = append(users, prev.userID)
		}
		unlock := r.lockUsers(users...)
		cs.mu.Lock()

		// Another register for the same connection moved it to a different
		// user between our read and the locks; retry with the fresh value.
		if cur, ok := cs.conns[conn]; ok != had || cur.userID != prev.userID {
			cs.mu.Unlock()
			unlock()
			continue
		}

		if had && prev.userID != userID {
			us := &r.userShards[r.userIndex(prev.userID)]
			if us.users[prev.userID] == conn {
				delete(us.users, prev.userID)
			}
		}

		us := &r.userShards[r.userIndex(userID)]
		us.users[userID] = conn
		cs.conns[conn] = connEntry{userID: userID, token: token}

		cs.mu.Unlock()
		unlock()
		return
	}
}

// Lookup returns the connection currently bound to userID.
func (r *Registry) Lookup(userID string) (ConnID, bool) {
	us := &r.userShards[r.userIndex(userID)]
	us.mu.RLock()
	defer us.mu.RUnlock()

	conn, ok := us.users[userID]
	return conn, ok
}

// IsOnline reports whether userID is bound to a connection.
func (r *Registry) IsOnline(userID string) bool {
	_, ok := r.Lookup(userID)
	return ok
}

// TokenOf returns the last token registered for conn.
func (r *Registry) TokenOf(conn ConnID) (string, bool) {
	cs := r.connShard(conn)
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, ok := cs.conns[conn]
	return entry.token, ok
}

// UserOf returns the user conn was last registered as.
func (r *Registry) UserOf(conn ConnID) (string, bool) {
	cs := r.connShard(conn)
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, ok := cs.conns[conn]
	return entry.userID, ok
}

// Unregister forgets conn. The user binding is removed only if it still
// points at conn, so a superseded connection going away never evicts its
// successor. Unregistering an unknown connection is a no-op.
func (r *Registry) Unregister(conn ConnID) {
	cs := r.connShard(conn)
	for {
		cs.mu.RLock()
		entry, ok := cs.conns[conn]
		cs.mu.RUnlock()
		if !ok {
			return
		}

		unlock := r.lockUsers(entry.userID)
		cs.mu.Lock()

		if cs.conns[conn] != entry {
			cs.mu.Unlock()
			unlock()
			continue
		}

		us := &r.userShards[r.userIndex(entry.userID)]
		if us.users[entry.userID] == conn {
			delete(us.users, entry.userID)
		}
		delete(cs.conns, conn)

		cs.mu.Unlock()
		unlock()
		return
	}
}

// OnlineCount returns the number of users bound to a connection.
func (r *Registry) OnlineCount() int {
	n := 0
	for i := range r.userShards {
		us := &r.userShards[i]
		us.mu.RLock()
		n += len(us.users)
		us.mu.RUnlock()
	}
	return n
}

// ConnectionCount returns the number of connections holding a token entry.
func (r *Registry) ConnectionCount() int {
	n := 0
	for i := range r.connShards {
		cs := &r.connShards[i]
		cs.mu.RLock()
		n += len(cs.conns)
		cs.mu.RUnlock()
	}
	return n
}
