package core

import (
	"sort"
	"sync"
)

// Directory tracks which users are subscribed to which room.
type Directory struct {
	mu    sync.RWMutex
	rooms map[string]map[string]User
}

// NewDirectory constructs an empty room directory.
func NewDirectory() *Directory {
	return &Directory{rooms: make(map[string]map[string]User)}
}

// EnsureSubscribed inserts user into room. Returns true if the user was
// already a member; the stored rank is then refreshed from user and nothing
// else changes.
func (d *Directory) EnsureSubscribed(room string, user User) (alreadyMember bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	members, ok := d.rooms[room]
	if !ok {
		members = make(map[string]User)
		d.rooms[room] = members
	}
	_, exists := members[user.Name]
	members[user.Name] = user
	return exists
}

// remove undoes a subscription whose join message could not be stored.
func (d *Directory) remove(room, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if members, ok := d.rooms[room]; ok {
		delete(members, name)
	}
}

// IsMember reports whether name is subscribed to room.
func (d *Directory) IsMember(room, name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.rooms[room][name]
	return ok
}

// MembersOf returns a copy of the room membership sorted by name.
func (d *Directory) MembersOf(room string) []User {
	d.mu.RLock()
	members := make([]User, 0, len(d.rooms[room]))
	for _, u := range d.rooms[room] {
		members = append(members, u)
	}
	d.mu.RUnlock()

	sortUsers(members)
	return members
}

// Rooms lists every room that has been referenced so far.
func (d *Directory) Rooms() []string {
	d.mu.RLock()
	names := make([]string, 0, len(d.rooms))
	for name := range d.rooms {
		names = append(names, name)
	}
	d.mu.RUnlock()

	sort.Strings(names)
	return names
}

func sortUsers(users []User) {
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
}
