// Package fleet owns the ordered list of camera servers and the image
// collection. The store is not safe for concurrent use: all mutations
// are serialized by the coordinator.
package fleet

import (
	"errors"
	"slices"
)

var (
	ErrDuplicateIdentifier = errors.New("server with this address already exists")
	ErrUnknownOwner        = errors.New("image owner is not a known server")
)

// Store владеет упорядоченным списком серверов и коллекцией снимков
type Store struct {
	entries []ServerEntry
	images  []ImageRecord

	// strictImages rejects images whose owning server is unknown.
	strictImages bool
}

func NewStore() *Store {
	return &Store{}
}

// SetStrictImages toggles rejection of orphan image creation
func (s *Store) SetStrictImages(strict bool) {
	s.strictImages = strict
}

func (s *Store) indexOf(address string) int {
	return slices.IndexFunc(s.entries, func(e ServerEntry) bool {
		return e.Address == address
	})
}

// Contains reports whether an entry with the address exists
func (s *Store) Contains(address string) bool {
	return s.indexOf(address) >= 0
}

// Entry returns a copy of the entry with the given address
func (s *Store) Entry(address string) (ServerEntry, bool) {
	if i := s.indexOf(address); i >= 0 {
		return s.entries[i], true
	}
	return ServerEntry{}, false
}

// Len returns the number of fleet entries
func (s *Store) Len() int {
	return len(s.entries)
}

// Add appends an entry to the end of the fleet list
func (s *Store) Add(entry ServerEntry) error {
	if s.Contains(entry.Address) {
		return ErrDuplicateIdentifier
	}
	if entry.Status == "" {
		entry.Status = StatusUnknown
	}
	s.entries = append(s.entries, entry)
	return nil
}

// Remove deletes the named entries, ignoring unknown addresses, and marks
// their images orphaned. It returns the addresses actually removed.
func (s *Store) Remove(addresses []string) []string {
	drop := make(map[string]bool, len(addresses))
	for _, a := range addresses {
		drop[a] = true
	}

	var removed []string
	kept := s.entries[:0]
	for _, e := range s.entries {
		if drop[e.Address] {
			removed = append(removed, e.Address)
		} else {
			kept = append(kept, e)
		}
	}
	s.entries = kept

	for i := range s.images {
		if drop[s.images[i].Server] {
			s.images[i].Orphaned = true
		}
	}

	return removed
}

// UpdateStatus sets the status of the named entry. Unknown addresses are
// a benign no-op. Returns true if the stored status changed.
func (s *Store) UpdateStatus(address string, status Status) bool {
	i := s.indexOf(address)
	if i < 0 || s.entries[i].Status == status {
		return false
	}
	s.entries[i].Status = status
	return true
}

// Order returns the fleet addresses in list order
func (s *Store) Order() []string {
	order := make([]string, len(s.entries))
	for i, e := range s.entries {
		order[i] = e.Address
	}
	return order
}

// Entries returns a snapshot copy of the fleet list
func (s *Store) Entries() []ServerEntry {
	return slices.Clone(s.entries)
}

// SetOrder rearranges the fleet list to the given address order. The
// order must be a permutation of the current addresses; anything else is
// ignored (reorder results are permutations by construction).
func (s *Store) SetOrder(order []string) {
	if len(order) != len(s.entries) {
		return
	}
	byAddr := make(map[string]ServerEntry, len(s.entries))
	for _, e := range s.entries {
		byAddr[e.Address] = e
	}
	rearranged := make([]ServerEntry, 0, len(order))
	for _, a := range order {
		e, ok := byAddr[a]
		if !ok {
			return
		}
		delete(byAddr, a)
		rearranged = append(rearranged, e)
	}
	s.entries = rearranged
}

// AddImage appends an image record. In strict mode the owner must be a
// known server; otherwise orphan creation is permitted.
func (s *Store) AddImage(rec ImageRecord) error {
	if !s.Contains(rec.Server) {
		if s.strictImages {
			return ErrUnknownOwner
		}
		rec.Orphaned = true
	}
	s.images = append(s.images, rec)
	return nil
}

// Images returns a snapshot copy of the image collection
func (s *Store) Images() []ImageRecord {
	return slices.Clone(s.images)
}

// ImageCount returns the number of image records
func (s *Store) ImageCount() int {
	return len(s.images)
}

// ClearImages removes image records owned by the named servers and
// returns how many were dropped.
func (s *Store) ClearImages(servers []string) int {
	owned := make(map[string]bool, len(servers))
	for _, a := range servers {
		owned[a] = true
	}

	dropped := 0
	kept := s.images[:0]
	for _, img := range s.images {
		if owned[img.Server] {
			dropped++
		} else {
			kept = append(kept, img)
		}
	}
	s.images = kept
	return dropped
}
