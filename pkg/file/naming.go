package file

import (
	"sync"
)

// reservedRegistry guards filenames that are being claimed by in-flight
// saves in this process. A backend existence check alone cannot see a name
// another goroutine resolved but has not written yet; the registry closes
// that window for same-process savers. Cross-process coordination is out of
// scope; that is what exclusive writes are for.
type reservedRegistry struct {
	mu sync.Mutex

	// names maps directory -> complete filename -> owner.
	names map[string]map[string]*File
}

var registry = &reservedRegistry{names: make(map[string]map[string]*File)}

// reserve claims name under dir for owner. Returns false when another file
// already holds the claim. Reserving a name you already own succeeds.
func (r *reservedRegistry) reserve(dir, name string, owner *File) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	inDir, ok := r.names[dir]
	if !ok {
		inDir = make(map[string]*File)
		r.names[dir] = inDir
	}

	if current, taken := inDir[name]; taken && current != owner {
		return false
	}
	inDir[name] = owner
	return true
}

// release drops owner's claim on name under dir, if it still holds it.
func (r *reservedRegistry) release(dir, name string, owner *File) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inDir, ok := r.names[dir]
	if !ok {
		return
	}
	if current, taken := inDir[name]; taken && current == owner {
		delete(inDir, name)
		if len(inDir) == 0 {
			delete(r.names, dir)
		}
	}
}

// isReserved reports whether name under dir is claimed by a file other than
// owner.
func (r *reservedRegistry) isReserved(dir, name string, owner *File) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, taken := r.names[dir][name]; taken && current != owner {
		return true
	}
	return false
}

// naming is the per-file record of how its name evolved.
type naming struct {
	// history keeps the complete filenames this file answered to, in order.
	history []string

	// previousSavedExtension is the extension the file carried when it was
	// last persisted. Used to detect extension changes on save.
	previousSavedExtension string

	// validNames are alternative complete filenames accepted for this file
	// (original add_valid_filename), consulted when adopting sibling hash
	// artifacts written under a historic name.
	validNames []string
}

// recordName appends name to the history if it differs from the last entry.
func (n *naming) recordName(name string) {
	if name == "" {
		return
	}
	if len(n.history) > 0 && n.history[len(n.history)-1] == name {
		return
	}
	n.history = append(n.history, name)
}

// addValidName registers an alternative accepted filename. Returns false
// when already present.
func (n *naming) addValidName(name string) bool {
	for _, existing := range n.validNames {
		if existing == name {
			return false
		}
	}
	n.validNames = append(n.validNames, name)
	return true
}
