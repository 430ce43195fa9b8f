package file

// State tracks where a file stands in its lifecycle. Mutated only by File
// methods; callers read it through the File accessors.
type State struct {
	// Adding is true while the file has never been persisted through this
	// instance.
	Adding bool

	// Changing is true when content changed since the last persist.
	Changing bool

	// Renaming is true when the filename changed since the last persist and
	// the target may collide.
	Renaming bool

	// Processing is true while an extraction pipeline is populating the
	// file.
	Processing bool
}

// Saved reports whether the file is persisted and unchanged.
func (s State) Saved() bool {
	return !s.Adding && !s.Changing && !s.Renaming
}

// Loaded reports whether the file has been populated from its source.
func (s State) Loaded() bool {
	return !s.Processing
}

// Actions tracks work pending against the backend. The to/done transitions
// are driven by File mutations and by Save.
type Actions struct {
	saveRequested   bool
	hashRequested   bool
	renameRequested bool
}

// RequestSave marks the file as needing a content write.
func (a *Actions) RequestSave() { a.saveRequested = true }

// RequestHash marks the file as needing digest recomputation.
func (a *Actions) RequestHash() { a.hashRequested = true }

// RequestRename marks the file as needing conflict-safe renaming.
func (a *Actions) RequestRename() { a.renameRequested = true }

// SaveDone clears the pending-save marker.
func (a *Actions) SaveDone() { a.saveRequested = false }

// HashDone clears the pending-hash marker.
func (a *Actions) HashDone() { a.hashRequested = false }

// RenameDone clears the pending-rename marker.
func (a *Actions) RenameDone() { a.renameRequested = false }

// SavePending reports whether a content write is outstanding.
func (a *Actions) SavePending() bool { return a.saveRequested }

// HashPending reports whether digest recomputation is outstanding.
func (a *Actions) HashPending() bool { return a.hashRequested }

// RenamePending reports whether renaming is outstanding.
func (a *Actions) RenamePending() bool { return a.renameRequested }

// Meta is an open key-value extension record attached to a file. Contents
// are best-effort and non-validated; extraction steps use it for transport
// headers and similar source metadata.
type Meta map[string]any

// String returns the string at key, or "" when absent or mistyped.
func (m Meta) String(key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
