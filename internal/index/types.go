package index

import "time"

// FileEntry is one eligible file produced by a scan. Entries are immutable;
// a new scan replaces the whole collection.
type FileEntry struct {
	Name      string
	Path      string
	Extension string // normalized, no dot
	Size      int64
	ModTime   time.Time
}

// FolderEntry is one directory from the depth-bounded folder walk.
type FolderEntry struct {
	Name    string
	Path    string
	ModTime time.Time
}

// Listing is a single-level directory view for interactive browsing.
type Listing struct {
	Folders []FolderEntry
	Files   []FileEntry
}

// FolderNode is a named root with one expanded level of children. Deeper
// levels are fetched on demand via ListChildren.
type FolderNode struct {
	Name     string
	Path     string
	Children []FolderEntry
}
