// Package index maintains a cached, derived view of the watched
// directories: the flat file list the search pipeline ranks, the bounded
// folder walk the collect flow matches against, and single-level listings
// for browsing. The cache is populated lazily by the first read and cleared
// by the watcher or after any executor mutation; readers treat an empty
// cache as "walk again", never as an error.
package index

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/addness-teambase/ai-file-search/internal/config"
	"github.com/addness-teambase/ai-file-search/internal/logging"
)

// Index scans a fixed set of root directories.
type Index struct {
	roots       []string
	allow       map[string]bool
	skip        map[string]bool
	folderDepth int
	logger      *zap.Logger

	mu    sync.Mutex
	cache []FileEntry
}

// New builds an Index over cfg's roots.
func New(cfg config.IndexConfig) *Index {
	allow := make(map[string]bool, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		allow[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	skip := make(map[string]bool, len(cfg.SkipDirs))
	for _, dir := range cfg.SkipDirs {
		skip[dir] = true
	}
	depth := cfg.FolderDepth
	if depth <= 0 {
		depth = 3
	}
	return &Index{
		roots:       cfg.Roots,
		allow:       allow,
		skip:        skip,
		folderDepth: depth,
		logger:      logging.Named("index"),
	}
}

// Scan returns every eligible file under the roots, newest first. The
// cached result is reused until Invalidate is called. Unreadable subtrees
// contribute nothing instead of failing the scan.
func (ix *Index) Scan() []FileEntry {
	ix.mu.Lock()
	if ix.cache != nil {
		cached := ix.cache
		ix.mu.Unlock()
		return cached
	}
	ix.mu.Unlock()

	perRoot := make([][]FileEntry, len(ix.roots))
	var g errgroup.Group
	for i, root := range ix.roots {
		g.Go(func() error {
			perRoot[i] = ix.walkRoot(root)
			return nil
		})
	}
	_ = g.Wait() // walkRoot never reports an error

	var files []FileEntry
	for _, entries := range perRoot {
		files = append(files, entries...)
	}
	sortByModTime(files)
	if files == nil {
		files = []FileEntry{}
	}

	ix.mu.Lock()
	ix.cache = files
	ix.mu.Unlock()

	ix.logger.Debug("scan complete", zap.Int("files", len(files)))
	return files
}

// Recent returns the n most recently modified files.
func (ix *Index) Recent(n int) []FileEntry {
	files := ix.Scan()
	if len(files) > n {
		files = files[:n]
	}
	return files
}

// Invalidate clears the cache; the next read triggers a fresh walk.
func (ix *Index) Invalidate() {
	ix.mu.Lock()
	ix.cache = nil
	ix.mu.Unlock()
}

// walkRoot collects eligible files under one root. Errors are swallowed at
// the offending subtree.
func (ix *Index) walkRoot(root string) []FileEntry {
	var files []FileEntry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entry: skip, keep walking siblings
		}
		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if strings.HasPrefix(name, ".") || ix.skip[name] {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		if !ix.allow[ext] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, FileEntry{
			Name:      name,
			Path:      path,
			Extension: ext,
			Size:      info.Size(),
			ModTime:   info.ModTime(),
		})
		return nil
	})
	if err != nil {
		ix.logger.Debug("walk aborted", zap.String("root", root), zap.Error(err))
	}
	return files
}

// ScanFolders walks every directory under the roots to the configured
// depth. Folders are not cached: the collect flow reads them rarely and
// always wants a live view.
func (ix *Index) ScanFolders() []FolderEntry {
	var folders []FolderEntry
	for _, root := range ix.roots {
		ix.collectFolders(root, 0, &folders)
	}
	return folders
}

func (ix *Index) collectFolders(dir string, depth int, out *[]FolderEntry) {
	if depth >= ix.folderDepth {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || ix.skip[name] {
			continue
		}
		path := filepath.Join(dir, name)
		info, err := entry.Info()
		if err != nil {
			continue
		}
		*out = append(*out, FolderEntry{Name: name, Path: path, ModTime: info.ModTime()})
		ix.collectFolders(path, depth+1, out)
	}
}

// ListChildren returns the immediate contents of path: folders in
// case-insensitive name order, then eligible files newest first.
func (ix *Index) ListChildren(path string) Listing {
	listing := Listing{Folders: []FolderEntry{}, Files: []FileEntry{}}
	entries, err := os.ReadDir(path)
	if err != nil {
		return listing
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		full := filepath.Join(path, name)
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if entry.IsDir() {
			if ix.skip[name] {
				continue
			}
			listing.Folders = append(listing.Folders, FolderEntry{
				Name: name, Path: full, ModTime: info.ModTime(),
			})
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		if !ix.allow[ext] {
			continue
		}
		listing.Files = append(listing.Files, FileEntry{
			Name: name, Path: full, Extension: ext,
			Size: info.Size(), ModTime: info.ModTime(),
		})
	}
	sortFoldersByName(listing.Folders)
	sortByModTime(listing.Files)
	return listing
}

// ListAllChildren is ListChildren without the extension filter: the
// organize flow proposes actions for everything in the folder, not just
// indexable documents.
func (ix *Index) ListAllChildren(path string) Listing {
	listing := Listing{Folders: []FolderEntry{}, Files: []FileEntry{}}
	entries, err := os.ReadDir(path)
	if err != nil {
		return listing
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		full := filepath.Join(path, name)
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if entry.IsDir() {
			listing.Folders = append(listing.Folders, FolderEntry{
				Name: name, Path: full, ModTime: info.ModTime(),
			})
			continue
		}
		listing.Files = append(listing.Files, FileEntry{
			Name: name, Path: full,
			Extension: strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")),
			Size:      info.Size(), ModTime: info.ModTime(),
		})
	}
	sortFoldersByName(listing.Folders)
	sortByModTime(listing.Files)
	return listing
}

// Tree returns the watched roots with one expanded level of subfolders.
func (ix *Index) Tree() []FolderNode {
	var nodes []FolderNode
	for _, root := range ix.roots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		nodes = append(nodes, FolderNode{
			Name:     filepath.Base(root),
			Path:     root,
			Children: ix.ListChildren(root).Folders,
		})
	}
	return nodes
}

// Roots returns the watched root directories.
func (ix *Index) Roots() []string {
	return ix.roots
}

// sortFoldersByName orders folders by locale collation, case-insensitive.
// Byte order would scatter names that mix Japanese and Latin scripts.
func sortFoldersByName(folders []FolderEntry) {
	c := collate.New(language.Japanese, collate.IgnoreCase)
	sort.Slice(folders, func(i, j int) bool {
		return c.CompareString(folders[i].Name, folders[j].Name) < 0
	})
}

func sortByModTime(files []FileEntry) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Path < files[j].Path
		}
		return files[i].ModTime.After(files[j].ModTime)
	})
}
