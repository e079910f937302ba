// internal/hierarchy/tree.go
package hierarchy

import (
	"sort"
	"strings"

	"localcocoa/internal/index"
)

// RootID is the id of the synthetic root node.
const RootID = "root"

// Node is one node in the derived folder tree. Nodes without a Folder
// reference are virtual: they stand in for path segments that have no
// corresponding FolderRecord and only connect a nested real folder to its
// nearest real ancestor (or the root).
type Node struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Path         string              `json:"path"`
	IsFolder     bool                `json:"is_folder"`
	Children     []*Node             `json:"children"`
	Folder       *index.FolderRecord `json:"folder,omitempty"`
	FileCount    int                 `json:"file_count"`
	IndexedCount int                 `json:"indexed_count"`
	TotalSize    int64               `json:"total_size"`
}

// Build derives the folder tree from a flat folder list and the files grouped
// by folder id. The tree is rebuilt from scratch on every call; nothing is
// mutated incrementally, so the rollup invariant (every node's counts equal
// the sum of its children's plus its own direct files) holds by construction.
func Build(folders []index.FolderRecord, filesByFolder map[string][]index.IndexedFile) *Node {
	root := &Node{ID: RootID, Name: "", Path: "", IsFolder: true}

	// Sort by path so ancestors are attached before their descendants.
	sorted := make([]index.FolderRecord, len(folders))
	copy(sorted, folders)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	nodesByPath := map[string]*Node{"": root}
	parentByPath := map[string]string{}

	for i := range sorted {
		folder := sorted[i]
		ancestorPath := nearestAncestorPath(folder.Path, sorted)

		// Synthesize virtual nodes for any path segments between the nearest
		// real ancestor and this folder. Memoized by full path so repeated
		// segments are not duplicated.
		parentPath := ancestorPath
		rel := folder.Path
		if ancestorPath != "" {
			rel = folder.Path[len(ancestorPath)+1:]
		}
		segments := strings.Split(rel, "/")
		for _, seg := range segments[:len(segments)-1] {
			childPath := joinPath(parentPath, seg)
			if _, ok := nodesByPath[childPath]; !ok {
				virtual := &Node{ID: "virtual:" + childPath, Name: seg, Path: childPath, IsFolder: true}
				attach(nodesByPath[parentPath], virtual)
				nodesByPath[childPath] = virtual
				parentByPath[childPath] = parentPath
			}
			parentPath = childPath
		}

		node := &Node{
			ID:       folder.ID,
			Name:     segments[len(segments)-1],
			Path:     folder.Path,
			IsFolder: true,
			Folder:   &sorted[i],
		}
		countDirectFiles(node, filesByFolder[folder.ID])
		attach(nodesByPath[parentPath], node)
		nodesByPath[folder.Path] = node
		parentByPath[folder.Path] = parentPath

		// Propagate this folder's direct contribution up the parent chain.
		for p := parentPath; ; p = parentByPath[p] {
			ancestor := nodesByPath[p]
			ancestor.FileCount += node.FileCount
			ancestor.IndexedCount += node.IndexedCount
			ancestor.TotalSize += node.TotalSize
			if p == "" {
				break
			}
		}
	}

	return root
}

// nearestAncestorPath returns the path of the real folder whose path is the
// longest proper segment-bounded prefix of path, or "" when none exists.
// Linear scan; fine for corpora of hundreds of folders.
func nearestAncestorPath(path string, folders []index.FolderRecord) string {
	best := ""
	for _, candidate := range folders {
		if candidate.Path == path {
			continue
		}
		if isAncestorPath(candidate.Path, path) && len(candidate.Path) > len(best) {
			best = candidate.Path
		}
	}
	return best
}

// isAncestorPath reports whether ancestor is a proper prefix of path on a
// segment boundary. "docs" is not an ancestor of "docs2/readme".
func isAncestorPath(ancestor, path string) bool {
	return strings.HasPrefix(path, ancestor+"/")
}

func joinPath(parent, segment string) string {
	if parent == "" {
		return segment
	}
	return parent + "/" + segment
}

func attach(parent, child *Node) {
	parent.Children = append(parent.Children, child)
}

// countDirectFiles fills a node's counters from its folder's direct files.
// Files with no index status at all are counted as indexed: older catalogs
// never wrote the marker for completed files.
func countDirectFiles(node *Node, files []index.IndexedFile) {
	node.FileCount = len(files)
	for _, f := range files {
		if f.IndexStatus == index.StatusIndexed || f.IndexStatus == "" {
			node.IndexedCount++
		}
		node.TotalSize += f.Size
	}
}

// Find returns the node with the given path, or nil.
func (n *Node) Find(path string) *Node {
	if n.Path == path {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(path); found != nil {
			return found
		}
	}
	return nil
}
