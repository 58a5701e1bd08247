package domain

import (
	"sort"
	"strings"
)

const (
	NodeFolder = "folder"
	NodeFile   = "file"
)

// TreeNode is one entry of the derived file tree. It is rebuilt from the flat
// file list on every request and never persisted.
type TreeNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Type     string      `json:"type"`
	FileID   string      `json:"file_id,omitempty"`
	Language string      `json:"language,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// BuildTree nests files by splitting their paths on "/". The returned root is
// an unnamed folder. Empty segments are skipped; a file whose path is empty
// sits at the root under its name.
func BuildTree(files []File) *TreeNode {
	root := &TreeNode{Type: NodeFolder}
	folders := map[string]*TreeNode{"": root}

	for _, f := range files {
		segs := splitSegments(f.Path)
		if len(segs) == 0 {
			name := strings.TrimSpace(f.Name)
			if name == "" {
				continue
			}
			segs = []string{name}
		}

		parent := root
		parentPath := ""
		for _, seg := range segs[:len(segs)-1] {
			p := joinPath(parentPath, seg)
			node, ok := folders[p]
			if !ok {
				node = &TreeNode{Name: seg, Path: p, Type: NodeFolder}
				folders[p] = node
				parent.Children = append(parent.Children, node)
			}
			parent = node
			parentPath = p
		}

		leaf := segs[len(segs)-1]
		parent.Children = append(parent.Children, &TreeNode{
			Name:     leaf,
			Path:     joinPath(parentPath, leaf),
			Type:     NodeFile,
			FileID:   f.ID,
			Language: f.Language,
		})
	}

	sortTree(root)
	return root
}

func splitSegments(p string) []string {
	raw := strings.Split(p, "/")
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// sortTree orders folders before files, each group by name.
func sortTree(n *TreeNode) {
	sort.SliceStable(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if a.Type != b.Type {
			return a.Type == NodeFolder
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	for _, c := range n.Children {
		if c.Type == NodeFolder {
			sortTree(c)
		}
	}
}
