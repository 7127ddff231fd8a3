package models

import (
	"sort"
	"time"
)

// Category is a node of the self-referencing category tree.
type Category struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Description   string     `json:"description,omitempty"`
	ParentID      string     `json:"parentId,omitempty"`
	IconURL       string     `json:"iconUrl,omitempty"`
	DisplayOrder  int        `json:"displayOrder"`
	IsActive      bool       `json:"isActive"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Children      []Category `json:"children,omitempty"`
	ProductsCount int        `json:"productsCount,omitempty"`
}

// Key returns the category id.
func (c Category) Key() string { return c.ID }

// CategoryOrder is one entry of a reorder request.
type CategoryOrder struct {
	ID           string `json:"id"`
	DisplayOrder int    `json:"displayOrder"`
}

// BuildCategoryTree nests a flat list by ParentID. Siblings are sorted by
// DisplayOrder then Name. Nodes whose parent is missing become roots.
func BuildCategoryTree(flat []Category) []Category {
	byParent := make(map[string][]Category)
	ids := make(map[string]bool, len(flat))
	for _, c := range flat {
		ids[c.ID] = true
	}
	for _, c := range flat {
		parent := c.ParentID
		if parent != "" && !ids[parent] {
			parent = ""
		}
		c.Children = nil
		byParent[parent] = append(byParent[parent], c)
	}

	visited := make(map[string]bool, len(flat))
	var attach func(parent string) []Category
	attach = func(parent string) []Category {
		nodes := byParent[parent]
		sortSiblings(nodes)
		out := make([]Category, 0, len(nodes))
		for _, n := range nodes {
			if visited[n.ID] {
				continue
			}
			visited[n.ID] = true
			n.Children = attach(n.ID)
			out = append(out, n)
		}
		return out
	}
	return attach("")
}

func sortSiblings(nodes []Category) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].DisplayOrder != nodes[j].DisplayOrder {
			return nodes[i].DisplayOrder < nodes[j].DisplayOrder
		}
		return nodes[i].Name < nodes[j].Name
	})
}

// WouldCreateCycle reports whether setting parentID as the parent of id
// would make id its own ancestor, judged against the known categories.
func WouldCreateCycle(categories []Category, id, parentID string) bool {
	if parentID == "" || id == "" {
		return false
	}
	if parentID == id {
		return true
	}
	parents := make(map[string]string, len(categories))
	for _, c := range categories {
		parents[c.ID] = c.ParentID
	}
	seen := map[string]bool{}
	for cur := parentID; cur != ""; cur = parents[cur] {
		if cur == id {
			return true
		}
		if seen[cur] {
			// existing data already loops; refuse to extend it
			return true
		}
		seen[cur] = true
	}
	return false
}
