package services

import (
	"fmt"
	"html/template"
	"sort"

	"tourboard/internal/models"
)

// CommentNode 评论树节点，Children 按创建顺序排列
type CommentNode struct {
	models.Comment
	ContentHTML template.HTML  `json:"content_html,omitempty"`
	Children    []*CommentNode `json:"children"`
}

// BuildCommentTree turns the flat comment rows of one thread into a forest.
// The walk uses an explicit stack so reply depth is bounded only by memory.
// A comment whose parent is not among rows, or a parent cycle, is reported as
// ErrValidation.
func BuildCommentTree(rows []models.Comment) ([]*CommentNode, error) {
	sorted := make([]models.Comment, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	nodes := make(map[uint]*CommentNode, len(sorted))
	for _, c := range sorted {
		if _, dup := nodes[c.ID]; dup {
			return nil, fmt.Errorf("comment %d appears twice: %w", c.ID, ErrValidation)
		}
		nodes[c.ID] = &CommentNode{Comment: c, Children: []*CommentNode{}}
	}

	// 邻接表: parent id -> children
	var roots []*CommentNode
	children := make(map[uint][]*CommentNode, len(sorted))
	for _, c := range sorted {
		node := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if _, ok := nodes[*c.ParentID]; !ok {
			return nil, fmt.Errorf("comment %d references missing parent %d: %w", c.ID, *c.ParentID, ErrValidation)
		}
		children[*c.ParentID] = append(children[*c.ParentID], node)
	}

	visited := make(map[uint]bool, len(nodes))
	stack := make([]*CommentNode, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[node.ID] {
			return nil, fmt.Errorf("comment %d reached twice: %w", node.ID, ErrValidation)
		}
		visited[node.ID] = true

		kids := children[node.ID]
		if len(kids) > 0 {
			node.Children = kids
		}
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}

	// 环上的节点从根不可达
	if len(visited) != len(nodes) {
		for id := range nodes {
			if !visited[id] {
				return nil, fmt.Errorf("comment %d is part of a parent cycle: %w", id, ErrValidation)
			}
		}
	}

	if roots == nil {
		roots = []*CommentNode{}
	}
	return roots, nil
}

// collectSubtree returns ids of the given comments and every reply beneath
// them in pre-order: each comment comes before all of its replies, whatever
// order the seeds are given in. The walk is depth-first over an explicit stack,
// starting from the doomed comments whose parent survives.
func collectSubtree(rows []models.Comment, seeds []uint) []uint {
	byParent := make(map[uint][]uint, len(rows))
	parentOf := make(map[uint]uint, len(rows))
	for _, c := range rows {
		if c.ParentID != nil {
			byParent[*c.ParentID] = append(byParent[*c.ParentID], c.ID)
			parentOf[c.ID] = *c.ParentID
		}
	}

	// 先求闭包，再从闭包内的最高层节点做先序遍历
	doomed := make(map[uint]bool, len(seeds))
	stack := append([]uint(nil), seeds...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if doomed[id] {
			continue
		}
		doomed[id] = true
		stack = append(stack, byParent[id]...)
	}

	var tops []uint
	picked := make(map[uint]bool, len(seeds))
	for _, id := range seeds {
		parent, hasParent := parentOf[id]
		if picked[id] || (hasParent && doomed[parent]) {
			continue
		}
		picked[id] = true
		tops = append(tops, id)
	}

	out := make([]uint, 0, len(doomed))
	emitted := make(map[uint]bool, len(doomed))
	for i := len(tops) - 1; i >= 0; i-- {
		stack = append(stack, tops[i])
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if emitted[id] {
			continue
		}
		emitted[id] = true
		out = append(out, id)
		kids := byParent[id]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}

	// 父链成环时没有最高层节点，剩下的按任意顺序补上
	if len(out) < len(doomed) {
		for _, id := range seeds {
			out = append(out, collectCycle(id, byParent, emitted)...)
		}
	}
	return out
}

func collectCycle(seed uint, byParent map[uint][]uint, emitted map[uint]bool) []uint {
	var out []uint
	stack := []uint{seed}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if emitted[id] {
			continue
		}
		emitted[id] = true
		out = append(out, id)
		stack = append(stack, byParent[id]...)
	}
	return out
}
