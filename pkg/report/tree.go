package report

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"
)

// Tree construction errors.
var (
	ErrEmptyName     = errors.New("empty qualified test name")
	ErrMissingResult = errors.New("test node has no result")
)

// rootKey stands in for the parent path of depth-0 nodes.
const rootKey = "\x00root"

// Node is one row of the results tree: a category or a test leaf.
type Node struct {
	Name   string
	Depth  int
	IsTest bool
	Parent *Node
	Result *Result // Set iff IsTest
}

// QualifiedPath joins the names from the root down to n with ".".
func (n *Node) QualifiedPath() string {
	if n.Parent == nil {
		return n.Name
	}
	return n.Parent.QualifiedPath() + Separator + n.Name
}

// FilePath is the link target of n relative to the run directory, without
// extension: "./A" at the root, "./A/B/t" below it. Each segment is
// path-escaped.
func (n *Node) FilePath() string {
	if n.Parent == nil {
		return "./" + url.PathEscape(n.Name)
	}
	return n.Parent.FilePath() + "/" + url.PathEscape(n.Name)
}

// Tree is the sorted result of BuildTree.
type Tree struct {
	Nodes     []*Node
	NameWidth int // Longest test name, in runes
	MaxDepth  int // Deepest node
}

type nodeKey struct {
	parent string
	name   string
	depth  int
}

// BuildTree turns flat results into a sorted category tree. Categories are
// shared between tests with a common prefix; every result becomes its own
// leaf, duplicates included.
func BuildTree(results []Result) (*Tree, error) {
	tree := &Tree{}
	categories := make(map[nodeKey]*Node)

	for i := range results {
		r := &results[i]
		if r.Name == "" {
			return nil, fmt.Errorf("result %d: %w", i, ErrEmptyName)
		}

		segments := strings.Split(r.Name, Separator)
		var parent *Node
		for depth, name := range segments {
			if depth > tree.MaxDepth {
				tree.MaxDepth = depth
			}

			if depth == len(segments)-1 {
				tree.Nodes = append(tree.Nodes, &Node{
					Name:   name,
					Depth:  depth,
					IsTest: true,
					Parent: parent,
					Result: r,
				})
				if w := utf8.RuneCountInString(name); w > tree.NameWidth {
					tree.NameWidth = w
				}
				break
			}

			key := nodeKey{parent: rootKey, name: name, depth: depth}
			if parent != nil {
				key.parent = parent.QualifiedPath()
			}
			if existing, ok := categories[key]; ok {
				parent = existing
				continue
			}
			node := &Node{Name: name, Depth: depth, Parent: parent}
			categories[key] = node
			tree.Nodes = append(tree.Nodes, node)
			parent = node
		}
	}

	sortNodes(tree.Nodes)
	return tree, nil
}

// sortNodes orders by qualified path. A category sorts before a test with
// the same path; otherwise input order is kept.
func sortNodes(nodes []*Node) {
	paths := make(map[*Node]string, len(nodes))
	for _, n := range nodes {
		paths[n] = n.QualifiedPath()
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		pi, pj := paths[nodes[i]], paths[nodes[j]]
		if pi != pj {
			return pi < pj
		}
		return !nodes[i].IsTest && nodes[j].IsTest
	})
}

// TOC returns the qualified path of every category that directly owns a
// test, in tree order.
func (t *Tree) TOC() []string {
	seen := make(map[*Node]bool)
	var toc []*Node
	for _, n := range t.Nodes {
		if !n.IsTest || n.Parent == nil || seen[n.Parent] {
			continue
		}
		seen[n.Parent] = true
		toc = append(toc, n.Parent)
	}

	sortNodes(toc)
	links := make([]string, len(toc))
	for i, n := range toc {
		links[i] = n.QualifiedPath()
	}
	return links
}

// Tests returns the test leaves in tree order.
func (t *Tree) Tests() []*Node {
	var tests []*Node
	for _, n := range t.Nodes {
		if n.IsTest {
			tests = append(tests, n)
		}
	}
	return tests
}

// FilterFailed keeps the results that did not pass. Applied before
// BuildTree, so no category without a failing test survives.
func FilterFailed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed() {
			failed = append(failed, r)
		}
	}
	return failed
}
