package depgraph

import (
	"sort"

	"github.com/hamed0406/statusboard/internal/registry"
)

// Node holds both directions of the dependency relation for one endpoint.
type Node struct {
	DependsOn  []string `json:"dependsOn"`
	RequiredBy []string `json:"requiredBy"`
}

// Graph is a directed adjacency structure keyed by endpoint id. It may
// contain cycles; all traversals use visited sets.
type Graph map[string]*Node

// Build derives the graph from declared relations over the full registry,
// enabled or not. A depends_on edge A→B and an impacts edge B→A produce the
// same single pair of adjacency entries.
func Build(endpoints []registry.Endpoint) Graph {
	g := make(Graph, len(endpoints))
	for _, ep := range endpoints {
		g.node(ep.ID)
		for _, dep := range ep.DependsOn {
			g.addEdge(ep.ID, dep)
		}
		// "A impacts C" means C depends on A.
		for _, target := range ep.Impacts {
			g.addEdge(target, ep.ID)
		}
	}
	return g
}

func (g Graph) node(id string) *Node {
	n, ok := g[id]
	if !ok {
		n = &Node{}
		g[id] = n
	}
	return n
}

// addEdge records "from depends on to", deduplicating against edges already
// declared via the other relation.
func (g Graph) addEdge(from, to string) {
	a := g.node(from)
	b := g.node(to)
	if !contains(a.DependsOn, to) {
		a.DependsOn = append(a.DependsOn, to)
	}
	if !contains(b.RequiredBy, from) {
		b.RequiredBy = append(b.RequiredBy, from)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// BlastRadius counts the distinct endpoints transitively requiring id,
// excluding id itself.
func BlastRadius(g Graph, id string) int {
	count := 0
	walkRequiredBy(g, id, func(string, int) { count++ })
	return count
}

// CascadeLevel groups the blast radius by BFS depth: level 1 is the direct
// dependents, level 2 their dependents not already seen, and so on.
type CascadeLevel struct {
	Level int      `json:"level"`
	IDs   []string `json:"ids"`
}

// CascadeLevels returns the ripple order for id. Ids inside each level are
// sorted so identical inputs always produce identical output.
func CascadeLevels(g Graph, id string) []CascadeLevel {
	byDepth := make(map[int][]string)
	maxDepth := 0
	walkRequiredBy(g, id, func(nid string, depth int) {
		byDepth[depth] = append(byDepth[depth], nid)
		if depth > maxDepth {
			maxDepth = depth
		}
	})

	levels := make([]CascadeLevel, 0, maxDepth)
	for depth := 1; depth <= maxDepth; depth++ {
		ids := byDepth[depth]
		sort.Strings(ids)
		levels = append(levels, CascadeLevel{Level: depth, IDs: ids})
	}
	return levels
}

// walkRequiredBy breadth-first traverses the requiredBy relation from start,
// visiting each reachable node once with its BFS depth. The visited set makes
// it safe on cyclic graphs.
func walkRequiredBy(g Graph, start string, visit func(id string, depth int)) {
	startNode, ok := g[start]
	if !ok {
		return
	}

	type item struct {
		id    string
		depth int
	}
	visited := map[string]struct{}{start: {}}
	queue := make([]item, 0, len(startNode.RequiredBy))
	for _, dep := range startNode.RequiredBy {
		if _, seen := visited[dep]; seen {
			continue
		}
		visited[dep] = struct{}{}
		queue = append(queue, item{dep, 1})
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		visit(cur.id, cur.depth)

		node, ok := g[cur.id]
		if !ok {
			continue
		}
		for _, next := range node.RequiredBy {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, item{next, cur.depth + 1})
		}
	}
}
