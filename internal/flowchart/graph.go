package flowchart

// Shape is the drawn outline of a flowchart node as reported by extraction.
type Shape string

const (
	ShapeOval    Shape = "oval"
	ShapeRect    Shape = "rect"
	ShapeDiamond Shape = "diamond"
	ShapeUnknown Shape = "unknown"
)

type Node struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Shape Shape  `json:"shape,omitempty"`
}

type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// Graph is a student flowchart as extracted from an image. It is built once
// per grading pass and not mutated afterwards.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Index answers reachability and direct-edge queries over a Graph.
// Edge labels are ignored; parallel edges collapse to one adjacency entry.
type Index struct {
	adj    map[string][]string
	direct map[[2]string]bool
}

func NewIndex(g Graph) *Index {
	ix := &Index{
		adj:    make(map[string][]string, len(g.Nodes)),
		direct: make(map[[2]string]bool, len(g.Edges)),
	}
	for _, e := range g.Edges {
		key := [2]string{e.Source, e.Target}
		if !ix.direct[key] {
			ix.direct[key] = true
			ix.adj[e.Source] = append(ix.adj[e.Source], e.Target)
		}
	}
	return ix
}

// HasEdge reports whether an explicit edge from→to exists.
func (ix *Index) HasEdge(from, to string) bool {
	return ix.direct[[2]string{from, to}]
}

// Reachable runs a multi-source BFS from sources and reports whether any
// member of targets is reached. A node that is both a source and a target
// counts as trivially reachable.
func (ix *Index) Reachable(sources, targets map[string]struct{}) bool {
	if len(sources) == 0 || len(targets) == 0 {
		return false
	}
	visited := make(map[string]struct{}, len(sources))
	queue := make([]string, 0, len(sources))
	for s := range sources {
		queue = append(queue, s)
		visited[s] = struct{}{}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, ok := targets[cur]; ok {
			return true
		}
		for _, next := range ix.adj[cur] {
			if _, seen := visited[next]; !seen {
				visited[next] = struct{}{}
				queue = append(queue, next)
			}
		}
	}
	return false
}

// Intents classifies every node text in the graph.
func Intents(g Graph) map[string]Intent {
	out := make(map[string]Intent, len(g.Nodes))
	for _, n := range g.Nodes {
		out[n.ID] = ClassifyIntent(n.Text)
	}
	return out
}

// NodesWithIntent returns the ids of all nodes classified as the given intent.
func NodesWithIntent(intents map[string]Intent, want Intent, g Graph) []string {
	out := make([]string, 0, 2)
	// iterate nodes, not the map, so order is stable
	for _, n := range g.Nodes {
		if intents[n.ID] == want {
			out = append(out, n.ID)
		}
	}
	return out
}
