// Package nav provides the navigation mesh and best-effort path following
// used by bot movement. Pathing failures never propagate: a bot that can't
// find a path keeps its previous one and falls back to idling.
package nav

import (
	"container/heap"
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// Navmesh is a read-only walkable-surface graph. It is shared by every
// path follower and never mutated at runtime.
type Navmesh struct {
	vertices []mgl32.Vec3
	links    [][]int32
}

// NewNavmesh builds a navmesh from vertices and undirected edges. Edge
// indices out of range are a content bug and panic at load time.
func NewNavmesh(vertices []mgl32.Vec3, edges [][2]int32) *Navmesh {
	nm := &Navmesh{
		vertices: vertices,
		links:    make([][]int32, len(vertices)),
	}
	for _, e := range edges {
		a, b := e[0], e[1]
		if int(a) >= len(vertices) || int(b) >= len(vertices) || a < 0 || b < 0 {
			panic(fmt.Sprintf("nav: edge (%d, %d) out of range for %d vertices", a, b, len(vertices)))
		}
		nm.links[a] = append(nm.links[a], b)
		nm.links[b] = append(nm.links[b], a)
	}
	return nm
}

// Vertices returns the vertex positions. Callers must not mutate them.
func (nm *Navmesh) Vertices() []mgl32.Vec3 { return nm.vertices }

// RandomVertex returns a uniformly random vertex, used as a wander goal
// when a level has no points of interest.
func (nm *Navmesh) RandomVertex(r *rand.Rand) (mgl32.Vec3, bool) {
	if len(nm.vertices) == 0 {
		return mgl32.Vec3{}, false
	}
	return nm.vertices[r.Intn(len(nm.vertices))], true
}

// NearestVertex finds the vertex closest to p within maxDistance, linear
// scan over the mesh.
func (nm *Navmesh) NearestVertex(p mgl32.Vec3, maxDistance float32) (int32, bool) {
	best := int32(-1)
	bestSq := maxDistance * maxDistance
	for i, v := range nm.vertices {
		if d := v.Sub(p).LenSqr(); d <= bestSq {
			bestSq = d
			best = int32(i)
		}
	}
	return best, best >= 0
}

// BuildPath runs an A* search between two vertices and returns the world
// points in start-to-goal order.
func (nm *Navmesh) BuildPath(from, to int32) ([]mgl32.Vec3, error) {
	n := len(nm.vertices)
	if int(from) >= n || int(to) >= n || from < 0 || to < 0 {
		return nil, fmt.Errorf("nav: path endpoints (%d, %d) out of range", from, to)
	}
	if from == to {
		return []mgl32.Vec3{nm.vertices[from]}, nil
	}

	cameFrom := make([]int32, n)
	gScore := make([]float32, n)
	for i := range cameFrom {
		cameFrom[i] = -1
		gScore[i] = float32(math.Inf(1))
	}
	gScore[from] = 0

	goal := nm.vertices[to]
	open := &openSet{}
	heap.Init(open)
	heap.Push(open, &openItem{vertex: from, f: nm.vertices[from].Sub(goal).Len()})

	for open.Len() > 0 {
		current := heap.Pop(open).(*openItem).vertex
		if current == to {
			return nm.reconstruct(cameFrom, from, to), nil
		}
		for _, next := range nm.links[current] {
			tentative := gScore[current] + nm.vertices[current].Sub(nm.vertices[next]).Len()
			if tentative < gScore[next] {
				cameFrom[next] = current
				gScore[next] = tentative
				f := tentative + nm.vertices[next].Sub(goal).Len()
				heap.Push(open, &openItem{vertex: next, f: f})
			}
		}
	}

	return nil, fmt.Errorf("nav: no path from %d to %d", from, to)
}

func (nm *Navmesh) reconstruct(cameFrom []int32, from, to int32) []mgl32.Vec3 {
	path := make([]mgl32.Vec3, 0, 32)
	for cur := to; cur != -1; cur = cameFrom[cur] {
		path = append(path, nm.vertices[cur])
		if cur == from {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type openItem struct {
	vertex int32
	f      float32
	index  int
}

type openSet []*openItem

func (o openSet) Len() int           { return len(o) }
func (o openSet) Less(i, j int) bool { return o[i].f < o[j].f }
func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}
func (o *openSet) Push(x any) {
	item := x.(*openItem)
	item.index = len(*o)
	*o = append(*o, item)
}
func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*o = old[:n-1]
	return item
}
