package animation

// ClipHandle indexes a clip owned by one machine. Handles are never valid
// across machines.
type ClipHandle int

// NodeHandle indexes a pose node owned by one machine.
type NodeHandle int

type poseNode interface {
	evaluate(m *Machine, tick uint64, dt float32) Pose
}

// playClip is the leaf node: it emits its clip's pose at the clip's own
// local time.
type playClip struct {
	clip ClipHandle
}

func (n *playClip) evaluate(m *Machine, _ uint64, _ float32) Pose {
	return m.clips[n.clip].samplePose()
}

// WeightedInput pairs a weight parameter name with a child node for a
// weighted blend.
type WeightedInput struct {
	Weight string
	Node   NodeHandle
}

type weightedBlend struct {
	inputs []WeightedInput
}

func (n *weightedBlend) evaluate(m *Machine, tick uint64, dt float32) Pose {
	poses := make([]Pose, len(n.inputs))
	weights := make([]float32, len(n.inputs))
	for i, in := range n.inputs {
		poses[i] = m.evalNode(in.Node, tick, dt)
		weights[i] = m.weightValue(in.Weight)
	}
	return blendWeighted(poses, weights)
}

// IndexedChild pairs a child node with the cross-fade time used when the
// selector index switches to it.
type IndexedChild struct {
	BlendTime float32
	Node      NodeHandle
}

// indexedBlend samples exactly the selected child and cross-fades when the
// index parameter changes. A shared node may be reached twice in one tick
// (from both sides of a transition), so fade time only advances once per
// tick.
type indexedBlend struct {
	param    string
	children []IndexedChild

	current     int
	fadeFrom    int
	fadeElapsed float32
	fadeTime    float32
	fading      bool
	lastTick    uint64
	hasTicked   bool
}

func (n *indexedBlend) evaluate(m *Machine, tick uint64, dt float32) Pose {
	selected := int(m.indexValue(n.param))
	if selected < 0 {
		selected = 0
	}
	if selected >= len(n.children) {
		selected = len(n.children) - 1
	}

	advance := !n.hasTicked || tick != n.lastTick
	n.lastTick = tick
	n.hasTicked = true

	if advance {
		if selected != n.current {
			child := n.children[selected]
			if child.BlendTime > 0 {
				n.fadeFrom = n.current
				n.fadeElapsed = 0
				n.fadeTime = child.BlendTime
				n.fading = true
			} else {
				n.fading = false
			}
			n.current = selected
		} else if n.fading {
			n.fadeElapsed += dt
			if n.fadeElapsed >= n.fadeTime {
				n.fading = false
			}
		}
	}

	if !n.fading {
		return m.evalNode(n.children[n.current].Node, tick, dt)
	}
	from := m.evalNode(n.children[n.fadeFrom].Node, tick, dt)
	to := m.evalNode(n.children[n.current].Node, tick, dt)
	return BlendPoses(from, to, clamp01(n.fadeElapsed/n.fadeTime))
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
