package animation

import "sort"

// Signal marks a gameplay-relevant instant inside a clip (a footstep
// landing, the hit frame of a melee swing). Signal ids are only unique
// within their clip; consumers must treat identity as (clip, id).
type Signal struct {
	Time float32
	ID   uint64
}

// Keyframe is a single sampled bone transform on a track.
type Keyframe struct {
	Time      float32
	Transform BoneTransform
}

// Track animates one bone. Keys are kept sorted by time.
type Track struct {
	Bone string
	Keys []Keyframe
}

func (t *Track) sample(at float32) BoneTransform {
	keys := t.Keys
	if len(keys) == 0 {
		return identityTransform()
	}
	if at <= keys[0].Time {
		return keys[0].Transform
	}
	last := keys[len(keys)-1]
	if at >= last.Time {
		return last.Transform
	}
	i := sort.Search(len(keys), func(i int) bool { return keys[i].Time > at })
	a := keys[i-1]
	b := keys[i]
	span := b.Time - a.Time
	if span <= 0 {
		return a.Transform
	}
	return lerpTransform(a.Transform, b.Transform, (at-a.Time)/span)
}

// Clip plays one animation. It owns its local playback time and a pending
// queue of signals crossed since the last drain.
type Clip struct {
	name     string
	duration float32
	speed    float32
	looping  bool
	enabled  bool

	time    float32
	signals []Signal
	pending []Signal
	tracks  []Track
}

// NewClip creates an enabled, non-looping clip with speed 1.
func NewClip(name string, duration float32) *Clip {
	return &Clip{
		name:     name,
		duration: duration,
		speed:    1,
		enabled:  true,
	}
}

func (c *Clip) Name() string      { return c.name }
func (c *Clip) Duration() float32 { return c.duration }
func (c *Clip) Time() float32     { return c.time }
func (c *Clip) IsEnabled() bool   { return c.enabled }
func (c *Clip) IsLooping() bool   { return c.looping }
func (c *Clip) Speed() float32    { return c.speed }

// SetLoop controls whether playback wraps at the clip's duration.
func (c *Clip) SetLoop(loop bool) *Clip {
	c.looping = loop
	return c
}

// SetSpeed sets the playback speed multiplier.
func (c *Clip) SetSpeed(speed float32) *Clip {
	c.speed = speed
	return c
}

// SetEnabled pauses or resumes playback. A disabled clip neither advances
// nor fires signals.
func (c *Clip) SetEnabled(enabled bool) *Clip {
	c.enabled = enabled
	return c
}

// Rewind resets playback to the beginning and discards pending signals.
func (c *Clip) Rewind() *Clip {
	c.time = 0
	c.pending = c.pending[:0]
	return c
}

// HasEnded reports whether a non-looping clip has played through.
func (c *Clip) HasEnded() bool {
	return !c.looping && c.time >= c.duration
}

// AddSignal registers a signal marker. Markers are kept ordered by time.
func (c *Clip) AddSignal(id uint64, at float32) *Clip {
	c.signals = append(c.signals, Signal{Time: at, ID: id})
	sort.SliceStable(c.signals, func(i, j int) bool { return c.signals[i].Time < c.signals[j].Time })
	return c
}

// AddTrack appends a bone track. Keys must be ordered by time.
func (c *Clip) AddTrack(bone string, keys ...Keyframe) *Clip {
	c.tracks = append(c.tracks, Track{Bone: bone, Keys: keys})
	return c
}

// DrainSignals returns and clears the signals crossed since the last
// drain, in timestamp order.
func (c *Clip) DrainSignals() []Signal {
	if len(c.pending) == 0 {
		return nil
	}
	out := c.pending
	c.pending = nil
	return out
}

// SetTime jumps playback to the given local time without firing signals.
// Used when restoring a snapshot.
func (c *Clip) SetTime(at float32) {
	if at < 0 {
		at = 0
	}
	if !c.looping && at > c.duration {
		at = c.duration
	}
	c.time = at
}

// advance moves local time forward by dt (scaled by speed) and queues
// every signal crossed, even when dt skips several in one step.
func (c *Clip) advance(dt float32) {
	if !c.enabled || c.duration <= 0 {
		return
	}
	prev := c.time
	next := prev + dt*c.speed
	if !c.looping {
		if next > c.duration {
			next = c.duration
		}
		c.queueCrossed(prev, next)
		c.time = next
		return
	}
	for next >= c.duration {
		c.queueCrossed(prev, c.duration)
		next -= c.duration
		prev = 0
	}
	c.queueCrossed(prev, next)
	c.time = next
}

func (c *Clip) queueCrossed(from, to float32) {
	for _, s := range c.signals {
		if s.Time > from && s.Time <= to {
			c.pending = append(c.pending, s)
		}
	}
}

// samplePose evaluates every track at the current local time.
func (c *Clip) samplePose() Pose {
	if len(c.tracks) == 0 {
		return nil
	}
	pose := make(Pose, len(c.tracks))
	for i := range c.tracks {
		t := &c.tracks[i]
		pose[t.Bone] = t.sample(c.time)
	}
	return pose
}
