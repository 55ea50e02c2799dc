package bot

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// scriptDispatch is appended to every bot script so the compiled program
// calls the script's update function each run.
const scriptDispatch = `
update(__engine, __state, __facts)
`

// scriptFacts is the read-only view of the bot handed to its script each
// tick.
type scriptFacts struct {
	Health          float64
	HasTarget       bool
	TargetDistance  float64
	RestorationTime float64
	Moving          bool
}

// scriptOutput collects the knobs a script turned during a run.
type scriptOutput struct {
	speedFactor float64
	threaten    bool
}

// scriptRuntime runs an optional per-kind tengo hook that tunes bot
// behavior without recompiling: scripts scale movement speed and force
// threaten displays based on the facts of the tick. Script state persists
// across runs in __state.
type scriptRuntime struct {
	compiled *tengo.Compiled
	state    *tengo.Map
}

func newScriptRuntime(src []byte) (*scriptRuntime, error) {
	script := tengo.NewScript(append(append([]byte{}, src...), []byte(scriptDispatch)...))
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	_ = script.Add("__facts", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("bot: compile script: %w", err)
	}
	return &scriptRuntime{
		compiled: compiled,
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
	}, nil
}

func (rt *scriptRuntime) run(facts scriptFacts) (scriptOutput, error) {
	out := scriptOutput{speedFactor: 1}

	engine := &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"set_speed_factor": &tengo.UserFunction{Name: "set_speed_factor", Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) < 1 {
				return tengo.FalseValue, nil
			}
			switch v := args[0].(type) {
			case *tengo.Float:
				out.speedFactor = v.Value
			case *tengo.Int:
				out.speedFactor = float64(v.Value)
			default:
				return tengo.FalseValue, nil
			}
			return tengo.TrueValue, nil
		}},
		"threaten": &tengo.UserFunction{Name: "threaten", Value: func(args ...tengo.Object) (tengo.Object, error) {
			out.threaten = true
			return tengo.TrueValue, nil
		}},
	}}

	factsMap := &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"health":           &tengo.Float{Value: facts.Health},
		"has_target":       boolObject(facts.HasTarget),
		"target_distance":  &tengo.Float{Value: facts.TargetDistance},
		"restoration_time": &tengo.Float{Value: facts.RestorationTime},
		"moving":           boolObject(facts.Moving),
	}}

	if err := rt.compiled.Set("__engine", engine); err != nil {
		return out, err
	}
	if err := rt.compiled.Set("__state", rt.state); err != nil {
		return out, err
	}
	if err := rt.compiled.Set("__facts", factsMap); err != nil {
		return out, err
	}
	if err := rt.compiled.Run(); err != nil {
		return out, fmt.Errorf("bot: run script: %w", err)
	}
	return out, nil
}

func boolObject(v bool) tengo.Object {
	if v {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}
