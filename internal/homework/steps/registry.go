package steps

import (
	"fmt"

	types "github.com/yungbote/homework-backend/internal/domain"
	"github.com/yungbote/homework-backend/internal/platform/apierr"
)

// Registry maps step names to their logic. A step name without a
// registered logic is a deployment bug (a run row referencing logic this
// binary does not carry), so Resolve fails hard instead of skipping.
type Registry struct {
	byName map[types.StepName]Logic
}

func NewRegistry(logics ...Logic) *Registry {
	r := &Registry{byName: make(map[types.StepName]Logic, len(logics))}
	for _, l := range logics {
		r.byName[l.StepName()] = l
	}
	return r
}

func (r *Registry) Register(l Logic) {
	r.byName[l.StepName()] = l
}

func (r *Registry) Resolve(name types.StepName) (Logic, error) {
	l, ok := r.byName[name]
	if !ok {
		return nil, apierr.New(500, "no_logic_registered",
			fmt.Errorf("%w: no logic registered for step name %q", apierr.ErrConfiguration, name))
	}
	return l, nil
}

// Names returns the registered step names; this is the step set new runs
// are created with.
func (r *Registry) Names() []types.StepName {
	out := make([]types.StepName, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	return out
}

// DefaultRegistry wires the step set production runs execute. Explanation
// logic exists but is deliberately left out.
func DefaultRegistry(deps Deps) *Registry {
	return NewRegistry(
		NewLabeling(deps),
		NewExtractTasks(deps),
	)
}
