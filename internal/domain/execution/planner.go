package execution

import (
	"sort"
	"time"

	"github.com/blinders/blinders-cli/internal/domain/registry"
	"github.com/google/uuid"
)

// Builder expands a DeploymentRequest into a Plan using a Registry.
type Builder struct {
	registry *registry.Registry
	newID    func() string
	now      func() time.Time
}

// NewBuilder creates a new Builder over reg.
func NewBuilder(reg *registry.Registry) *Builder {
	return &Builder{
		registry: reg,
		newID:    func() string { return uuid.New().String() },
		now:      time.Now,
	}
}

// WithIDGenerator returns a Builder that uses gen for request ids.
func (b *Builder) WithIDGenerator(gen func() string) *Builder {
	return &Builder{
		registry: b.registry,
		newID:    gen,
		now:      b.now,
	}
}

// WithClock returns a Builder that stamps plans with now().
func (b *Builder) WithClock(now func() time.Time) *Builder {
	return &Builder{
		registry: b.registry,
		newID:    b.newID,
		now:      now,
	}
}

// Build resolves the step for req.Action and all of its transitive
// preconditions, each exactly once, ordered topologically. Ties are broken by
// registry insertion order so the same request always yields the same order.
func (b *Builder) Build(req DeploymentRequest) (*Plan, error) {
	root := req.Action().StepName()
	if _, err := b.registry.Lookup(root); err != nil {
		return nil, err
	}

	closure, err := b.resolve(root)
	if err != nil {
		return nil, err
	}

	ordered, err := b.sort(closure)
	if err != nil {
		return nil, err
	}

	entries := make([]PlanEntry, 0, len(ordered))
	for _, def := range ordered {
		entry := NewPlanEntry(def, req.DryRun())
		if def.HasRollback() {
			rollback, err := b.registry.Lookup(def.RollbackStep())
			if err != nil {
				return nil, err
			}
			entry = entry.WithRollback(rollback)
		}
		entries = append(entries, entry)
	}

	return &Plan{
		requestID: b.newID(),
		request:   req,
		entries:   entries,
		createdAt: b.now(),
	}, nil
}

// resolve collects root and every step reachable through preconditions.
// The visited set makes this terminate even when preconditions form a cycle.
func (b *Builder) resolve(root string) (map[string]registry.StepDefinition, error) {
	closure := make(map[string]registry.StepDefinition)
	stack := []string{root}

	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := closure[name]; seen {
			continue
		}

		def, err := b.registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		closure[name] = def

		for _, dep := range def.Preconditions() {
			if _, seen := closure[dep]; !seen {
				stack = append(stack, dep)
			}
		}
	}

	return closure, nil
}

// sort orders the closure with Kahn's algorithm, always releasing the ready
// step that was registered first.
func (b *Builder) sort(closure map[string]registry.StepDefinition) ([]registry.StepDefinition, error) {
	inDegree := make(map[string]int, len(closure))
	dependents := make(map[string][]string, len(closure))

	for name, def := range closure {
		inDegree[name] += 0
		for _, dep := range dedupe(def.Preconditions()) {
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	ready := make([]string, 0, len(closure))
	for name, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, name)
		}
	}

	sorted := make([]registry.StepDefinition, 0, len(closure))
	for len(ready) > 0 {
		b.byPosition(ready)
		name := ready[0]
		ready = ready[1:]

		sorted = append(sorted, closure[name])

		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(sorted) != len(closure) {
		return nil, registry.NewCyclicPreconditionError(b.findCycle(closure, inDegree))
	}

	return sorted, nil
}

// findCycle walks the steps Kahn's algorithm could not release and returns
// one cycle as a path that starts and ends with the same step.
func (b *Builder) findCycle(closure map[string]registry.StepDefinition, inDegree map[string]int) []string {
	remaining := make([]string, 0)
	for name, degree := range inDegree {
		if degree > 0 {
			remaining = append(remaining, name)
		}
	}
	b.byPosition(remaining)

	const (
		unvisited = iota
		visiting
		done
	)
	color := make(map[string]int, len(remaining))
	var path []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		color[name] = visiting
		path = append(path, name)

		for _, dep := range closure[name].Preconditions() {
			if inDegree[dep] == 0 {
				continue
			}
			switch color[dep] {
			case visiting:
				for i, n := range path {
					if n == dep {
						cycle = append(append([]string{}, path[i:]...), dep)
						return true
					}
				}
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}

		path = path[:len(path)-1]
		color[name] = done
		return false
	}

	for _, name := range remaining {
		if color[name] == unvisited && visit(name) {
			return cycle
		}
	}
	return remaining
}

func (b *Builder) byPosition(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		pi, _ := b.registry.Position(names[i])
		pj, _ := b.registry.Position(names[j])
		return pi < pj
	})
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
