package importer

import "context"

// Filter normalizes one field of a row. It receives the shared row state and
// the field's current value and mutates the row in place. Filters run in
// stage 1 and must not touch external state beyond reads.
type Filter func(ctx context.Context, row *Row, value interface{}) error

// Action applies one field of a filtered row against external state. Actions
// run in stage 2; an action may mutate the shared row so that actions
// dispatched later in the same pass observe its results.
type Action func(ctx context.Context, value interface{}, row *Row) error

// StartHook runs once per dataset before any item is processed, with the
// full ordered item sequence.
type StartHook func(ctx context.Context, items []*Item)

// FilterBinding attaches a filter to a field.
type FilterBinding struct {
	Field  Field
	Filter Filter
}

// ActionBinding attaches an action to a field. The declared order of action
// bindings is load-bearing: handlers read row fields that earlier handlers
// write, so the configured sequence must be preserved exactly.
type ActionBinding struct {
	Field  Field
	Action Action
}

// Config is the explicit pipeline configuration: the ordered (field, filter)
// and (field, action) bindings plus run-start hooks. It is assembled once at
// pipeline construction from the fixed field list, not discovered through
// any global registration.
type Config struct {
	Filters []FilterBinding
	Actions []ActionBinding
	OnStart []StartHook
}

// Pipeline dispatches filters and actions by field name. Each stage holds at
// most one handler per field; a later binding for the same field replaces
// the earlier one.
type Pipeline struct {
	filters map[Field]Filter
	actions map[Field]Action
	onStart []StartHook
	log     *RunLog
}

// NewPipeline builds a pipeline from its configuration.
func NewPipeline(log *RunLog, cfg Config) *Pipeline {
	if log == nil {
		log = NewRunLog(nil)
	}

	p := &Pipeline{
		filters: make(map[Field]Filter, len(cfg.Filters)),
		actions: make(map[Field]Action, len(cfg.Actions)),
		onStart: cfg.OnStart,
		log:     log,
	}

	for _, b := range cfg.Filters {
		if !KnownField(b.Field) {
			log.Printf("- ignoring filter for unknown field `%s`", b.Field)
			continue
		}
		if _, dup := p.filters[b.Field]; dup {
			log.Printf("- replacing earlier filter for field `%s`", b.Field)
		}
		p.filters[b.Field] = b.Filter
	}

	for _, b := range cfg.Actions {
		if !KnownField(b.Field) {
			log.Printf("- ignoring action for unknown field `%s`", b.Field)
			continue
		}
		if _, dup := p.actions[b.Field]; dup {
			log.Printf("- replacing earlier action for field `%s`", b.Field)
		}
		p.actions[b.Field] = b.Action
	}

	return p
}

// Filter returns the filter bound to a field, if any.
func (p *Pipeline) Filter(f Field) (Filter, bool) {
	fn, ok := p.filters[f]
	return fn, ok
}

// Action returns the action bound to a field, if any.
func (p *Pipeline) Action(f Field) (Action, bool) {
	fn, ok := p.actions[f]
	return fn, ok
}

// Log returns the pipeline's run log.
func (p *Pipeline) Log() *RunLog {
	return p.log
}
