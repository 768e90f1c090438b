package importer

import "context"

// Item is one decoded data row together with its two-stage processing
// protocol. Items are created once per row and never reused.
type Item struct {
	row *Row
}

// NewItem creates an item over an existing row.
func NewItem(row *Row) *Item {
	return &Item{row: row}
}

// Row exposes the item's mutable field state.
func (it *Item) Row() *Row {
	return it.row
}

// Process runs the item through both stages. Stage 1 runs every bound filter
// in a single pass over the field order snapshotted up front, so fields that
// a filter introduces are not themselves re-filtered. After filtering the
// full field state is dumped to the run log. Stage 2 runs every bound action
// over the post-filter field order; actions that mutate the shared row do so
// for the benefit of actions dispatched later in the same pass.
//
// Filters and actions are expected to catch their own external-call failures
// and degrade to a logged no-op; an error returned to this loop is logged as
// a field-level failure and processing continues with the next field.
func (it *Item) Process(ctx context.Context, p *Pipeline) {
	log := p.Log()

	for _, field := range it.row.Fields() {
		filter, ok := p.Filter(field)
		if !ok {
			continue
		}
		value, _ := it.row.Value(field)
		if err := filter(ctx, it.row, value); err != nil {
			log.Printf("- filter for `%s` failed: %v", field, err)
		}
	}

	log.Dump(it.row)

	for _, field := range it.row.Fields() {
		action, ok := p.Action(field)
		if !ok {
			continue
		}
		value, _ := it.row.Value(field)
		if err := action(ctx, value, it.row); err != nil {
			log.Printf("- action for `%s` failed: %v", field, err)
		}
	}
}
