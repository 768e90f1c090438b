package importer

import "context"

// Data is one import dataset: the field schema from the header row and the
// ordered items decoded against it. A dataset is constructed once, processed
// exactly once and then discarded; re-processing would re-trigger all side
// effects.
type Data struct {
	fields []Field
	items  []*Item
}

// NewData builds a dataset from a header and its data rows. Rows are keyed
// positionally against the header schema.
func NewData(header []string, rows [][]string) *Data {
	fields := make([]Field, len(header))
	for i, name := range header {
		fields[i] = Field(name)
	}

	d := &Data{fields: fields}
	for _, values := range rows {
		row := NewRow()
		for i, field := range fields {
			if i < len(values) {
				row.Set(field, values[i])
			}
		}
		d.items = append(d.items, NewItem(row))
	}
	return d
}

// Fields returns the dataset's field schema.
func (d *Data) Fields() []Field {
	out := make([]Field, len(d.fields))
	copy(out, d.fields)
	return out
}

// Items returns the ordered item sequence.
func (d *Data) Items() []*Item {
	return d.items
}

// AddItem appends an item to the dataset.
func (d *Data) AddItem(item *Item) {
	d.items = append(d.items, item)
}

// Process fires the run-start hooks with the full item sequence and then
// processes the items strictly one at a time, in input order. Later rows may
// depend on subscriptions created by earlier rows, so items are never
// reordered or parallelized. A failing item is reported and the run
// continues with the next item.
func (d *Data) Process(ctx context.Context, p *Pipeline) {
	log := p.Log()

	for _, hook := range p.onStart {
		hook(ctx, d.items)
	}

	for i, item := range d.items {
		log.Printf("Processing item #%d...", i+1)

		item.Process(ctx, p)

		log.Blank()
	}
}
