package payload

// Defaults for NewBuilder.
const (
	DefaultTypeField   = "_type"
	DefaultTypeAggSize = 50
)

// DefaultHighlightFields are highlighted with HTML encoding unless
// WithHighlightFields overrides them.
var DefaultHighlightFields = []string{
	"title.value",
	"description.value",
	"contributors.value",
	"owners.value",
	"component.value",
	"created_at.value",
	"releasedate.value",
	"activities.value",
}

// Option configures a Builder.
type Option func(*Builder)

// WithTypeField sets the document field holding the result type.
func WithTypeField(field string) Option {
	return func(b *Builder) {
		if field != "" {
			b.typeField = field
		}
	}
}

// WithHighlightFields replaces the highlighted fields. No fields disables
// highlighting.
func WithHighlightFields(fields ...string) Option {
	return func(b *Builder) {
		b.highlightFields = append([]string(nil), fields...)
	}
}

// WithTypeAggSize sets the bucket count of the type aggregation.
func WithTypeAggSize(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.typeAggSize = n
		}
	}
}
