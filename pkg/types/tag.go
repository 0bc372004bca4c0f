package types

// Tag is a user-defined label that mangas reference by ID.
type Tag struct {
	ID    int64  `json:"id"`
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color,omitempty"`
}

// Store field names accepted by Table.Update for the tags table.
const (
	FieldName  = "name"
	FieldColor = "color"
)

// TagPatch is a partial tag update. Nil fields are left unchanged.
type TagPatch struct {
	Name  *string
	Color *string
}

// Changes converts the patch into a store change set.
func (p TagPatch) Changes() map[string]any {
	changes := make(map[string]any)
	if p.Name != nil {
		changes[FieldName] = *p.Name
	}
	if p.Color != nil {
		changes[FieldColor] = *p.Color
	}
	return changes
}
