package schematic

// Metadata is descriptive information carried alongside the blocks.
// Zero values mean "absent".
type Metadata struct {
	Name        string
	Author      string
	Description string

	// Created and Modified are Unix milliseconds.
	Created  int64
	Modified int64

	LitematicVersion    int32
	LitematicSubVersion int32
	DataVersion         int32
	WorldEditVersion    int32
}

// SameDescription reports whether the descriptive fields shared by every
// format match. Format version numbers are not compared.
func (m Metadata) SameDescription(o Metadata) bool {
	return m.Name == o.Name &&
		m.Author == o.Author &&
		m.Description == o.Description &&
		m.Created == o.Created &&
		m.Modified == o.Modified
}
