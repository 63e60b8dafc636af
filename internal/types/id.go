// README: Opaque identifiers used across modules.
package types

type ID string

func (id ID) String() string { return string(id) }

// IDPtr returns a pointer to a copy of id; handy for optional driver references.
func IDPtr(id ID) *ID {
	return &id
}
