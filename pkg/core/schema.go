package core

// Schema declares the construction contract of a document subtype.
//
// Contracts compose through Parent: the parent's PreCreate runs before the
// child's, and the parent's required fields are checked before the child's.
type Schema struct {
	// Name identifies the schema in validation errors (e.g. "contact.email").
	Name string
	// Parent is the schema this one extends, if any.
	Parent *Schema
	// Required lists fields that must exist, checked in order.
	Required []string
	// PreCreate derives or defaults fields before they are stored.
	PreCreate func(f Fields) error
	// Check runs after the required fields are verified.
	Check func(d *Document) error
}

// Extend returns a new schema with s as parent.
func (s *Schema) Extend(name string, required ...string) *Schema {
	return &Schema{Name: name, Parent: s, Required: required}
}

// Is reports whether s is other or extends it.
func (s *Schema) Is(other *Schema) bool {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur == other {
			return true
		}
	}
	return false
}

func (s *Schema) prepare(f Fields) error {
	if s == nil {
		return nil
	}
	if err := s.Parent.prepare(f); err != nil {
		return err
	}
	if s.PreCreate != nil {
		return s.PreCreate(f)
	}
	return nil
}

// Validate checks d against s and every ancestor, ancestors first.
func (s *Schema) Validate(d *Document) error {
	if s == nil {
		return nil
	}
	if err := s.Parent.Validate(d); err != nil {
		return err
	}
	for _, field := range s.Required {
		if !d.Exists(field) {
			return Missing(s.Name, field)
		}
	}
	if s.Check != nil {
		return s.Check(d)
	}
	return nil
}
