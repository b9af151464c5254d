package family

import (
	"strings"

	"github.com/aretw0/jdoc/pkg/core"
)

// Tagged returns a schema extending parent whose PreCreate always writes tag
// into field, so an instance can never carry someone else's tag. Extra hooks
// run after the tag is written, which is where keys derived from the tag belong.
func Tagged(parent *core.Schema, name, field, tag string, hooks ...func(core.Fields) error) *core.Schema {
	field = strings.ToLower(field)
	force := func(f core.Fields) error {
		f[field] = tag
		return nil
	}
	return &core.Schema{
		Name:      name,
		Parent:    parent,
		PreCreate: Chain(append([]func(core.Fields) error{force}, hooks...)...),
	}
}

// CompositeKey returns a PreCreate hook deriving target from the text of parts
// joined by sep and lower-cased. Missing parts leave target unset, so the
// required-field checks report the real culprit.
func CompositeKey(target, sep string, parts ...string) func(core.Fields) error {
	return func(f core.Fields) error {
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			v, ok := f.Text(p)
			if !ok {
				delete(f, target)
				return nil
			}
			values = append(values, v)
		}
		f[target] = strings.ToLower(strings.Join(values, sep))
		return nil
	}
}

// LowerCase returns a Check verifying that field, when present, is lower-case.
func LowerCase(schema, field string) func(*core.Document) error {
	return func(d *core.Document) error {
		v, ok := d.Text(field)
		if !ok {
			return nil
		}
		if v != strings.ToLower(v) {
			return core.Invalid(schema, field, "key not lower-case: %q", v)
		}
		return nil
	}
}

// Chain combines PreCreate hooks, running them in order.
func Chain(hooks ...func(core.Fields) error) func(core.Fields) error {
	return func(f core.Fields) error {
		for _, h := range hooks {
			if h == nil {
				continue
			}
			if err := h(f); err != nil {
				return err
			}
		}
		return nil
	}
}
