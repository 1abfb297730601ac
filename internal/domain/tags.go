package domain

// Tag is a single name/value status marker attached to a stored object.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TagSet is the collection of tags on one object version. Keys are unique:
// every operation that builds a TagSet keeps at most one tag per key.
type TagSet []Tag

// TagBearer is anything that exposes a tag collection. Both TagSet itself and
// the store read results implement it, so the mutation functions below work
// against any response shape without conversion.
type TagBearer interface {
	Tags() TagSet
}

// Tags makes TagSet its own TagBearer.
func (s TagSet) Tags() TagSet { return s }

// Lookup returns the value of the tag named key, if present.
func (s TagSet) Lookup(key string) (string, bool) {
	for _, t := range s {
		if t.Key == key {
			return t.Value, true
		}
	}
	return "", false
}

// Tag names used by the validation workflow.
const (
	TagValidating = "validating"
	TagValidated  = "validated"
	TagValid      = "valid"
	TagQuarantine = "quarantine"
)

func boolValue(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func bearerTags(existing TagBearer) TagSet {
	if existing == nil {
		return nil
	}
	return existing.Tags()
}

// Single builds a collection holding exactly one tag, discarding any prior
// state. Used to unconditionally restamp a coarse status marker.
func Single(name string, value bool) TagSet {
	return TagSet{{Key: name, Value: boolValue(value)}}
}

// Upsert returns a copy of existing with every tag named name removed and a
// fresh {name, value} tag appended. An empty or absent input yields the
// singleton. All other tags are carried over unchanged.
func Upsert(existing TagBearer, name string, value bool) TagSet {
	prior := bearerTags(existing)
	next := make(TagSet, 0, len(prior)+1)
	for _, t := range prior {
		if t.Key != name {
			next = append(next, t)
		}
	}
	return append(next, Tag{Key: name, Value: boolValue(value)})
}

// Replace swaps every tag named oldName for a single {newName, value} tag.
// When no tag named oldName exists the input is returned untouched. An absent
// input always yields the singleton {newName, value}: with nothing to match
// against, replace degrades to an unconditional insert.
func Replace(existing TagBearer, oldName, newName string, value bool) TagSet {
	prior := bearerTags(existing)
	if prior == nil {
		return Single(newName, value)
	}
	matched := false
	next := make(TagSet, 0, len(prior)+1)
	for _, t := range prior {
		if t.Key == oldName {
			matched = true
			continue
		}
		next = append(next, t)
	}
	if !matched {
		return prior
	}
	return append(next, Tag{Key: newName, Value: boolValue(value)})
}

// Remove drops every tag named name. The result is always a concrete
// collection, never nil: an empty-but-present set tells the store writer to
// clear all tags rather than leave them alone.
func Remove(existing TagBearer, name string) TagSet {
	prior := bearerTags(existing)
	next := make(TagSet, 0, len(prior))
	for _, t := range prior {
		if t.Key != name {
			next = append(next, t)
		}
	}
	return next
}
