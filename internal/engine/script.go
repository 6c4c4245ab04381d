package engine

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/mvp-joe/spyglass/internal/search"
)

// UpdateScript mutates a stored document source. Implementations work on
// the decoded source map and return the version to re-index.
type UpdateScript interface {
	Apply(source map[string]interface{}, params map[string]interface{}) (map[string]interface{}, error)
}

// Registry holds the node's named update scripts, keyed "<lang>.<name>".
type Registry struct {
	scripts map[string]UpdateScript
}

func NewRegistry() *Registry {
	return &Registry{scripts: make(map[string]UpdateScript)}
}

func (r *Registry) Register(lang, name string, script UpdateScript) {
	r.scripts[lang+"."+name] = script
}

func (r *Registry) Get(lang, name string) (UpdateScript, bool) {
	script, ok := r.scripts[lang+"."+name]
	return script, ok
}

// registerScripts wires the scripts the settings declare. Today that is
// the built-in list update under the default script language.
func (n *Node) registerScripts() {
	if n.settings.Get(search.KeyScriptListUpdate) == "" {
		return
	}
	lang := n.settings.Get(search.KeyScriptLang)
	if lang == "" {
		lang = "native"
	}
	n.scripts.Register(lang, "list_update", ListUpdate{})
}

// UpdateByScript loads the stored source of id, runs the named script on
// it, and queues the result for re-indexing. The write lands in the
// pending batch like any other index call.
func (n *Node) UpdateByScript(id, lang, name string, params map[string]interface{}) error {
	script, ok := n.scripts.Get(lang, name)
	if !ok {
		return fmt.Errorf("script %s.%s is not registered", lang, name)
	}
	source, err := n.Document(id)
	if err != nil {
		return err
	}
	updated, err := script.Apply(source, params)
	if err != nil {
		return fmt.Errorf("failed to apply script %s.%s to %s: %w", lang, name, id, err)
	}
	return n.Index(id, updated)
}

// ListUpdate adds or removes one value on a list field of the source.
// Params: "field" names the list, "value" is the element, "op" is "add"
// (the default) or "remove". Adding an element already present is a
// no-op, so replays converge.
type ListUpdate struct{}

func (ListUpdate) Apply(source map[string]interface{}, params map[string]interface{}) (map[string]interface{}, error) {
	field, _ := params["field"].(string)
	if field == "" {
		return nil, errors.New("list update needs a \"field\" param")
	}
	value, ok := params["value"]
	if !ok {
		return nil, errors.New("list update needs a \"value\" param")
	}
	op := "add"
	if v, ok := params["op"].(string); ok && v != "" {
		op = v
	}

	var list []interface{}
	switch existing := source[field].(type) {
	case nil:
	case []interface{}:
		list = existing
	default:
		return nil, fmt.Errorf("field %q is not a list", field)
	}

	switch op {
	case "add":
		for _, item := range list {
			if reflect.DeepEqual(item, value) {
				return source, nil
			}
		}
		source[field] = append(list, value)
	case "remove":
		next := make([]interface{}, 0, len(list))
		for _, item := range list {
			if !reflect.DeepEqual(item, value) {
				next = append(next, item)
			}
		}
		source[field] = next
	default:
		return nil, fmt.Errorf("unknown list update op %q", op)
	}
	return source, nil
}
