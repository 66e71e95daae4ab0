package setup

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/edvin/dstgen/internal/lua"
)

var validate = validator.New()

var (
	// Shard names become directory names, tmux window names and shell words.
	shardNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)
	identRegex     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

func init() {
	validate.RegisterValidation("shardname", func(fl validator.FieldLevel) bool {
		return shardNameRegex.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("luaident", func(fl validator.FieldLevel) bool {
		return identRegex.MatchString(fl.Field().String())
	})
}

const (
	tagNull  = "!!null"
	tagStr   = "!!str"
	tagInt   = "!!int"
	tagMerge = "!!merge"
)

const lineBreaks = "\r\n"

// Normalize checks the shape of a parsed cluster description and builds the
// normalized model. Every problem in the document is reported at once as
// ValidationErrors; on failure the returned Config is nil.
func Normalize(doc *yaml.Node) (*Config, error) {
	n := &normalizer{}
	cfg := n.document(doc)
	if len(n.errs) > 0 {
		return nil, n.errs
	}
	return cfg, nil
}

type normalizer struct {
	errs ValidationErrors
}

func (n *normalizer) add(field string, node *yaml.Node, format string, args ...any) {
	e := &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
	if node != nil {
		e.Line = node.Line
	}
	n.errs = append(n.errs, e)
}

func (n *normalizer) document(doc *yaml.Node) *Config {
	root := resolve(doc)
	if isNull(root) {
		n.add("shards", root, "cluster description is empty; at least one shard is required")
		return nil
	}
	if root.Kind != yaml.MappingNode {
		n.add("document", root, "must be a mapping with cluster and shards keys")
		return nil
	}

	fields := map[string]*yaml.Node{}
	for _, p := range n.pairs("document", root) {
		fields[p.key.Value] = p.value
	}

	return &Config{
		Cluster: n.cluster(fields["cluster"]),
		Shards:  n.shards(fields["shards"]),
	}
}

func (n *normalizer) cluster(node *yaml.Node) Cluster {
	c := Cluster{Settings: map[string]string{}}
	node = resolve(node)
	if isNull(node) {
		return c
	}
	if node.Kind != yaml.MappingNode {
		n.add("cluster", node, "must be a mapping of cluster options")
		return c
	}

	for _, p := range n.pairs("cluster", node) {
		name := p.key.Value
		field := "cluster." + name
		switch name {
		case "adminlist":
			c.AdminList = n.userList(field, p.value)
		case "whitelist":
			c.Whitelist = n.userList(field, p.value)
		case "blocklist":
			c.Blocklist = n.userList(field, p.value)
		default:
			if v, ok := n.option(field, p.value); ok {
				c.Settings[name] = v
			}
		}
	}
	return c
}

// option returns the textual form of a scalar option. Null counts as unset.
func (n *normalizer) option(field string, node *yaml.Node) (string, bool) {
	node = resolve(node)
	if isNull(node) {
		return "", false
	}
	if node.Kind != yaml.ScalarNode {
		n.add(field, node, "must be a scalar value")
		return "", false
	}
	// Values are written as single "key = value" lines.
	if strings.ContainsAny(node.Value, lineBreaks) {
		n.add(field, node, "must be a single-line value")
		return "", false
	}
	return node.Value, true
}

func (n *normalizer) userList(field string, node *yaml.Node) []string {
	node = resolve(node)
	if isNull(node) {
		return nil
	}
	if node.Kind != yaml.SequenceNode {
		n.add(field, node, "must be a list of account identifiers")
		return nil
	}

	list := make([]string, 0, len(node.Content))
	for i, elem := range node.Content {
		elem = resolve(elem)
		if elem == nil || elem.Kind != yaml.ScalarNode || elem.ShortTag() != tagStr || elem.Value == "" {
			n.add(fmt.Sprintf("%s[%d]", field, i), elem, "must be a non-empty string")
			continue
		}
		if strings.ContainsAny(elem.Value, lineBreaks) {
			n.add(fmt.Sprintf("%s[%d]", field, i), elem, "must be a single-line account identifier")
			continue
		}
		list = append(list, elem.Value)
	}
	return list
}

func (n *normalizer) shards(node *yaml.Node) []Shard {
	node = resolve(node)
	if isNull(node) {
		n.add("shards", node, "at least one shard is required")
		return nil
	}
	if node.Kind != yaml.SequenceNode {
		n.add("shards", node, "must be a list of shards")
		return nil
	}
	if len(node.Content) == 0 {
		n.add("shards", node, "at least one shard is required")
		return nil
	}

	shards := make([]Shard, 0, len(node.Content))
	seen := map[string]int{}
	for i, elem := range node.Content {
		s := n.shard(fmt.Sprintf("shards[%d]", i), elem)
		if s.Name != "" {
			if prev, dup := seen[s.Name]; dup {
				n.add(fmt.Sprintf("shards[%d].name", i), elem, "duplicate shard name %q (also used by shards[%d])", s.Name, prev)
			}
			seen[s.Name] = i
		}
		shards = append(shards, s)
	}
	return shards
}

func (n *normalizer) shard(field string, node *yaml.Node) Shard {
	s := Shard{Settings: map[string]string{}}
	node = resolve(node)
	if node == nil || node.Kind != yaml.MappingNode {
		n.add(field, node, "must be a mapping")
		return s
	}

	var nameNode, worldNode *yaml.Node
	for _, p := range n.pairs(field, node) {
		switch p.key.Value {
		case "name":
			nameNode = p.value
		case "id":
			s.ID = n.shardID(field+".id", p.value)
		case "mods":
			s.Mods = n.mods(field+".mods", p.value)
		case "world":
			worldNode = p.value
		case "settings":
			s.Settings = n.settings(field+".settings", p.value)
		default:
			n.add(field+"."+p.key.Value, p.key, "unknown shard field; shard-level options belong under settings")
		}
	}

	s.Name = n.shardName(field+".name", nameNode, node)
	s.World = n.world(field+".world", worldNode, node)
	return s
}

func (n *normalizer) shardName(field string, node, parent *yaml.Node) string {
	node = resolve(node)
	if isNull(node) {
		n.add(field, parent, "shard name is required")
		return ""
	}
	if node.Kind != yaml.ScalarNode || node.ShortTag() != tagStr {
		n.add(field, node, "must be a string")
		return ""
	}
	if err := validate.Var(node.Value, "required,shardname"); err != nil {
		n.add(field, node, "%q is not a valid shard name (letters, digits, '_' and '-', not starting with a symbol)", node.Value)
		return ""
	}
	return node.Value
}

func (n *normalizer) shardID(field string, node *yaml.Node) *int {
	node = resolve(node)
	if isNull(node) {
		return nil
	}
	var id int
	if node.Kind != yaml.ScalarNode || node.ShortTag() != tagInt || node.Decode(&id) != nil || id <= 0 {
		n.add(field, node, "must be a positive integer")
		return nil
	}
	return &id
}

func (n *normalizer) mods(field string, node *yaml.Node) *ModTable {
	node = resolve(node)
	if isNull(node) {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		n.add(field, node, "must be a mapping of mod identifier to options")
		return nil
	}

	table := orderedmap.New[string, *lua.Map]()
	for _, p := range n.pairs(field, node) {
		key := p.key
		if key.ShortTag() != tagStr || key.Value == "" {
			n.add(field, key, "mod identifier %q must be a non-empty string", key.Value)
			continue
		}
		modField := fmt.Sprintf("%s[%q]", field, key.Value)

		value := resolve(p.value)
		switch {
		case isNull(value):
			table.Set(key.Value, lua.NewMap())
		case value.Kind == yaml.MappingNode:
			table.Set(key.Value, n.table(modField, value))
		default:
			n.add(modField, value, "mod options must be a mapping")
		}
	}
	return table
}

func (n *normalizer) world(field string, node, parent *yaml.Node) World {
	var w World
	node = resolve(node)
	if isNull(node) {
		n.add(field, parent, "world is required")
		return w
	}
	if node.Kind != yaml.MappingNode {
		n.add(field, node, "must be a mapping")
		return w
	}

	fields := map[string]*yaml.Node{}
	for _, p := range n.pairs(field, node) {
		switch p.key.Value {
		case "setup", "worldgen_preset", "settings_preset", "overrides", "file", "content":
			fields[p.key.Value] = p.value
		default:
			n.add(field+"."+p.key.Value, p.key, "unknown world field")
		}
	}

	setupNode := resolve(fields["setup"])
	setup, ok := n.str(field+".setup", setupNode)
	w.Setup = WorldSetup(setup)

	switch w.Setup {
	case WorldGenOverride:
		w.WorldgenPreset = n.requiredStr(field+".worldgen_preset", fields["worldgen_preset"], node)
		w.SettingsPreset = n.requiredStr(field+".settings_preset", fields["settings_preset"], node)
		w.Overrides = n.overrides(field+".overrides", fields["overrides"])
	case LevelDataOverride:
		file, hasFile := n.str(field+".file", fields["file"])
		if hasFile && file == "" {
			n.add(field+".file", resolve(fields["file"]), "must not be empty")
		} else if hasFile {
			w.File = file
		} else if content, ok := n.str(field+".content", fields["content"]); ok {
			w.Content = &content
		} else {
			n.add(field, node, "setup %s requires either file or content", LevelDataOverride)
		}
	case "":
		if ok || isNull(setupNode) {
			n.add(field+".setup", node, "world setup is required (%s or %s)", WorldGenOverride, LevelDataOverride)
		}
	default:
		n.add(field+".setup", fields["setup"], "unknown world setup %q (want %s or %s)", setup, WorldGenOverride, LevelDataOverride)
	}
	return w
}

func (n *normalizer) overrides(field string, node *yaml.Node) *lua.Map {
	node = resolve(node)
	if isNull(node) {
		return lua.NewMap()
	}
	if node.Kind != yaml.MappingNode {
		n.add(field, node, "must be a mapping of override name to value")
		return lua.NewMap()
	}
	m := n.table(field, node)
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		if err := validate.Var(pair.Key, "luaident"); err != nil {
			n.add(field, node, "override name %q must be an identifier", pair.Key)
		}
	}
	return m
}

func (n *normalizer) settings(field string, node *yaml.Node) map[string]string {
	out := map[string]string{}
	node = resolve(node)
	if isNull(node) {
		return out
	}
	if node.Kind != yaml.MappingNode {
		n.add(field, node, "must be a mapping of shard options")
		return out
	}
	for _, p := range n.pairs(field, node) {
		if v, ok := n.option(field+"."+p.key.Value, p.value); ok {
			out[p.key.Value] = v
		}
	}
	return out
}

// str reads an optional string scalar. A present non-string is an error.
func (n *normalizer) str(field string, node *yaml.Node) (string, bool) {
	node = resolve(node)
	if isNull(node) {
		return "", false
	}
	if node.Kind != yaml.ScalarNode || node.ShortTag() != tagStr {
		n.add(field, node, "must be a string")
		return "", false
	}
	return node.Value, true
}

func (n *normalizer) requiredStr(field string, node, parent *yaml.Node) string {
	if isNull(resolve(node)) {
		n.add(field, parent, "is required")
		return ""
	}
	v, ok := n.str(field, node)
	if ok && v == "" {
		n.add(field, node, "must not be empty")
	}
	return v
}

// table converts an arbitrary mapping into a lua.Map, keeping key order.
func (n *normalizer) table(field string, node *yaml.Node) *lua.Map {
	m := lua.NewMap()
	for _, p := range n.pairs(field, node) {
		if p.key.Kind != yaml.ScalarNode {
			n.add(field, p.key, "mapping keys must be scalars")
			continue
		}
		m.Set(p.key.Value, n.value(field+"."+p.key.Value, p.value))
	}
	return m
}

func (n *normalizer) value(field string, node *yaml.Node) any {
	node = resolve(node)
	if node == nil {
		return nil
	}
	switch node.Kind {
	case yaml.MappingNode:
		return n.table(field, node)
	case yaml.SequenceNode:
		list := make([]any, 0, len(node.Content))
		for i, elem := range node.Content {
			list = append(list, n.value(fmt.Sprintf("%s[%d]", field, i), elem))
		}
		return list
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case tagNull:
			return nil
		case "!!bool", tagInt, "!!float":
			var v any
			if err := node.Decode(&v); err != nil {
				n.add(field, node, "invalid %s value %q", node.ShortTag(), node.Value)
				return nil
			}
			return v
		default:
			// Strings, timestamps, binary and custom tags keep their source text.
			return node.Value
		}
	}
	n.add(field, node, "unsupported value")
	return nil
}

// resolve unwraps document nodes and follows aliases.
func resolve(node *yaml.Node) *yaml.Node {
	for node != nil {
		switch node.Kind {
		case yaml.DocumentNode:
			if len(node.Content) == 0 {
				return nil
			}
			node = node.Content[0]
		case yaml.AliasNode:
			node = node.Alias
		default:
			return node
		}
	}
	return nil
}

func isNull(node *yaml.Node) bool {
	return node == nil || node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.ShortTag() == tagNull)
}

type nodePair struct {
	key   *yaml.Node
	value *yaml.Node
}

// pairs returns the expanded pairs of a mapping and reports keys written
// more than once. The first occurrence is kept.
func (n *normalizer) pairs(field string, m *yaml.Node) []nodePair {
	all := mappingPairs(m)
	out := make([]nodePair, 0, len(all))
	seen := map[string]bool{}
	for _, p := range all {
		if p.key.Kind == yaml.ScalarNode {
			if seen[p.key.Value] {
				n.add(field, p.key, "duplicate key %q", p.key.Value)
				continue
			}
			seen[p.key.Value] = true
		}
		out = append(out, p)
	}
	return out
}

// mappingPairs lists the key/value pairs of a mapping in source order with
// "<<" merge keys expanded in place. Keys written explicitly in the mapping
// win over merged ones, and earlier merge sources win over later ones.
func mappingPairs(m *yaml.Node) []nodePair {
	explicit := map[string]bool{}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if k := resolve(m.Content[i]); k != nil && !isMergeKey(k) {
			explicit[k.Value] = true
		}
	}

	var out []nodePair
	merged := map[string]bool{}
	for i := 0; i+1 < len(m.Content); i += 2 {
		key, value := resolve(m.Content[i]), m.Content[i+1]
		if key == nil {
			continue
		}
		if !isMergeKey(key) {
			out = append(out, nodePair{key: key, value: value})
			continue
		}

		src := resolve(value)
		var sources []*yaml.Node
		switch {
		case src == nil:
		case src.Kind == yaml.MappingNode:
			sources = []*yaml.Node{src}
		case src.Kind == yaml.SequenceNode:
			for _, s := range src.Content {
				if s = resolve(s); s != nil && s.Kind == yaml.MappingNode {
					sources = append(sources, s)
				}
			}
		}
		for _, s := range sources {
			for _, p := range mappingPairs(s) {
				if explicit[p.key.Value] || merged[p.key.Value] {
					continue
				}
				merged[p.key.Value] = true
				out = append(out, p)
			}
		}
	}
	return out
}

func isMergeKey(key *yaml.Node) bool {
	if key.Kind != yaml.ScalarNode {
		return false
	}
	return (key.Style == 0 && key.Value == "<<") || key.ShortTag() == tagMerge
}
