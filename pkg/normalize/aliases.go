package normalize

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	"github.com/passkeyradar/radar/pkg/errors"
)

//go:embed data/aliases.json
var defaultAliasesJSON []byte

// aliasSchema describes {canonicalId: {properties: [etld, ...]}}.
const aliasSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "required": ["properties"],
    "properties": {
      "properties": {
        "type": "array",
        "items": {"type": "string", "minLength": 1}
      }
    }
  }
}`

// AliasTable maps registered domains that belong to the same organisation
// (google.com, youtube.com, ...) to a shared canonical id. It is read-only
// once loaded and safe for concurrent use.
type AliasTable struct {
	byDomain map[string]string
}

type aliasEntry struct {
	Properties []string `json:"properties"`
}

// EmptyAliases returns a table with no entries.
func EmptyAliases() *AliasTable {
	return &AliasTable{byDomain: map[string]string{}}
}

// DefaultAliases returns the alias table compiled into the binary.
func DefaultAliases() (*AliasTable, error) {
	return ParseAliases(defaultAliasesJSON)
}

// LoadAliasesFile reads and validates an alias table from disk.
func LoadAliasesFile(path string) (*AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	t, err := ParseAliases(data)
	if err != nil {
		return nil, errors.NewConfigError("aliases", path, err)
	}
	return t, nil
}

// LoadAliases reads and validates an alias table from r.
func LoadAliases(r io.Reader) (*AliasTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapIO("read", "aliases", err)
	}
	return ParseAliases(data)
}

// ParseAliases validates data against the alias table schema and builds the
// lookup. Entries are keyed by their registered domain, so "www.google.com"
// in the resource is stored as "google.com". When two canonical ids claim
// the same domain the lexically last id wins.
func ParseAliases(data []byte) (*AliasTable, error) {
	if err := validateAliases(data); err != nil {
		return nil, err
	}

	var raw map[string]aliasEntry
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.WrapParse("json", "aliases", err)
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	t := EmptyAliases()
	for _, id := range ids {
		for _, p := range raw[id].Properties {
			key := RegisteredDomain(p)
			if key == "" {
				key = p
			}
			t.byDomain[key] = id
		}
	}
	return t, nil
}

func validateAliases(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(aliasSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return errors.WrapParse("json", "aliases", err)
	}
	if result.Valid() {
		return nil
	}
	schemaErr := &errors.SchemaError{Document: "aliases"}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		schemaErr.Violations = append(schemaErr.Violations, field+": "+desc.Description())
	}
	return schemaErr
}

// Lookup returns the canonical id of a registered domain.
func (t *AliasTable) Lookup(etld string) (string, bool) {
	if t == nil {
		return "", false
	}
	id, ok := t.byDomain[etld]
	return id, ok
}

// Len returns the number of aliased domains.
func (t *AliasTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byDomain)
}
