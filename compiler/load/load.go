// Package load reads and writes schema documents.
//
// A schema document is YAML:
//
//	name: shop
//	enums:
//	  - name: status
//	    values: [active, disabled]
//	tables:
//	  - name: users
//	    mixins: [id, time]
//	    columns:
//	      - {name: email, type: char, length: 255, not_null: true, unique: true}
//	      - {name: status, type: enum, template: status, default: active}
//	  - name: orders
//	    mixins: [id]
//	    columns:
//	      - {name: user_id, type: bigint, not_null: true}
//	      - {name: qty, type: int, min: "1", check: {op: lte, value: "100"}}
//	    foreign_keys:
//	      - columns: [user_id]
//	        references: {table: users, columns: [id]}
//	        on_delete: cascade
package load

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/syssam/schemac/schema"
)

// Load reads the schema document at path. A document without a name is
// named after the file.
func Load(path string) (*schema.Schema, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	s, err := UnmarshalSchema(buf)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// UnmarshalSchema decodes a schema document. Unknown keys are rejected.
func UnmarshalSchema(buf []byte) (*schema.Schema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	doc := &Schema{}
	if err := dec.Decode(doc); err != nil {
		return nil, err
	}
	return doc.Build()
}

// MarshalSchema encodes s as a schema document.
func MarshalSchema(s *schema.Schema) ([]byte, error) {
	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(NewSchema(s)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Write encodes s to path.
func Write(path string, s *schema.Schema) error {
	buf, err := MarshalSchema(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}
