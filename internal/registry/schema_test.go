package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSchema_ValidDocument(t *testing.T) {
	doc := []byte(`
name: ok
cases:
  - name: a
    args: ["-c", "-"]
    stdin: hello
    policy: stdout-only
    mask_stdout: true
  - name: b
    input: data.bin
    policy: stdout-and-output-file
    format: raw
    exit: exact
    pre:
      - path: data.bin.gz
        content: sentinel
`)
	assert.NoError(t, ValidateSchema(doc))
}

func TestValidateSchema_WrongFieldType(t *testing.T) {
	doc := []byte(`
name: ok
cases:
  - name: a
    args: not-a-list
    policy: stdout-only
`)
	err := ValidateSchema(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "args")
}

func TestValidateSchema_UnknownTopLevelField(t *testing.T) {
	doc := []byte(`
name: ok
flavor: vanilla
cases:
  - name: a
    policy: stdout-only
`)
	err := ValidateSchema(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flavor")
}

func TestValidateSchema_MalformedYAML(t *testing.T) {
	err := ValidateSchema([]byte("name: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse suite YAML")
}

func TestSchemaError_Error(t *testing.T) {
	withPath := &SchemaError{Path: "cases.0.policy", Message: "field not allowed"}
	assert.Equal(t, "cases.0.policy: field not allowed", withPath.Error())

	bare := &SchemaError{Message: "incomplete value"}
	assert.Equal(t, "incomplete value", bare.Error())
}
