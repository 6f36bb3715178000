package parameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfer_PythonStyle(t *testing.T) {
	source := `# cell comment, ignored
alpha = 0.1  # learning rate
ratio: float = 2.5
name = "hello"
config = {"a": 1}
`
	params := Infer(source, "#")
	require.Len(t, params, 4)

	assert.Equal(t, InferredParameter{Name: "alpha", Default: "0.1", Help: "learning rate"}, params[0])
	assert.Equal(t, InferredParameter{Name: "ratio", Type: "float", Default: "2.5"}, params[1])
	assert.Equal(t, InferredParameter{Name: "name", Default: `"hello"`}, params[2])
	assert.Equal(t, InferredParameter{Name: "config", Default: `{"a": 1}`}, params[3])
}

func TestInfer_RAssignmentArrow(t *testing.T) {
	params := Infer("threshold <- 0.8 # cutoff\n", "#")
	require.Len(t, params, 1)
	assert.Equal(t, "threshold", params[0].Name)
	assert.Equal(t, "0.8", params[0].Default)
	assert.Equal(t, "cutoff", params[0].Help)
}

func TestInfer_ScalaVal(t *testing.T) {
	params := Infer("val retries = 3 // attempt budget\n", "//")
	require.Len(t, params, 1)
	assert.Equal(t, "retries", params[0].Name)
	assert.Equal(t, "3", params[0].Default)
	assert.Equal(t, "attempt budget", params[0].Help)
}

func TestInfer_SkipsNonAssignments(t *testing.T) {
	source := `import os
print("hi")
alpha = 1
if x:
    pass
`
	params := Infer(source, "#")
	require.Len(t, params, 1)
	assert.Equal(t, "alpha", params[0].Name)
}

func TestInfer_EmptySource(t *testing.T) {
	assert.Empty(t, Infer("", "#"))
}
