package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "a", []string{"a"}},
		{"nested", "a/b/c.bin", []string{"a", "b", "c.bin"}},
		{"double slash keeps empty segment", "a//b", []string{"a", "", "b"}},
		{"trailing slash", "a/", []string{"a", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Split(tt.input))
		})
	}
}

func TestJoin(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a", Join("", "a"))
	assert.Equal(t, "a/b", Join("a", "b"))
}

func TestBase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"", "."},
		{".", "."},
		{"a", "a"},
		{"a/b", "b"},
		{"a/b/", "b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Base(tt.input), "Base(%q)", tt.input)
	}
}

func TestTrimTrailing(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a/b", TrimTrailing("a/b///"))
	assert.Equal(t, "", TrimTrailing("/"))
}

func TestFromFS(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", FromFS("."))
	assert.Equal(t, "a/b", FromFS("a/b"))
}
