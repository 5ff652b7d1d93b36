package index_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/schemac/schema/index"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want index.Kind
	}{
		{"", index.BTree},
		{"btree", index.BTree},
		{"HASH", index.Hash},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			k, err := index.ParseKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, k)
		})
	}
	_, err := index.ParseKind("gist")
	assert.Error(t, err)
	assert.Equal(t, "hash", index.Hash.String())
}
