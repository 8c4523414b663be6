package memory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const corpus = `
- title: Qubits
  url: https://example.com/qubits
  content: A qubit is the basic unit of quantum information.
  keywords: [quantum, computing]
- title: Classical bits
  url: https://example.com/bits
  content: Bits are either zero or one.
- title: Error correction
  url: https://example.com/qec
  content: Quantum error correction protects quantum computing from noise.
`

func TestSearcher(t *testing.T) {
	docs, err := memory.LoadCorpus(strings.NewReader(corpus))
	require.NoError(t, err)
	require.Len(t, docs, 3)

	s := memory.NewSearcher(5, docs...)

	results, err := s.Search(context.Background(), "quantum computing")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Qubits", results[0].Title)
	assert.Equal(t, "Error correction", results[1].Title)
	assert.InDelta(t, 1.0, results[0].Score, 0.001)

	results, err = s.Search(context.Background(), "bananas")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearcher_MaxResults(t *testing.T) {
	docs, err := memory.LoadCorpus(strings.NewReader(corpus))
	require.NoError(t, err)

	results, err := memory.NewSearcher(1, docs...).Search(context.Background(), "quantum")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestLoadCorpus_Invalid(t *testing.T) {
	_, err := memory.LoadCorpus(strings.NewReader("title: [unterminated"))
	assert.Error(t, err)
}
