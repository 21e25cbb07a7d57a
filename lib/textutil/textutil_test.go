package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	table := []struct {
		input    string
		expected string
	}{
		{input: "Programação  Orientada a Objetos", expected: "programacaoorientadaaobjetos"},
		{input: " LÓGICA\n", expected: "logica"},
		{input: "", expected: ""},
	}
	for _, row := range table {
		require.Equal(t, row.expected, NormalizeName(row.input))
	}
}

func TestMatchName(t *testing.T) {
	require.True(t, MatchName("12 - TEC.1 - Programação Web - A", []string{"programacao web"}))
	require.False(t, MatchName("12 - TEC.1 - Redes - A", []string{"web"}))
}

func TestMostSimilar(t *testing.T) {
	index, similarity := MostSimilar("Algoritimos", []string{"Redes de Computadores", "Algoritmos", "Banco de Dados"})
	require.Equal(t, 1, index)
	require.Greater(t, similarity, 0.85)

	index, _ = MostSimilar("anything", nil)
	require.Equal(t, -1, index)
}
