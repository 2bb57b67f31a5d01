package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectTheme(t *testing.T) {
	tests := []struct {
		prompt string
		want   Theme
	}{
		{"crea una espada llameante", ThemeItem},
		{"quiero un conjuro de nivel 2 de evocación", ThemeSpell},
		{"añade un rasgo de clase para mi paladín", ThemeFeature},
		{"a new cantrip with verbal components", ThemeSpell},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectTheme(tt.prompt), tt.prompt)
	}
}

func TestCoach_GradesMissingParts(t *testing.T) {
	c := Coach("dame una espada chula")
	assert.Equal(t, ThemeItem, c.Theme)
	assert.Equal(t, 7, c.Total)
	assert.Less(t, c.Score, c.Total)
	assert.NotEmpty(t, c.Missing)
	assert.Contains(t, c.Reply, "Plantilla sugerida")
	assert.Contains(t, c.Reply, "Nombre del objeto:")
}

func TestCoach_CompleteSpell(t *testing.T) {
	prompt := "Lanza de Escarcha:\n" +
		"Conjuro de nivel 2, escuela de evocación. Componentes V, S; duración instantánea.\n" +
		"Acción, alcance 18 m. Una lanza de hielo atraviesa a la criatura y la deja temblando de frío.\n" +
		"Salvación de Constitución CD 14, daño 3d8 de frío."

	c := Coach(prompt)
	assert.Equal(t, ThemeSpell, c.Theme)
	assert.Equal(t, c.Total, c.Score, c.Missing)
	assert.Empty(t, c.Missing)
	assert.Contains(t, c.Reply, "Nombre del conjuro:")
}
