package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
)

func TestSegmentLines(t *testing.T) {
	got := segmentLines("  - Llama Eterna (add this to the sword)\n\n* **Alcance:** 9 m\r\n2. Guardia Solar  \n")
	assert.Equal(t, []string{"Llama Eterna", "Alcance: 9 m", "Guardia Solar"}, got)
}

func TestIsHeading(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"Espada del Alba", true},
		{"Llama Eterna:", true},
		{"Bloqueo", true},
		{"Initial effect", true},
		{"Efecto secundario", true},
		{"Secondary effect:", true},
		{"Modo escudo", true},
		{"Initial damage", false},
		{"Cuerda Feérica (15 m) – 35 po", true},
		{"No hace ruido", false},
		{"Una hoja forjada al amanecer.", false},
		{"crea estos 2 objetos", false},
		{"Add Fireball To Kaelden", false},
		{"Properties:", false},
		{"Descripción", false},
		{"This Heading Has Far Too Many Words To Be A Real Title", false},
		{"火の剣", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isHeading(tt.line), tt.line)
	}
}

func TestLexLines_CommandsOnlyAtEdges(t *testing.T) {
	lexed := lexLines([]string{
		"añade esto al inventario",
		"Espada del Alba",
		"Da ventaja en iniciativa.",
		"Quita un punto de golpe por turno.",
		"Llama Eterna",
		"guarda estos cambios",
	})
	kinds := make([]lineKind, len(lexed))
	for i, l := range lexed {
		kinds[i] = l.kind
	}
	assert.Equal(t, []lineKind{lineCommand, lineHeading, lineText, lineText, lineHeading, lineCommand}, kinds)
}

func TestSplitBlocks(t *testing.T) {
	blocks, instructions := splitBlocks(lexLines(segmentLines(
		"Espada del Alba\nBrilla.\nModo Lanza:\nDaño: 1d8\nEfecto inicial:\nArde.\nSilenciosa: no hace ruido.\ncrea esto")))

	require.Len(t, blocks, 4)
	assert.Equal(t, blockNamed, blocks[0].kind)
	assert.Equal(t, blockConfiguration, blocks[1].kind)
	assert.Equal(t, blockContinuation, blocks[2].kind)
	assert.Equal(t, "Silenciosa", blocks[3].heading)
	require.Len(t, blocks[3].lines, 1)
	assert.Equal(t, "no hace ruido.", blocks[3].lines[0].text)
	assert.Equal(t, []string{"crea esto"}, instructions)
}

func TestSplitBlocks_BareContinuationHeading(t *testing.T) {
	for _, heading := range []string{"Initial effect", "Initial effect:"} {
		blocks, _ := splitBlocks(lexLines(segmentLines("Frost Nova:\nRange: 30 feet\n" + heading + "\nThe targets are slowed.")))
		require.Len(t, blocks, 2, heading)
		assert.Equal(t, blockContinuation, blocks[1].kind, heading)
		assert.Equal(t, "Initial effect", blocks[1].heading, heading)
	}
}

func TestStatedCount(t *testing.T) {
	assert.Equal(t, 3, statedCount("crea estos 3 objetos"))
	assert.Equal(t, 2, statedCount("create these 2 items"))
	assert.Zero(t, statedCount("sube a nivel 5"))
}

func TestDetectBatch(t *testing.T) {
	one := []block{headingBlock("Cuerda – 3 po"), headingBlock("Antorcha")}
	assert.Nil(t, detectBatch(one))

	var many []block
	for _, h := range []string{"A – 1 po", "B – 2 po", "C – 3 po", "D – 4 po", "E – 5 po"} {
		many = append(many, headingBlock(h))
	}
	assert.Len(t, detectBatch(many), patch.MaxActions)
}

func TestClassifyBlock(t *testing.T) {
	tests := []struct {
		name   string
		prose  string
		labels []string
		hint   patch.AttachmentType
		want   patch.AttachmentType
	}{
		{"Sentido Arcano", "Detecta la magia a 9 metros.", nil, "", patch.AttachmentTrait},
		{"Canalizador", "Sirve como foco arcano.", nil, "", patch.AttachmentAbility},
		{"Estallido", "Como acción, lanza una onda de fuerza.", nil, "", patch.AttachmentAction},
		{"Fulgor", "Recupera su poder una vez al día.", nil, "", patch.AttachmentAction},
		{"Chispa", "Un truco de fuego menor.", nil, "", patch.AttachmentCantrip},
		{"Nova", "", []string{"range", "duration"}, "", patch.AttachmentSpell},
		{"Onda", "Un conjuro con alcance de 30 pies que exige salvación.", nil, "", patch.AttachmentSpell},
		{"Quemadura", "Inflige 1d4 de fuego cada turno.", nil, "", patch.AttachmentAbility},
		{"Puntería", "Obtienes ventaja en ataques a distancia.", nil, "", patch.AttachmentAbility},
		{"Piel de Piedra", "Resistencia al daño contundente.", nil, "", patch.AttachmentTrait},
		{"Elegancia", "Luce hermosa.", nil, "", patch.AttachmentTrait},
		{"Elegancia", "Luce hermosa.", nil, patch.AttachmentClassFeature, patch.AttachmentClassFeature},
	}
	for _, tt := range tests {
		d := newDraft(tt.name, tt.hint)
		if tt.prose != "" {
			d.prose = []string{tt.prose}
		}
		d.labels = tt.labels
		assert.Equal(t, tt.want, classifyBlock(d), tt.name)
	}
}

func TestFoldContinuations(t *testing.T) {
	spell := newDraft("Llama", "")
	spell.labels = []string{"range", "duration"}
	trait := newDraft("Elegancia", "")

	assert.False(t, foldContinuations(nil, "Efecto inicial", []string{"x"}))
	assert.False(t, foldContinuations([]*draft{spell, trait}, "Efecto inicial", []string{"x"}),
		"only the immediately preceding attachment can absorb a continuation")

	require.True(t, foldContinuations([]*draft{trait, spell}, "Efecto continuo", []string{"Arde", "sin fin."}))
	assert.Equal(t, []string{"Efecto continuo: Arde sin fin."}, spell.prose)
	assert.Equal(t, patch.AttachmentSpell, spell.finish().Type)
}

func TestExtractFields(t *testing.T) {
	d := newDraft("Rayo", "")
	for _, text := range []string{
		"Componentes: V, S, M (una pluma de grifo)",
		"Tiempo de lanzamiento: 1 acción (al ser golpeado)",
		"Nivel: 2",
		"Cargas: 3 por descanso largo",
		"Escuela: Evocación",
		"Duración: Concentración, hasta 1 minuto",
	} {
		l := lexLine(text)
		require.Equal(t, lineKeyValue, l.kind, text)
		extractFields(d, l)
	}

	a := d.att
	require.NotNil(t, a.Components)
	assert.True(t, *a.Components.Verbal)
	assert.True(t, *a.Components.Somatic)
	assert.True(t, *a.Components.Material)
	assert.Equal(t, "una pluma de grifo", a.Materials)
	assert.Equal(t, "1 acción", a.CastingTime)
	assert.Equal(t, "al ser golpeado", a.CastingTimeNote)
	assert.Equal(t, "action", a.ActionType)
	require.NotNil(t, a.Level)
	assert.Equal(t, 2, *a.Level)
	require.NotNil(t, a.ResourceCost)
	assert.Equal(t, 3, *a.ResourceCost.Charges)
	assert.Equal(t, "por descanso largo", a.ResourceCost.Recharge)
	assert.Equal(t, "Evocación", a.School)
	require.NotNil(t, a.Concentration)
	assert.True(t, *a.Concentration)
}
