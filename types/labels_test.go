package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMuscleGroupOptions(t *testing.T) {
	want := []LabelOption{
		{Value: "chest", Label: "Pecho"},
		{Value: "back", Label: "Espalda"},
		{Value: "shoulders", Label: "Hombros"},
		{Value: "arms", Label: "Brazos"},
		{Value: "legs", Label: "Piernas"},
		{Value: "core", Label: "Core"},
		{Value: "cardio", Label: "Cardio"},
		{Value: "full_body", Label: "Cuerpo Completo"},
	}
	assert.Equal(t, want, MuscleGroupOptions())
}

func TestTrackingTypeOptions(t *testing.T) {
	want := []LabelOption{
		{Value: "reps", Label: "Repeticiones"},
		{Value: "time", Label: "Tiempo (segundos)"},
		{Value: "distance", Label: "Distancia"},
		{Value: "reps_and_time", Label: "Reps + Tiempo"},
	}
	assert.Equal(t, want, TrackingTypeOptions())
}

func TestIngredientCategoryOptions(t *testing.T) {
	want := []LabelOption{
		{Value: "protein", Label: "Proteína"},
		{Value: "vegetable", Label: "Verdura"},
		{Value: "fruit", Label: "Fruta"},
		{Value: "dairy", Label: "Lácteos"},
		{Value: "grain", Label: "Cereales"},
		{Value: "spice", Label: "Especias"},
		{Value: "sauce", Label: "Salsas"},
		{Value: "other", Label: "Otros"},
	}
	assert.Equal(t, want, IngredientCategoryOptions())
}

func TestEveryEnumValueHasALabel(t *testing.T) {
	for _, m := range MuscleGroups {
		_, ok := m.label()
		assert.True(t, ok, "muscle group %q has no label", m)
	}
	for _, tt := range TrackingTypes {
		_, ok := tt.label()
		assert.True(t, ok, "tracking type %q has no label", tt)
	}
	for _, c := range IngredientCategories {
		_, ok := c.label()
		assert.True(t, ok, "ingredient category %q has no label", c)
	}
}

func TestLabelFallsBackToRawValue(t *testing.T) {
	assert.Equal(t, "neck", MuscleGroup("neck").Label())
	assert.Equal(t, "laps", TrackingType("laps").Label())
	assert.Equal(t, "nuts", IngredientCategory("nuts").Label())
	assert.False(t, MuscleGroup("neck").IsValid())
}
