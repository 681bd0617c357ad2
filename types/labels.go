package types

// Spanish UI labels for the categorical columns. Each label() switch must
// cover every constant of its type; the tests walk the ordered slices to
// enforce it.

func (m MuscleGroup) label() (string, bool) {
	switch m {
	case MuscleGroupChest:
		return "Pecho", true
	case MuscleGroupBack:
		return "Espalda", true
	case MuscleGroupShoulders:
		return "Hombros", true
	case MuscleGroupArms:
		return "Brazos", true
	case MuscleGroupLegs:
		return "Piernas", true
	case MuscleGroupCore:
		return "Core", true
	case MuscleGroupCardio:
		return "Cardio", true
	case MuscleGroupFullBody:
		return "Cuerpo Completo", true
	}
	return "", false
}

// Label returns the display label, or the raw value if m is unknown.
func (m MuscleGroup) Label() string {
	if l, ok := m.label(); ok {
		return l
	}
	return string(m)
}

func (t TrackingType) label() (string, bool) {
	switch t {
	case TrackingReps:
		return "Repeticiones", true
	case TrackingTime:
		return "Tiempo (segundos)", true
	case TrackingDistance:
		return "Distancia", true
	case TrackingRepsAndTime:
		return "Reps + Tiempo", true
	}
	return "", false
}

// Label returns the display label, or the raw value if t is unknown.
func (t TrackingType) Label() string {
	if l, ok := t.label(); ok {
		return l
	}
	return string(t)
}

func (c IngredientCategory) label() (string, bool) {
	switch c {
	case IngredientProtein:
		return "Proteína", true
	case IngredientVegetable:
		return "Verdura", true
	case IngredientFruit:
		return "Fruta", true
	case IngredientDairy:
		return "Lácteos", true
	case IngredientGrain:
		return "Cereales", true
	case IngredientSpice:
		return "Especias", true
	case IngredientSauce:
		return "Salsas", true
	case IngredientOther:
		return "Otros", true
	}
	return "", false
}

// Label returns the display label, or the raw value if c is unknown.
func (c IngredientCategory) Label() string {
	if l, ok := c.label(); ok {
		return l
	}
	return string(c)
}

// MuscleGroupOptions returns the muscle group table in display order.
func MuscleGroupOptions() []LabelOption {
	opts := make([]LabelOption, 0, len(MuscleGroups))
	for _, m := range MuscleGroups {
		opts = append(opts, LabelOption{Value: string(m), Label: m.Label()})
	}
	return opts
}

// TrackingTypeOptions returns the tracking type table in display order.
func TrackingTypeOptions() []LabelOption {
	opts := make([]LabelOption, 0, len(TrackingTypes))
	for _, t := range TrackingTypes {
		opts = append(opts, LabelOption{Value: string(t), Label: t.Label()})
	}
	return opts
}

// IngredientCategoryOptions returns the ingredient category table in display order.
func IngredientCategoryOptions() []LabelOption {
	opts := make([]LabelOption, 0, len(IngredientCategories))
	for _, c := range IngredientCategories {
		opts = append(opts, LabelOption{Value: string(c), Label: c.Label()})
	}
	return opts
}
