package types

import "time"

// IngredientCategory groups ingredients for shopping and display.
type IngredientCategory string

const (
	IngredientProtein   IngredientCategory = "protein"
	IngredientVegetable IngredientCategory = "vegetable"
	IngredientFruit     IngredientCategory = "fruit"
	IngredientDairy     IngredientCategory = "dairy"
	IngredientGrain     IngredientCategory = "grain"
	IngredientSpice     IngredientCategory = "spice"
	IngredientSauce     IngredientCategory = "sauce"
	IngredientOther     IngredientCategory = "other"
)

// IngredientCategories lists every category in display order.
var IngredientCategories = []IngredientCategory{
	IngredientProtein,
	IngredientVegetable,
	IngredientFruit,
	IngredientDairy,
	IngredientGrain,
	IngredientSpice,
	IngredientSauce,
	IngredientOther,
}

func (c IngredientCategory) IsValid() bool {
	_, ok := c.label()
	return ok
}

func (c *IngredientCategory) UnmarshalJSON(data []byte) error {
	s, err := decodeEnum(data, "ingredient category", func(s string) bool { return IngredientCategory(s).IsValid() })
	if err != nil {
		return err
	}
	*c = IngredientCategory(s)
	return nil
}

// Recipe is a row of the recipes table; Ingredients is filled by joins.
type Recipe struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Instructions *string   `json:"instructions"`
	PrepTimeMin  *int      `json:"prep_time_min"`
	CookTimeMin  *int      `json:"cook_time_min"`
	Servings     *int      `json:"servings"`
	ImageURL     *string   `json:"image_url"`
	CreatedBy    *string   `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Ingredients []RecipeIngredient `json:"ingredients,omitempty"`
}

// Ingredient is a row of the ingredients table.
type Ingredient struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Category  *IngredientCategory `json:"category"`
	CreatedAt time.Time           `json:"created_at"`
}

// RecipeIngredient links a recipe to an ingredient with a quantity.
type RecipeIngredient struct {
	ID           string   `json:"id"`
	RecipeID     string   `json:"recipe_id"`
	IngredientID string   `json:"ingredient_id"`
	Quantity     *float64 `json:"quantity"`
	Unit         *string  `json:"unit"`
	Notes        *string  `json:"notes"`

	Ingredient *Ingredient `json:"ingredient,omitempty"`
}
