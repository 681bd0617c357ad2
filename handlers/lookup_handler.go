package handlers

import (
	"net/http"

	"github.com/fittrack/fittrack/errors"
	"github.com/fittrack/fittrack/types"
	"github.com/gin-gonic/gin"
)

// lookupTables maps route names to the static label tables.
var lookupTables = map[string]func() []types.LabelOption{
	"muscle-groups":         types.MuscleGroupOptions,
	"tracking-types":        types.TrackingTypeOptions,
	"ingredient-categories": types.IngredientCategoryOptions,
}

// LookupHandler serves the label tables used to render selects.
type LookupHandler struct{}

func NewLookupHandler() *LookupHandler {
	return &LookupHandler{}
}

// GetLookupHandler returns the table named by the :table parameter, in
// display order.
func (h *LookupHandler) GetLookupHandler(c *gin.Context) {
	name := c.Param("table")
	table, ok := lookupTables[name]
	if !ok {
		_ = c.Error(errors.NotFound("Lookup table", name))
		return
	}
	c.JSON(http.StatusOK, table())
}
