package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fittrack/fittrack/middleware"
	"github.com/fittrack/fittrack/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/v1/lookups/:table", NewLookupHandler().GetLookupHandler)

	tests := []struct {
		table string
		want  []types.LabelOption
	}{
		{table: "muscle-groups", want: types.MuscleGroupOptions()},
		{table: "tracking-types", want: types.TrackingTypeOptions()},
		{table: "ingredient-categories", want: types.IngredientCategoryOptions()},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/lookups/"+tt.table, nil))

			require.Equal(t, http.StatusOK, w.Code)
			var got []types.LabelOption
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("muscle groups keep display order", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/lookups/muscle-groups", nil))
		var got []types.LabelOption
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.NotEmpty(t, got)
		assert.Equal(t, types.LabelOption{Value: "chest", Label: "Pecho"}, got[0])
	})

	t.Run("unknown table", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/lookups/weight-units", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
