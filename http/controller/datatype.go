package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/tnqbao/gau-datagen-service/utils"
	"github.com/tnqbao/gau-datagen-service/writer"
)

// ListDataTypes exposes the builtin schemas and supported output formats so
// clients can build submission forms without hardcoding either set.
func (ctrl *Controller) ListDataTypes(c *gin.Context) {
	schemas := ctrl.Registry.Schemas()

	types := make([]gin.H, 0, len(schemas))
	for _, s := range schemas {
		types = append(types, gin.H{
			"kind":        s.Kind,
			"description": s.Description,
			"fields":      s.Fields,
		})
	}

	formats := writer.Formats()
	formatNames := make([]string, 0, len(formats))
	for _, f := range formats {
		formatNames = append(formatNames, string(f))
	}

	utils.JSON200(c, gin.H{
		"data_types":     types,
		"output_formats": formatNames,
	})
}
