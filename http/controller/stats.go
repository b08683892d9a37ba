package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/tnqbao/gau-datagen-service/utils"
)

// GetStats aggregates the job tables plus storage usage. Storage stats are
// best effort: a broken admin endpoint must not take the whole view down.
func (ctrl *Controller) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	byStatus, err := ctrl.Repository.JobRepo.CountByStatus()
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Stats] Failed to count jobs by status")
		utils.JSON500(c, "Failed to load stats")
		return
	}

	byDataType, err := ctrl.Repository.JobRepo.CountByDataType()
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Stats] Failed to count jobs by data type")
		utils.JSON500(c, "Failed to load stats")
		return
	}

	resp := gin.H{
		"jobs_by_status":    byStatus,
		"jobs_by_data_type": byDataType,
	}

	if usage, err := ctrl.Infra.Minio.StorageStats(ctx); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Stats] Storage usage unavailable: %v", err)
	} else {
		resp["storage"] = gin.H{
			"objects_total": usage.ObjectsTotalCount,
			"size_total":    usage.ObjectsTotalSize,
		}
	}

	utils.JSON200(c, resp)
}
