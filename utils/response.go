package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func JSON200(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func JSON201(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

func JSON202(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, data)
}

func JSON400(c *gin.Context, message interface{}) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

func JSON404(c *gin.Context, message interface{}) {
	c.JSON(http.StatusNotFound, gin.H{"error": message})
}

func JSON409(c *gin.Context, message interface{}) {
	c.JSON(http.StatusConflict, gin.H{"error": message})
}

func JSON410(c *gin.Context, message interface{}) {
	c.JSON(http.StatusGone, gin.H{"error": message})
}

func JSON500(c *gin.Context, message interface{}) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
