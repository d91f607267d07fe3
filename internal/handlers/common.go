package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/launchdeck/launchdeck/backend/pkg/response"
)

// bindFailed reports a binding or validation error as 400 with the validator message.
func bindFailed(c *gin.Context, err error) {
	response.Error(c, response.NewBadRequest("Invalid request body").WithDetails(err.Error()))
}
