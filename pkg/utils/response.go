package utils

import "github.com/gin-gonic/gin"

type MessageResponse struct {
	Message string `json:"message"`
}

type DataResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func SuccessResponse(c *gin.Context, status int, message string, data interface{}) {
	if data == nil {
		c.JSON(status, MessageResponse{Message: message})
		return
	}
	c.JSON(status, DataResponse{Message: message, Data: data})
}

func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, MessageResponse{Message: message})
}
