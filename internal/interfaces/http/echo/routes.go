package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, uploadHandler *UploadHandler) {
	entity := server.Group("/api/v1/:entity")
	entity.POST("/bulk-upload", uploadHandler.BulkUpload)
	entity.GET("/upload-progress/:task_id", uploadHandler.UploadProgress)
	entity.GET("/template", uploadHandler.Template)
}
