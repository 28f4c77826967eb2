package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	app "github.com/yash-jain-1224/crm-dashboard/internal/application/upload"
	"github.com/yash-jain-1224/crm-dashboard/internal/infrastructure/spreadsheet"
	"github.com/yash-jain-1224/crm-dashboard/internal/infrastructure/taskstore"
	httpecho "github.com/yash-jain-1224/crm-dashboard/internal/interfaces/http/echo"
	"go.uber.org/zap"
)

// UploadDeps is everything the HTTP layer needs from the running process.
type UploadDeps struct {
	Tasks        *taskstore.MemoryStore
	Runner       *app.BatchRunner
	Background   *app.Background
	MaxFileBytes int64
	CORSOrigins  []string
	UploadConfig app.StartBulkUploadConfig
}

func NewHTTPServer(deps UploadDeps, logger *zap.Logger) *echo.Echo {
	server := echo.New()
	server.HideBanner = true
	server.HidePort = true

	// Multipart overhead on top of the largest accepted workbook.
	bodyLimit := deps.MaxFileBytes + deps.MaxFileBytes/5
	if bodyLimit <= 0 {
		bodyLimit = 60 << 20
	}

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(httpecho.RequestLogger(logger))
	if len(deps.CORSOrigins) > 0 {
		server.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     deps.CORSOrigins,
			AllowCredentials: true,
		}))
	}
	server.Use(middleware.BodyLimit(fmt.Sprintf("%dK", bodyLimit>>10)))

	startUpload := app.NewStartBulkUpload(
		spreadsheet.NewReader(),
		deps.Tasks,
		deps.Runner,
		deps.Background,
		deps.UploadConfig,
		logger,
	)
	progress := app.NewGetUploadProgress(deps.Tasks)
	template := app.NewGetTemplate(spreadsheet.NewTemplateWriter())
	uploadHandler := httpecho.NewUploadHandler(startUpload, progress, template)

	httpecho.RegisterRoutes(server, uploadHandler)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return server
}
