package routers

import (
	"time"

	"github.com/GrainArc/SectorMap/config"
	"github.com/GrainArc/SectorMap/services"
	"github.com/GrainArc/SectorMap/views"
	"github.com/gin-gonic/gin"
)

func SectorRouters(r *gin.Engine) {
	handler := views.NewSectorHandler(
		services.NewMapRegistry(),
		config.Precision,
		config.ClickTolerance,
		config.HandleTolerance,
		time.Duration(config.PingSeconds)*time.Second,
	)
	mapRouter := r.Group("/sector")
	{
		mapRouter.GET("/ws", handler.DrawWebSocket)
		mapRouter.GET("/maps", handler.ListMaps)
		mapRouter.GET("/maps/:mapId/features", handler.GetFeatures)
		mapRouter.GET("/maps/:mapId/sectors/:id", handler.GetSector)
		mapRouter.DELETE("/maps/:mapId/features/:id", handler.DeleteFeature)
	}
}
