package views

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/GrainArc/SectorMap/methods"
	"github.com/GrainArc/SectorMap/models"
	"github.com/GrainArc/SectorMap/services"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// 扇形标注绘制

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 生产环境需要严格检查
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type SectorHandler struct {
	registry        *services.MapRegistry
	precision       int
	tolerance       float64
	handleTolerance float64
	ping            time.Duration

	// mu 同时保护 clients 与地图的创建/注销
	mu      sync.Mutex
	clients map[string]map[*DrawSession]bool
}

func NewSectorHandler(registry *services.MapRegistry, precision int, tolerance, handleTolerance float64, ping time.Duration) *SectorHandler {
	if registry == nil {
		registry = services.NewMapRegistry()
	}
	if ping <= 0 {
		ping = 30 * time.Second
	}
	return &SectorHandler{
		registry:        registry,
		precision:       precision,
		tolerance:       tolerance,
		handleTolerance: handleTolerance,
		ping:            ping,
		clients:         make(map[string]map[*DrawSession]bool),
	}
}

// DrawSession 绘制会话
type DrawSession struct {
	conn    *websocket.Conn
	mapID   string
	control *services.DrawControl
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
}

func (s *DrawSession) send(resp models.DrawResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(resp)
}

// newControl 为地图创建绘制控件，回调推送到该地图的全部会话
func (h *SectorHandler) newControl(mapID string) *services.DrawControl {
	store := services.NewMemoryStore()
	return services.NewDrawControl(store, services.ControlOptions{
		ClickTolerance:  h.tolerance,
		HandleTolerance: h.handleTolerance,
		OnReady: func() {
			h.broadcast(mapID, models.DrawResponse{Type: "ready", MapID: mapID})
		},
		OnChange: func(ids []models.FeatureID, kind services.ChangeKind) {
			resp := models.DrawResponse{Type: "change", MapID: mapID, IDs: ids, Kind: string(kind)}
			if kind != services.ChangeDelete {
				var features []*geojson.Feature
				for _, id := range ids {
					if f, ok := store.Get(id); ok {
						features = append(features, f)
					}
				}
				resp.Features = methods.MakeGeoJSON(features, h.precision)
			}
			h.broadcast(mapID, resp)
		},
		OnFeatureDeleted: func(ids []models.FeatureID) {
			h.broadcast(mapID, models.DrawResponse{Type: "deleted", MapID: mapID, IDs: ids})
		},
		OnFinish: func(id models.FeatureID, ctx models.FinishContext) {
			h.broadcast(mapID, models.DrawResponse{Type: "finish", MapID: mapID, ID: id, Message: ctx.Mode + "." + ctx.Action})
		},
	})
}

// register 调用方持有 h.mu
func (h *SectorHandler) register(session *DrawSession) {
	if h.clients[session.mapID] == nil {
		h.clients[session.mapID] = make(map[*DrawSession]bool)
	}
	h.clients[session.mapID][session] = true
}

// unregister 最后一个会话断开时注销地图
func (h *SectorHandler) unregister(session *DrawSession) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[session.mapID], session)
	if len(h.clients[session.mapID]) == 0 {
		delete(h.clients, session.mapID)
		h.registry.Remove(session.mapID)
		log.Printf("Map %s removed", session.mapID)
	}
}

func (h *SectorHandler) broadcast(mapID string, resp models.DrawResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for session := range h.clients[mapID] {
		if err := session.send(resp); err != nil {
			log.Printf("Failed to send %s to client: %v", resp.Type, err)
			session.cancel()
			delete(h.clients[mapID], session)
		}
	}
}

// DrawWebSocket 升级到 WebSocket，map 参数为空时新建地图
func (h *SectorHandler) DrawWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to websocket: %v", err)
		return
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	session := &DrawSession{
		conn:   conn,
		ctx:    sessionCtx,
		cancel: cancel,
	}

	// 加入已有地图时先发 ready 再登记，保证 change 不会先于 ready 到达
	h.mu.Lock()
	mapID, control, created := h.registry.Create(c.Query("map"), h.newControl)
	session.mapID = mapID
	session.control = control
	if !created {
		err = session.send(models.DrawResponse{
			Type:     "ready",
			MapID:    mapID,
			Features: methods.MakeGeoJSON(control.Features(), h.precision),
		})
	}
	if err == nil {
		h.register(session)
	}
	h.mu.Unlock()

	if err != nil {
		log.Printf("Failed to send ready response: %v", err)
		cancel()
		conn.Close()
		return
	}

	if created {
		log.Printf("Map %s created", mapID)
		control.Start()
	}

	h.handleSession(session)
}

func (h *SectorHandler) handleSession(session *DrawSession) {
	defer func() {
		h.unregister(session)
		session.cancel()
		session.conn.Close()
		log.Printf("WebSocket session closed, map %s", session.mapID)
	}()

	// 设置心跳
	pingTicker := time.NewTicker(h.ping)
	defer pingTicker.Stop()

	go func() {
		for {
			select {
			case <-session.ctx.Done():
				return
			case <-pingTicker.C:
				session.mu.Lock()
				err := session.conn.WriteMessage(websocket.PingMessage, nil)
				session.mu.Unlock()
				if err != nil {
					log.Printf("Ping failed: %v", err)
					session.cancel()
					return
				}
			}
		}
	}()

	for {
		select {
		case <-session.ctx.Done():
			return
		default:
		}

		var msg models.DrawMessage
		if err := session.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		if err := h.handleMessage(session, msg); err != nil {
			log.Printf("Map %s %s: %v", session.mapID, msg.Type, err)
			if sendErr := session.send(models.DrawResponse{Type: "error", MapID: session.mapID, Message: err.Error()}); sendErr != nil {
				return
			}
		}
	}
}

func (h *SectorHandler) handleMessage(session *DrawSession, msg models.DrawMessage) error {
	control := session.control
	switch msg.Type {
	case "click":
		return control.Click(msg.Pointer())
	case "mousemove":
		return control.PointerMove(msg.Pointer())
	case "mousedown":
		handled, err := control.PointerDown(msg.Pointer())
		if err != nil {
			return err
		}
		return session.send(models.DrawResponse{Type: "drag", MapID: session.mapID, Message: fmt.Sprint(handled)})
	case "mouseup":
		return control.PointerUp(msg.Pointer())
	case "keyup":
		return control.KeyUp(models.KeyEvent{Key: msg.Key})
	case "mode":
		return control.SetMode(msg.Mode)
	}
	return fmt.Errorf("unknown message type %q", msg.Type)
}

func (h *SectorHandler) control(c *gin.Context) (*services.DrawControl, bool) {
	mapID := c.Param("mapId")
	control, ok := h.registry.Get(mapID)
	if !ok {
		c.JSON(404, gin.H{"error": "map not found"})
		return nil, false
	}
	return control, true
}

// ListMaps 全部地图
func (h *SectorHandler) ListMaps(c *gin.Context) {
	ids := h.registry.IDs()
	if ids == nil {
		ids = []string{}
	}
	c.JSON(200, gin.H{"maps": ids})
}

// GetFeatures 地图上的全部要素
func (h *SectorHandler) GetFeatures(c *gin.Context) {
	control, ok := h.control(c)
	if !ok {
		return
	}
	c.JSON(200, methods.MakeGeoJSON(control.Features(), h.precision))
}

// SectorInfo 扇形属性的输出格式
type SectorInfo struct {
	ID          models.FeatureID `json:"id"`
	ApexPos     orb.Point        `json:"apexPos"`
	DirEndPos   orb.Point        `json:"dirEndPos"`
	SectorAngle float64          `json:"sectorAngleDeg"`
}

// GetSector 读取扇形属性
func (h *SectorHandler) GetSector(c *gin.Context) {
	control, ok := h.control(c)
	if !ok {
		return
	}
	id := c.Param("id")
	props, ok := control.Store().GetPropertiesCopy(id)
	if !ok {
		c.JSON(404, gin.H{"error": "feature not found"})
		return
	}
	sector, ok := models.DecodeSegmentProps(props)
	if !ok {
		c.JSON(400, gin.H{"error": "feature is not a sector"})
		return
	}
	c.JSON(200, SectorInfo{
		ID:          id,
		ApexPos:     methods.RoundGeometry(sector.ApexPos, h.precision).(orb.Point),
		DirEndPos:   methods.RoundGeometry(sector.DirEndPos, h.precision).(orb.Point),
		SectorAngle: methods.PreciseRound(sector.SectorAngle, h.precision),
	})
}

// DeleteFeature 删除要素并通知地图的全部会话
func (h *SectorHandler) DeleteFeature(c *gin.Context) {
	control, ok := h.control(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if !control.Store().Has(id) {
		c.JSON(404, gin.H{"error": "feature not found"})
		return
	}
	control.DeleteFeatures([]models.FeatureID{id})
	c.JSON(200, gin.H{"deleted": id})
}
