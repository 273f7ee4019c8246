package statushandler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

type RoomLister interface {
	Rooms() map[string]int
}

// Check probes one backing dependency.
type Check func(ctx context.Context) error

type RoomDTO struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

type Handler struct {
	rooms  RoomLister
	checks map[string]Check
}

func New(rooms RoomLister, checks map[string]Check) *Handler {
	return &Handler{rooms: rooms, checks: checks}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/rooms", h.listRooms)
	r.GET("/healthz", h.health)
}

// @Summary		List live rooms
// @Tags			Rooms
// @Success		200	{array}	RoomDTO
// @Router			/rooms [get]
func (h *Handler) listRooms(ginCtx *gin.Context) {
	live := h.rooms.Rooms()
	out := make([]RoomDTO, 0, len(live))
	for name, n := range live {
		out = append(out, RoomDTO{Name: name, Members: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	ginCtx.JSON(http.StatusOK, out)
}

// @Summary		Liveness of the backing stores
// @Tags			Status
// @Success		200
// @Failure		503
// @Router			/healthz [get]
func (h *Handler) health(ginCtx *gin.Context) {
	ctx, cancel := context.WithTimeout(ginCtx.Request.Context(), healthTimeout)
	defer cancel()

	failed := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			zap.L().Warn("healthz", zap.String("dependency", name), zap.Error(err))
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		ginCtx.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "failed": failed})
		return
	}
	ginCtx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
