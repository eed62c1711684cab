package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"report-dispatch/geo"
	"report-dispatch/mapview"
)

var (
	errBadBounds   = errors.New("min_lat, max_lat, min_lng and max_lng must be given together with min < max")
	errBadViewPort = errors.New("viewport must have finite latmin < latmax and lonmin < lonmax")
)

func finite(vals ...float64) bool {
	for _, f := range vals {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// GetLiveMap handles GET /map. The optional min_lat, max_lat, min_lng and
// max_lng query parameters narrow the rendered area.
func (h *Handlers) GetLiveMap(c *gin.Context) {
	bounds, err := parseBounds(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.backend.LiveMap(bounds))
}

func parseBounds(c *gin.Context) (*geo.Bounds, error) {
	keys := []string{"min_lat", "max_lat", "min_lng", "max_lng"}
	var vals [4]float64
	given := 0
	for i, k := range keys {
		s := c.Query(k)
		if s == "" {
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || !finite(f) {
			return nil, errBadBounds
		}
		vals[i] = f
		given++
	}
	if given == 0 {
		return nil, nil
	}
	b := geo.Bounds{MinLat: vals[0], MaxLat: vals[1], MinLng: vals[2], MaxLng: vals[3]}
	if given != len(keys) || b.MinLat >= b.MaxLat || b.MinLng >= b.MaxLng {
		return nil, errBadBounds
	}
	return &b, nil
}

// GetClusters handles GET /map/clusters?latmin=&lonmin=&latmax=&lonmax=
func (h *Handlers) GetClusters(c *gin.Context) {
	var vp mapview.ViewPort
	if err := c.ShouldBindQuery(&vp); err != nil {
		badRequest(c, err)
		return
	}
	if !finite(vp.LatMin, vp.LatMax, vp.LonMin, vp.LonMax) || vp.LatMin >= vp.LatMax || vp.LonMin >= vp.LonMax {
		badRequest(c, errBadViewPort)
		return
	}
	clusters := h.backend.Clusters(vp)
	c.JSON(http.StatusOK, gin.H{
		"clusters": clusters,
		"count":    len(clusters),
	})
}

// ListenMap handles GET /map/listen, a WebSocket streaming live map frames
func (h *Handlers) ListenMap(c *gin.Context) {
	if err := h.backend.ServeLiveMap(c.Writer, c.Request); err != nil {
		log.Warnf("WebSocket upgrade failed: %v", err)
	}
}
