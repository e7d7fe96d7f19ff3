package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/danmuck/scenesave/internal/inspect"
	"github.com/danmuck/scenesave/internal/registry"
	"github.com/danmuck/scenesave/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MaxBlobBytes bounds request bodies posted to the inspector.
const MaxBlobBytes = 64 << 20

var ErrNoSlots = errors.New("server: no slot store configured")

type TypeInfo struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Fields   []string `json:"fields,omitempty"`
	Hooks    bool     `json:"hooks"`
}

func (s *Server) registerRoutes() {
	r := s.router
	r.GET("/healthz", func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Started).String(),
			"service": s.Name,
			"version": Version,
		}
		if s.slots != nil {
			body["store"] = s.slots.Store().Name()
		}
		c.JSON(http.StatusOK, body)
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.GET("/types", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"types": listTypes(s.registry)})
	})
	v1.POST("/inspect", s.inspectBody)
	v1.GET("/slots", s.listSlots)
	v1.GET("/slots/:slot", s.inspectSlot)
	v1.DELETE("/slots/:slot", s.deleteSlot)
}

func (s *Server) inspectBody(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxBlobBytes+1))
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	if len(raw) > MaxBlobBytes {
		fail(c, http.StatusRequestEntityTooLarge, errors.New("save exceeds size limit"))
		return
	}
	name := c.DefaultQuery("compression", "auto")
	if name == "auto" {
		name = storage.Detect(raw)
	}
	comp, err := storage.NewLimitedCompressor(name, 0, s.maxInflated)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	blob, err := comp.Decompress(raw)
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, err)
		return
	}
	s.render(c, blob)
}

func (s *Server) listSlots(c *gin.Context) {
	if s.slots == nil {
		fail(c, http.StatusServiceUnavailable, ErrNoSlots)
		return
	}
	list, err := s.slots.List(c.Request.Context())
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	if list == nil {
		list = []storage.SlotInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"store": s.slots.Store().Name(), "slots": list})
}

func (s *Server) inspectSlot(c *gin.Context) {
	if s.slots == nil {
		fail(c, http.StatusServiceUnavailable, ErrNoSlots)
		return
	}
	slot := c.Param("slot")
	if err := storage.ValidateSlot(slot); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	blob, err := s.slots.Read(c.Request.Context(), slot)
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	s.render(c, blob)
}

func (s *Server) deleteSlot(c *gin.Context) {
	if s.slots == nil {
		fail(c, http.StatusServiceUnavailable, ErrNoSlots)
		return
	}
	slot := c.Param("slot")
	if err := s.slots.Delete(c.Request.Context(), slot); err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "slot": slot})
}

// render writes the inspected tree of blob in the format named by ?format=.
func (s *Server) render(c *gin.Context, blob []byte) {
	tree, err := inspect.Decode(blob, s.registry)
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, err)
		return
	}
	switch format := c.DefaultQuery("format", "json"); format {
	case "json":
		c.JSON(http.StatusOK, tree)
	case "text", "yaml":
		var buf bytes.Buffer
		if err := inspect.Render(&buf, tree, format); err != nil {
			fail(c, http.StatusInternalServerError, err)
			return
		}
		contentType := "text/plain; charset=utf-8"
		if format == "yaml" {
			contentType = "application/yaml"
		}
		c.Data(http.StatusOK, contentType, buf.Bytes())
	default:
		err := inspect.Render(io.Discard, tree, format)
		fail(c, http.StatusBadRequest, err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrSlotNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidSlot):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func listTypes(reg *registry.Registry) []TypeInfo {
	if reg == nil {
		return []TypeInfo{}
	}
	names := reg.Names()
	out := make([]TypeInfo, 0, len(names))
	for _, name := range names {
		desc, ok := reg.Lookup(name)
		if !ok {
			continue
		}
		info := TypeInfo{
			Name:     desc.Name,
			Category: desc.Category.String(),
			Hooks:    desc.Save != nil || desc.Load != nil,
		}
		for _, f := range desc.Fields {
			info.Fields = append(info.Fields, f.Name)
		}
		out = append(out, info)
	}
	return out
}
