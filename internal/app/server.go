package app

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/objectid"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (a *App) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), a.observe())

	r.GET("/health", a.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/reset", a.handleReset)

	r.GET("/object/:objectID/frames", a.handleFrames)
	r.POST("/object/:objectID/frame/:frameID/size/", a.handleScreenPose)
	r.POST("/object/:objectID/frame/:frameID/node/:nodeID/value", a.handleNodeValue)
	r.POST("/object/:objectID/frame/:frameID/node/:nodeID/publicData", a.handlePublicData)
	r.POST("/screen/:objectID/touch", a.handleScreenTouch)

	hub := gin.WrapH(a.editors.handler())
	r.GET("/socket.io/*any", hub)
	r.POST("/socket.io/*any", hub)
	return r
}

// observe counts and logs every request.
func (a *App) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		a.logger.Debug("HTTP request served.", "method", c.Request.Method, "path", c.Request.URL.Path, "status", status, "remote_addr", c.ClientIP())
	}
}

func (a *App) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK\n")
}

func (a *App) handleReset(c *gin.Context) {
	ctx := ctxlog.WithLogger(c.Request.Context(), a.logger)
	a.registry.ResetAll(ctx)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *App) handleFrames(c *gin.Context) {
	_, name, ok := a.objectName(c.Param("objectID"))
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "Unknown object", Code: "OBJECT_NOT_FOUND"})
		return
	}
	c.JSON(http.StatusOK, a.registry.Frames(name))
}

// handleScreenPose stores the pose a screen reports for a frame and asks the
// editors to reload it. The reporting screen is never an editor, so
// ignoreActionSender has nobody to exclude.
func (a *App) handleScreenPose(c *gin.Context) {
	ctx := ctxlog.WithLogger(c.Request.Context(), a.logger)

	var req model.ScreenPoseUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		a.logger.Warn("Invalid screen pose body.", "error", err)
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	objectID := c.Param("objectID")
	if id, ok := a.resolver.Lookup(objectID); ok {
		objectID = string(id)
	}
	frameID := c.Param("frameID")
	pose := model.ScreenPose{X: req.X, Y: req.Y, Scale: req.Scale}
	if !a.registry.SetScreenPose(ctx, objectID, frameID, pose) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "Unknown frame", Code: "FRAME_NOT_FOUND"})
		return
	}

	frameKey := objectid.ParseFrameID(objectid.ObjectID(objectID), frameID)
	a.editors.emit(eventAction, model.Action{ReloadObject: &model.ReloadObject{
		Object: objectID,
		Frame:  frameKey.String(),
	}})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *App) pathNode(c *gin.Context) (objectid.NodeKey, bool) {
	return a.nodeKey(nodeMessage{
		Object: c.Param("objectID"),
		Frame:  c.Param("frameID"),
		Node:   c.Param("nodeID"),
	})
}

func (a *App) handleNodeValue(c *gin.Context) {
	ctx := ctxlog.WithLogger(c.Request.Context(), a.logger)

	var data model.Data
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	key, ok := a.pathNode(c)
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "Unknown object", Code: "OBJECT_NOT_FOUND"})
		return
	}
	a.registry.DispatchValue(ctx, key, data)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *App) handlePublicData(c *gin.Context) {
	ctx := ctxlog.WithLogger(c.Request.Context(), a.logger)

	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	key, ok := a.pathNode(c)
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "Unknown object", Code: "OBJECT_NOT_FOUND"})
		return
	}
	a.registry.DispatchPublicData(ctx, key, data)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleScreenTouch is the HTTP ingress for touch events aimed at a screen.
func (a *App) handleScreenTouch(c *gin.Context) {
	ctx := ctxlog.WithLogger(c.Request.Context(), a.logger)

	var msg model.ScreenObjectMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	if !a.dispatchScreenObject(ctx, c.Param("objectID"), msg) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "No screen for object", Code: "SCREEN_NOT_FOUND"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
