package main

import (
	"errors"
	"log"
	"net/url"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"tree-browser/tree"
	"tree-browser/workspace"
)

type server struct {
	app   *fiber.App
	store *workspace.Store
	hub   *hub

	opsInProgress sync.WaitGroup // Tracks in-flight gestures
}

func newServer(store *workspace.Store, staticDir string) *server {
	srv := &server{
		store: store,
		hub:   newHub(),
	}
	store.Subscribe(srv.hub.broadcast)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"status": "error",
				"error":  err.Error(),
			})
		},
	})

	app.Use(cors.New())

	if staticDir != "" {
		app.Static("/static", staticDir)
	}

	app.Get("/", srv.handleInfo)

	api := app.Group("/api")
	api.Get("/panes", srv.handleSnapshot)
	api.Get("/panes/:pane", srv.handlePane)
	api.Post("/panes/:pane/nodes/:id/rename", srv.track(srv.handleRename))
	api.Delete("/panes/:pane/nodes/:id", srv.track(srv.handleDelete))
	api.Post("/panes/:pane/nodes/:id/files", srv.track(srv.handleCreateFile))
	api.Post("/panes/:pane/nodes/:id/folders", srv.track(srv.handleCreateFolder))
	api.Post("/relocate", srv.track(srv.handleRelocate))

	api.Post("/drags", srv.handleDragStart)
	api.Post("/drags/:token/over", srv.handleDragOver)
	api.Post("/drags/:token/drop", srv.track(srv.handleDrop))
	api.Delete("/drags/:token", srv.handleDragCancel)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(srv.handleWebSocket))

	srv.app = app
	return srv
}

// track registers the handler's work with opsInProgress so shutdown can
// wait for it.
func (srv *server) track(h fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv.opsInProgress.Add(1)
		defer srv.opsInProgress.Done()
		return h(c)
	}
}

func errorJSON(c *fiber.Ctx, code int, msg string) error {
	return c.Status(code).JSON(fiber.Map{
		"status": "error",
		"error":  msg,
	})
}

func paneParam(c *fiber.Ctx) (workspace.Pane, error) {
	return workspace.ParsePane(c.Params("pane"))
}

// nodeParam decodes the :id segment. Ids of imported directories contain
// slashes, which clients send as %2F.
func nodeParam(c *fiber.Ctx) (string, error) {
	id, err := url.PathUnescape(c.Params("id"))
	if err != nil {
		return "", errors.New("Invalid node id")
	}
	return id, nil
}

// changeJSON reports the outcome of a mutation. No-ops are not HTTP errors:
// they answer 200 with applied=false and the reason.
func changeJSON(c *fiber.Ctx, ch workspace.Change, err error) error {
	if errors.Is(err, workspace.ErrUnknownPane) {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	resp := fiber.Map{
		"status":  "ok",
		"applied": ch.Applied,
		"seq":     ch.Seq,
	}
	if ch.Created != "" {
		resp["created"] = ch.Created
	}
	if err != nil {
		resp["reason"] = err.Error()
	}
	return c.JSON(resp)
}

func (srv *server) handleInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":       "tree-browser",
		"version":    version,
		"relocation": srv.store.Mode(),
		"clients":    srv.hub.count(),
		"drags":      srv.store.ActiveDrags(),
	})
}

func (srv *server) handleSnapshot(c *fiber.Ctx) error {
	return c.JSON(srv.store.Snapshot())
}

func (srv *server) handlePane(c *fiber.Ctx) error {
	p, err := paneParam(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	f, v, err := srv.store.Forest(p)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	switch c.Query("format", "nested") {
	case "nested":
		return c.JSON(fiber.Map{"pane": p, "version": v, "nodes": f})
	case "flat":
		flat := tree.Flatten(f)
		if flat == nil {
			flat = []tree.FlatNode{}
		}
		return c.JSON(fiber.Map{"pane": p, "version": v, "nodes": flat})
	default:
		return errorJSON(c, fiber.StatusBadRequest, "Invalid format. Must be 'nested' or 'flat'")
	}
}

func (srv *server) handleRename(c *fiber.Ctx) error {
	p, err := paneParam(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	id, err := nodeParam(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	ch, err := srv.store.Rename(p, id, req.Name)
	return changeJSON(c, ch, err)
}

func (srv *server) handleDelete(c *fiber.Ctx) error {
	p, err := paneParam(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	id, err := nodeParam(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	ch, err := srv.store.Delete(p, id)
	return changeJSON(c, ch, err)
}

func (srv *server) handleCreateFile(c *fiber.Ctx) error {
	p, err := paneParam(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	id, err := nodeParam(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	ch, err := srv.store.CreateFile(p, id)
	return changeJSON(c, ch, err)
}

func (srv *server) handleCreateFolder(c *fiber.Ctx) error {
	p, err := paneParam(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	id, err := nodeParam(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	ch, err := srv.store.CreateFolder(p, id)
	return changeJSON(c, ch, err)
}

type relocateRequest struct {
	From     string `json:"from"`
	NodeID   string `json:"nodeId"`
	To       string `json:"to"`
	TargetID string `json:"targetId"`
}

func (srv *server) handleRelocate(c *fiber.Ctx) error {
	var req relocateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	from, err := workspace.ParsePane(req.From)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	to, err := workspace.ParsePane(req.To)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	ch, err := srv.store.Relocate(from, req.NodeID, to, req.TargetID)
	return changeJSON(c, ch, err)
}

type dragRequest struct {
	Pane     string   `json:"pane"`
	NodeID   string   `json:"nodeId"`
	TargetID string   `json:"targetId"`
	Hovered  []string `json:"hovered"`
}

// parseDrag decodes a drag request body. Its error is meant for the client.
func parseDrag(c *fiber.Ctx) (dragRequest, workspace.Pane, error) {
	var req dragRequest
	if err := c.BodyParser(&req); err != nil {
		return req, "", errors.New("Invalid request body")
	}
	p, err := workspace.ParsePane(req.Pane)
	if err != nil {
		return req, "", err
	}
	return req, p, nil
}

func (srv *server) handleDragStart(c *fiber.Ctx) error {
	req, p, err := parseDrag(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	d, err := srv.store.BeginDrag(p, req.NodeID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	}
	return c.JSON(fiber.Map{"status": "ok", "drag": d})
}

func (srv *server) handleDragOver(c *fiber.Ctx) error {
	req, p, err := parseDrag(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	over, err := srv.store.DragOver(c.Params("token"), p, req.Hovered)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	}
	return c.JSON(fiber.Map{"status": "ok", "over": over})
}

func (srv *server) handleDrop(c *fiber.Ctx) error {
	req, p, err := parseDrag(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	ch, err := srv.store.Drop(c.Params("token"), p, req.TargetID)
	return changeJSON(c, ch, err)
}

func (srv *server) handleDragCancel(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"cancelled": srv.store.CancelDrag(c.Params("token")),
	})
}
