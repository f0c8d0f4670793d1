package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/rs/zerolog/log"

	"avatarcrop/cropview"
)

//go:embed static
var staticFS embed.FS
var isDebug = os.Getenv("DEBUG") == "1"

type Config struct {
	RootDir          string
	Sessions         *SessionStore
	OnBeforeShutdown func()
	OnReady          func(addr string)
	OnSave           func(ops Operations)
}

type WebApp struct {
	config       Config
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

func NewWebApp(config Config) *WebApp {
	if config.Sessions == nil {
		config.Sessions = NewSessionStore(log.Logger)
	}
	return &WebApp{
		config:     config,
		shutdownCh: make(chan struct{}),
	}
}

func (a *WebApp) Shutdown() {
	a.shutdownOnce.Do(func() {
		close(a.shutdownCh)
	})
}

type pointerRequest struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type rotateRequest struct {
	Degrees float64 `json:"degrees"`
}

type flipRequest struct {
	Axis string `json:"axis"`
}

type zoomRequest struct {
	Factor *float64 `json:"factor"`
	In     bool     `json:"in"`
	Out    bool     `json:"out"`
	Fit    *struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"fit"`
}

func (a *WebApp) newRouter() *fiber.App {
	webapp := fiber.New(fiber.Config{
		Immutable:             true,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Ctx(c.Context()).Error().
				Err(err).
				Str("path", c.Path()).
				Str("method", c.Method()).
				Msg("Request failed")
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				if fiberErr.Code == http.StatusNotFound && c.Path() == "/favicon.ico" {
					return nil
				}
				return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
			}
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
		},
	})

	webapp.Hooks().OnListen(func(listen fiber.ListenData) error {
		if fn := a.config.OnReady; fn != nil {
			fn(fmt.Sprintf("http://%s:%s", listen.Host, listen.Port))
		}
		return nil
	})

	filesRoot := http.Dir(a.config.RootDir)
	webapp.Get("/api/view", func(c *fiber.Ctx) error {
		filePath := c.Query("file")
		return filesystem.SendFile(c, filesRoot, filePath)
	})

	webapp.Get("/api/ls", func(c *fiber.Ctx) error {
		dir, err := walkImages(a.config.RootDir)
		if err != nil {
			return fmt.Errorf("failed to walk dir: %w", err)
		}

		for i := range dir.Files {
			dir.Files[i].URL = "/api/view?file=" + url.QueryEscape(dir.Files[i].Name)
		}

		var response struct {
			Name  string     `json:"name"`
			Files []FileInfo `json:"files"`
		}
		response.Name = dir.Name
		response.Files = dir.Files

		return c.JSON(response)
	})

	sessions := a.config.Sessions

	webapp.Post("/api/sessions", func(c *fiber.Ctx) error {
		var request struct {
			File string `json:"file"`
		}
		if err := c.BodyParser(&request); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}

		name, fullPath, err := a.resolveImage(request.File)
		if err != nil {
			return err
		}
		w, h, err := imageDimensions(fullPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fiber.NewError(http.StatusNotFound, "image not found")
			}
			return fmt.Errorf("failed to read image dimensions: %w", err)
		}

		s := sessions.Create(name, w, h)
		log.Ctx(c.Context()).Info().Str("session", s.ID).Str("filename", name).Msg("session opened")
		return c.Status(http.StatusCreated).JSON(s.State())
	})

	withSession := func(fn func(c *fiber.Ctx, s *Session) error) fiber.Handler {
		return func(c *fiber.Ctx) error {
			s, ok := sessions.Get(c.Params("id"))
			if !ok {
				return fiber.NewError(http.StatusNotFound, "session not found")
			}
			return fn(c, s)
		}
	}

	webapp.Get("/api/sessions/:id", withSession(func(c *fiber.Ctx, s *Session) error {
		return c.JSON(s.State())
	}))

	webapp.Delete("/api/sessions/:id", func(c *fiber.Ctx) error {
		if !sessions.Delete(c.Params("id")) {
			return fiber.NewError(http.StatusNotFound, "session not found")
		}
		return c.SendStatus(http.StatusNoContent)
	})

	webapp.Post("/api/sessions/:id/pointer", withSession(func(c *fiber.Ctx, s *Session) error {
		var request pointerRequest
		if err := c.BodyParser(&request); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}

		var apply func(v *cropview.View)
		switch request.Type {
		case "down":
			apply = func(v *cropview.View) { v.PointerDown(request.X, request.Y) }
		case "move":
			apply = func(v *cropview.View) { v.PointerMove(request.X, request.Y) }
		case "up":
			apply = func(v *cropview.View) { v.PointerUp() }
		default:
			return fiber.NewError(http.StatusBadRequest, fmt.Sprintf("unknown pointer event %q", request.Type))
		}
		return c.JSON(s.Apply(apply))
	}))

	webapp.Post("/api/sessions/:id/rotate", withSession(func(c *fiber.Ctx, s *Session) error {
		var request rotateRequest
		if err := c.BodyParser(&request); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}
		return c.JSON(s.Apply(func(v *cropview.View) { v.Rotate(request.Degrees) }))
	}))

	webapp.Post("/api/sessions/:id/flip", withSession(func(c *fiber.Ctx, s *Session) error {
		var request flipRequest
		if err := c.BodyParser(&request); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}
		switch request.Axis {
		case "h":
			return c.JSON(s.Apply(func(v *cropview.View) { v.FlipHorizontal() }))
		case "v":
			return c.JSON(s.Apply(func(v *cropview.View) { v.FlipVertical() }))
		}
		return fiber.NewError(http.StatusBadRequest, fmt.Sprintf("unknown flip axis %q", request.Axis))
	}))

	webapp.Post("/api/sessions/:id/zoom", withSession(func(c *fiber.Ctx, s *Session) error {
		var request zoomRequest
		if err := c.BodyParser(&request); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}
		var apply func(v *cropview.View)
		switch {
		case request.Fit != nil:
			apply = func(v *cropview.View) { v.ZoomFit(request.Fit.Width, request.Fit.Height) }
		case request.Factor != nil:
			apply = func(v *cropview.View) { v.Zoom(*request.Factor) }
		case request.In:
			apply = func(v *cropview.View) { v.ZoomIn() }
		case request.Out:
			apply = func(v *cropview.View) { v.ZoomOut() }
		default:
			return fiber.NewError(http.StatusBadRequest, "no zoom requested")
		}
		return c.JSON(s.Apply(apply))
	}))

	webapp.Get("/api/sessions/:id/operation", withSession(func(c *fiber.Ctx, s *Session) error {
		return c.JSON(s.Operation())
	}))

	// A release outside every view ends all gestures.
	webapp.Post("/api/release", func(c *fiber.Ctx) error {
		sessions.ReleaseAll()
		return c.SendStatus(http.StatusNoContent)
	})

	webapp.Post("/api/save", func(c *fiber.Ctx) error {
		var request struct {
			Operations []Operation `json:"operations"`
		}

		if err := c.BodyParser(&request); err != nil {
			return err
		}

		if fn := a.config.OnSave; fn != nil {
			fn(request.Operations)
		}

		return c.SendStatus(http.StatusNoContent)
	})
	webapp.Post("/api/shutdown", func(c *fiber.Ctx) error {
		a.Shutdown()
		return nil
	})

	if isDebug {
		log.Debug().Msg("Debug mode enabled, serving static files from './static' directory")
		webapp.Static("/", "static")
	} else {
		log.Debug().Msg("Serving static files from embedded filesystem")
		webapp.Use("/", filesystem.New(filesystem.Config{
			Root:       http.FS(staticFS),
			PathPrefix: "/static",
		}))
	}

	return webapp
}

// resolveImage maps a client supplied name onto a path below the root
// directory.
func (a *WebApp) resolveImage(name string) (string, string, error) {
	if name == "" {
		return "", "", fiber.NewError(http.StatusBadRequest, "file is required")
	}
	clean := filepath.Clean("/" + filepath.FromSlash(name))
	if !isImageFile(clean) {
		return "", "", fiber.NewError(http.StatusBadRequest, "unsupported image type")
	}
	rel := filepath.ToSlash(clean[1:])
	return rel, filepath.Join(a.config.RootDir, clean), nil
}

func (a *WebApp) Run(ctx context.Context) error {
	webapp := a.newRouter()

	go func() {
		select {
		case <-ctx.Done():
		case <-a.shutdownCh:
		}
		if fn := a.config.OnBeforeShutdown; fn != nil {
			fn()
		}
		if err := webapp.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to shutdown web application")
		}
	}()

	// Let the OS assign a random available port
	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", 0))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	// Use the listener that was already created
	if err := webapp.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
