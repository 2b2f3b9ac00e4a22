package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/feed-service/internal/api/http/handlers"
	"github.com/spec-kit/feed-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Feed     *handlers.FeedHandler
	Images   *handlers.ImageHandler
	Realtime *handlers.RealtimeHandler
	GraphQL  fiber.Handler
	Guard    *auth.Guard
	// StaticImagesDir mounts images from disk when set; otherwise
	// /images/:name streams through the image store.
	StaticImagesDir string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Put("/signup", cfg.Auth.Signup)
	app.Post("/login", cfg.Auth.Login)
	authGroup := app.Group("/auth")
	authGroup.Put("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)

	feed := app.Group("/feed", cfg.Guard.Handle)
	feed.Get("/posts", cfg.Feed.GetPosts)
	feed.Post("/post", cfg.Feed.CreatePost)
	feed.Get("/post/:postId", cfg.Feed.GetPost)
	feed.Put("/post/:postId", cfg.Feed.UpdatePost)
	feed.Delete("/post/:postId", cfg.Feed.DeletePost)
	feed.Get("/status", cfg.Feed.GetStatus)
	feed.Patch("/status", cfg.Feed.UpdateStatus)

	app.Put("/post-image", cfg.Guard.Handle, cfg.Images.Upload)
	if cfg.StaticImagesDir != "" {
		app.Static("/images", cfg.StaticImagesDir, fiber.Static{Browse: false})
	} else {
		app.Get("/images/:name", cfg.Images.Serve)
	}

	if cfg.Realtime != nil {
		app.Get("/ws", cfg.Guard.Optional, cfg.Realtime.Upgrade, cfg.Realtime.Serve())
	}
	if cfg.GraphQL != nil {
		app.Post("/graphql", cfg.Guard.Optional, cfg.GraphQL)
	}
}
