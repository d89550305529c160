package handler

import (
	"github.com/gofiber/fiber/v2"

	"settingsapi/internal/http/middleware"
	"settingsapi/internal/service"
)

// Services bundles what the routes depend on.
type Services struct {
	Settings  service.SettingsService
	Documents service.DocumentService
}

// RegisterRoutes attaches the operational routes and the authenticated /settings API.
func RegisterRoutes(app *fiber.App, jwtSecret string, svc Services, checks ...Check) {
	app.Get("/health", HealthCheck(checks...))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/settings", middleware.Auth(jwtSecret))

	// File routes first so they are not shadowed by /:userId.
	api.Post("/:userId/profile-picture", UploadProfilePicture(svc.Documents))
	api.Get("/:userId/profile-picture", GetProfilePicture(svc.Documents))
	api.Post("/:userId/documents", UploadDocuments(svc.Documents))
	api.Get("/:userId/documents", ListDocuments(svc.Documents))
	api.Get("/:userId/documents/:documentId/download", DownloadDocument(svc.Documents))
	api.Get("/:userId/documents/:documentId/url", GetDocumentURL(svc.Documents))
	api.Delete("/:userId/documents/:documentId", DeleteDocument(svc.Documents))

	api.Get("/:userId/effective", GetEffectiveSettings(svc.Settings))
	api.Get("/:userId/field/:field", GetSettingsField(svc.Settings))
	api.Patch("/:userId/field/:field", SetSettingsField(svc.Settings))

	api.Get("/:userId", GetSettings(svc.Settings))
	api.Put("/:userId", ReplaceSettings(svc.Settings))
	api.Delete("/:userId", ResetSettings(svc.Settings))
}
