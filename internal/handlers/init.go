package handlers

import (
	"log"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/manoj0727/Nexify-server/internal/config"
	"github.com/manoj0727/Nexify-server/internal/database"
	"github.com/manoj0727/Nexify-server/internal/repositories"
	"github.com/manoj0727/Nexify-server/internal/services"
)

// Package-level collaborators shared by the handlers. Wired once at
// startup via Init.
var (
	cfg               *config.Config
	validate          = validator.New()
	emailSender       services.EmailSender
	contextAuth       *services.ContextAuthService
	geolocator        services.Geolocator
	classifier        services.CategoryClassifier
	cloudinaryService *services.CloudinaryService
	verifications     *repositories.VerificationRepo
)

// Init wires the handler package's collaborators. Must run after the
// database connections are up.
func Init(c *config.Config) {
	cfg = c

	if c.EmailEnabled {
		sender, err := services.NewSESEmailSender(c.AWSRegion, c.EmailFrom)
		if err != nil {
			log.Printf("⚠️ Could not initialize SES email sender: %v", err)
		} else {
			emailSender = sender
		}
	}

	geolocator = services.Geolocator(services.NoGeolocator{})
	if c.IsProduction() {
		geolocator = services.NewIPAPIGeolocator(5 * time.Second)
	}

	verifications = repositories.NewVerificationRepo(database.DB)
	contextAuth = services.NewContextAuthService(
		repositories.NewContextRepo(database.DB),
		repositories.NewSuspiciousLoginRepo(database.DB),
		verifications,
		emailSender,
		c.ClientURL,
	)

	classifier = services.NewCategoryClassifier(
		c.CategoryFilterProvider,
		c.TextRazorAPIKey,
		c.InterfaceAPIURL,
		c.ClassifierAPIURL,
		c.CategoryFilterTimeout,
	)
}

// InitCloudinaryService initializes the upload service. Separate from Init
// so startup can degrade gracefully when credentials are missing.
func InitCloudinaryService(c *config.Config) error {
	svc, err := services.NewCloudinaryService(c.CloudinaryName, c.CloudinaryAPIKey, c.CloudinaryAPISecret)
	if err != nil {
		return err
	}
	cloudinaryService = svc
	return nil
}
