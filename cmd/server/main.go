package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/manoj0727/Nexify-server/internal/config"
	"github.com/manoj0727/Nexify-server/internal/database"
	"github.com/manoj0727/Nexify-server/internal/handlers"
	"github.com/manoj0727/Nexify-server/internal/middleware"
	"github.com/manoj0727/Nexify-server/internal/models"
	"github.com/manoj0727/Nexify-server/internal/routes"
	"github.com/manoj0727/Nexify-server/internal/services"
	"github.com/manoj0727/Nexify-server/pkg/utils"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	// Check encryption key (warn if not set, but don't fail)
	if cfg.EncryptionKey == "" {
		log.Println("⚠️  WARNING: ENCRYPTION_KEY not set. Sign-in context encryption will not work.")
		log.Println("   To generate a key, run: openssl rand -base64 32")
		log.Println("   Set it in your environment: ENCRYPTION_KEY=<generated-key>")
	} else {
		if _, err := utils.GetEncryptionKey(); err != nil {
			log.Printf("⚠️  WARNING: ENCRYPTION_KEY is invalid: %v", err)
			log.Println("   Sign-in context encryption will not work.")
			log.Println("   Key must be base64-encoded 32 bytes. Generate with: openssl rand -base64 32")
		} else {
			log.Println("✅ Encryption key configured")
		}
	}

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Connect to MongoDB (mask password in the logged URI)
	log.Printf("Connecting to MongoDB...")
	log.Printf("MongoDB URI: %s", maskMongoURI(cfg.MongoURI))
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	// Initialize Cloudinary service
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		if err := handlers.InitCloudinaryService(cfg); err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			log.Println("File uploads will not be available")
		} else {
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. File uploads will not be available")
	}

	// Wire handler collaborators (email, context auth, category filter)
	handlers.Init(cfg)

	// Ensure MongoDB indexes (unique email, TTLs for pending registrations,
	// verification links and suspicious logins, feed sort indexes)
	if err := services.EnsureIndexes(context.Background()); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure MongoDB indexes: %v", err)
	} else {
		log.Println("✅ MongoDB indexes ensured")
	}

	// Seed bootstrap admin when configured
	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		if err := seedAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Printf("⚠️  WARNING: failed to seed admin account: %v", err)
		}
	}

	// Fan community feed events out from Redis to local WebSocket clients
	services.StartFeedSubscriber(context.Background())

	// Lift expired mutes and temp bans every 15 minutes
	services.StartModerationCleanup(15 * time.Minute)
	log.Println("✅ Moderation cleanup service started (lifts expired mutes and temp bans)")

	// Setup router
	r := chi.NewRouter()

	// Custom CORS: set headers and respond to OPTIONS with 200 so preflight never gets 403
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: security headers, host check, per-IP + login rate limiting.
	// Non-production: Redis-based rate limit only.
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, per-IP + login rate limiting)")
	} else {
		r.Use(middleware.RateLimitMiddleware)
	}

	// Tighter limits for the read-heavy feed endpoints
	r.Use(middleware.FeedRateLimit)

	// Health check (no rate limit)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r, cfg)

	log.Printf("🚀 Server starting on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Server failed:", err)
	}
}

// seedAdmin creates the bootstrap admin account if it does not exist yet.
func seedAdmin(ctx context.Context, username, password string) error {
	if err := utils.ValidateUsername(username); err != nil {
		return err
	}
	username = utils.NormalizeUsername(username)

	err := database.DB.Collection("admins").FindOne(ctx, bson.M{"username": username}).Err()
	if err == nil {
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = database.DB.Collection("admins").InsertOne(ctx, models.Admin{
		Username:  username,
		Password:  hashed,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	log.Printf("✅ Seeded admin account %q", username)
	return nil
}

// maskMongoURI hides the password portion of a connection string for logs.
func maskMongoURI(uri string) string {
	at := strings.Index(uri, "@")
	if at == -1 {
		return uri
	}
	head := uri[:at]
	colon := strings.LastIndex(head, ":")
	if colon == -1 || !strings.Contains(head, "//") {
		return uri
	}
	return head[:colon+1] + "***" + uri[at:]
}
