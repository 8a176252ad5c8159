package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/manoj0727/Nexify-server/internal/config"
	"github.com/manoj0727/Nexify-server/internal/handlers"
	"github.com/manoj0727/Nexify-server/internal/middleware"
	"github.com/manoj0727/Nexify-server/internal/models"
)

func SetupRoutes(r *chi.Mux, cfg *config.Config) {
	// Public auth routes
	r.Post("/api/auth/signup", handlers.Signup)
	r.Post("/api/auth/signin", handlers.Signin)
	r.Get("/api/auth/verify-email", handlers.VerifyEmail)
	r.Post("/api/auth/resend-verification", handlers.ResendVerification)
	r.Post("/api/auth/refresh", handlers.RefreshToken)
	r.Post("/api/auth/logout", handlers.Logout)

	// Suspicious-login email links. These are followed from the email
	// client, so they must work without an access token.
	r.Get("/api/auth/verify-login", handlers.VerifyLogin)
	r.Get("/api/auth/block-login", handlers.BlockLogin)

	// Admin signin (admin accounts are created directly in the database)
	r.Post("/api/admin/signin", handlers.AdminSignin)

	// Public community browsing
	r.Get("/api/communities", handlers.ListCommunities)
	r.Get("/api/communities/{communityID}", handlers.GetCommunity)

	// WebSocket feed gateway (token auth happens in the handler because
	// browser WebSocket clients cannot set headers)
	r.Get("/ws/feed", handlers.FeedWebSocket)

	// Authenticated user routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.JWTSecret))

		r.Get("/api/users/me", handlers.GetMe)
		r.Patch("/api/users/me", handlers.UpdateProfile)
		r.Get("/api/users/me/saved", handlers.GetSavedPosts)
		r.Get("/api/users/{userID}", handlers.GetProfile)
		r.Post("/api/users/{userID}/follow", handlers.FollowUser)
		r.Delete("/api/users/{userID}/follow", handlers.UnfollowUser)

		r.Post("/api/communities/{communityID}/join", handlers.JoinCommunity)
		r.Post("/api/communities/{communityID}/leave", handlers.LeaveCommunity)
		r.Get("/api/communities/{communityID}/members", handlers.GetCommunityMembers)
		r.Get("/api/communities/{communityID}/moderators", handlers.GetCommunityModerators)

		r.Post("/api/communities/{communityID}/posts", handlers.CreatePost)
		r.Get("/api/communities/{communityID}/posts", handlers.GetCommunityFeed)
		r.Post("/api/posts/{postID}/like", handlers.LikePost)
		r.Post("/api/posts/{postID}/save", handlers.SavePost)
		r.Delete("/api/posts/{postID}", handlers.DeletePost)

		r.Get("/api/communities/{communityID}/announcements", handlers.ListAnnouncements)
		r.Post("/api/announcements/{announcementID}/read", handlers.MarkAnnouncementRead)

		r.Post("/api/upload", handlers.UploadFile)
	})

	// Moderator routes. Per-community authorization happens in the
	// handlers, which check the community's moderator list.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.JWTSecret))
		r.Use(middleware.RequireRole(models.RoleModerator, models.RoleAdmin))

		r.Post("/api/communities/{communityID}/posts/{postID}/pin", handlers.PinPost)
		r.Post("/api/communities/{communityID}/posts/{postID}/lock", handlers.LockPost)
		r.Patch("/api/communities/{communityID}/posts/{postID}/content", handlers.EditPostContent)
		r.Post("/api/communities/{communityID}/posts/{postID}/review", handlers.ReviewPost)
		r.Get("/api/communities/{communityID}/moderation-queue", handlers.GetModerationQueue)
		r.Get("/api/communities/{communityID}/actions", handlers.GetActionHistory)

		r.Post("/api/communities/{communityID}/users/{userID}/warn", handlers.WarnUser)
		r.Post("/api/communities/{communityID}/users/{userID}/mute", handlers.MuteUser)
		r.Delete("/api/communities/{communityID}/users/{userID}/mute", handlers.UnmuteUser)
		r.Post("/api/communities/{communityID}/users/{userID}/ban", handlers.TempBanUser)
		r.Delete("/api/communities/{communityID}/users/{userID}/ban", handlers.UnbanUser)

		r.Get("/api/communities/{communityID}/automod", handlers.ListAutoModRules)
		r.Post("/api/communities/{communityID}/automod", handlers.CreateAutoModRule)
		r.Put("/api/communities/{communityID}/automod/{ruleID}", handlers.UpdateAutoModRule)
		r.Delete("/api/communities/{communityID}/automod/{ruleID}", handlers.DeleteAutoModRule)

		r.Post("/api/communities/{communityID}/announcements", handlers.CreateAnnouncement)
		r.Delete("/api/communities/{communityID}/announcements/{announcementID}", handlers.DeactivateAnnouncement)
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.JWTSecret))
		r.Use(middleware.RequireAdmin())

		r.Get("/api/admin/logs", handlers.GetLogs)
		r.Delete("/api/admin/logs", handlers.DeleteLogs)
		r.Get("/api/admin/preferences", handlers.GetPreferences)
		r.Put("/api/admin/preferences", handlers.UpdatePreferences)

		r.Post("/api/admin/communities", handlers.AdminCreateCommunity)
		r.Put("/api/admin/communities/{communityID}", handlers.AdminUpdateCommunity)
		r.Delete("/api/admin/communities/{communityID}", handlers.AdminDeleteCommunity)

		r.Post("/api/admin/moderators", handlers.AdminCreateModerator)
		r.Delete("/api/admin/moderators/{userID}", handlers.AdminDeleteModerator)
		r.Post("/api/admin/communities/{communityID}/moderators/{userID}", handlers.AdminAddCommunityModerator)
		r.Delete("/api/admin/communities/{communityID}/moderators/{userID}", handlers.AdminRemoveCommunityModerator)

		r.Get("/api/admin/users", handlers.AdminListUsers)
		r.Put("/api/admin/users/{userID}/verified", handlers.AdminSetUserVerified)

		r.Get("/api/admin/blocked-ips", handlers.GetBlockedIPs)
		r.Put("/api/admin/unblock-ip", handlers.AdminUnblockIP)
	})
}
