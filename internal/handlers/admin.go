package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/manoj0727/Nexify-server/internal/database"
	"github.com/manoj0727/Nexify-server/internal/middleware"
	"github.com/manoj0727/Nexify-server/internal/models"
	"github.com/manoj0727/Nexify-server/internal/services"
	"github.com/manoj0727/Nexify-server/pkg/utils"
)

type AdminSigninRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AdminSignin authenticates against the admins collection. Admin accounts
// are created directly in the database, never via signup.
func AdminSignin(w http.ResponseWriter, r *http.Request) {
	var req AdminSigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Username and password are required")
		return
	}

	username := utils.NormalizeUsername(req.Username)

	var admin models.Admin
	err := database.DB.Collection("admins").FindOne(r.Context(), bson.M{"username": username}).Decode(&admin)
	if errors.Is(err, mongo.ErrNoDocuments) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	valid, err := utils.VerifyPassword(req.Password, admin.Password)
	if err != nil || !valid {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := services.NewAccessToken(admin.ID.Hex(), models.RoleAdmin, cfg.JWTSecret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create access token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Admin signed in successfully",
		"admin": map[string]interface{}{
			"id":         admin.ID.Hex(),
			"username":   admin.Username,
			"created_at": admin.CreatedAt,
		},
		"accessToken": token,
	})
}

// GetLogs returns paginated audit logs with sign-in contexts decrypted.
func GetLogs(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	logs, total, err := services.ListLogs(r.Context(), page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"logs":  logs,
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// DeleteLogs purges the audit log.
func DeleteLogs(w http.ResponseWriter, r *http.Request) {
	deleted, err := services.DeleteAllLogs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete logs")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Logs cleared",
		Data:    map[string]int64{"deleted": deleted},
	})
}

// GetPreferences returns the service-configuration singleton.
func GetPreferences(w http.ResponseWriter, r *http.Request) {
	var config models.ServiceConfig
	err := database.DB.Collection("configs").FindOne(r.Context(), bson.M{}).Decode(&config)
	if errors.Is(err, mongo.ErrNoDocuments) {
		config = models.ServiceConfig{
			CategoryFilterProvider:   cfg.CategoryFilterProvider,
			CategoryFilterTimeoutSec: int(cfg.CategoryFilterTimeout.Seconds()),
		}
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: config})
}

// UpdatePreferences upserts the service configuration. The classifier
// provider is re-selected on the next process start.
func UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CategoryFilterProvider   string `json:"category_filter_provider" validate:"required,oneof=TextRazor InterfaceAPI ClassifierAPI disabled"`
		CategoryFilterTimeoutSec int    `json:"category_filter_timeout_sec" validate:"omitempty,min=1,max=120"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "A valid category filter provider is required")
		return
	}
	if req.CategoryFilterTimeoutSec == 0 {
		req.CategoryFilterTimeoutSec = 10
	}

	opts := options.Update().SetUpsert(true)
	_, err := database.DB.Collection("configs").UpdateOne(r.Context(), bson.M{}, bson.M{
		"$set": bson.M{
			"category_filter_provider":    req.CategoryFilterProvider,
			"category_filter_timeout_sec": req.CategoryFilterTimeoutSec,
			"updated_at":                  time.Now(),
		},
	}, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update preferences")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Preferences updated"})
}

type CommunityRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=60"`
	Description string `json:"description" validate:"max=1000"`
	Banner      string `json:"banner,omitempty"`
}

// AdminCreateCommunity creates a community.
func AdminCreateCommunity(w http.ResponseWriter, r *http.Request) {
	var req CommunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "A community name is required")
		return
	}

	now := time.Now()
	community := models.Community{
		CreatedAt:   now,
		UpdatedAt:   now,
		Name:        req.Name,
		Description: req.Description,
		Banner:      req.Banner,
		ModerationSettings: models.ModerationSettings{
			AutoModeration: true,
			AllowLinks:     true,
		},
	}

	res, err := database.DB.Collection("communities").InsertOne(r.Context(), community)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			writeError(w, http.StatusConflict, "A community with this name already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create community")
		return
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		community.ID = oid
	}

	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Message: "Community created", Data: community})
}

// AdminUpdateCommunity updates a community's metadata.
func AdminUpdateCommunity(w http.ResponseWriter, r *http.Request) {
	communityID, ok := objectIDParam(r, "communityID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid community id")
		return
	}

	var req CommunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "A community name is required")
		return
	}

	res, err := database.DB.Collection("communities").UpdateOne(r.Context(),
		bson.M{"_id": communityID},
		bson.M{"$set": bson.M{
			"name":        req.Name,
			"description": req.Description,
			"banner":      req.Banner,
			"updated_at":  time.Now(),
		}},
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update community")
		return
	}
	if res.MatchedCount == 0 {
		writeError(w, http.StatusNotFound, "Community not found")
		return
	}
	_ = services.Cache.Delete(services.CommunityCacheKey(communityID.Hex()))

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Community updated"})
}

// AdminDeleteCommunity removes a community and its posts.
func AdminDeleteCommunity(w http.ResponseWriter, r *http.Request) {
	communityID, ok := objectIDParam(r, "communityID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid community id")
		return
	}

	res, err := database.DB.Collection("communities").DeleteOne(r.Context(), bson.M{"_id": communityID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete community")
		return
	}
	if res.DeletedCount == 0 {
		writeError(w, http.StatusNotFound, "Community not found")
		return
	}

	_, _ = database.DB.Collection("posts").DeleteMany(r.Context(), bson.M{"community": communityID})
	_ = services.Cache.Delete(services.CommunityCacheKey(communityID.Hex()))
	services.InvalidateCommunityFeed(communityID.Hex())

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Community deleted"})
}

type CreateModeratorRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=60"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// AdminCreateModerator creates a moderator account directly, skipping the
// email verification flow.
func AdminCreateModerator(w http.ResponseWriter, r *http.Request) {
	var req CreateModeratorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Name, valid email and a password of at least 8 characters are required")
		return
	}

	email := services.NormalizeEmail(req.Email)
	existing, err := services.FindUserByEmail(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "User with this email already exists")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	moderator := &models.User{
		Name:            req.Name,
		Email:           email,
		Password:        hashedPassword,
		Role:            models.RoleModerator,
		IsEmailVerified: true,
	}
	if err := services.InsertUser(r.Context(), moderator); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create moderator")
		return
	}

	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Message: "Moderator created", Data: moderator})
}

// AdminDeleteModerator removes a moderator account and unlinks it from
// the communities it moderated.
func AdminDeleteModerator(w http.ResponseWriter, r *http.Request) {
	moderatorID, ok := objectIDParam(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	res, err := database.DB.Collection("users").DeleteOne(r.Context(), bson.M{"_id": moderatorID, "role": models.RoleModerator})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete moderator")
		return
	}
	if res.DeletedCount == 0 {
		writeError(w, http.StatusNotFound, "Moderator not found")
		return
	}

	_, _ = database.DB.Collection("communities").UpdateMany(r.Context(),
		bson.M{"moderators": moderatorID},
		bson.M{"$pull": bson.M{"moderators": moderatorID}},
	)

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Moderator deleted"})
}

// AdminAddCommunityModerator assigns a moderator to a community.
func AdminAddCommunityModerator(w http.ResponseWriter, r *http.Request) {
	communityID, ok := objectIDParam(r, "communityID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid community id")
		return
	}
	moderatorID, ok := objectIDParam(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	moderator, err := services.FindUserByID(r.Context(), moderatorID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if moderator == nil || moderator.Role != models.RoleModerator {
		writeError(w, http.StatusBadRequest, "Target user is not a moderator account")
		return
	}

	res, err := database.DB.Collection("communities").UpdateOne(r.Context(),
		bson.M{"_id": communityID},
		bson.M{"$addToSet": bson.M{"moderators": moderatorID, "members": moderatorID}},
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to assign moderator")
		return
	}
	if res.MatchedCount == 0 {
		writeError(w, http.StatusNotFound, "Community not found")
		return
	}
	_ = services.Cache.Delete(services.CommunityCacheKey(communityID.Hex()))

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Moderator assigned"})
}

// AdminRemoveCommunityModerator unassigns a moderator from a community.
func AdminRemoveCommunityModerator(w http.ResponseWriter, r *http.Request) {
	communityID, ok := objectIDParam(r, "communityID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid community id")
		return
	}
	moderatorID, ok := objectIDParam(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	res, err := database.DB.Collection("communities").UpdateOne(r.Context(),
		bson.M{"_id": communityID},
		bson.M{"$pull": bson.M{"moderators": moderatorID}},
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to remove moderator")
		return
	}
	if res.MatchedCount == 0 {
		writeError(w, http.StatusNotFound, "Community not found")
		return
	}
	_ = services.Cache.Delete(services.CommunityCacheKey(communityID.Hex()))

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Moderator removed"})
}

// AdminListUsers returns a page of user accounts.
func AdminListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)

	filter := bson.M{}
	if role := r.URL.Query().Get("role"); role != "" {
		filter["role"] = role
	}

	total, err := database.DB.Collection("users").CountDocuments(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := database.DB.Collection("users").Find(r.Context(), filter, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	var users []models.User
	if err := cursor.All(r.Context(), &users); err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"users": users,
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// AdminSetUserVerified grants or revokes the platform verification badge.
func AdminSetUserVerified(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())

	targetID, ok := objectIDParam(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req struct {
		Verified bool `json:"verified"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	update := bson.M{"$set": bson.M{"is_verified": true, "verified_by": adminID}}
	action := models.ActionVerifyUser
	message := "User verified"
	if !req.Verified {
		update = bson.M{"$set": bson.M{"is_verified": false}, "$unset": bson.M{"verified_by": ""}}
		action = models.ActionUnverify
		message = "User verification removed"
	}

	res, err := database.DB.Collection("users").UpdateOne(r.Context(), bson.M{"_id": targetID}, update)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}
	if res.MatchedCount == 0 {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	recordAction(r, models.ModeratorAction{
		Moderator:  adminID,
		Action:     action,
		TargetType: "user",
		TargetID:   targetID,
	})

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: message})
}

// GetBlockedIPs lists the IPs currently blocked by the rate limiter.
func GetBlockedIPs(w http.ResponseWriter, r *http.Request) {
	ips, err := middleware.ListBlockedIPs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list blocked IPs")
		return
	}
	if ips == nil {
		ips = []string{}
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string][]string{"blocked_ips": ips}})
}

// AdminUnblockIP lifts a rate-limit block for a single IP.
func AdminUnblockIP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IP string `json:"ip" validate:"required,ip"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "A valid IP address is required")
		return
	}

	if err := middleware.UnblockIP(req.IP); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to unblock IP")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "IP unblocked"})
}
