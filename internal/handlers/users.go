package handlers

import (
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/manoj0727/Nexify-server/internal/database"
	"github.com/manoj0727/Nexify-server/internal/middleware"
	"github.com/manoj0727/Nexify-server/internal/models"
	"github.com/manoj0727/Nexify-server/internal/services"
)

// GetMe returns the authenticated user's full record.
func GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := services.FindUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: user})
}

// publicProfile strips private fields from a user record.
type publicProfile struct {
	ID         primitive.ObjectID `json:"id"`
	Name       string             `json:"name"`
	Avatar     string             `json:"avatar,omitempty"`
	Location   string             `json:"location,omitempty"`
	Bio        string             `json:"bio,omitempty"`
	Interests  string             `json:"interests,omitempty"`
	Role       string             `json:"role"`
	IsVerified bool               `json:"is_verified"`
	Followers  int                `json:"followers"`
	Following  int                `json:"following"`
}

// GetProfile returns a user's public profile.
func GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	user, err := services.FindUserByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: publicProfile{
		ID:         user.ID,
		Name:       user.Name,
		Avatar:     user.Avatar,
		Location:   user.Location,
		Bio:        user.Bio,
		Interests:  user.Interests,
		Role:       user.Role,
		IsVerified: user.IsVerified,
		Followers:  len(user.Followers),
		Following:  len(user.Following),
	}})
}

// UpdateProfile applies a partial update to the caller's profile fields.
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req struct {
		Name      *string `json:"name,omitempty"`
		Avatar    *string `json:"avatar,omitempty"`
		Location  *string `json:"location,omitempty"`
		Bio       *string `json:"bio,omitempty"`
		Interests *string `json:"interests,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fields := bson.M{}
	if req.Name != nil && *req.Name != "" {
		fields["name"] = *req.Name
	}
	if req.Avatar != nil {
		fields["avatar"] = *req.Avatar
	}
	if req.Location != nil {
		fields["location"] = *req.Location
	}
	if req.Bio != nil {
		fields["bio"] = *req.Bio
	}
	if req.Interests != nil {
		fields["interests"] = *req.Interests
	}
	if len(fields) == 0 {
		writeError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	if err := services.UpdateUserFields(r.Context(), userID, fields); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Profile updated"})
}

// FollowUser adds the target to the caller's following list and the
// caller to the target's followers.
func FollowUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	targetID, ok := objectIDParam(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	if targetID == userID {
		writeError(w, http.StatusBadRequest, "You cannot follow yourself")
		return
	}

	target, err := services.FindUserByID(r.Context(), targetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	users := database.DB.Collection("users")
	if _, err := users.UpdateOne(r.Context(), bson.M{"_id": userID}, bson.M{"$addToSet": bson.M{"following": targetID}}); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to follow user")
		return
	}
	if _, err := users.UpdateOne(r.Context(), bson.M{"_id": targetID}, bson.M{"$addToSet": bson.M{"followers": userID}}); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to follow user")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Now following " + target.Name})
}

// UnfollowUser reverses FollowUser.
func UnfollowUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	targetID, ok := objectIDParam(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	users := database.DB.Collection("users")
	if _, err := users.UpdateOne(r.Context(), bson.M{"_id": userID}, bson.M{"$pull": bson.M{"following": targetID}}); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to unfollow user")
		return
	}
	if _, err := users.UpdateOne(r.Context(), bson.M{"_id": targetID}, bson.M{"$pull": bson.M{"followers": userID}}); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to unfollow user")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Unfollowed"})
}

// GetSavedPosts lists the caller's saved posts, newest saved last.
func GetSavedPosts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := services.FindUserByID(r.Context(), userID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if len(user.SavedPosts) == 0 {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: []models.Post{}})
		return
	}

	cursor, err := database.DB.Collection("posts").Find(r.Context(), bson.M{
		"_id":               bson.M{"$in": user.SavedPosts},
		"moderation_status": models.ModerationApproved,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	var posts []models.Post
	if err := cursor.All(r.Context(), &posts); err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: posts})
}
