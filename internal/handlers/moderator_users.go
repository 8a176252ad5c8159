package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/manoj0727/Nexify-server/internal/database"
	"github.com/manoj0727/Nexify-server/internal/models"
	"github.com/manoj0727/Nexify-server/internal/services"
)

// modUserTarget resolves the target user and checks the caller moderates
// the community named in the URL.
func modUserTarget(w http.ResponseWriter, r *http.Request) (moderatorID primitive.ObjectID, target *models.User, communityID primitive.ObjectID, ok bool) {
	communityID, valid := objectIDParam(r, "communityID")
	if !valid {
		writeError(w, http.StatusBadRequest, "Invalid community id")
		return primitive.NilObjectID, nil, primitive.NilObjectID, false
	}
	targetID, valid := objectIDParam(r, "userID")
	if !valid {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return primitive.NilObjectID, nil, primitive.NilObjectID, false
	}

	moderatorID, _, authorized := requireModerator(w, r, communityID)
	if !authorized {
		return primitive.NilObjectID, nil, primitive.NilObjectID, false
	}

	target, err := services.FindUserByID(r.Context(), targetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return primitive.NilObjectID, nil, primitive.NilObjectID, false
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return primitive.NilObjectID, nil, primitive.NilObjectID, false
	}
	return moderatorID, target, communityID, true
}

// WarnUser appends a warning to the target's record.
func WarnUser(w http.ResponseWriter, r *http.Request) {
	moderatorID, target, communityID, ok := modUserTarget(w, r)
	if !ok {
		return
	}

	var req struct {
		Reason   string `json:"reason" validate:"required,min=3,max=500"`
		Severity string `json:"severity" validate:"omitempty,oneof=low medium high"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "A warning reason is required")
		return
	}
	if req.Severity == "" {
		req.Severity = "low"
	}

	warning := models.Warning{
		Reason:   req.Reason,
		IssuedBy: moderatorID,
		IssuedAt: time.Now(),
		Severity: req.Severity,
	}
	_, err := database.DB.Collection("users").UpdateOne(r.Context(),
		bson.M{"_id": target.ID},
		bson.M{"$push": bson.M{"warnings": warning}},
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to warn user")
		return
	}

	recordAction(r, models.ModeratorAction{
		Moderator:  moderatorID,
		Action:     models.ActionWarnUser,
		TargetType: "user",
		TargetID:   target.ID,
		Community:  &communityID,
		Reason:     req.Reason,
	})

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Warning issued"})
}

// MuteUser mutes the target for a duration in minutes.
func MuteUser(w http.ResponseWriter, r *http.Request) {
	moderatorID, target, communityID, ok := modUserTarget(w, r)
	if !ok {
		return
	}

	var req struct {
		DurationMinutes int    `json:"duration_minutes" validate:"required,min=1,max=40320"`
		Reason          string `json:"reason,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "A mute duration in minutes is required")
		return
	}

	now := time.Now()
	expires := now.Add(time.Duration(req.DurationMinutes) * time.Minute)

	_, err := database.DB.Collection("users").UpdateOne(r.Context(),
		bson.M{"_id": target.ID},
		bson.M{"$set": bson.M{
			"is_muted":        true,
			"muted_by":        moderatorID,
			"muted_at":        now,
			"mute_expires_at": expires,
		}},
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to mute user")
		return
	}

	recordAction(r, models.ModeratorAction{
		Moderator:  moderatorID,
		Action:     models.ActionMuteUser,
		TargetType: "user",
		TargetID:   target.ID,
		Community:  &communityID,
		Reason:     req.Reason,
		Details:    models.ActionDetails{Duration: req.DurationMinutes},
	})

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "User muted"})
}

// UnmuteUser lifts a mute early.
func UnmuteUser(w http.ResponseWriter, r *http.Request) {
	moderatorID, target, communityID, ok := modUserTarget(w, r)
	if !ok {
		return
	}

	_, err := database.DB.Collection("users").UpdateOne(r.Context(),
		bson.M{"_id": target.ID},
		bson.M{
			"$set":   bson.M{"is_muted": false},
			"$unset": bson.M{"muted_by": "", "muted_at": "", "mute_expires_at": ""},
		},
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to unmute user")
		return
	}

	recordAction(r, models.ModeratorAction{
		Moderator:  moderatorID,
		Action:     models.ActionUnmuteUser,
		TargetType: "user",
		TargetID:   target.ID,
		Community:  &communityID,
	})

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "User unmuted"})
}

// TempBanUser bans the target from posting for a duration in hours and
// adds them to the community's banned list.
func TempBanUser(w http.ResponseWriter, r *http.Request) {
	moderatorID, target, communityID, ok := modUserTarget(w, r)
	if !ok {
		return
	}

	var req struct {
		DurationHours int    `json:"duration_hours" validate:"required,min=1,max=720"`
		Reason        string `json:"reason" validate:"required,min=3,max=500"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "A ban duration in hours and a reason are required")
		return
	}

	now := time.Now()
	expires := now.Add(time.Duration(req.DurationHours) * time.Hour)

	_, err := database.DB.Collection("users").UpdateOne(r.Context(),
		bson.M{"_id": target.ID},
		bson.M{"$set": bson.M{
			"is_temp_banned":      true,
			"temp_banned_by":      moderatorID,
			"temp_ban_expires_at": expires,
			"temp_ban_reason":     req.Reason,
		}},
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to ban user")
		return
	}

	_, _ = database.DB.Collection("communities").UpdateOne(r.Context(),
		bson.M{"_id": communityID},
		bson.M{"$addToSet": bson.M{"banned_users": target.ID}, "$pull": bson.M{"members": target.ID}},
	)
	_ = services.Cache.Delete(services.CommunityCacheKey(communityID.Hex()))

	recordAction(r, models.ModeratorAction{
		Moderator:  moderatorID,
		Action:     models.ActionTempBan,
		TargetType: "user",
		TargetID:   target.ID,
		Community:  &communityID,
		Reason:     req.Reason,
		Details:    models.ActionDetails{Duration: req.DurationHours},
	})

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "User temporarily banned"})
}

// UnbanUser lifts a temp ban and removes the community ban entry.
func UnbanUser(w http.ResponseWriter, r *http.Request) {
	moderatorID, target, communityID, ok := modUserTarget(w, r)
	if !ok {
		return
	}

	_, err := database.DB.Collection("users").UpdateOne(r.Context(),
		bson.M{"_id": target.ID},
		bson.M{
			"$set":   bson.M{"is_temp_banned": false},
			"$unset": bson.M{"temp_banned_by": "", "temp_ban_expires_at": "", "temp_ban_reason": ""},
		},
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to unban user")
		return
	}

	_, _ = database.DB.Collection("communities").UpdateOne(r.Context(),
		bson.M{"_id": communityID},
		bson.M{"$pull": bson.M{"banned_users": target.ID}},
	)
	_ = services.Cache.Delete(services.CommunityCacheKey(communityID.Hex()))

	recordAction(r, models.ModeratorAction{
		Moderator:  moderatorID,
		Action:     models.ActionUnbanUser,
		TargetType: "user",
		TargetID:   target.ID,
		Community:  &communityID,
	})

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "User unbanned"})
}
