package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/manoj0727/Nexify-server/internal/database"
	"github.com/manoj0727/Nexify-server/internal/middleware"
	"github.com/manoj0727/Nexify-server/internal/models"
)

type AnnouncementRequest struct {
	Title          string     `json:"title" validate:"required,min=2,max=150"`
	Content        string     `json:"content" validate:"required,min=1,max=5000"`
	Priority       string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	TargetAudience string     `json:"target_audience" validate:"omitempty,oneof=all members moderators"`
	IsPinned       bool       `json:"is_pinned,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// CreateAnnouncement posts an announcement to a community.
func CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	communityID, ok := objectIDParam(r, "communityID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid community id")
		return
	}
	moderatorID, _, ok := requireModerator(w, r, communityID)
	if !ok {
		return
	}

	var req AnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "A title and content are required")
		return
	}
	if req.Priority == "" {
		req.Priority = "medium"
	}
	if req.TargetAudience == "" {
		req.TargetAudience = models.AudienceAll
	}

	now := time.Now()
	announcement := models.Announcement{
		CreatedAt:      now,
		UpdatedAt:      now,
		Title:          req.Title,
		Content:        req.Content,
		Author:         moderatorID,
		Community:      communityID,
		Priority:       req.Priority,
		IsPinned:       req.IsPinned,
		ExpiresAt:      req.ExpiresAt,
		TargetAudience: req.TargetAudience,
		IsActive:       true,
	}

	res, err := database.DB.Collection("announcements").InsertOne(r.Context(), announcement)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create announcement")
		return
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		announcement.ID = oid
	}

	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Message: "Announcement posted", Data: announcement})
}

// ListAnnouncements returns a community's active announcements visible to
// the caller, pinned and most urgent first.
func ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	communityID, ok := objectIDParam(r, "communityID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid community id")
		return
	}
	userID, authed := middleware.UserIDFromContext(r.Context())
	if !authed {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	community, err := findCommunity(r.Context(), communityID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if community == nil {
		writeError(w, http.StatusNotFound, "Community not found")
		return
	}

	audiences := []string{models.AudienceAll}
	if community.HasMember(userID) {
		audiences = append(audiences, models.AudienceMembers)
	}
	if community.HasModerator(userID) {
		audiences = append(audiences, models.AudienceMembers, models.AudienceModerators)
	}

	cursor, err := database.DB.Collection("announcements").Find(r.Context(), bson.M{
		"community":       communityID,
		"is_active":       true,
		"target_audience": bson.M{"$in": audiences},
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	var all []models.Announcement
	if err := cursor.All(r.Context(), &all); err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Expiry is checked in code so stale documents never leak.
	now := time.Now()
	visible := make([]models.Announcement, 0, len(all))
	for _, a := range all {
		if a.Visible(now) {
			visible = append(visible, a)
		}
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: visible})
}

// MarkAnnouncementRead records a read receipt for the caller.
func MarkAnnouncementRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	announcementID, ok := objectIDParam(r, "announcementID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid announcement id")
		return
	}

	res, err := database.DB.Collection("announcements").UpdateOne(r.Context(),
		bson.M{"_id": announcementID, "read_by.user": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"read_by": models.ReadReceipt{User: userID, ReadAt: time.Now()}}},
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to mark announcement read")
		return
	}
	if res.MatchedCount == 0 {
		// Already read or missing; both are fine to acknowledge.
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Already marked read"})
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Marked read"})
}

// DeactivateAnnouncement retires an announcement early.
func DeactivateAnnouncement(w http.ResponseWriter, r *http.Request) {
	communityID, ok := objectIDParam(r, "communityID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid community id")
		return
	}
	announcementID, ok := objectIDParam(r, "announcementID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid announcement id")
		return
	}
	if _, _, ok := requireModerator(w, r, communityID); !ok {
		return
	}

	res, err := database.DB.Collection("announcements").UpdateOne(r.Context(),
		bson.M{"_id": announcementID, "community": communityID},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}},
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to deactivate announcement")
		return
	}
	if res.MatchedCount == 0 {
		writeError(w, http.StatusNotFound, "Announcement not found")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Announcement deactivated"})
}
