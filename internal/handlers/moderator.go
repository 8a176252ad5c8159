package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/manoj0727/Nexify-server/internal/database"
	"github.com/manoj0727/Nexify-server/internal/middleware"
	"github.com/manoj0727/Nexify-server/internal/models"
	"github.com/manoj0727/Nexify-server/internal/services"
)

// requireModerator resolves the caller and checks they moderate the
// community. Writes the error response itself on failure.
func requireModerator(w http.ResponseWriter, r *http.Request, communityID primitive.ObjectID) (primitive.ObjectID, *models.Community, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return primitive.NilObjectID, nil, false
	}

	community, err := findCommunity(r.Context(), communityID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return primitive.NilObjectID, nil, false
	}
	if community == nil {
		writeError(w, http.StatusNotFound, "Community not found")
		return primitive.NilObjectID, nil, false
	}
	if !community.HasModerator(userID) && middleware.RoleFromContext(r.Context()) != models.RoleAdmin {
		writeError(w, http.StatusForbidden, "Moderator access required")
		return primitive.NilObjectID, nil, false
	}
	return userID, community, true
}

// recordAction persists the audit entry and bumps the community counter.
func recordAction(r *http.Request, action models.ModeratorAction) {
	if err := services.RecordModeratorAction(r.Context(), action); err != nil {
		log.Printf("⚠️ Failed to record moderator action: %v", err)
		return
	}
	if action.Community != nil {
		_, _ = database.DB.Collection("communities").UpdateOne(r.Context(),
			bson.M{"_id": *action.Community},
			bson.M{"$inc": bson.M{"analytics.moderator_actions": 1}},
		)
	}
}

// modPostTarget loads a post and verifies the caller moderates its
// community.
func modPostTarget(w http.ResponseWriter, r *http.Request) (moderatorID primitive.ObjectID, post *models.Post, ok bool) {
	postID, valid := objectIDParam(r, "postID")
	if !valid {
		writeError(w, http.StatusBadRequest, "Invalid post id")
		return primitive.NilObjectID, nil, false
	}

	post, err := findPost(r, postID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return primitive.NilObjectID, nil, false
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "Post not found")
		return primitive.NilObjectID, nil, false
	}

	moderatorID, _, ok = requireModerator(w, r, post.Community)
	if !ok {
		return primitive.NilObjectID, nil, false
	}
	return moderatorID, post, true
}

// PinPost pins or unpins a post in its community feed.
func PinPost(w http.ResponseWriter, r *http.Request) {
	moderatorID, post, ok := modPostTarget(w, r)
	if !ok {
		return
	}

	pin := !post.IsPinned
	now := time.Now()

	update := bson.M{"$set": bson.M{"is_pinned": pin, "pinned_by": moderatorID, "pinned_at": now}}
	action := models.ActionPinPost
	message := "Post pinned"
	if !pin {
		update = bson.M{"$set": bson.M{"is_pinned": false}, "$unset": bson.M{"pinned_by": "", "pinned_at": ""}}
		action = models.ActionUnpinPost
		message = "Post unpinned"
	}

	if _, err := database.DB.Collection("posts").UpdateOne(r.Context(), bson.M{"_id": post.ID}, update); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update post")
		return
	}

	recordAction(r, models.ModeratorAction{
		Moderator:  moderatorID,
		Action:     action,
		TargetType: "post",
		TargetID:   post.ID,
		Community:  &post.Community,
	})
	services.InvalidateCommunityFeed(post.Community.Hex())
	if pin {
		_ = services.PublishFeedEvent(r.Context(), services.FeedEvent{
			Type:        services.FeedEventPostPinned,
			CommunityID: post.Community.Hex(),
			PostID:      post.ID.Hex(),
		})
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: message})
}

// LockPost locks or unlocks a post against further interaction.
func LockPost(w http.ResponseWriter, r *http.Request) {
	moderatorID, post, ok := modPostTarget(w, r)
	if !ok {
		return
	}

	lock := !post.IsLocked
	now := time.Now()

	update := bson.M{"$set": bson.M{"is_locked": lock, "locked_by": moderatorID, "locked_at": now}}
	action := models.ActionLockPost
	message := "Post locked"
	if !lock {
		update = bson.M{"$set": bson.M{"is_locked": false}, "$unset": bson.M{"locked_by": "", "locked_at": ""}}
		action = models.ActionUnlockPost
		message = "Post unlocked"
	}

	if _, err := database.DB.Collection("posts").UpdateOne(r.Context(), bson.M{"_id": post.ID}, update); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update post")
		return
	}

	recordAction(r, models.ModeratorAction{
		Moderator:  moderatorID,
		Action:     action,
		TargetType: "post",
		TargetID:   post.ID,
		Community:  &post.Community,
	})
	if lock {
		_ = services.PublishFeedEvent(r.Context(), services.FeedEvent{
			Type:        services.FeedEventPostLocked,
			CommunityID: post.Community.Hex(),
			PostID:      post.ID.Hex(),
		})
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: message})
}

// EditPostContent replaces a post's content, preserving the original for
// the audit trail.
func EditPostContent(w http.ResponseWriter, r *http.Request) {
	moderatorID, post, ok := modPostTarget(w, r)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" validate:"required,min=1,max=10000"`
		Reason  string `json:"reason,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Replacement content is required")
		return
	}

	now := time.Now()
	original := post.OriginalContent
	if original == "" {
		original = post.Content
	}

	_, err := database.DB.Collection("posts").UpdateOne(r.Context(), bson.M{"_id": post.ID}, bson.M{
		"$set": bson.M{
			"content":          req.Content,
			"original_content": original,
			"edited_by":        moderatorID,
			"edited_at":        now,
			"updated_at":       now,
		},
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update post")
		return
	}

	recordAction(r, models.ModeratorAction{
		Moderator:  moderatorID,
		Action:     models.ActionEditContent,
		TargetType: "post",
		TargetID:   post.ID,
		Community:  &post.Community,
		Reason:     req.Reason,
		Details: models.ActionDetails{
			OriginalValue: post.Content,
			NewValue:      req.Content,
		},
	})
	services.InvalidateCommunityFeed(post.Community.Hex())

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Post content updated"})
}

// ReviewPost approves or rejects a post sitting in the moderation queue.
func ReviewPost(w http.ResponseWriter, r *http.Request) {
	moderatorID, post, ok := modPostTarget(w, r)
	if !ok {
		return
	}

	var req struct {
		Approve bool   `json:"approve"`
		Notes   string `json:"notes,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if post.ModerationStatus != models.ModerationPending {
		writeError(w, http.StatusBadRequest, "Post is not pending review")
		return
	}

	status := models.ModerationRejected
	action := models.ActionRejectPost
	message := "Post rejected"
	if req.Approve {
		status = models.ModerationApproved
		action = models.ActionApprovePost
		message = "Post approved"
	}

	_, err := database.DB.Collection("posts").UpdateOne(r.Context(), bson.M{"_id": post.ID}, bson.M{
		"$set": bson.M{"moderation_status": status, "moderator_notes": req.Notes, "updated_at": time.Now()},
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update post")
		return
	}

	recordAction(r, models.ModeratorAction{
		Moderator:  moderatorID,
		Action:     action,
		TargetType: "post",
		TargetID:   post.ID,
		Community:  &post.Community,
		Reason:     req.Notes,
	})
	services.InvalidateCommunityFeed(post.Community.Hex())

	if req.Approve {
		_ = services.PublishFeedEvent(r.Context(), services.FeedEvent{
			Type:        services.FeedEventNewPost,
			CommunityID: post.Community.Hex(),
			PostID:      post.ID.Hex(),
		})
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: message})
}

// GetModerationQueue lists a community's posts awaiting review, oldest
// first.
func GetModerationQueue(w http.ResponseWriter, r *http.Request) {
	communityID, ok := objectIDParam(r, "communityID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid community id")
		return
	}
	if _, _, ok := requireModerator(w, r, communityID); !ok {
		return
	}

	page, limit := pagination(r)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := database.DB.Collection("posts").Find(r.Context(), bson.M{
		"community":         communityID,
		"moderation_status": models.ModerationPending,
	}, opts)
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

// GetActionHistory returns the paginated moderation audit trail for a
// community.
func GetActionHistory(w http.ResponseWriter, r *http.Request) {
	communityID, ok := objectIDParam(r, "communityID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid community id")
		return
	}
	if _, _, ok := requireModerator(w, r, communityID); !ok {
		return
	}

	page, limit := pagination(r)
	actions, total, err := services.ListModeratorActions(r.Context(), communityID, page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"actions": actions,
			"total":   total,
			"page":    page,
			"limit":   limit,
		},
	})
}
