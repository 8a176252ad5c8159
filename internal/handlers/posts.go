package handlers

import (
	"encoding/json"
	"errors"
	"log"
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
)

type CreatePostRequest struct {
	Community string `json:"community" validate:"required,hexadecimal,len=24"`
	Content   string `json:"content" validate:"required,min=1,max=10000"`
	FileURL   string `json:"file_url,omitempty"`
	FileType  string `json:"file_type,omitempty"`
}

// findPost returns nil, nil when the post does not exist.
func findPost(r *http.Request, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := database.DB.Collection("posts").FindOne(r.Context(), bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost creates a post in a community the caller belongs to. The
// content runs through the community's automod rules and the category
// classifier before it is stored; depending on the verdict the post lands
// approved, pending or rejected.
func CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "A community id and post content are required")
		return
	}

	communityID, _ := primitive.ObjectIDFromHex(req.Community)

	user, err := services.FindUserByID(r.Context(), userID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	now := time.Now()
	if user.MuteActive(now) {
		writeError(w, http.StatusForbidden, "You are muted and cannot post right now")
		return
	}
	if user.BanActive(now) {
		writeError(w, http.StatusForbidden, "You are temporarily banned from posting")
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
	if community.IsBanned(userID) {
		writeError(w, http.StatusForbidden, "You are banned from this community")
		return
	}
	if !community.HasMember(userID) && !community.HasModerator(userID) {
		writeError(w, http.StatusForbidden, "Join the community to post")
		return
	}

	status := models.ModerationApproved
	if community.ModerationSettings.RequireApproval {
		status = models.ModerationPending
	}

	notes := ""
	if community.ModerationSettings.AutoModeration {
		verdict, err := services.RunAutoMod(r.Context(), communityID, req.Content)
		if err != nil {
			log.Printf("⚠️ AutoMod evaluation failed for community %s: %v", communityID.Hex(), err)
		} else if verdict.Matched {
			switch verdict.Action {
			case models.AutoModRemove:
				status = models.ModerationRejected
				notes = "Removed automatically by community rules"
			case models.AutoModRequireApproval:
				if status == models.ModerationApproved {
					status = models.ModerationPending
				}
				notes = "Held for review by community rules"
			case models.AutoModFlag:
				notes = "Flagged by community rules"
			}
		}
	}

	var categories []string
	if cats, err := classifier.Classify(r.Context(), req.Content); err != nil {
		log.Printf("⚠️ Category classification failed: %v", err)
	} else {
		categories = cats
	}

	post := models.Post{
		CreatedAt:        now,
		UpdatedAt:        now,
		Content:          req.Content,
		FileURL:          req.FileURL,
		FileType:         req.FileType,
		Community:        communityID,
		User:             userID,
		ModerationStatus: status,
		ModeratorNotes:   notes,
		Categories:       categories,
	}

	res, err := database.DB.Collection("posts").InsertOne(r.Context(), post)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create post")
		return
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		post.ID = oid
	}

	_, _ = database.DB.Collection("communities").UpdateOne(r.Context(),
		bson.M{"_id": communityID},
		bson.M{"$inc": bson.M{"analytics.total_posts": 1}},
	)
	services.InvalidateCommunityFeed(communityID.Hex())

	if post.ModerationStatus == models.ModerationApproved {
		if err := services.PublishFeedEvent(r.Context(), services.FeedEvent{
			Type:        services.FeedEventNewPost,
			CommunityID: communityID.Hex(),
			PostID:      post.ID.Hex(),
			AuthorID:    userID.Hex(),
			AuthorName:  user.Name,
		}); err != nil {
			log.Printf("⚠️ Failed to publish feed event: %v", err)
		}
	}

	message := "Post created"
	if post.ModerationStatus == models.ModerationPending {
		message = "Post submitted for review"
	}
	if post.ModerationStatus == models.ModerationRejected {
		message = "Post rejected by community rules"
	}

	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Message: message, Data: post})
}

// GetCommunityFeed returns a page of approved posts, pinned first then
// newest. The first pages are served from cache.
func GetCommunityFeed(w http.ResponseWriter, r *http.Request) {
	communityID, ok := objectIDParam(r, "communityID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid community id")
		return
	}
	page, limit := pagination(r)

	cacheKey := services.FeedCacheKey(communityID.Hex(), page)
	var cached []models.Post
	if limit == 20 {
		if hit, _ := services.Cache.Get(cacheKey, &cached); hit {
			writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: cached})
			return
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "is_pinned", Value: -1}, {Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := database.DB.Collection("posts").Find(r.Context(), bson.M{
		"community":         communityID,
		"moderation_status": models.ModerationApproved,
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

	if limit == 20 && page <= 3 {
		_ = services.Cache.Set(cacheKey, posts, services.FeedCacheTTL)
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: posts})
}

// LikePost toggles the caller's like on a post.
func LikePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	postID, ok := objectIDParam(r, "postID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid post id")
		return
	}

	post, err := findPost(r, postID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if post == nil || post.ModerationStatus != models.ModerationApproved {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}

	update := bson.M{"$addToSet": bson.M{"likes": userID}}
	message := "Post liked"
	if post.HasLike(userID) {
		update = bson.M{"$pull": bson.M{"likes": userID}}
		message = "Like removed"
	}

	if _, err := database.DB.Collection("posts").UpdateOne(r.Context(), bson.M{"_id": postID}, update); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update post")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: message})
}

// SavePost toggles the post in the caller's saved list.
func SavePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	postID, ok := objectIDParam(r, "postID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid post id")
		return
	}

	user, err := services.FindUserByID(r.Context(), userID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	update := bson.M{"$addToSet": bson.M{"saved_posts": postID}}
	message := "Post saved"
	for _, saved := range user.SavedPosts {
		if saved == postID {
			update = bson.M{"$pull": bson.M{"saved_posts": postID}}
			message = "Post unsaved"
			break
		}
	}

	if _, err := database.DB.Collection("users").UpdateOne(r.Context(), bson.M{"_id": userID}, update); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update saved posts")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: message})
}

// DeletePost removes a post. Allowed for the author and for moderators of
// the post's community.
func DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	postID, ok := objectIDParam(r, "postID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid post id")
		return
	}

	post, err := findPost(r, postID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}

	if post.User != userID {
		community, err := findCommunity(r.Context(), post.Community)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if community == nil || !community.HasModerator(userID) {
			writeError(w, http.StatusForbidden, "Only the author or a moderator can delete this post")
			return
		}

		if err := services.RecordModeratorAction(r.Context(), models.ModeratorAction{
			Moderator:  userID,
			Action:     models.ActionDeletePost,
			TargetType: "post",
			TargetID:   postID,
			Community:  &post.Community,
		}); err != nil {
			log.Printf("⚠️ Failed to record moderator action: %v", err)
		}
	}

	if _, err := database.DB.Collection("posts").DeleteOne(r.Context(), bson.M{"_id": postID}); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete post")
		return
	}

	services.InvalidateCommunityFeed(post.Community.Hex())
	_ = services.PublishFeedEvent(r.Context(), services.FeedEvent{
		Type:        services.FeedEventPostDeleted,
		CommunityID: post.Community.Hex(),
		PostID:      postID.Hex(),
	})

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Post deleted"})
}
