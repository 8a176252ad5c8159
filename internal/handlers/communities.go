package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/manoj0727/Nexify-server/internal/database"
	"github.com/manoj0727/Nexify-server/internal/middleware"
	"github.com/manoj0727/Nexify-server/internal/models"
	"github.com/manoj0727/Nexify-server/internal/services"
)

// findCommunity returns nil, nil when no community exists, consulting the
// cache first.
func findCommunity(ctx context.Context, id primitive.ObjectID) (*models.Community, error) {
	var community models.Community

	cacheKey := services.CommunityCacheKey(id.Hex())
	if hit, _ := services.Cache.Get(cacheKey, &community); hit {
		return &community, nil
	}

	err := database.DB.Collection("communities").FindOne(ctx, bson.M{"_id": id}).Decode(&community)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	_ = services.Cache.Set(cacheKey, community, services.CommunityCacheTTL)
	return &community, nil
}

// ListCommunities returns all communities, alphabetical.
func ListCommunities(w http.ResponseWriter, r *http.Request) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := database.DB.Collection("communities").Find(r.Context(), bson.M{}, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	var communities []models.Community
	if err := cursor.All(r.Context(), &communities); err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: communities})
}

// GetCommunity returns one community by id.
func GetCommunity(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r, "communityID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid community id")
		return
	}

	community, err := findCommunity(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if community == nil {
		writeError(w, http.StatusNotFound, "Community not found")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: community})
}

// JoinCommunity adds the caller to the member list. Banned users are
// rejected.
func JoinCommunity(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	communityID, ok := objectIDParam(r, "communityID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid community id")
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

	_, err = database.DB.Collection("communities").UpdateOne(r.Context(),
		bson.M{"_id": communityID},
		bson.M{"$addToSet": bson.M{"members": userID}},
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to join community")
		return
	}
	_ = services.Cache.Delete(services.CommunityCacheKey(communityID.Hex()))

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Joined " + community.Name})
}

// LeaveCommunity removes the caller from the member list.
func LeaveCommunity(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	communityID, ok := objectIDParam(r, "communityID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid community id")
		return
	}

	_, err := database.DB.Collection("communities").UpdateOne(r.Context(),
		bson.M{"_id": communityID},
		bson.M{"$pull": bson.M{"members": userID}},
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to leave community")
		return
	}
	_ = services.Cache.Delete(services.CommunityCacheKey(communityID.Hex()))

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Left community"})
}

// GetCommunityMembers lists the public profiles of a community's members.
func GetCommunityMembers(w http.ResponseWriter, r *http.Request) {
	communityID, ok := objectIDParam(r, "communityID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid community id")
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

	if len(community.Members) == 0 {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: []publicProfile{}})
		return
	}

	cursor, err := database.DB.Collection("users").Find(r.Context(), bson.M{"_id": bson.M{"$in": community.Members}})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	var users []models.User
	if err := cursor.All(r.Context(), &users); err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	profiles := make([]publicProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, publicProfile{
			ID:         u.ID,
			Name:       u.Name,
			Avatar:     u.Avatar,
			Role:       u.Role,
			IsVerified: u.IsVerified,
		})
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: profiles})
}

// GetCommunityModerators lists a community's moderators.
func GetCommunityModerators(w http.ResponseWriter, r *http.Request) {
	communityID, ok := objectIDParam(r, "communityID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid community id")
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

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: community.Moderators})
}
