package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/manoj0727/Nexify-server/internal/database"
	"github.com/manoj0727/Nexify-server/internal/models"
)

type AutoModRuleRequest struct {
	Name       string                `json:"name" validate:"required,min=2,max=80"`
	RuleType   string                `json:"rule_type" validate:"required,oneof=keyword_filter length_limit link_filter caps_filter"`
	Conditions models.RuleConditions `json:"conditions"`
	Action     string                `json:"action" validate:"required,oneof=flag auto_remove require_approval"`
	IsActive   *bool                 `json:"is_active,omitempty"`
}

// ListAutoModRules returns a community's rules, active and inactive.
func ListAutoModRules(w http.ResponseWriter, r *http.Request) {
	communityID, ok := objectIDParam(r, "communityID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid community id")
		return
	}
	if _, _, ok := requireModerator(w, r, communityID); !ok {
		return
	}

	cursor, err := database.DB.Collection("automodrules").Find(r.Context(), bson.M{"community": communityID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	var rules []models.AutoModRule
	if err := cursor.All(r.Context(), &rules); err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: rules})
}

// CreateAutoModRule adds a rule to a community.
func CreateAutoModRule(w http.ResponseWriter, r *http.Request) {
	communityID, ok := objectIDParam(r, "communityID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid community id")
		return
	}
	moderatorID, _, ok := requireModerator(w, r, communityID)
	if !ok {
		return
	}

	var req AutoModRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "A rule name, type and action are required")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	now := time.Now()
	rule := models.AutoModRule{
		CreatedAt:  now,
		UpdatedAt:  now,
		Name:       req.Name,
		Community:  communityID,
		CreatedBy:  moderatorID,
		RuleType:   req.RuleType,
		Conditions: req.Conditions,
		Action:     req.Action,
		IsActive:   active,
	}

	res, err := database.DB.Collection("automodrules").InsertOne(r.Context(), rule)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create rule")
		return
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		rule.ID = oid
	}

	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Message: "Rule created", Data: rule})
}

// UpdateAutoModRule replaces a rule's configuration.
func UpdateAutoModRule(w http.ResponseWriter, r *http.Request) {
	communityID, ok := objectIDParam(r, "communityID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid community id")
		return
	}
	ruleID, ok := objectIDParam(r, "ruleID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid rule id")
		return
	}
	if _, _, ok := requireModerator(w, r, communityID); !ok {
		return
	}

	var req AutoModRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "A rule name, type and action are required")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	res, err := database.DB.Collection("automodrules").UpdateOne(r.Context(),
		bson.M{"_id": ruleID, "community": communityID},
		bson.M{"$set": bson.M{
			"name":       req.Name,
			"rule_type":  req.RuleType,
			"conditions": req.Conditions,
			"action":     req.Action,
			"is_active":  active,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update rule")
		return
	}
	if res.MatchedCount == 0 {
		writeError(w, http.StatusNotFound, "Rule not found")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Rule updated"})
}

// DeleteAutoModRule removes a rule.
func DeleteAutoModRule(w http.ResponseWriter, r *http.Request) {
	communityID, ok := objectIDParam(r, "communityID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid community id")
		return
	}
	ruleID, ok := objectIDParam(r, "ruleID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid rule id")
		return
	}
	if _, _, ok := requireModerator(w, r, communityID); !ok {
		return
	}

	res, err := database.DB.Collection("automodrules").DeleteOne(r.Context(), bson.M{"_id": ruleID, "community": communityID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete rule")
		return
	}
	if res.DeletedCount == 0 {
		writeError(w, http.StatusNotFound, "Rule not found")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Rule deleted"})
}
