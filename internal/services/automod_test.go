package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/manoj0727/Nexify-server/internal/models"
)

func activeRule(ruleType, action string, cond models.RuleConditions) models.AutoModRule {
	return models.AutoModRule{
		ID:         primitive.NewObjectID(),
		RuleType:   ruleType,
		Action:     action,
		Conditions: cond,
		IsActive:   true,
	}
}

func TestEvaluateKeywordFilter(t *testing.T) {
	rule := activeRule(models.RuleKeywordFilter, models.AutoModFlag, models.RuleConditions{
		Keywords: []string{"spam", "buy now"},
	})

	tests := []struct {
		name    string
		content string
		matched bool
	}{
		{"exact keyword", "this is spam", true},
		{"case insensitive", "定期 SPAM here", true},
		{"keyword inside word", "antispammer", true},
		{"multi word keyword", "BUY NOW while stocks last", true},
		{"clean content", "a perfectly fine post", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := EvaluateAutoModRules(tt.content, []models.AutoModRule{rule})
			assert.Equal(t, tt.matched, verdict.Matched)
		})
	}
}

func TestEvaluateLengthLimit(t *testing.T) {
	rule := activeRule(models.RuleLengthLimit, models.AutoModRequireApproval, models.RuleConditions{
		MinLength: 5,
		MaxLength: 20,
	})

	assert.True(t, EvaluateAutoModRules("hey", []models.AutoModRule{rule}).Matched)
	assert.True(t, EvaluateAutoModRules("this message is definitely too long", []models.AutoModRule{rule}).Matched)
	assert.False(t, EvaluateAutoModRules("just right", []models.AutoModRule{rule}).Matched)

	// Length counts runes, not bytes.
	assert.False(t, EvaluateAutoModRules("こんにちは世界!", []models.AutoModRule{rule}).Matched)
}

func TestEvaluateLinkFilter(t *testing.T) {
	noLinks := activeRule(models.RuleLinkFilter, models.AutoModRemove, models.RuleConditions{})
	allowList := activeRule(models.RuleLinkFilter, models.AutoModRemove, models.RuleConditions{
		AllowedDomains: []string{"example.com"},
	})
	blockList := activeRule(models.RuleLinkFilter, models.AutoModRemove, models.RuleConditions{
		BlockedDomains: []string{"evil.com"},
	})

	assert.True(t, EvaluateAutoModRules("see https://anything.com", []models.AutoModRule{noLinks}).Matched)
	assert.False(t, EvaluateAutoModRules("no links here", []models.AutoModRule{noLinks}).Matched)

	assert.False(t, EvaluateAutoModRules("docs at https://example.com/page", []models.AutoModRule{allowList}).Matched)
	assert.False(t, EvaluateAutoModRules("docs at https://sub.example.com/page", []models.AutoModRule{allowList}).Matched)
	assert.True(t, EvaluateAutoModRules("docs at https://other.com/page", []models.AutoModRule{allowList}).Matched)

	assert.True(t, EvaluateAutoModRules("click https://evil.com/offer", []models.AutoModRule{blockList}).Matched)
	assert.True(t, EvaluateAutoModRules("click https://login.evil.com/offer", []models.AutoModRule{blockList}).Matched)
	assert.False(t, EvaluateAutoModRules("click https://example.com/offer", []models.AutoModRule{blockList}).Matched)
}

func TestEvaluateCapsFilter(t *testing.T) {
	rule := activeRule(models.RuleCapsFilter, models.AutoModFlag, models.RuleConditions{})

	assert.True(t, EvaluateAutoModRules("STOP SHOUTING AT EVERYONE", []models.AutoModRule{rule}).Matched)
	assert.False(t, EvaluateAutoModRules("regular sentence with One Capital", []models.AutoModRule{rule}).Matched)

	// Under ten letters never matches regardless of case.
	assert.False(t, EvaluateAutoModRules("OK FINE", []models.AutoModRule{rule}).Matched)

	strict := activeRule(models.RuleCapsFilter, models.AutoModFlag, models.RuleConditions{CapsThreshold: 0.4})
	assert.True(t, EvaluateAutoModRules("HALF of this TEXT is CAPS here", []models.AutoModRule{strict}).Matched)
}

func TestEvaluateSkipsInactiveRules(t *testing.T) {
	rule := activeRule(models.RuleKeywordFilter, models.AutoModRemove, models.RuleConditions{Keywords: []string{"spam"}})
	rule.IsActive = false

	verdict := EvaluateAutoModRules("pure spam", []models.AutoModRule{rule})
	assert.False(t, verdict.Matched)
	assert.Empty(t, verdict.MatchedRules)
}

func TestEvaluateStrictestActionWins(t *testing.T) {
	flag := activeRule(models.RuleKeywordFilter, models.AutoModFlag, models.RuleConditions{Keywords: []string{"spam"}})
	approval := activeRule(models.RuleLengthLimit, models.AutoModRequireApproval, models.RuleConditions{MaxLength: 10})
	remove := activeRule(models.RuleLinkFilter, models.AutoModRemove, models.RuleConditions{})

	verdict := EvaluateAutoModRules("spam with a link https://x.com padding", []models.AutoModRule{flag, approval, remove})
	assert.True(t, verdict.Matched)
	assert.Equal(t, models.AutoModRemove, verdict.Action)
	assert.Len(t, verdict.MatchedRules, 3)

	verdict = EvaluateAutoModRules("spam but short", []models.AutoModRule{flag, approval})
	assert.Equal(t, models.AutoModRequireApproval, verdict.Action)
}
