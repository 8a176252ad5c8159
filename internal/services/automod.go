package services

import (
	"context"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/manoj0727/Nexify-server/internal/database"
	"github.com/manoj0727/Nexify-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var linkPattern = regexp.MustCompile(`https?://[^\s]+`)

// AutoModVerdict is the outcome of running a post through a community's
// active rules. The strictest matched action wins.
type AutoModVerdict struct {
	Matched      bool
	Action       string
	MatchedRules []primitive.ObjectID
}

// EvaluateAutoModRules checks content against a set of rules and returns
// the combined verdict. Inactive rules are skipped.
func EvaluateAutoModRules(content string, rules []models.AutoModRule) AutoModVerdict {
	verdict := AutoModVerdict{}
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if !ruleMatches(content, rule) {
			continue
		}
		verdict.Matched = true
		verdict.MatchedRules = append(verdict.MatchedRules, rule.ID)
		if actionSeverity(rule.Action) > actionSeverity(verdict.Action) {
			verdict.Action = rule.Action
		}
	}
	return verdict
}

func actionSeverity(action string) int {
	switch action {
	case models.AutoModRemove:
		return 3
	case models.AutoModRequireApproval:
		return 2
	case models.AutoModFlag:
		return 1
	default:
		return 0
	}
}

func ruleMatches(content string, rule models.AutoModRule) bool {
	switch rule.RuleType {
	case models.RuleKeywordFilter:
		lower := strings.ToLower(content)
		for _, kw := range rule.Conditions.Keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return true
			}
		}
		return false
	case models.RuleLengthLimit:
		n := len([]rune(content))
		if rule.Conditions.MinLength > 0 && n < rule.Conditions.MinLength {
			return true
		}
		if rule.Conditions.MaxLength > 0 && n > rule.Conditions.MaxLength {
			return true
		}
		return false
	case models.RuleLinkFilter:
		return linkViolation(content, rule.Conditions)
	case models.RuleCapsFilter:
		threshold := rule.Conditions.CapsThreshold
		if threshold <= 0 {
			threshold = 0.7
		}
		return capsRatio(content) >= threshold
	default:
		return false
	}
}

func linkViolation(content string, cond models.RuleConditions) bool {
	links := linkPattern.FindAllString(content, -1)
	for _, link := range links {
		parsed, err := url.Parse(link)
		if err != nil {
			// Unparseable links count as violations.
			return true
		}
		host := strings.ToLower(parsed.Hostname())

		if len(cond.BlockedDomains) > 0 {
			for _, domain := range cond.BlockedDomains {
				if hostMatches(host, domain) {
					return true
				}
			}
			continue
		}

		if len(cond.AllowedDomains) > 0 {
			allowed := false
			for _, domain := range cond.AllowedDomains {
				if hostMatches(host, domain) {
					allowed = true
					break
				}
			}
			if !allowed {
				return true
			}
			continue
		}

		// No domain lists means no links at all.
		return true
	}
	return false
}

func hostMatches(host, domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func capsRatio(content string) float64 {
	var letters, upper int
	for _, r := range content {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	// Short shouting is fine.
	if letters < 10 {
		return 0
	}
	return float64(upper) / float64(letters)
}

// RunAutoMod loads a community's active rules, evaluates the content, and
// records trigger counts for matched rules.
func RunAutoMod(ctx context.Context, communityID primitive.ObjectID, content string) (AutoModVerdict, error) {
	collection := database.DB.Collection("automodrules")

	cursor, err := collection.Find(ctx, bson.M{"community": communityID, "is_active": true})
	if err != nil {
		return AutoModVerdict{}, err
	}

	var rules []models.AutoModRule
	if err := cursor.All(ctx, &rules); err != nil {
		return AutoModVerdict{}, err
	}

	verdict := EvaluateAutoModRules(content, rules)
	if len(verdict.MatchedRules) > 0 {
		now := time.Now()
		_, err = collection.UpdateMany(ctx,
			bson.M{"_id": bson.M{"$in": verdict.MatchedRules}},
			bson.M{
				"$inc": bson.M{"triggered_count": 1},
				"$set": bson.M{"last_triggered": now},
			},
		)
		if err != nil {
			log.Printf("⚠️ Failed to record automod trigger counts: %v", err)
		}
	}
	return verdict, nil
}

// RecordModeratorAction appends one entry to the moderation audit trail.
func RecordModeratorAction(ctx context.Context, action models.ModeratorAction) error {
	action.CreatedAt = time.Now()
	_, err := database.DB.Collection("moderatoractions").InsertOne(ctx, action)
	return err
}

// ListModeratorActions returns a page of audit entries for a community,
// newest first, along with the total count.
func ListModeratorActions(ctx context.Context, communityID primitive.ObjectID, page, limit int64) ([]models.ModeratorAction, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	collection := database.DB.Collection("moderatoractions")
	filter := bson.M{"community": communityID}

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	var actions []models.ModeratorAction
	if err := cursor.All(ctx, &actions); err != nil {
		return nil, 0, err
	}
	return actions, total, nil
}
