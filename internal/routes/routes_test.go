package routes

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manoj0727/Nexify-server/internal/config"
)

func testMux(t *testing.T) *chi.Mux {
	t.Helper()
	r := chi.NewRouter()
	SetupRoutes(r, &config.Config{JWTSecret: "route-test-secret"})
	return r
}

// The announcement handlers read both communityID and announcementID from
// the URL, so the registered patterns must carry both segments.
func TestAnnouncementRoutesCarryBothParams(t *testing.T) {
	r := testMux(t)

	communityID := "64f000000000000000000001"
	announcementID := "64f000000000000000000002"

	rctx := chi.NewRouteContext()
	require.True(t, r.Match(rctx, http.MethodDelete,
		"/api/communities/"+communityID+"/announcements/"+announcementID))
	assert.Equal(t, communityID, rctx.URLParam("communityID"))
	assert.Equal(t, announcementID, rctx.URLParam("announcementID"))

	rctx = chi.NewRouteContext()
	require.True(t, r.Match(rctx, http.MethodPost,
		"/api/communities/"+communityID+"/announcements"))
	assert.Equal(t, communityID, rctx.URLParam("communityID"))

	rctx = chi.NewRouteContext()
	require.True(t, r.Match(rctx, http.MethodPost,
		"/api/announcements/"+announcementID+"/read"))
	assert.Equal(t, announcementID, rctx.URLParam("announcementID"))
}

func TestModerationRoutesCarryCommunityID(t *testing.T) {
	r := testMux(t)

	communityID := "64f000000000000000000001"
	ruleID := "64f000000000000000000003"

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/communities/" + communityID + "/moderation-queue"},
		{http.MethodGet, "/api/communities/" + communityID + "/actions"},
		{http.MethodGet, "/api/communities/" + communityID + "/automod"},
		{http.MethodPut, "/api/communities/" + communityID + "/automod/" + ruleID},
	} {
		rctx := chi.NewRouteContext()
		require.True(t, r.Match(rctx, tc.method, tc.path), "%s %s not routed", tc.method, tc.path)
		assert.Equal(t, communityID, rctx.URLParam("communityID"), "%s %s", tc.method, tc.path)
	}
}
