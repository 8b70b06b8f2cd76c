package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	type testCase struct {
		Title       string
		User        *User
		ExpectError error
	}

	testCases := []testCase{
		{
			Title:       "should return error no user information if user is nil",
			User:        nil,
			ExpectError: ErrNoUserInformation,
		},
		{
			Title:       "should return error invalid if id is empty",
			User:        &User{SiteRoot: "/sites/default"},
			ExpectError: InvalidError{},
		},
		{
			Title:       "should return error invalid if site root is relative",
			User:        &User{ID: "admin", SiteRoot: "sites/default"},
			ExpectError: InvalidError{ID: "admin", SiteRoot: "sites/default"},
		},
		{
			Title:       "should return nil if user is valid",
			User:        &User{ID: "admin", SiteRoot: "/sites/default"},
			ExpectError: nil,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.Title, func(t *testing.T) {
			err := testCase.User.Validate()
			assert.Equal(t, testCase.ExpectError, err)
		})
	}
}

func TestNow(t *testing.T) {
	wall := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	clock := func() time.Time { return wall }

	t.Run("should use the wall clock in UTC without time warp", func(t *testing.T) {
		got := User{ID: "u"}.Now(clock)
		assert.Equal(t, wall.UTC(), got)
		assert.Equal(t, time.UTC, got.Location())
	})

	t.Run("should use the time warp instant when set", func(t *testing.T) {
		warp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		got := User{ID: "u", TimeWarp: warp}.Now(clock)
		assert.Equal(t, warp, got)
	})
}

func TestAddSiteRoot(t *testing.T) {
	cases := []struct {
		siteRoot, path, want string
	}{
		{"/sites/default", "/news/", "/sites/default/news/"},
		{"/sites/default/", "news", "/sites/default/news"},
		{"/sites/default", "/sites/default/news/", "/sites/default/news/"},
		{"", "/news/", "/news/"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, User{SiteRoot: c.siteRoot}.AddSiteRoot(c.path))
	}
}

func TestMember(t *testing.T) {
	u := User{ID: "jane", Groups: []string{"editors"}}
	assert.True(t, u.Member("jane"))
	assert.True(t, u.Member("editors"))
	assert.False(t, u.Member("admins"))
}
