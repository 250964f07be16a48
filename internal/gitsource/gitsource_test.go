package gitsource

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGitURL(t *testing.T) {
	assert.True(t, IsGitURL("https://github.com/u/lists"))
	assert.True(t, IsGitURL("git@github.com:u/lists.git"))
	assert.True(t, IsGitURL("/srv/lists.git"))
	assert.False(t, IsGitURL("/home/me/lists"))
	assert.False(t, IsGitURL("./lists"))
}

func TestLocalPath(t *testing.T) {
	testCases := []struct {
		url      string
		expected string
		wantErr  bool
	}{
		{url: "https://github.com/u/lists.git", expected: filepath.Join("repos", "github.com", "u", "lists")},
		{url: "http://example.com/team/menus", expected: filepath.Join("repos", "example.com", "team", "menus")},
		{url: "git@gitlab.com:group/lists.git", expected: filepath.Join("repos", "gitlab.com", "group", "lists")},
		{url: "not a url", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			got, err := LocalPath("repos", tc.url)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}
