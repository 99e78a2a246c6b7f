//go:build integration

package repository

import (
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/database"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepos(t *testing.T) *RepositoryManager {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	m, err := database.NewManager(&database.Config{DatabaseURL: url}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	require.NoError(t, m.Migrate())
	return NewRepositoryManager(m.DB)
}

func TestTopicFilterRepository(t *testing.T) {
	repos := testRepos(t)
	name := fmt.Sprintf("test-%d", time.Now().UnixNano())

	filter := &models.TopicFilter{
		Name:            name,
		Keywords:        models.StringArray{"loan", "debt"},
		StandardNumbers: models.StringArray{"1", "8"},
		IsActive:        true,
	}
	require.NoError(t, repos.TopicFilter.Create(filter))
	t.Cleanup(func() { repos.TopicFilter.Delete(filter.ID) })

	got, err := repos.TopicFilter.GetByName(name)
	require.NoError(t, err)
	assert.Equal(t, models.StringArray{"loan", "debt"}, got.Keywords)

	active, err := repos.TopicFilter.GetActive()
	require.NoError(t, err)
	var found bool
	for _, f := range active {
		found = found || f.Name == name
	}
	assert.True(t, found)

	got.IsActive = false
	require.NoError(t, repos.TopicFilter.Update(got))
	active, err = repos.TopicFilter.GetActive()
	require.NoError(t, err)
	for _, f := range active {
		assert.NotEqual(t, name, f.Name)
	}

	assert.Error(t, repos.TopicFilter.Create(&models.TopicFilter{Name: name + "-bad"}))

	_, err = repos.TopicFilter.GetByName(name + "-missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTopicFilterRepository_Sync(t *testing.T) {
	repos := testRepos(t)
	name := fmt.Sprintf("sync-%d", time.Now().UnixNano())

	rules := []services.TopicRule{{
		Name:          name,
		Keywords:      []string{"sale, deferred", `"bay"`},
		SectionTitles: []string{"Murabaha, Musawamah"},
	}}
	stats, err := services.SyncTopicRules(repos.TopicFilter, rules)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)

	got, err := repos.TopicFilter.GetByName(name)
	require.NoError(t, err)
	t.Cleanup(func() { repos.TopicFilter.Delete(got.ID) })
	assert.True(t, got.IsActive)
	assert.Equal(t, models.StringArray{"sale, deferred", `"bay"`}, got.Keywords)
	assert.Equal(t, models.StringArray{"Murabaha, Musawamah"}, got.SectionTitles)

	stats, err = services.SyncTopicRules(repos.TopicFilter, rules)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Unchanged)
}

func TestSystemHealthRepository(t *testing.T) {
	repos := testRepos(t)
	service := fmt.Sprintf("svc-%d", time.Now().UnixNano())

	require.NoError(t, repos.SystemHealth.UpdateServiceHealth(service, "unhealthy", 10, "down"))
	require.NoError(t, repos.SystemHealth.UpdateServiceHealth(service, "healthy", 5, ""))

	all, err := repos.SystemHealth.GetAllServicesHealth()
	require.NoError(t, err)
	var latest *models.SystemHealth
	for i := range all {
		if all[i].ServiceName == service {
			latest = &all[i]
		}
	}
	require.NotNil(t, latest)
	assert.Equal(t, "healthy", latest.Status)
}
