package services

import (
	"time"

	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/launchdeck/launchdeck/backend/pkg/logger"
	"github.com/patrickmn/go-cache"
)

const publicProjectListKey = "projects:public"

// ViewCache keeps rendered public views. Only anonymous-safe data is stored.
type ViewCache struct {
	store *cache.Cache
}

func NewViewCache(ttl time.Duration) *ViewCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ViewCache{store: cache.New(ttl, 2*ttl)}
}

func projectViewKey(idOrSlug string) string { return "project:" + idOrSlug }
func profileViewKey(userID string) string   { return "profile:" + userID }

func (v *ViewCache) Get(key string) (interface{}, bool) {
	if v == nil {
		return nil, false
	}
	return v.store.Get(key)
}

func (v *ViewCache) Set(key string, value interface{}) {
	if v == nil {
		return
	}
	v.store.SetDefault(key, value)
}

// RevalidateProject drops the project's own view under both id and slug.
func (v *ViewCache) RevalidateProject(p *models.Project) {
	if v == nil || p == nil {
		return
	}
	v.store.Delete(projectViewKey(p.ID))
	v.store.Delete(projectViewKey(p.Slug))
}

// RevalidateList drops every cached page of the public project list.
func (v *ViewCache) RevalidateList() {
	if v == nil {
		return
	}
	for key := range v.store.Items() {
		if len(key) >= len(publicProjectListKey) && key[:len(publicProjectListKey)] == publicProjectListKey {
			v.store.Delete(key)
		}
	}
}

func (v *ViewCache) RevalidateProfile(userID string) {
	if v == nil || userID == "" {
		return
	}
	v.store.Delete(profileViewKey(userID))
}

// RevalidateAfterChange clears the views touched by a project mutation.
// includeProject is false when the project no longer exists.
func (v *ViewCache) RevalidateAfterChange(p *models.Project, userID string, includeProject bool) {
	if includeProject {
		v.RevalidateProject(p)
	}
	v.RevalidateList()
	v.RevalidateProfile(userID)
	if p != nil {
		logger.Debug().Str("project_id", p.ID).Bool("project_view", includeProject).Msg("[ViewCache] revalidated")
	}
}
