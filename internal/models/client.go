package models

import (
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// apiKeyPrefix marks keys issued by this service
const apiKeyPrefix = "ck"

// Permissions understood by the API
const (
	PermChallengesRead  = "challenges:read"
	PermChallengesWrite = "challenges:write"
	PermRecipesRead     = "recipes:read"
	PermRecipesWrite    = "recipes:write"
	PermRankCompute     = "rank:compute"
	PermAdminRollover   = "admin:rollover"
)

// ApiClient is a caller holding an API key, typically the mobile backend
// or the admin dashboard
type ApiClient struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	ApiKey      string            `json:"-"`
	IsActive    bool              `json:"is_active"`
	CreatedAt   time.Time         `json:"created_at"`
	LastUsedAt  *time.Time        `json:"last_used_at,omitempty"`
	Permissions []string          `json:"permissions"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// HasPermission checks a permission, honouring "area:*" and "*" grants
func (c *ApiClient) HasPermission(required string) bool {
	if c == nil || !c.IsActive {
		return false
	}

	for _, perm := range c.Permissions {
		switch {
		case perm == "*", perm == required:
			return true
		case strings.HasSuffix(perm, ":*"):
			if strings.HasPrefix(required, strings.TrimSuffix(perm, "*")) {
				return true
			}
		}
	}

	return false
}

// MaskedApiKey returns the key prefix for logging
func (c *ApiClient) MaskedApiKey() string {
	return MaskKey(c.ApiKey)
}

// MaskKey keeps the first 8 characters of a key
func MaskKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:8] + "..."
}

// NewAPIKey generates a random key of the form "ck_<nanoid>"
func NewAPIKey() (string, error) {
	id, err := gonanoid.New(32)
	if err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return apiKeyPrefix + "_" + id, nil
}
