package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/config"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const warNumberCacheKey = "quartermaster:war_number"

// WarService looks up the current war number from the public war API.
// The lookup is a soft dependency: any failure is logged as a warning and
// the caller gets 0 so records are still written.
type WarService struct {
	Client *http.Client
	Redis  *redis.Client
	URL    string
}

func NewWarService(rdb *redis.Client) *WarService {
	return &WarService{
		Client: &http.Client{Timeout: 5 * time.Second},
		Redis:  rdb,
		URL:    config.WarAPIURL,
	}
}

// CurrentWarNumber returns the current war number, cached in redis for an
// hour. Returns 0 when both the cache and the upstream lookup fail.
func (s *WarService) CurrentWarNumber(ctx context.Context) int {
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, warNumberCacheKey).Result(); err == nil {
			if warNumber, err := strconv.Atoi(cached); err == nil {
				return warNumber
			}
		}
	}

	warNumber, err := s.fetchWarNumber(ctx)
	if err != nil {
		logrus.WithError(err).Warn("War number lookup failed, defaulting to 0")
		return 0
	}

	if s.Redis != nil {
		if err := s.Redis.Set(ctx, warNumberCacheKey, strconv.Itoa(warNumber), time.Hour).Err(); err != nil {
			logrus.WithError(err).Warn("Failed to cache war number")
		}
	}
	return warNumber
}

func (s *WarService) fetchWarNumber(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL+"/worldconquest/war", nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("war API returned status %d", resp.StatusCode)
	}

	var payload struct {
		WarNumber int `json:"warNumber"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, err
	}
	return payload.WarNumber, nil
}
