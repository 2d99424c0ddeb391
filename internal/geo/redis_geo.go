package geo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/example/tour-guide/internal/models"
)

// RedisGeo implements Source using Redis GEO commands, letting multiple
// server instances share one landmark index.
type RedisGeo struct {
	client *redis.Client
	key    string
	ctx    context.Context
}

func NewRedisGeo(addr, password, key string) *RedisGeo {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisGeo{client: c, key: key, ctx: context.Background()}
}

func (r *RedisGeo) Upsert(l models.Landmark) {
	_, _ = r.client.GeoAdd(r.ctx, r.key, &redis.GeoLocation{Longitude: l.Loc.Lon, Latitude: l.Loc.Lat, Name: l.ID}).Result()
	_ = r.client.HSet(r.ctx, metaKey(l.ID), map[string]interface{}{
		"name":        l.Name,
		"description": l.Description,
		"rating":      fmt.Sprintf("%f", l.Rating),
	}).Err()
}

func (r *RedisGeo) Near(loc models.Coord, radiusM float64, limit int) []models.Landmark {
	res, err := r.client.GeoRadius(r.ctx, r.key, loc.Lon, loc.Lat, &redis.GeoRadiusQuery{Radius: radiusM, Unit: "m", WithCoord: true, WithDist: true, Count: limit, Sort: "ASC"}).Result()
	if err != nil {
		return nil
	}
	out := make([]models.Landmark, 0, len(res))
	for _, g := range res {
		l := models.Landmark{ID: g.Name}
		l.Loc.Lat = g.Latitude
		l.Loc.Lon = g.Longitude
		if m, err := r.client.HGetAll(r.ctx, metaKey(g.Name)).Result(); err == nil {
			l.Name = m["name"]
			l.Description = m["description"]
			if v, ok := m["rating"]; ok {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					l.Rating = f
				}
			}
		}
		out = append(out, l)
	}
	return out
}

func metaKey(id string) string { return "landmark:meta:" + id }
