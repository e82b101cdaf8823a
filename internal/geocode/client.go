package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"foodforward-data/internal/config"
	"foodforward-data/internal/store"
)

// Coordinates 地理坐标
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// 回退基准点与抖动范围：地理编码失败时由地址哈希确定性抖动，
// 同一地址总是落在同一点，不同地址的标记不会重叠
const (
	fallbackBaseLat = 40.7128
	fallbackBaseLng = -74.0060
	fallbackJitter  = 0.05
)

// nominatimResult Nominatim 兼容服务的响应条目
type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Client 地理编码客户端
// 单次请求受超时约束，超时或失败回退到确定性占位坐标，投影绝不无限阻塞
type Client struct {
	httpClient *resty.Client
	kv         store.KV // 可为 nil（无缓存）
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewClient 创建地理编码客户端（kv 可为 nil）
func NewClient(cfg *config.GeocodeConfig, kv store.KV, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "foodforward-data")

	return &Client{
		httpClient: httpClient,
		kv:         kv,
		cacheTTL:   time.Duration(cfg.CacheTTLHours) * time.Hour,
		logger:     logger,
	}
}

// Resolve 解析地址为坐标，永不失败：缓存 → 远端 → 确定性回退
func (c *Client) Resolve(ctx context.Context, address string) Coordinates {
	if address == "" {
		return Fallback(address)
	}

	if coords, ok := c.cached(ctx, address); ok {
		return coords
	}

	coords, err := c.lookup(ctx, address)
	if err != nil {
		c.logger.Warn("geocoding failed, using fallback coordinates",
			zap.String("address", address),
			zap.Error(err),
		)
		return Fallback(address)
	}

	c.cache(ctx, address, coords)
	return coords
}

func (c *Client) lookup(ctx context.Context, address string) (Coordinates, error) {
	var results []nominatimResult
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"format": "json",
			"q":      address,
			"limit":  "1",
		}).
		SetResult(&results).
		Get("/search")
	if err != nil {
		return Coordinates{}, fmt.Errorf("failed to call geocoding service: %w", err)
	}
	if resp.IsError() {
		return Coordinates{}, fmt.Errorf("geocoding service returned status %d", resp.StatusCode())
	}
	if len(results) == 0 {
		return Coordinates{}, fmt.Errorf("no geocoding result for address")
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("invalid latitude in geocoding result: %w", err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("invalid longitude in geocoding result: %w", err)
	}

	return Coordinates{Lat: lat, Lng: lng}, nil
}

func (c *Client) cached(ctx context.Context, address string) (Coordinates, bool) {
	if c.kv == nil {
		return Coordinates{}, false
	}
	raw, err := c.kv.Get(ctx, cacheKey(address))
	if err != nil {
		return Coordinates{}, false
	}
	var coords Coordinates
	if err := json.Unmarshal([]byte(raw), &coords); err != nil {
		return Coordinates{}, false
	}
	return coords, true
}

func (c *Client) cache(ctx context.Context, address string, coords Coordinates) {
	if c.kv == nil {
		return
	}
	raw, err := json.Marshal(coords)
	if err != nil {
		return
	}
	if err := c.kv.Set(ctx, cacheKey(address), string(raw), c.cacheTTL); err != nil {
		c.logger.Warn("failed to cache geocoding result", zap.Error(err))
	}
}

func cacheKey(address string) string {
	return "geocode:" + address
}

// Fallback 确定性占位坐标：基准点 + 地址哈希抖动
func Fallback(address string) Coordinates {
	h := fnv.New64a()
	h.Write([]byte(address))
	sum := h.Sum64()

	// 两个独立的 [0,1) 区间抖动量
	latFrac := float64(sum&0xFFFFFFFF) / float64(1<<32)
	lngFrac := float64(sum>>32) / float64(1<<32)

	return Coordinates{
		Lat: fallbackBaseLat + (latFrac*2-1)*fallbackJitter,
		Lng: fallbackBaseLng + (lngFrac*2-1)*fallbackJitter,
	}
}
