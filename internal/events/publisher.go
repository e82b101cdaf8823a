package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// 事件类型
const (
	EventCreated   = "donation.created"
	EventClaimed   = "donation.claimed"
	EventAssigned  = "donation.assigned"
	EventCompleted = "donation.completed"
	EventDeleted   = "donation.deleted"
)

// DonationEvent 捐赠变更事件
// 仪表盘收到任何事件后整体重查、全量重投影，事件本身只是失效信号
type DonationEvent struct {
	Type       string    `json:"type"`
	DonationID string    `json:"donationId"`
	Status     string    `json:"status"`
	ActorID    string    `json:"actorId,omitempty"`
	At         time.Time `json:"at"`
}

// Sink 变更事件出口（service 层只记日志，发布失败不影响主迁移）
type Sink interface {
	DonationChanged(ctx context.Context, event DonationEvent) error
}

// Publisher 将捐赠变更事件发布到 Redis Streams，可选同时推送 MQTT
type Publisher struct {
	client *redis.Client
	stream string
	maxLen int64
	mqtt   *MQTTClient
	logger *zap.Logger
}

// NewPublisher 创建事件发布器（mqtt 可为 nil）
func NewPublisher(client *redis.Client, stream string, maxLen int64, mqtt *MQTTClient, logger *zap.Logger) *Publisher {
	return &Publisher{
		client: client,
		stream: stream,
		maxLen: maxLen,
		mqtt:   mqtt,
		logger: logger,
	}
}

var _ Sink = (*Publisher)(nil)

// DonationChanged 发布变更事件
func (p *Publisher) DonationChanged(ctx context.Context, event DonationEvent) error {
	jsonBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// 使用 XADD 命令追加到流（近似截断，避免无限增长）
	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":      string(jsonBytes),
			"timestamp": event.At.Unix(),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	// MQTT 推送为旁路：失败只记日志
	if p.mqtt != nil {
		if err := p.mqtt.Publish(jsonBytes); err != nil {
			p.logger.Warn("MQTT publish failed",
				zap.String("donation_id", event.DonationID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// ReadAfter 从流中读取 lastID 之后的事件（SSE feed 使用）
// block<=0 表示非阻塞
func (p *Publisher) ReadAfter(ctx context.Context, lastID string, block time.Duration) ([]DonationEvent, string, error) {
	if lastID == "" {
		lastID = "$"
	}

	res, err := p.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{p.stream, lastID},
		Count:   100,
		Block:   block,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, lastID, nil
		}
		return nil, lastID, fmt.Errorf("failed to read stream: %w", err)
	}

	var out []DonationEvent
	for _, stream := range res {
		for _, msg := range stream.Messages {
			lastID = msg.ID
			data, _ := msg.Values["data"].(string)
			if data == "" {
				continue
			}
			var ev DonationEvent
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				p.logger.Warn("skipping malformed event", zap.String("id", msg.ID), zap.Error(err))
				continue
			}
			out = append(out, ev)
		}
	}

	return out, lastID, nil
}
