package service

import (
	"context"
	"encoding/json"
	"skillforge_backend/internal/model"

	"github.com/go-redis/redis/v8"
)

// NotificationPublisher 将已提交的通知交给外部投递组件
type NotificationPublisher interface {
	Publish(ctx context.Context, notifications []model.Notification) error
}

type NotificationEvent struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	RecipientID uint   `json:"recipientId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"createdAt"`
}

func newNotificationEvent(n model.Notification) NotificationEvent {
	return NotificationEvent{
		ID:          n.ID,
		Kind:        n.Kind,
		RecipientID: n.UserID,
		Title:       n.Title,
		Description: n.Description,
		CreatedAt:   n.CreatedAt.Unix(),
	}
}

type RedisPublisher struct {
	Client  *redis.Client
	Channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{Client: client, Channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	pipe := p.Client.Pipeline()
	for _, n := range notifications {
		payload, err := json.Marshal(newNotificationEvent(n))
		if err != nil {
			return err
		}
		pipe.Publish(ctx, p.Channel, payload)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// NopPublisher 未启用 redis 时使用，通知仅落库
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, []model.Notification) error {
	return nil
}
