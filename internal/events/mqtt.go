package events

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"foodforward-data/internal/config"
)

// MQTTClient MQTT客户端封装（仪表盘实时推送通道，默认禁用）
type MQTTClient struct {
	client mqtt.Client
	topic  string
	qos    byte
}

// NewMQTTClient 创建MQTT客户端并建立连接
func NewMQTTClient(cfg *config.MQTTConfig) (*MQTTClient, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &MQTTClient{
		client: client,
		topic:  cfg.Topic,
		qos:    1,
	}, nil
}

// Publish 发布消息到配置的主题
func (c *MQTTClient) Publish(payload []byte) error {
	token := c.client.Publish(c.topic, c.qos, false, payload)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", c.topic, token.Error())
	}

	return nil
}

// Close 断开连接
func (c *MQTTClient) Close() {
	c.client.Disconnect(250)
}
