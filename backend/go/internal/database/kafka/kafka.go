package kafka

import (
	"fmt"
	"log"

	"LexiMind/backend/go/internal/config"

	"github.com/segmentio/kafka-go"
)

// EnsureTopics 连接到 Kafka 并确保配置中列出的主题都存在，
// 不存在的主题会被自动创建。服务启动时调用一次。
func EnsureTopics(cfg *config.KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("未配置 Kafka brokers")
	}
	if len(cfg.Topics) == 0 {
		return nil
	}

	// 1. 建立管理连接
	conn, err := kafka.Dial("tcp", cfg.Brokers[0])
	if err != nil {
		return fmt.Errorf("kafka 初始化连接失败: %w", err)
	}
	defer conn.Close()

	// 2. 获取已存在的主题
	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("无法读取 Kafka 分区信息: %w", err)
	}
	existingTopics := make(map[string]struct{})
	for _, p := range partitions {
		existingTopics[p.Topic] = struct{}{}
	}

	// 3. 遍历并创建不存在的主题
	var topicsToCreate []kafka.TopicConfig
	for _, topicName := range cfg.Topics {
		if _, exists := existingTopics[topicName]; !exists {
			log.Printf("主题 '%s' 不存在，准备创建...", topicName)
			topicsToCreate = append(topicsToCreate, kafka.TopicConfig{
				Topic:             topicName,
				NumPartitions:     1, // 使用默认值
				ReplicationFactor: 1, // 使用默认值
			})
		}
	}

	if len(topicsToCreate) > 0 {
		if err := conn.CreateTopics(topicsToCreate...); err != nil {
			return fmt.Errorf("自动创建 Kafka 主题失败: %w", err)
		}
		log.Printf("成功创建 %d 个 Kafka 主题。", len(topicsToCreate))
	}

	return nil
}
