package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// MinIOConfig 定义了 MinIO 对象存储的连接配置。
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`  // MinIO 服务端点
	AccessKey string `yaml:"accessKey"` // 访问密钥
	SecretKey string `yaml:"secretKey"` // Secret 密钥
	Secure    bool   `yaml:"secure"`    // 是否使用HTTPS
}

// MongoConfig 定义了 MongoDB 数据库的连接配置。
type MongoConfig struct {
	Address  string `yaml:"address"`  // MongoDB 服务器地址
	Username string `yaml:"username"` // 用户名
	Password string `yaml:"password"` // 密码
	Database string `yaml:"database"` // 数据库名称
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"` // Kafka Broker 地址列表
	Topics  []string `yaml:"topics"`  // 服务启动时需要确保存在的主题列表
}

// DatabaseConfigs 包含所有数据存储的配置。
type DatabaseConfigs struct {
	Redis   RedisConfig `yaml:"redis"`   // Redis 缓存配置
	MinIO   MinIOConfig `yaml:"minio"`   // MinIO 对象存储配置
	MongoDB MongoConfig `yaml:"mongodb"` // MongoDB 数据库配置
	Kafka   KafkaConfig `yaml:"kafka"`   // Kafka 消息队列配置
}

// ProviderSettings 定义了单个分析提供商的配置。
type ProviderSettings struct {
	Enabled   bool                 `yaml:"enabled"`             // 是否启用该提供商
	Model     string               `yaml:"model"`               // 模型名称
	APIKey    string               `yaml:"apiKey,omitempty"`    // API 密钥 (gemini/openai)
	BaseURL   string               `yaml:"baseURL,omitempty"`   // 服务地址 (ollama, openai 可选)
	RateLimit TokenBucketConfig    `yaml:"rateLimit,omitempty"` // 出口限流 (速率为0时关闭)
	Breaker   CircuitBreakerConfig `yaml:"breaker,omitempty"`   // 出口熔断配置
}

// ProvidersConfig 包含所有分析提供商的配置。
// Priority 既是合并时的主结果优先级，也是客户端的构建顺序。
type ProvidersConfig struct {
	Priority []string         `yaml:"priority"` // 提供商优先级顺序 (例如: ["gemini", "openai"])
	Gemini   ProviderSettings `yaml:"gemini"`   // Gemini 提供商配置
	OpenAI   ProviderSettings `yaml:"openai"`   // OpenAI 提供商配置
	Ollama   ProviderSettings `yaml:"ollama"`   // Ollama 提供商配置
}

// RetryConfig 定义了提供商调用的重试策略。
type RetryConfig struct {
	MaxAttempts    int    `yaml:"maxAttempts"`    // 总尝试次数上限
	BaseDelay      string `yaml:"baseDelay"`      // 首次退避延迟 (例如: "500ms")
	MaxDelay       string `yaml:"maxDelay"`       // 退避延迟上限 (例如: "10s")
	AttemptTimeout string `yaml:"attemptTimeout"` // 单次尝试的超时 (例如: "30s")
}

// ClassifierConfig 定义了分类阶段的配置。
type ClassifierConfig struct {
	EscalationTimeout string `yaml:"escalationTimeout"` // 升级调用的短超时 (例如: "10s")
	CacheCapacity     int    `yaml:"cacheCapacity"`     // 升级结果缓存容量
	CacheTTL          string `yaml:"cacheTTL"`          // 升级结果缓存存活时间
}

// RetentionConfig 定义了终态任务的保留策略。
// 非终态任务永远不会被清理。
type RetentionConfig struct {
	TTL         string `yaml:"ttl"`         // 终态任务的保留时长 (为空或"0"时不按时间清理)
	MaxTerminal int    `yaml:"maxTerminal"` // 终态任务的数量上限 (为0时不限制)
}

// OrchestratorConfig 定义了编排服务的配置。
type OrchestratorConfig struct {
	ServerAddress     string           `yaml:"serverAddress"`     // HTTP 服务监听地址
	EventsTopic       string           `yaml:"eventsTopic"`       // 任务生命周期事件的 Kafka 主题
	ReportsCollection string           `yaml:"reportsCollection"` // 最终报告的 Mongo 集合
	DocumentsBucket   string           `yaml:"documentsBucket"`   // 文档文本所在的 MinIO 桶
	Retry             RetryConfig      `yaml:"retry"`             // 提供商重试策略
	Classifier        ClassifierConfig `yaml:"classifier"`        // 分类阶段配置
	Retention         RetentionConfig  `yaml:"retention"`         // 终态任务保留策略
}

// DocumentServiceConfig 定义了文档服务的配置。
type DocumentServiceConfig struct {
	ServerAddress string `yaml:"serverAddress"` // HTTP 服务监听地址
	Bucket        string `yaml:"bucket"`        // 文档内容的 MinIO 桶
	Collection    string `yaml:"collection"`    // 文档元数据的 Mongo 集合
	TextCacheTTL  string `yaml:"textCacheTTL"`  // 抽取文本的 Redis 缓存存活时间
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig 定义了限流器的配置。
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Algorithm   string            `yaml:"algorithm"` // 支持: "tokenBucket", "fixedWindow"
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
	FixedWindow FixedWindowConfig `yaml:"fixedWindow"`
}

// TokenBucketConfig 定义了令牌桶算法的配置。
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// FixedWindowConfig 定义了固定窗口计数器算法的配置。
type FixedWindowConfig struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"` // 例如: "1m", "30s"
}

// CircuitBreakerConfig 定义了熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App          AppInfo               `yaml:"app"`          // 应用程序信息
	Logger       LoggerConfig          `yaml:"logger"`       // 日志记录器配置
	Providers    ProvidersConfig       `yaml:"providers"`    // 分析提供商配置
	Orchestrator OrchestratorConfig    `yaml:"orchestrator"` // 编排服务配置
	Documents    DocumentServiceConfig `yaml:"documents"`    // 文档服务配置
	Databases    DatabaseConfigs       `yaml:"databases"`    // 数据存储配置
	Middleware   MiddlewareConfig      `yaml:"middleware"`   // 中间件配置
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取或解析失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig
	err = yaml.Unmarshal(yamlFile, &cfg)
	if err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	return &cfg, nil
}
