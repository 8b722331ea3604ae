package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"LexiMind/backend/go/internal/config"
	"LexiMind/backend/go/internal/models"
	"LexiMind/backend/go/pkg/circuitbreaker"
	"LexiMind/backend/go/pkg/ratelimiter"
)

// Backend 定义了所有外部分析提供商后端必须实现的最小生成接口。
// 截止时间通过 ctx 传入，后端必须尊重它。
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client 是围绕单个提供商后端的统一适配器。
// 它负责提示词渲染、响应的严格校验、出口限流与熔断，
// 并把所有失败都归一化为 *models.ProviderError。
type Client struct {
	name    string
	backend Backend
	limiter ratelimiter.RateLimiter
	breaker circuitbreaker.CircuitBreaker
}

// Option 用于配置 Client 的可选能力。
type Option func(*Client)

// WithRateLimiter 为客户端附加一个出口限流器。
func WithRateLimiter(limiter ratelimiter.RateLimiter) Option {
	return func(c *Client) { c.limiter = limiter }
}

// WithCircuitBreaker 为客户端附加一个出口熔断器。
func WithCircuitBreaker(breaker circuitbreaker.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = breaker }
}

// NewClient 创建一个新的提供商客户端。
func NewClient(name string, backend Backend, opts ...Option) *Client {
	c := &Client{name: name, backend: backend}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name 返回该提供商的配置名。
func (c *Client) Name() string {
	return c.name
}

// Analyze 请求提供商对文本做结构化分析，并对返回的 JSON 做严格校验。
// 格式不合法的响应是永久性失败，不会被重试。
func (c *Client) Analyze(ctx context.Context, text string, profile Profile) (*models.ProviderReport, error) {
	prompt := renderAnalysisPrompt(profile, text)
	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	report, err := parseReport(raw)
	if err != nil {
		return nil, &models.ProviderError{
			Provider:    c.name,
			Reason:      "malformed analysis report",
			IsTransient: false,
			Err:         err,
		}
	}
	return report, nil
}

// Transform 请求提供商完成一步自由文本转换，供顺序流水线使用。
func (c *Client) Transform(ctx context.Context, text string, profile Profile) (string, error) {
	prompt := fmt.Sprintf("%s\n\nInput:\n%s", profile.Instruction, text)
	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	out := strings.TrimSpace(raw)
	if out == "" {
		return "", &models.ProviderError{
			Provider:    c.name,
			Reason:      fmt.Sprintf("empty output for step %q", profile.Name),
			IsTransient: false,
		}
	}
	return out, nil
}

// ClassifyKind 请求提供商对文本做类别判定，解析其中的类别词。
// 无法识别的回答是永久性失败。
func (c *Client) ClassifyKind(ctx context.Context, text string) (models.TaskKind, error) {
	prompt := fmt.Sprintf(
		"Classify the legal document below into exactly one category. "+
			"Answer with a single word: contract, compliance or research.\n\nDocument:\n%s", text)
	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	answer := strings.ToLower(raw)
	for _, kind := range models.KnownKinds {
		if strings.Contains(answer, string(kind)) {
			return kind, nil
		}
	}
	return "", &models.ProviderError{
		Provider:    c.name,
		Reason:      fmt.Sprintf("unrecognized classification answer %q", strings.TrimSpace(raw)),
		IsTransient: false,
	}
}

// generate 是所有调用的公共出口：先过限流器，再过熔断器，
// 最后把后端错误归一化为 ProviderError。
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil && !c.limiter.Allow() {
		return "", &models.ProviderError{
			Provider:    c.name,
			Reason:      "egress rate limit exceeded",
			IsTransient: true,
		}
	}

	var raw string
	var err error
	if c.breaker != nil {
		_, err = c.breaker.Execute(func() (interface{}, error) {
			var genErr error
			raw, genErr = c.backend.Generate(ctx, prompt)
			return nil, genErr
		})
		if err == circuitbreaker.ErrCircuitOpen {
			return "", &models.ProviderError{
				Provider:    c.name,
				Reason:      "circuit breaker open",
				IsTransient: true,
				Err:         err,
			}
		}
	} else {
		raw, err = c.backend.Generate(ctx, prompt)
	}

	if err != nil {
		return "", c.wrapBackendError(err)
	}
	return raw, nil
}

// wrapBackendError 将后端错误归一化。未分类的 SDK 错误按瞬态处理：
// 永久性必须由适配器显式标记。
func (c *Client) wrapBackendError(err error) error {
	if pe, ok := err.(*models.ProviderError); ok {
		return pe
	}
	return &models.ProviderError{
		Provider:    c.name,
		Reason:      "call failed",
		IsTransient: true,
		Err:         err,
	}
}

// renderAnalysisPrompt 渲染结构化分析的提示词，约束提供商输出严格 JSON。
func renderAnalysisPrompt(profile Profile, text string) string {
	return fmt.Sprintf(
		"%s\n\nRespond with a single JSON object and nothing else, using exactly this shape:\n"+
			`{"summary": "<one paragraph>", "score": <number 0-100>, "findings": `+
			`[{"category": "<short label>", "detail": "<explanation>", "severity": "low|medium|high"}]}`+
			"\n\nDocument:\n%s", profile.Instruction, text)
}

// NewClients 是工厂函数，按配置的优先级顺序构建启用的提供商客户端。
// 返回切片的顺序即合并时的主结果优先级。
func NewClients(ctx context.Context, cfg config.ProvidersConfig) ([]*Client, error) {
	var clients []*Client
	for _, name := range cfg.Priority {
		settings, err := settingsFor(cfg, name)
		if err != nil {
			return nil, err
		}
		if !settings.Enabled {
			continue
		}

		var backend Backend
		switch name {
		case "gemini":
			backend, err = NewGemini(ctx, settings.Model, settings.APIKey)
		case "openai":
			backend, err = NewOpenAI(settings.Model, settings.APIKey, settings.BaseURL)
		case "ollama":
			backend, err = NewOllama(settings.Model, settings.BaseURL)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create provider %q: %w", name, err)
		}

		var opts []Option
		if settings.RateLimit.Rate > 0 {
			opts = append(opts, WithRateLimiter(
				ratelimiter.NewTokenBucket(settings.RateLimit.Rate, settings.RateLimit.Capacity)))
		}
		if settings.Breaker.Enabled {
			timeout, err := time.ParseDuration(settings.Breaker.Timeout)
			if err != nil {
				return nil, fmt.Errorf("invalid breaker timeout for provider %q: %w", name, err)
			}
			opts = append(opts, WithCircuitBreaker(
				circuitbreaker.New(settings.Breaker.FailureThreshold, settings.Breaker.SuccessThreshold, timeout)))
		}

		clients = append(clients, NewClient(name, backend, opts...))
	}

	if len(clients) == 0 {
		return nil, fmt.Errorf("no analysis providers enabled")
	}
	return clients, nil
}

// settingsFor 按名称取出提供商配置。
func settingsFor(cfg config.ProvidersConfig, name string) (config.ProviderSettings, error) {
	switch name {
	case "gemini":
		return cfg.Gemini, nil
	case "openai":
		return cfg.OpenAI, nil
	case "ollama":
		return cfg.Ollama, nil
	default:
		return config.ProviderSettings{}, fmt.Errorf("unsupported provider: %s", name)
	}
}
