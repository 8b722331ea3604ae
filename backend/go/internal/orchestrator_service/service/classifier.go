package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"LexiMind/backend/go/internal/models"
	"LexiMind/backend/go/pkg/logger"
	"LexiMind/backend/go/pkg/util"
)

// KindClient is the provider capability the classifier escalates to when
// the keyword heuristic is not confident enough.
type KindClient interface {
	Name() string
	ClassifyKind(ctx context.Context, text string) (models.TaskKind, error)
}

// kindSignals maps each task kind to the keywords that vote for it.
// Matching is case-insensitive on the document text.
var kindSignals = map[models.TaskKind][]string{
	models.TaskKindContract: {
		"agreement", "party", "parties", "termination",
		"liability", "indemnify", "warranty", "hereinafter",
	},
	models.TaskKindCompliance: {
		"compliance", "regulatory", "regulation", "requirements",
		"gdpr", "audit", "obligation", "policy",
	},
	models.TaskKindResearch: {
		"research", "precedent", "case law", "statute",
		"jurisdiction", "ruling", "doctrine",
	},
}

// minSignalMatches is how many distinct keyword hits a kind needs before
// the heuristic is trusted without escalating to a provider.
const minSignalMatches = 2

// Classifier decides the kind of an untyped task. It tries a cheap keyword
// heuristic first and escalates to the highest-priority provider only when
// the heuristic cannot decide. Escalation answers are cached by content hash.
type Classifier struct {
	escalation        KindClient
	escalationTimeout time.Duration
	cache             *util.LRUCache[string, models.TaskKind]
	log               *logger.Logger
}

// ClassifierOptions configures a Classifier.
type ClassifierOptions struct {
	// Escalation resolves texts the heuristic cannot. Nil disables
	// escalation, making low-confidence classification an error.
	Escalation KindClient
	// EscalationTimeout bounds a single escalation call.
	EscalationTimeout time.Duration
	// CacheCapacity and CacheTTL configure the escalation answer cache.
	CacheCapacity int
	CacheTTL      time.Duration
}

// NewClassifier creates a classifier. The escalation cache is sized by the
// options; a non-positive capacity disables caching.
func NewClassifier(opts ClassifierOptions, log *logger.Logger) (*Classifier, error) {
	c := &Classifier{
		escalation:        opts.Escalation,
		escalationTimeout: opts.EscalationTimeout,
		log:               log,
	}
	if opts.CacheCapacity > 0 {
		cache, err := util.NewLRUCache[string, models.TaskKind](util.CacheConfig{
			Capacity: opts.CacheCapacity,
			TTL:      opts.CacheTTL,
		})
		if err != nil {
			return nil, err
		}
		c.cache = cache
	}
	return c, nil
}

// Classify determines the task kind for the given text.
func (c *Classifier) Classify(ctx context.Context, text string) (*models.Classification, error) {
	if result := classifyBySignals(text); result != nil {
		return result, nil
	}
	return c.escalate(ctx, text)
}

// classifyBySignals runs the keyword heuristic. It returns nil when no kind
// collects enough signal matches to be trusted.
func classifyBySignals(text string) *models.Classification {
	lowered := strings.ToLower(text)

	type score struct {
		kind    models.TaskKind
		matched []string
	}
	var scores []score
	for _, kind := range models.KnownKinds {
		var matched []string
		for _, signal := range kindSignals[kind] {
			if strings.Contains(lowered, signal) {
				matched = append(matched, signal)
			}
		}
		scores = append(scores, score{kind: kind, matched: matched})
	}

	// Most matches wins; ties resolve by the fixed kind order, which the
	// iteration above already follows, so a stable sort suffices.
	sort.SliceStable(scores, func(i, j int) bool {
		return len(scores[i].matched) > len(scores[j].matched)
	})

	best := scores[0]
	if len(best.matched) < minSignalMatches {
		return nil
	}

	confidence := float64(len(best.matched)) / 5
	if confidence > 1 {
		confidence = 1
	}
	return &models.Classification{
		Kind:           best.kind,
		Confidence:     confidence,
		MatchedSignals: best.matched,
	}
}

// escalate asks the escalation provider for a verdict. Escalation calls are
// not retried: an inconclusive heuristic plus a failed provider call fails
// the classification.
func (c *Classifier) escalate(ctx context.Context, text string) (*models.Classification, error) {
	if c.escalation == nil {
		return nil, fmt.Errorf("classification inconclusive and no escalation provider configured")
	}

	key := contentHash(text)
	if c.cache != nil {
		if kind, ok := c.cache.Get(key); ok {
			return &models.Classification{Kind: kind, Confidence: 0.5, Escalated: true}, nil
		}
	}

	callCtx := ctx
	if c.escalationTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.escalationTimeout)
		defer cancel()
	}

	kind, err := c.escalation.ClassifyKind(callCtx, text)
	if err != nil {
		return nil, fmt.Errorf("classification escalation via %s failed: %w", c.escalation.Name(), err)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("classification escalation via %s returned unknown kind %q", c.escalation.Name(), kind)
	}

	if c.cache != nil {
		c.cache.Put(key, kind)
	}
	c.log.Debug(fmt.Sprintf("classification escalated to provider %s, verdict %s", c.escalation.Name(), kind))
	return &models.Classification{Kind: kind, Confidence: 0.5, Escalated: true}, nil
}

// contentHash keys the escalation cache by document content.
func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
