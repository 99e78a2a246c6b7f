package services

import (
	"context"
	"strings"
	"time"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/language"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/prompts"
	"github.com/ailat-kz/aaoifi-chat/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

// State names a step of the answer pipeline. It appears in debug logs.
type State string

const (
	StateStart           State = "start"
	StateDetecting       State = "detecting"
	StateNormalizing     State = "normalizing"
	StateRetrieving      State = "retrieving"
	StateNoMatches       State = "no_matches"
	StateAssembling      State = "assembling"
	StatePrompting       State = "prompting"
	StateGenerating      State = "generating"
	StateBackTranslating State = "back_translating"
	StateDone            State = "done"
)

// PromptSource returns the active template set.
type PromptSource interface {
	Current() *prompts.Set
}

type AnswererConfig struct {
	Mode             prompts.Mode
	LocalizeFallback bool
	Separator        string
	Temperature      float32
	MaxTokens        int
	CacheTTL         time.Duration
}

// Answerer runs one question through detect, normalize, retrieve, prompt
// and generate. It holds no per-request state and is safe for concurrent use.
type Answerer struct {
	retriever *Retriever
	chat      ChatCompleter
	prompts   PromptSource
	topics    *TopicPolicy
	cache     AnswerCache
	config    AnswererConfig
	logger    *logrus.Logger
}

// AnswererOption sets an optional collaborator.
type AnswererOption func(*Answerer)

// WithTopicPolicy narrows retrieval by topic rules.
func WithTopicPolicy(p *TopicPolicy) AnswererOption {
	return func(a *Answerer) { a.topics = p }
}

// WithAnswerCache enables the answer cache. It has no effect unless
// CacheTTL is positive.
func WithAnswerCache(c AnswerCache) AnswererOption {
	return func(a *Answerer) { a.cache = c }
}

func NewAnswerer(
	retriever *Retriever,
	chat ChatCompleter,
	source PromptSource,
	config AnswererConfig,
	logger *logrus.Logger,
	opts ...AnswererOption,
) *Answerer {
	if config.Mode == "" {
		config.Mode = prompts.ModeSingle
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 800
	}
	a := &Answerer{
		retriever: retriever,
		chat:      chat,
		prompts:   source,
		config:    config,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Answer returns the final answer text in the question's language.
func (a *Answerer) Answer(ctx context.Context, question string) (string, error) {
	start := time.Now()
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return "", ErrEmptyInput
	}

	log := a.logger.WithField("mode", a.config.Mode)
	trace := func(s State, fields logrus.Fields) {
		log.WithFields(fields).WithField("state", s).Debug("Answer pipeline")
	}
	trace(StateStart, logrus.Fields{"question": trimmed})

	set := a.prompts.Current()

	cacheKey := a.cacheKey(set.Version(), trimmed)
	if cached, ok := a.cachedAnswer(ctx, cacheKey); ok {
		log.WithField("key", cacheKey).Debug("Answer served from cache")
		return cached, nil
	}

	lang := language.Detect(trimmed)
	trace(StateDetecting, logrus.Fields{"language": lang})

	normalized := Normalize(trimmed)
	trace(StateNormalizing, logrus.Fields{"query": normalized.Query, "standard_number": normalized.StandardNumber})

	filter := a.topics.FilterFor(trimmed)
	matches, err := a.retriever.Retrieve(ctx, normalized, filter)
	if err != nil {
		return "", err
	}
	trace(StateRetrieving, logrus.Fields{"matches": len(matches)})

	// The fallback is not cached: an empty result may only mean the index
	// is being reseeded.
	if len(matches) == 0 {
		trace(StateNoMatches, nil)
		return set.Fallback(lang, a.config.LocalizeFallback), nil
	}

	excerpts := Assemble(matches, a.config.Separator)
	trace(StateAssembling, logrus.Fields{"excerpt_bytes": len(excerpts)})

	prompt, err := set.Build(a.config.Mode, prompts.Input{
		Question: trimmed,
		Language: lang,
		Excerpts: excerpts,
	})
	if err != nil {
		return "", err
	}
	trace(StatePrompting, nil)

	answer, err := a.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	trace(StateGenerating, logrus.Fields{"answer_bytes": len(answer)})

	if a.config.Mode == prompts.ModeTwoStep && !lang.IsEnglish() {
		back, err := set.BackTranslation(lang, answer)
		if err != nil {
			return "", err
		}
		answer, err = a.complete(ctx, back)
		if err != nil {
			return "", err
		}
		trace(StateBackTranslating, logrus.Fields{"language": lang})
	}

	answer = strings.TrimSpace(answer)
	a.storeAnswer(ctx, cacheKey, answer)

	log.WithFields(logrus.Fields{
		"language": lang,
		"matches":  len(matches),
		"duration": time.Since(start).Milliseconds(),
	}).Info("Question answered")
	trace(StateDone, nil)

	return answer, nil
}

func (a *Answerer) complete(ctx context.Context, p prompts.Prompt) (string, error) {
	text, err := a.chat.Complete(ctx, models.ChatRequest{
		Messages: []models.ChatMessage{
			{Role: models.RoleSystem, Content: p.System},
			{Role: models.RoleUser, Content: p.User},
		},
		Temperature: a.config.Temperature,
		MaxTokens:   a.config.MaxTokens,
	})
	if err != nil {
		return "", upstream("complete", err)
	}
	return strings.TrimSpace(text), nil
}

func (a *Answerer) cacheEnabled() bool {
	return a.cache != nil && a.config.CacheTTL > 0
}

// CacheKey is the cache key for a question in the given mode, answered
// with the prompt set of the given version.
func CacheKey(mode prompts.Mode, promptVersion, question string) string {
	return "answer:" + string(mode) + ":" + promptVersion + ":" + utils.MD5Hash(strings.ToLower(strings.TrimSpace(question)))
}

func (a *Answerer) cacheKey(promptVersion, question string) string {
	if !a.cacheEnabled() {
		return ""
	}
	return CacheKey(a.config.Mode, promptVersion, question)
}

func (a *Answerer) cachedAnswer(ctx context.Context, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	answer, ok, err := a.cache.GetAnswer(ctx, key)
	if err != nil {
		a.logger.WithError(err).WithField("key", key).Warn("Answer cache read failed")
		return "", false
	}
	return answer, ok
}

func (a *Answerer) storeAnswer(ctx context.Context, key, answer string) {
	if key == "" {
		return
	}
	if err := a.cache.SetAnswer(ctx, key, answer, a.config.CacheTTL); err != nil {
		a.logger.WithError(err).WithField("key", key).Warn("Answer cache write failed")
	}
}
