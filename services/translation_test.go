package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/portfoliobackend/logging"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestOpenAIEngineTranslate(t *testing.T) {
	var captured map[string]any
	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "https://llm.test/v1/chat/completions", req.URL.String())
		assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&captured))
		return jsonResponse(http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":" Hello \n"}}]}`), nil
	})}

	engine, err := NewOpenAIEngine("sk-test", WithHTTPClient(client), WithBaseURL("https://llm.test/v1/"), WithModel("test-model"))
	require.NoError(t, err)

	out, err := engine.Translate(context.Background(), TranslateRequest{Text: "Ciao", SourceLanguage: "it", TargetLanguage: "en"})
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)
	assert.Equal(t, "test-model", captured["model"])

	messages := captured["messages"].([]any)
	require.Len(t, messages, 2)
	system := messages[0].(map[string]any)["content"].(string)
	assert.Contains(t, system, "from Italian to English")
	assert.Equal(t, "Ciao", messages[1].(map[string]any)["content"])
}

func TestOpenAIEngineUpstreamError(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusTooManyRequests, `{"error":"rate limited"}`), nil
	})}
	engine, err := NewOpenAIEngine("sk-test", WithHTTPClient(client))
	require.NoError(t, err)

	_, err = engine.Translate(context.Background(), TranslateRequest{Text: "Ciao", SourceLanguage: "it", TargetLanguage: "fr"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestNewEnginesRequireCredentials(t *testing.T) {
	_, err := NewOpenAIEngine("  ")
	assert.Error(t, err)
	_, err = NewWorkersAIEngine("", "token")
	assert.Error(t, err)
	_, err = NewWorkersAIEngine("account", "")
	assert.Error(t, err)
}

func TestWorkersAIEngineTranslate(t *testing.T) {
	var captured map[string]string
	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "https://cf.test/accounts/acc-1/ai/run/@cf/meta/m2m100-1.2b", req.URL.String())
		assert.Equal(t, "Bearer cf-token", req.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&captured))
		return jsonResponse(http.StatusOK, `{"success":true,"result":{"translated_text":"你好"},"errors":[]}`), nil
	})}

	engine, err := NewWorkersAIEngine("acc-1", "cf-token", WithHTTPClient(client), WithBaseURL("https://cf.test"))
	require.NoError(t, err)

	out, err := engine.Translate(context.Background(), TranslateRequest{Text: "Ciao", SourceLanguage: "it", TargetLanguage: "tw"})
	require.NoError(t, err)
	assert.Equal(t, "你好", out)
	assert.Equal(t, map[string]string{"text": "Ciao", "source_lang": "it", "target_lang": "zh"}, captured)
}

func TestEnginesRejectUnsupportedLanguage(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})}
	openai, err := NewOpenAIEngine("sk", WithHTTPClient(client))
	require.NoError(t, err)
	_, err = openai.Translate(context.Background(), TranslateRequest{Text: "x", SourceLanguage: "it", TargetLanguage: "de"})
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)

	workers, err := NewWorkersAIEngine("acc", "tok", WithHTTPClient(client))
	require.NoError(t, err)
	_, err = workers.Translate(context.Background(), TranslateRequest{Text: "x", SourceLanguage: "xx", TargetLanguage: "en"})
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)

	_, err = workers.Translate(context.Background(), TranslateRequest{Text: "你好", SourceLanguage: "zh", TargetLanguage: "zh-tw"})
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

type fakeEngine struct {
	name  string
	calls int
	out   string
	err   error
	last  TranslateRequest
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Translate(_ context.Context, req TranslateRequest) (string, error) {
	f.calls++
	f.last = req
	return f.out, f.err
}

type mockCmdable struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	val, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.data[key] = value.(string)
	m.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func TestTranslatorNotConfigured(t *testing.T) {
	tr := NewTranslator(logging.Nop(), nil, nil, nil)
	assert.False(t, tr.Configured())

	_, err := tr.Translate(context.Background(), TranslateRequest{Text: "Ciao", TargetLanguage: "en"})
	assert.ErrorIs(t, err, ErrTranslationNotConfigured)
}

func TestTranslatorPicksFirstEngineAndDefaultsSource(t *testing.T) {
	first := &fakeEngine{name: "openai", out: "Hello"}
	second := &fakeEngine{name: "workers-ai", out: "unused"}
	tr := NewTranslator(logging.Nop(), nil, nil, nil, first, second)

	res, err := tr.Translate(context.Background(), TranslateRequest{Text: "Ciao", TargetLanguage: "EN"})
	require.NoError(t, err)
	assert.Equal(t, TranslationResult{
		TranslatedText: "Hello",
		SourceLanguage: "it",
		TargetLanguage: "en",
		OriginalText:   "Ciao",
		Engine:         "openai",
	}, res)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
	assert.Equal(t, "it", first.last.SourceLanguage)
}

func TestTranslatorUnsupportedTarget(t *testing.T) {
	engine := &fakeEngine{name: "openai", out: "x"}
	tr := NewTranslator(logging.Nop(), nil, nil, engine)

	_, err := tr.Translate(context.Background(), TranslateRequest{Text: "Ciao", TargetLanguage: "de"})
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	assert.Equal(t, 0, engine.calls)
}

func TestTranslatorSameLanguageSkipsEngine(t *testing.T) {
	engine := &fakeEngine{name: "openai", out: "x"}
	tr := NewTranslator(logging.Nop(), nil, nil, engine)

	res, err := tr.Translate(context.Background(), TranslateRequest{Text: "Ciao", SourceLanguage: "it", TargetLanguage: "it"})
	require.NoError(t, err)
	assert.Equal(t, "Ciao", res.TranslatedText)
	assert.Equal(t, 0, engine.calls)
}

func TestTranslatorPropagatesEngineError(t *testing.T) {
	engine := &fakeEngine{name: "openai", err: errors.New("upstream exploded")}
	tr := NewTranslator(logging.Nop(), nil, nil, engine)

	_, err := tr.Translate(context.Background(), TranslateRequest{Text: "Ciao", TargetLanguage: "en"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream exploded")
}

func TestTranslatorUsesCache(t *testing.T) {
	mock := newMockCmdable()
	cache := &RedisTranslationCache{store: mock, ttl: time.Hour}
	engine := &fakeEngine{name: "openai", out: "Hello"}
	tr := NewTranslator(logging.Nop(), nil, cache, engine)

	req := TranslateRequest{Text: "Ciao", SourceLanguage: "it", TargetLanguage: "en"}
	first, err := tr.Translate(context.Background(), req)
	require.NoError(t, err)
	second, err := tr.Translate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, engine.calls)

	key := TranslationCacheKey("openai", req)
	assert.Equal(t, "Hello", mock.data[key])
	assert.Equal(t, time.Hour, mock.ttls[key])
}

func TestTranslationCacheKeyDistinguishesFields(t *testing.T) {
	a := TranslationCacheKey("openai", TranslateRequest{Text: "ab", SourceLanguage: "it", TargetLanguage: "en"})
	b := TranslationCacheKey("openai", TranslateRequest{Text: "ab", SourceLanguage: "it", TargetLanguage: "fr"})
	c := TranslationCacheKey("workers-ai", TranslateRequest{Text: "ab", SourceLanguage: "it", TargetLanguage: "en"})
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "portfolio:translation:"))
}

func TestRedisTranslationCacheMiss(t *testing.T) {
	cache := &RedisTranslationCache{store: newMockCmdable(), ttl: time.Minute}
	val, found, err := cache.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, val)
}
