package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/espalier/internal/config"
	"github.com/aretw0/espalier/internal/fakes"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Store.Backend = config.StoreMemory
	return &cfg
}

func scriptedModel() *fakes.Model {
	return fakes.NewModel().
		On("search queries", `["qubits","gates"]`).
		On("key findings", `["Qubits are fragile"]`).
		On("comprehensive summary", "Quantum summary.")
}

func scriptedSearcher() *fakes.Searcher {
	s := fakes.NewSearcher()
	s.Results["qubits"] = []domain.SearchResult{{Content: "about qubits"}}
	s.Results["gates"] = []domain.SearchResult{{Content: "about gates"}}
	return s
}

func build(t *testing.T, cfg *config.Config, opts ...BuildOption) *App {
	t.Helper()
	app, err := Build(context.Background(), cfg, logging.NewNop(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app
}

func researchJSON(t *testing.T, app *App, topic string) (reportJSON, error) {
	t.Helper()
	var out bytes.Buffer
	err := Research(context.Background(), app, topic, &out, OutputOptions{JSON: true})
	var body reportJSON
	require.NoError(t, json.Unmarshal(out.Bytes(), &body))
	return body, err
}

func TestBuild_RequiresCredentials(t *testing.T) {
	_, err := Build(context.Background(), testConfig(), logging.NewNop())
	assert.ErrorIs(t, err, ports.ErrNotConfigured)
}

func TestBuild_StoreOnlySkipsProviders(t *testing.T) {
	app := build(t, testConfig(), StoreOnly())
	assert.Nil(t, app.Service)
	require.NotNil(t, app.Runs)

	var out bytes.Buffer
	require.NoError(t, ListRuns(context.Background(), app, &out, OutputOptions{}))
	assert.Contains(t, out.String(), "No stored runs found.")
}

func TestResearch_PersistsAndLists(t *testing.T) {
	app := build(t, testConfig(), WithModel(scriptedModel()), WithSearcher(scriptedSearcher()))
	ctx := context.Background()

	body, err := researchJSON(t, app, "  quantum computing ")
	require.NoError(t, err)
	assert.Equal(t, "quantum computing", body.Topic)
	assert.Equal(t, 2, body.Result.NumResults)
	assert.Equal(t, "Quantum summary.", body.Result.Summary)
	assert.Empty(t, body.Error)

	require.NoError(t, app.Recorder.Close(ctx))

	var out bytes.Buffer
	require.NoError(t, ListRuns(ctx, app, &out, OutputOptions{}))
	assert.Contains(t, out.String(), "- "+body.RequestID)

	out.Reset()
	require.NoError(t, InspectRun(ctx, app, body.RequestID, &out, OutputOptions{}))
	assert.Contains(t, out.String(), "**Status:** completed")
	assert.Contains(t, out.String(), "Quantum summary.")

	out.Reset()
	require.NoError(t, RemoveRuns(ctx, app, []string{body.RequestID}, &out))
	assert.Contains(t, out.String(), "Removed run")
}

func TestResearch_MarkdownOutput(t *testing.T) {
	app := build(t, testConfig(), WithModel(scriptedModel()), WithSearcher(scriptedSearcher()))

	var out bytes.Buffer
	require.NoError(t, Research(context.Background(), app, "quantum", &out, OutputOptions{}))
	assert.Contains(t, out.String(), `>>> Researching "quantum"...`)
	assert.Contains(t, out.String(), "# quantum")
	assert.Contains(t, out.String(), "- Qubits are fragile")
}

func TestResearch_InvalidTopic(t *testing.T) {
	model := scriptedModel()
	app := build(t, testConfig(), WithModel(model), WithSearcher(scriptedSearcher()))

	err := Research(context.Background(), app, " \n\t ", &bytes.Buffer{}, OutputOptions{})
	assert.ErrorIs(t, err, domain.ErrEmptyTopic)
	assert.Empty(t, model.Calls())
}

func TestResume_AfterFailure(t *testing.T) {
	model := fakes.NewModel().
		On("search queries", `["qubits"]`).
		On("key findings", `["Qubits are fragile"]`).
		Fail("comprehensive summary", errors.New("model down"))
	app := build(t, testConfig(), WithModel(model), WithSearcher(scriptedSearcher()))
	ctx := context.Background()

	body, err := researchJSON(t, app, "quantum")
	require.Error(t, err)
	assert.Equal(t, "extract_findings", body.Step)
	assert.Contains(t, body.Error, "model down")

	require.Eventually(t, func() bool {
		_, err := app.Runs.Load(ctx, body.RequestID)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	model.Reset().On("comprehensive summary", "Recovered summary.")

	var out bytes.Buffer
	require.NoError(t, Resume(ctx, app, body.RequestID, &out, OutputOptions{JSON: true}))
	var resumed reportJSON
	require.NoError(t, json.Unmarshal(out.Bytes(), &resumed))
	assert.Equal(t, "Recovered summary.", resumed.Result.Summary)
	assert.Equal(t, []string{"Qubits are fragile"}, resumed.Result.KeyFindings)

	err = Resume(ctx, app, body.RequestID, &bytes.Buffer{}, OutputOptions{JSON: true})
	assert.Error(t, err)
}

func TestBuild_RedisBackendWithCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Store.Backend = config.StoreRedis
	cfg.Store.RedisURL = "redis://" + mr.Addr()
	cfg.Search.Cache.Enabled = true

	searcher := scriptedSearcher()
	app := build(t, cfg, WithModel(scriptedModel()), WithSearcher(searcher))
	ctx := context.Background()

	_, err := researchJSON(t, app, "quantum")
	require.NoError(t, err)
	_, err = researchJSON(t, app, "quantum again")
	require.NoError(t, err)

	// The second run is served from the cache.
	assert.Len(t, searcher.Queries(), 2)

	require.NoError(t, app.Recorder.Close(ctx))
	ids, err := app.Runs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestBuild_UnreachableRedis(t *testing.T) {
	cfg := testConfig()
	cfg.Store.Backend = config.StoreRedis
	cfg.Store.RedisURL = "redis://127.0.0.1:1"

	_, err := Build(context.Background(), cfg, logging.NewNop(), StoreOnly())
	assert.Error(t, err)
}

func TestWrapStore_RedactsThenEncrypts(t *testing.T) {
	inner := memory.NewStore()
	store, err := wrapStore(inner, config.StoreConfig{
		Redact:        []string{`sk-[a-z0-9]+`},
		EncryptionKey: "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=",
	})
	require.NoError(t, err)

	ctx := context.Background()
	s := domain.NewState("keys")
	s.Summary = "token sk-abc123 leaked"
	require.NoError(t, store.Save(ctx, domain.NewSnapshot("w-1", s, time.Now())))

	raw, err := inner.Load(ctx, "w-1")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)

	loaded, err := store.Load(ctx, "w-1")
	require.NoError(t, err)
	assert.Equal(t, "token *** leaked", loaded.State.Summary)
}

func TestWrapStore_InvalidSettings(t *testing.T) {
	_, err := wrapStore(memory.NewStore(), config.StoreConfig{EncryptionKey: "short"})
	assert.Error(t, err)

	_, err = wrapStore(memory.NewStore(), config.StoreConfig{Redact: []string{"("}})
	assert.Error(t, err)
}

func TestNewHTTPHandler(t *testing.T) {
	app := build(t, testConfig(), WithModel(scriptedModel()), WithSearcher(scriptedSearcher()))
	handler, err := NewHTTPHandler(app)
	require.NoError(t, err)

	for _, path := range []string{"/health", "/metrics", "/runs"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
