package workbench_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"reelforge/internal/assets"
	"reelforge/internal/poller"
	"reelforge/internal/services"
	"reelforge/internal/services/factory"
	"reelforge/internal/testsupport"
	"reelforge/internal/workbench"
	"reelforge/internal/workflow"
)

type fixture struct {
	svc        *testsupport.FakeService
	client     *factory.Client
	controller *workflow.Controller
	tracker    *assets.Tracker
	bench      *workbench.Workbench
}

func newFixture(t *testing.T, opts ...workbench.Option) *fixture {
	t.Helper()
	svc := testsupport.NewFakeService(t)
	client, err := factory.NewClient(factory.Config{
		BaseURL:      svc.BaseURL(),
		ShortTimeout: 5 * time.Second,
		LongTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	controller := workflow.NewController(workflow.WithAutoAdvance(false))
	tracker := assets.NewTracker(client, controller)
	opts = append([]workbench.Option{workbench.WithTracker(tracker)}, opts...)
	return &fixture{
		svc:        svc,
		client:     client,
		controller: controller,
		tracker:    tracker,
		bench:      workbench.New(client, controller, opts...),
	}
}

func sampleScript() factory.VideoScript {
	return factory.VideoScript{
		Title: "Oceans",
		Segments: []factory.Segment{
			{Text: "The ocean is deep.", VisualKeyword: "ocean", DurationEstimate: 3},
			{Text: "Whales sing.", VisualKeyword: "whale", DurationEstimate: 2},
			{Text: "Waves crash.", VisualKeyword: "ocean", DurationEstimate: 2},
		},
	}
}

func TestMineThenScriptResetsKeywords(t *testing.T) {
	f := newFixture(t)
	f.svc.OK(http.MethodPost, "/scraper/mine", factory.RawContent{Title: "Oceans", Body: "Oceans cover most of the planet."})
	f.svc.OK(http.MethodPost, "/llm/generate", sampleScript())
	ctx := context.Background()

	if _, err := f.bench.MineTopic(ctx, "oceans", ""); err != nil {
		t.Fatalf("MineTopic: %v", err)
	}
	if f.controller.Artifacts().Content == nil {
		t.Fatal("expected content artifact")
	}
	if f.controller.Reachable(workflow.StageScripting) {
		t.Fatal("scripting stage must stay gated until a script exists")
	}

	script, err := f.bench.GenerateScript(ctx, "", "")
	if err != nil {
		t.Fatalf("GenerateScript: %v", err)
	}
	_, body := f.svc.LastRequest(http.MethodPost, "/llm/generate")
	var sent map[string]any
	if err := json.Unmarshal(body, &sent); err != nil {
		t.Fatalf("decode script request: %v", err)
	}
	if sent["raw_text"] != "Oceans cover most of the planet." || sent["title"] != "Oceans" {
		t.Fatalf("expected content body and title to be sent, got %v", sent)
	}
	if len(script.Segments) != 3 || !f.controller.Reachable(workflow.StageAssets) {
		t.Fatal("expected script stored and stages 2-4 reachable")
	}
	if diff := cmp.Diff([]string{"ocean", "whale"}, f.tracker.Keywords()); diff != "" {
		t.Fatalf("keywords mismatch (-want +got):\n%s", diff)
	}
	if panel := f.bench.Panel(); panel.LastError != "" || panel.LastMessage == "" {
		t.Fatalf("unexpected panel %+v", panel)
	}

	if _, err := f.bench.MineTopic(ctx, "whales", ""); err != nil {
		t.Fatalf("second MineTopic: %v", err)
	}
	if f.controller.Artifacts().Script != nil {
		t.Fatal("new content must supersede the script")
	}
	if got := f.tracker.Keywords(); len(got) != 0 {
		t.Fatalf("expected keywords cleared by new content, got %v", got)
	}
	if _, err := f.tracker.Download(ctx, "ocean"); !errors.Is(err, assets.ErrUnknownKeyword) {
		t.Fatalf("expected old keyword to be unknown, got %v", err)
	}
}

func TestGenerateScriptWithoutContentFails(t *testing.T) {
	f := newFixture(t)
	_, err := f.bench.GenerateScript(context.Background(), "", "")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.bench.Panel().LastError == "" {
		t.Fatal("expected panel error")
	}
}

func TestServiceErrorSurfacesVerbatimAndKeepsState(t *testing.T) {
	f := newFixture(t)
	f.svc.OK(http.MethodGet, "/scraper/wikipedia/random", factory.RawContent{Title: "Kelp"})
	f.svc.Fail(http.MethodGet, "/scraper/wikipedia/search", "Aucun article trouvé")
	ctx := context.Background()

	if _, err := f.bench.MineRandom(ctx); err != nil {
		t.Fatalf("MineRandom: %v", err)
	}
	_, err := f.bench.SearchWikipedia(ctx, "nothing")
	if !services.IsApplication(err) {
		t.Fatalf("expected application error, got %v", err)
	}
	if got := f.bench.Panel().LastError; got != "Aucun article trouvé" {
		t.Fatalf("expected verbatim service message, got %q", got)
	}
	if content := f.controller.Artifacts().Content; content == nil || content.Title != "Kelp" {
		t.Fatalf("failed request must not change content, got %+v", content)
	}
}

func TestRenderRequiresAudioAndAssets(t *testing.T) {
	f := newFixture(t)
	script := sampleScript()
	f.controller.SetScript(&script)

	if _, err := f.bench.Render(context.Background()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error before audio and assets, got %v", err)
	}
}

func TestRenderSendsScriptAudioAndFetchedAssets(t *testing.T) {
	f := newFixture(t)
	script := sampleScript()
	f.svc.OK(http.MethodPost, "/tts/generate", factory.TTSData{
		SessionID: "tts-1",
		Segments: []factory.AudioSegment{
			{Index: 0, FilePath: "/a/0.mp3", Exists: true},
			{Index: 1, FilePath: "/a/1.mp3", Exists: true},
			{Index: 2, FilePath: "/a/2.mp3", Exists: true},
		},
	})
	f.svc.OK(http.MethodPost, "/editor/render", map[string]string{"session_id": "render-9"})
	ctx := context.Background()

	f.controller.SetScript(&script)
	if _, err := f.bench.GenerateAudio(ctx); err != nil {
		t.Fatalf("GenerateAudio: %v", err)
	}
	f.controller.SetAssets(&factory.AssetsData{Assets: []*factory.VideoAsset{
		{Keyword: "ocean", FilePath: "/v/ocean.mp4"},
		nil,
	}})
	if !f.controller.Reachable(workflow.StageRender) {
		t.Fatal("expected render stage reachable")
	}

	id, err := f.bench.Render(ctx)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if id != "render-9" {
		t.Fatalf("unexpected render id %q", id)
	}
	_, body := f.svc.LastRequest(http.MethodPost, "/editor/render")
	var sent factory.RenderRequest
	if err := json.Unmarshal(body, &sent); err != nil {
		t.Fatalf("decode render request: %v", err)
	}
	if diff := cmp.Diff([]string{"/a/0.mp3", "/a/1.mp3", "/a/2.mp3"}, sent.AudioPaths); diff != "" {
		t.Fatalf("audio paths mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/v/ocean.mp4"}, sent.AssetPaths); diff != "" {
		t.Fatalf("asset paths mismatch (-want +got):\n%s", diff)
	}
	if sent.SessionID != "tts-1" || sent.Script.Title != "Oceans" {
		t.Fatalf("unexpected render request %+v", sent)
	}
}

func TestStartPipelineHandsSessionToPoller(t *testing.T) {
	svc := testsupport.NewFakeService(t)
	client, err := factory.NewClient(factory.Config{BaseURL: svc.BaseURL(), ShortTimeout: time.Second, LongTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	svc.OK(http.MethodPost, "/pipeline/start", map[string]string{"session_id": "s1"})
	svc.OK(http.MethodGet, "/pipeline/status/s1", factory.PipelineStatus{Status: "completed", Phase: "done", Progress: 100})

	p := poller.New(client, poller.WithInterval(10*time.Millisecond))
	defer p.Stop()
	bench := workbench.New(client, workflow.NewController(workflow.WithAutoAdvance(false)), workbench.WithPoller(p))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	id, handle, err := bench.StartPipeline(ctx, "", false)
	if err != nil {
		t.Fatalf("StartPipeline: %v", err)
	}
	if id != "s1" || handle == nil {
		t.Fatalf("expected poller handle for s1, got %q %v", id, handle)
	}
	if err := handle.Wait(ctx); err != nil {
		t.Fatalf("poll loop: %v", err)
	}
	latest, ok := p.Latest()
	if !ok || latest.Status.Status != "completed" {
		t.Fatalf("expected completed snapshot, got %+v", latest)
	}
	_, body := svc.LastRequest(http.MethodPost, "/pipeline/start")
	var sent map[string]any
	_ = json.Unmarshal(body, &sent)
	if sent["topic"] != "random" {
		t.Fatalf("expected default topic, got %v", sent["topic"])
	}
}
