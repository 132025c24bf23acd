package editor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/ByLCY/glasscard/card"
	"github.com/ByLCY/glasscard/export"
	"github.com/ByLCY/glasscard/mutation"
	"github.com/ByLCY/glasscard/resource"
	"github.com/ByLCY/glasscard/surface"
)

// stubTypesetter 按 0.5em 估算字宽，每段一行。
type stubTypesetter struct{}

func (stubTypesetter) LayoutLines(content string, width float64, font surface.Font, fontSize, lineHeight float64) ([]surface.TextLine, error) {
	var lines []surface.TextLine
	for _, para := range strings.Split(content, "\n") {
		lines = append(lines, surface.TextLine{Content: para, Width: float64(len(para)) * fontSize * 0.5, Height: fontSize})
	}
	return lines, nil
}

// recordingRenderer 记录导出时收到的快照。
type recordingRenderer struct {
	mu   sync.Mutex
	seen []*surface.Tree
}

func (r *recordingRenderer) Rasterize(tree *surface.Tree, images map[string]image.Image, scale float64) (*image.RGBA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, tree)
	return image.NewRGBA(image.Rect(0, 0, int(tree.Width*scale), int(tree.Height*scale))), nil
}

type fixture struct {
	session  *Session
	store    *resource.Store
	renderer *recordingRenderer
	sink     *export.MemorySink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := resource.NewStore(resource.Options{})
	rr := &recordingRenderer{}
	sink := &export.MemorySink{}
	exp := export.NewExporter(export.Options{Renderer: rr, Resources: store, Sink: sink})
	s, err := NewSession(Options{Typesetter: stubTypesetter{}, Store: store, Exporter: exp})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(s.Close)
	return &fixture{session: s, store: store, renderer: rr, sink: sink}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func roles(tree *surface.Tree) map[string]string {
	out := map[string]string{}
	for _, tb := range tree.Texts() {
		out[tb.Role] = tb.Content
	}
	return out
}

func TestDefaultSessionRendersQuoteCard(t *testing.T) {
	f := newFixture(t)
	tree := f.session.Tree()

	if tree.Width != 560 || tree.Height != 560 {
		t.Fatalf("unexpected canvas %gx%g", tree.Width, tree.Height)
	}
	if tree.Root.Fill.Kind != surface.FillGradient {
		t.Fatalf("default background should be the gradient, got %s", tree.Root.Fill.Kind)
	}
	texts := roles(tree)
	if texts[string(card.FieldQuoteText)] != card.Default().QuoteText {
		t.Fatalf("quote text missing: %v", texts)
	}
	if len(tree.Glyphs()) != 1 || tree.Glyphs()[0].Name != "Sparkles" {
		t.Fatalf("expected Sparkles glyph, got %+v", tree.Glyphs())
	}
}

func TestSwitchTemplateToQA(t *testing.T) {
	f := newFixture(t)
	if err := f.session.Dispatch(mutation.SelectTemplate{Template: card.TemplateQA}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	texts := roles(f.session.Tree())
	if _, ok := texts[string(card.FieldQuoteText)]; ok {
		t.Fatalf("quote text must not render in qa template")
	}
	if texts[string(card.FieldQuestionText)] != card.Default().QuestionText ||
		texts[string(card.FieldAnswerText)] != card.Default().AnswerText {
		t.Fatalf("qa texts missing: %v", texts)
	}
	if f.session.Document().QuoteText != card.Default().QuoteText {
		t.Fatalf("quote text must be retained in the document")
	}
}

func TestUploadBackgroundThenSelectGradient(t *testing.T) {
	f := newFixture(t)
	ref, err := f.session.UploadBackground(pngBytes(t), "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	tree := f.session.Tree()
	if tree.Root.Fill.Kind != surface.FillImage || tree.Root.Fill.Image.Ref != ref {
		t.Fatalf("background image should win, got %+v", tree.Root.Fill)
	}
	if tree.Find(surface.RegionOverlay) != nil {
		t.Fatalf("overlay only renders over gradients")
	}

	if err := f.session.Dispatch(mutation.SelectGradient{Index: 2}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	doc := f.session.Document()
	if doc.BackgroundImage != "" || doc.GradientIndex != 2 {
		t.Fatalf("unexpected document %+v", doc)
	}
	if f.session.Tree().Root.Fill.Kind != surface.FillGradient {
		t.Fatalf("gradient should render after clearing background")
	}
	if f.store.Live() != 0 {
		t.Fatalf("superseded background must be released, live=%d", f.store.Live())
	}
}

func TestReplacingBackgroundReleasesPrevious(t *testing.T) {
	f := newFixture(t)
	first, err := f.session.UploadBackground(pngBytes(t), "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	second, err := f.session.UploadBackground(pngBytes(t), "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if first == second {
		t.Fatalf("uploads must get distinct refs")
	}
	if f.store.Live() != 1 {
		t.Fatalf("expected only the current background alive, live=%d", f.store.Live())
	}
	if _, err := f.store.Load(context.Background(), first); !errors.Is(err, resource.ErrUnknownRef) {
		t.Fatalf("first background should be freed, got %v", err)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	f := newFixture(t)
	before := f.session.Document()
	if _, err := f.session.UploadBackground([]byte("plain text"), "text/plain"); !errors.Is(err, resource.ErrNotImage) {
		t.Fatalf("expected ErrNotImage, got %v", err)
	}
	if f.session.Document() != before || f.store.Live() != 0 {
		t.Fatalf("rejected upload must not change state")
	}
}

func TestPasteRoutesToCardImage(t *testing.T) {
	f := newFixture(t)
	if err := f.session.Dispatch(mutation.SelectTemplate{Template: card.TemplateImageText}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	ok, err := f.session.Paste([]ClipboardItem{
		{ContentType: "text/plain", Data: []byte("hello")},
		{ContentType: "image/png", Data: pngBytes(t)},
	})
	if err != nil || !ok {
		t.Fatalf("paste: ok=%v err=%v", ok, err)
	}
	doc := f.session.Document()
	if doc.CardImage == "" || doc.BackgroundImage != "" {
		t.Fatalf("paste should fill the card image only, got %+v", doc)
	}
	region := f.session.Tree().Find(surface.RegionCardImage)
	if region == nil || region.Fill.Image.Ref != doc.CardImage {
		t.Fatalf("card image region missing")
	}
}

func TestPasteWithoutImageIsIgnored(t *testing.T) {
	f := newFixture(t)
	calls := 0
	f.session.Subscribe(func(card.Document, *surface.Tree) { calls++ })

	before := f.session.Document()
	ok, err := f.session.Paste([]ClipboardItem{{ContentType: "text/plain", Data: []byte("just text")}})
	if err != nil || ok {
		t.Fatalf("expected ignored paste, ok=%v err=%v", ok, err)
	}
	if f.session.Document() != before || calls != 0 {
		t.Fatalf("ignored paste must not produce a patch")
	}
}

func TestInvalidActionLeavesDocument(t *testing.T) {
	f := newFixture(t)
	before := f.session.Document()
	tree := f.session.Tree()
	if err := f.session.Dispatch(mutation.SelectIcon{Name: "Unicorn"}); !errors.Is(err, mutation.ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection, got %v", err)
	}
	if f.session.Document() != before || f.session.Tree() != tree {
		t.Fatalf("invalid action must not commit")
	}
}

func TestDispatchUnknownRef(t *testing.T) {
	f := newFixture(t)
	err := f.session.Dispatch(mutation.SetBackgroundImage{Ref: "blob:nope"})
	if !errors.Is(err, resource.ErrUnknownRef) {
		t.Fatalf("expected ErrUnknownRef, got %v", err)
	}
	if f.session.Document().BackgroundImage != "" {
		t.Fatalf("unknown ref must not be committed")
	}
}

func TestSubscribeAndCancel(t *testing.T) {
	f := newFixture(t)
	var got []string
	cancel := f.session.Subscribe(func(doc card.Document, tree *surface.Tree) {
		got = append(got, doc.QuoteAuthor)
	})
	if err := f.session.Dispatch(mutation.EditText{Field: card.FieldQuoteAuthor, Value: "A"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	cancel()
	if err := f.session.Dispatch(mutation.EditText{Field: card.FieldQuoteAuthor, Value: "B"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(got) != 1 || got[0] != "A" {
		t.Fatalf("unexpected notifications %v", got)
	}
}

// 导出开始后继续编辑：导出结果对应开始时的快照。
func TestExportSnapshotIgnoresLaterEdits(t *testing.T) {
	f := newFixture(t)
	ref, err := f.session.UploadBackground(pngBytes(t), "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	job, err := f.session.BeginExport(export.FormatPNG)
	if err != nil {
		t.Fatalf("begin export: %v", err)
	}
	if _, err := f.session.Export(context.Background(), export.FormatPNG); !errors.Is(err, export.ErrExportInProgress) {
		t.Fatalf("second export should be ignored, got %v", err)
	}
	if err := f.session.Dispatch(mutation.EditText{Field: card.FieldQuoteText, Value: "edited"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if err := f.session.Dispatch(mutation.ClearBackgroundImage{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if f.store.Live() != 1 {
		t.Fatalf("export must keep its background alive, live=%d", f.store.Live())
	}

	res, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Name != "liquid-glass-card.png" {
		t.Fatalf("unexpected file %q", res.Name)
	}
	snap := f.renderer.seen[0]
	if roles(snap)[string(card.FieldQuoteText)] != card.Default().QuoteText {
		t.Fatalf("export must use the snapshot text")
	}
	if snap.Root.Fill.Image == nil || snap.Root.Fill.Image.Ref != ref {
		t.Fatalf("export must use the snapshot background")
	}
	if f.store.Live() != 0 {
		t.Fatalf("all images should be released after export, live=%d", f.store.Live())
	}
	if f.session.Exporter().State() != export.Idle {
		t.Fatalf("exporter should be idle")
	}
}

func TestCloseReleasesImages(t *testing.T) {
	f := newFixture(t)
	if _, err := f.session.UploadBackground(pngBytes(t), "image/png"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := f.session.Dispatch(mutation.SelectTemplate{Template: card.TemplateImageText}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if _, err := f.session.UploadCardImage(pngBytes(t), "image/png"); err != nil {
		t.Fatalf("upload card image: %v", err)
	}
	if f.store.Live() != 2 {
		t.Fatalf("expected 2 live images, got %d", f.store.Live())
	}
	f.session.Close()
	f.session.Close()
	if f.store.Live() != 0 {
		t.Fatalf("close must release every image, live=%d", f.store.Live())
	}
	if err := f.session.Dispatch(mutation.SelectGradient{Index: 1}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestNewSessionRequiresTypesetter(t *testing.T) {
	if _, err := NewSession(Options{}); err == nil {
		t.Fatalf("expected error without typesetter")
	}
}
