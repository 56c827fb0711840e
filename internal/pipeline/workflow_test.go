package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/hcortiz/cotejo/internal/documents"
	"github.com/hcortiz/cotejo/internal/extractions"
	"github.com/hcortiz/cotejo/internal/reference"
	"github.com/hcortiz/cotejo/internal/render"
	"github.com/hcortiz/cotejo/internal/templates"
	"github.com/hcortiz/cotejo/internal/vision"
	"github.com/hcortiz/cotejo/pkg/lifecycle"
	"github.com/hcortiz/cotejo/pkg/storage"
)

type fakeVision struct {
	mu          sync.Mutex
	match       vision.TemplateMatch
	values      map[string]string
	failLabels  map[string]bool
	critical    vision.CriticalFields
	regionCalls int
}

func (f *fakeVision) ClassifyTemplate(_ context.Context, _ string, _ []string) (*vision.TemplateMatch, error) {
	m := f.match
	return &m, nil
}

func (f *fakeVision) ExtractRegion(_ context.Context, _ string, region templates.Region) (string, error) {
	f.mu.Lock()
	f.regionCalls++
	f.mu.Unlock()

	if f.failLabels[region.Label] {
		return "", fmt.Errorf("illegible region %s", region.Label)
	}
	return f.values[region.Label], nil
}

func (f *fakeVision) ExtractCriticalFields(_ context.Context, _ string) (*vision.CriticalFields, error) {
	c := f.critical
	return &c, nil
}

func (f *fakeVision) ModelName() string    { return "test-model" }
func (f *fakeVision) ProviderName() string { return "test-provider" }

type fakeRender struct {
	page render.Page
}

func (f *fakeRender) RenderFirstPage(_, _ string) (*render.Page, error) {
	p := f.page
	return &p, nil
}

func (f *fakeRender) PageDataURI(string) (string, error) {
	return "data:image/png;base64,cGFnZQ==", nil
}

func (f *fakeRender) CropDataURI(string, templates.BoundingBox) (string, error) {
	return "data:image/png;base64,Y3JvcA==", nil
}

type fakeStorage struct{}

func (fakeStorage) Start(*lifecycle.Coordinator) error { return nil }
func (fakeStorage) Upload(context.Context, string, io.Reader, string) error {
	return nil
}
func (fakeStorage) Download(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("%PDF-1.4")), nil
}
func (fakeStorage) Delete(context.Context, string) error { return nil }
func (fakeStorage) Exists(context.Context, string) (bool, error) {
	return true, nil
}

type fakeDocuments struct {
	doc      documents.Document
	statuses []string
}

func (f *fakeDocuments) Handler(int64) *documents.Handler { return nil }

func (f *fakeDocuments) Find(_ context.Context, id uuid.UUID) (*documents.Document, error) {
	if id != f.doc.ID {
		return nil, documents.ErrNotFound
	}
	d := f.doc
	return &d, nil
}

func (f *fakeDocuments) Create(context.Context, documents.CreateCommand) (*documents.Document, error) {
	return nil, nil
}

func (f *fakeDocuments) SetStatus(_ context.Context, _ uuid.UUID, status string) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeDocuments) List(context.Context, string, int) ([]documents.Document, error) {
	return nil, nil
}

func (f *fakeDocuments) Delete(context.Context, uuid.UUID) error { return nil }

type fakeTemplates struct {
	catalog []templates.Template
}

func (f *fakeTemplates) Handler() *templates.Handler { return nil }

func (f *fakeTemplates) Catalog(context.Context) ([]templates.Template, error) {
	return f.catalog, nil
}

func (f *fakeTemplates) Find(_ context.Context, id uuid.UUID) (*templates.Template, error) {
	for _, t := range f.catalog {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, templates.ErrNotFound
}

func (f *fakeTemplates) FindByName(_ context.Context, name string) (*templates.Template, error) {
	for _, t := range f.catalog {
		if t.Name == name {
			return &t, nil
		}
	}
	return nil, templates.ErrNotFound
}

func (f *fakeTemplates) Publish(context.Context, templates.PublishCommand) (*templates.Template, error) {
	return nil, nil
}

type fakeReference struct {
	record *reference.Record
}

func (f *fakeReference) Lookup(_ context.Context, variants []reference.Key) (*reference.Record, error) {
	if f.record == nil {
		return nil, reference.ErrNoMatch
	}
	r := *f.record
	return &r, nil
}

type fakeExtractions struct {
	created *extractions.Record
}

func (f *fakeExtractions) Handler() *extractions.Handler { return nil }

func (f *fakeExtractions) Find(context.Context, uuid.UUID) (*extractions.Record, error) {
	return nil, nil
}

func (f *fakeExtractions) FindByDocument(context.Context, uuid.UUID) (*extractions.Record, error) {
	return nil, nil
}

func (f *fakeExtractions) Create(_ context.Context, record *extractions.Record) (*extractions.Record, error) {
	stored := *record
	stored.ID = uuid.New()
	f.created = &stored
	return &stored, nil
}

func (f *fakeExtractions) ListByVerdict(context.Context, extractions.Verdict, int) ([]extractions.Record, error) {
	return nil, nil
}

// Interface conformance for the fakes.
var (
	_ vision.Backend     = (*fakeVision)(nil)
	_ render.Engine      = (*fakeRender)(nil)
	_ storage.System     = fakeStorage{}
	_ documents.System   = (*fakeDocuments)(nil)
	_ templates.System   = (*fakeTemplates)(nil)
	_ reference.System   = (*fakeReference)(nil)
	_ extractions.System = (*fakeExtractions)(nil)
)

func testTemplate() templates.Template {
	regions := []templates.Region{
		{Label: "expediente", Box: templates.BoundingBox{X: 50, Y: 40, Width: 200, Height: 30}, FieldType: templates.FieldTypeText},
		{Label: "accion", Box: templates.BoundingBox{X: 300, Y: 40, Width: 100, Height: 30}, FieldType: templates.FieldTypeText},
		{Label: "grupo", Box: templates.BoundingBox{X: 450, Y: 40, Width: 100, Height: 30}, FieldType: templates.FieldTypeText},
		{Label: "nif", Box: templates.BoundingBox{X: 50, Y: 90, Width: 200, Height: 30}, FieldType: templates.FieldTypeText},
	}
	for i := 5; i <= 20; i++ {
		regions = append(regions, templates.Region{
			Label:     fmt.Sprintf("campo_%d", i),
			Box:       templates.BoundingBox{X: 50, Y: 100 + i*40, Width: 300, Height: 30},
			FieldType: templates.FieldTypeText,
		})
	}

	return templates.Template{
		ID:         uuid.New(),
		Name:       "solicitud_subvencion",
		Version:    1,
		PageWidth:  1000,
		PageHeight: 1400,
		Regions:    regions,
	}
}

func testRuntime(fv *fakeVision, ft *fakeTemplates, fr *fakeReference, fd *fakeDocuments, fe *fakeExtractions) *Runtime {
	return &Runtime{
		Vision:      fv,
		Render:      &fakeRender{page: render.Page{ImagePath: "page-1.png", Width: 1000, Height: 1400, PageCount: 1}},
		Storage:     fakeStorage{},
		Documents:   fd,
		Templates:   ft,
		Reference:   fr,
		Extractions: fe,
		Config:      DefaultConfig(),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func criticalValues() map[string]string {
	return map[string]string{
		"expediente": "B240012",
		"accion":     "7",
		"grupo":      "1",
		"nif":        "B12345678",
	}
}

func TestExecuteAccepted(t *testing.T) {
	tpl := testTemplate()

	values := criticalValues()
	for i := 5; i <= 20; i++ {
		values[fmt.Sprintf("campo_%d", i)] = fmt.Sprintf("valor %d", i)
	}
	values["campo_20"] = "ILEGIBLE"

	fv := &fakeVision{
		match:  vision.TemplateMatch{Template: tpl.Name, Confidence: 0.92},
		values: values,
		failLabels: map[string]bool{
			"campo_19": true,
		},
		critical: vision.CriticalFields{
			Expediente: "B240012",
			Accion:     "7",
			Grupo:      "1",
			Nif:        "B12345678",
		},
	}

	fd := &fakeDocuments{doc: documents.Document{
		ID:         uuid.New(),
		Filename:   "solicitud.pdf",
		StorageKey: "forms/solicitud.pdf",
		Status:     documents.StatusQueued,
	}}

	fr := &fakeReference{record: &reference.Record{
		Expediente: "B240012",
		Accion:     "007",
		Grupo:      "1",
		IsActive:   true,
		Fields:     criticalValues(),
	}}

	fe := &fakeExtractions{}
	rt := testRuntime(fv, &fakeTemplates{catalog: []templates.Template{tpl}}, fr, fd, fe)

	result, err := Execute(context.Background(), rt, fd.doc.ID)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Record.Verdict != extractions.VerdictAccepted {
		t.Fatalf("verdict = %v (%s), want accepted", result.Record.Verdict, result.Record.Reason)
	}
	if result.Record.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", result.Record.Confidence)
	}
	if result.Record.Verification != extractions.VerificationHigh {
		t.Errorf("verification = %v, want high", result.Record.Verification)
	}
	if len(result.Record.VerificationFlags) != 0 {
		t.Errorf("verification flags = %v, want none", result.Record.VerificationFlags)
	}
	if result.Record.CriticalSeverityCount() != 0 {
		t.Errorf("critical discrepancies = %d, want 0", result.Record.CriticalSeverityCount())
	}
	if result.Record.MatchPercentage != 100 {
		t.Errorf("match percentage = %v, want 100", result.Record.MatchPercentage)
	}
	if fe.created == nil {
		t.Fatal("extraction record was not persisted")
	}
	if len(fd.statuses) != 1 || fd.statuses[0] != documents.StatusProcessed {
		t.Errorf("document statuses = %v, want [processed]", fd.statuses)
	}
}

func TestExecuteRejectsUnrecognizedForm(t *testing.T) {
	tpl := testTemplate()

	fv := &fakeVision{
		match:  vision.TemplateMatch{Template: tpl.Name, Confidence: 0.55},
		values: criticalValues(),
	}

	fd := &fakeDocuments{doc: documents.Document{
		ID:         uuid.New(),
		Filename:   "desconocido.pdf",
		StorageKey: "forms/desconocido.pdf",
	}}

	fe := &fakeExtractions{}
	rt := testRuntime(fv, &fakeTemplates{catalog: []templates.Template{tpl}}, &fakeReference{}, fd, fe)

	result, err := Execute(context.Background(), rt, fd.doc.ID)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Record.Verdict != extractions.VerdictRejected {
		t.Fatalf("verdict = %v, want rejected", result.Record.Verdict)
	}
	if result.Record.Category != extractions.CategoryUnrecognizedForm {
		t.Errorf("category = %v, want unrecognized_document_type", result.Record.Category)
	}
	if fv.regionCalls != 0 {
		t.Errorf("region extraction ran %d times after rejection, want 0", fv.regionCalls)
	}
	if fe.created == nil {
		t.Error("rejected documents must still be recorded")
	}
}

func TestExecuteRejectsWithoutReferenceMatch(t *testing.T) {
	tpl := testTemplate()

	values := criticalValues()
	for i := 5; i <= 20; i++ {
		values[fmt.Sprintf("campo_%d", i)] = fmt.Sprintf("valor %d", i)
	}

	fv := &fakeVision{
		match:  vision.TemplateMatch{Template: tpl.Name, Confidence: 0.98},
		values: values,
		critical: vision.CriticalFields{
			Expediente: "B240012",
			Accion:     "7",
			Grupo:      "1",
			Nif:        "B12345678",
		},
	}

	fd := &fakeDocuments{doc: documents.Document{
		ID:         uuid.New(),
		Filename:   "solicitud.pdf",
		StorageKey: "forms/solicitud.pdf",
	}}

	fe := &fakeExtractions{}
	rt := testRuntime(fv, &fakeTemplates{catalog: []templates.Template{tpl}}, &fakeReference{}, fd, fe)

	result, err := Execute(context.Background(), rt, fd.doc.ID)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	// A clean extraction with no ledger row is a data-completeness failure,
	// never a review case.
	if result.Record.Confidence != 1 {
		t.Fatalf("confidence = %v, want 1", result.Record.Confidence)
	}
	if result.Record.Verdict != extractions.VerdictRejected {
		t.Fatalf("verdict = %v, want rejected", result.Record.Verdict)
	}
	if result.Record.Category != extractions.CategoryNoReferenceMatch {
		t.Errorf("category = %v, want no_reference_match", result.Record.Category)
	}
}
