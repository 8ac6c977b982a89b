package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/okian/gridlake/internal/adapters/notify"
	"github.com/okian/gridlake/internal/adapters/repository"
	"github.com/okian/gridlake/internal/domain/model"
	"github.com/okian/gridlake/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var errBoom = errors.New("boom")

// fakeDownloader serves canned bodies keyed by URL and counts calls.
type fakeDownloader struct {
	bodies map[string]string
	calls  atomic.Int32
}

func (f *fakeDownloader) Download(_ context.Context, url string) ([]byte, error) {
	f.calls.Add(1)
	body, ok := f.bodies[url]
	if !ok {
		return nil, fmt.Errorf("%w: 404 for %s", errBoom, url)
	}
	return []byte(body), nil
}

type fakeCatalog struct {
	resources []model.ResourceDescriptor
}

func (f fakeCatalog) FetchCatalog(context.Context) []model.ResourceDescriptor {
	return f.resources
}

type failingSink struct{}

func (failingSink) Put(context.Context, string, []byte, string) (string, error) {
	return "", errBoom
}
func (failingSink) Backend() string { return "failing" }

type panickingCodec struct{}

func (panickingCodec) Decode(model.Format, []byte) (*model.Table, error) { panic("decoder exploded") }
func (panickingCodec) EncodeParquet(io.Writer, *model.Table) error       { return nil }

type recordingNotifier struct {
	mu      sync.Mutex
	uploads []notify.Upload
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, u notify.Upload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.uploads = append(n.uploads, u)
	return n.err
}

func (n *recordingNotifier) Uploads() []notify.Upload {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Upload(nil), n.uploads...)
}

type recordingLoader struct {
	mu   sync.Mutex
	jobs []model.LoadJob
	done chan struct{}
}

func newRecordingLoader() *recordingLoader {
	return &recordingLoader{done: make(chan struct{}, 16)}
}

func (l *recordingLoader) Load(_ context.Context, job model.LoadJob) error {
	l.mu.Lock()
	l.jobs = append(l.jobs, job)
	l.mu.Unlock()
	l.done <- struct{}{}
	return nil
}

func (l *recordingLoader) Jobs() []model.LoadJob {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.LoadJob(nil), l.jobs...)
}

// memoryLedger is a map-backed repository.Store.
type memoryLedger struct {
	mu   sync.Mutex
	runs map[string]repository.Run
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{runs: make(map[string]repository.Run)}
}

func (m *memoryLedger) Begin(_ context.Context, run repository.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.Status = repository.StatusRunning
	m.runs[run.ID] = run
	return nil
}

func (m *memoryLedger) Finish(_ context.Context, id string, s repository.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return repository.ErrNotFound
	}
	run.Status = s.Status
	run.Resources = s.Resources
	run.Failed = s.Failed
	run.TotalRecords = s.TotalRecords
	run.UploadedFiles = s.UploadedFiles
	run.Error = s.Error
	finished := s.FinishedAt
	run.FinishedAt = &finished
	m.runs[id] = run
	return nil
}

func (m *memoryLedger) Get(_ context.Context, id string) (repository.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return repository.Run{}, repository.ErrNotFound
	}
	return run, nil
}

func (m *memoryLedger) List(_ context.Context, _ int) ([]repository.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]repository.Run, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryLedger) Close() error { return nil }

const (
	url2022 = "https://dados.example/ear-diario-por-reservatorio-2022.csv"
	url2023 = "https://dados.example/ear-diario-por-reservatorio-2023.csv"
)

// csv2023 holds three 2023 rows, one of them outside the first half of the year.
const csv2023 = "nom_reservatorio;ear_data;ear_reservatorio_percentual\n" +
	"FURNAS;2023-01-02;55,1\n" +
	"SOBRADINHO;2023-03-10;40\n" +
	"ITAIPU;2023-09-30;\n"

const csv2022 = "nom_reservatorio;ear_data;ear_reservatorio_percentual\n" +
	"FURNAS;2022-12-31;60\n"

func mustRange(start, end string) model.DateRange {
	rng, err := model.ParseDateRange(start, end)
	if err != nil {
		panic(err)
	}
	return rng
}
