package application_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
	"github.com/fiscalsync/fiscalsync/internal/domain/port/driven"
)

// --- Mapping store fake ---

type memMappings struct {
	rows map[string]model.DocumentMapping
}

func newMemMappings() *memMappings {
	return &memMappings{rows: make(map[string]model.DocumentMapping)}
}

func mappingKey(system string, docType model.DocType, key string) string {
	return system + "/" + string(docType) + "/" + key
}

func (m *memMappings) Record(_ context.Context, mp model.DocumentMapping) error {
	k := mappingKey(mp.SourceSystem, mp.DocType, mp.SourceKey)
	if _, ok := m.rows[k]; ok {
		return driven.ErrDuplicateMapping
	}
	mp.CreatedAt = time.Now()
	m.rows[k] = mp
	return nil
}

func (m *memMappings) Exists(_ context.Context, system string, docType model.DocType, key string) (bool, error) {
	_, ok := m.rows[mappingKey(system, docType, key)]
	return ok, nil
}

func (m *memMappings) GetByKey(_ context.Context, system string, docType model.DocType, key string) (*model.DocumentMapping, error) {
	mp, ok := m.rows[mappingKey(system, docType, key)]
	if !ok {
		return nil, nil
	}
	return &mp, nil
}

// --- Master data store fake ---

type memMaster struct {
	rows map[string]model.MasterDataMapping
	gets int
}

func newMemMaster() *memMaster {
	return &memMaster{rows: make(map[string]model.MasterDataMapping)}
}

func (m *memMaster) Upsert(_ context.Context, mp model.MasterDataMapping) error {
	m.rows[string(mp.Kind)+"/"+mp.SourceKey] = mp
	return nil
}

func (m *memMaster) Get(_ context.Context, kind model.MasterKind, sourceKey string) (*model.MasterDataMapping, error) {
	m.gets++
	mp, ok := m.rows[string(kind)+"/"+sourceKey]
	if !ok {
		return nil, nil
	}
	return &mp, nil
}

// --- Token store fake ---

type memTokens struct {
	mu      sync.Mutex
	rows    map[string]model.Token
	gets    int
	upserts int
}

func newMemTokens() *memTokens {
	return &memTokens{rows: make(map[string]model.Token)}
}

func (m *memTokens) Upsert(_ context.Context, platform model.Platform, tenant string, token model.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	m.rows[string(platform)+"/"+tenant] = token
	return nil
}

func (m *memTokens) Get(_ context.Context, platform model.Platform, tenant string) (*model.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	t, ok := m.rows[string(platform)+"/"+tenant]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *memTokens) Delete(_ context.Context, platform model.Platform, tenant string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, string(platform)+"/"+tenant)
	return nil
}

// --- Cursor store fake ---

type memCursors struct {
	rows map[string]time.Time
}

func newMemCursors() *memCursors {
	return &memCursors{rows: make(map[string]time.Time)}
}

func (m *memCursors) Get(_ context.Context, stream string) (*model.SyncCursor, error) {
	t, ok := m.rows[stream]
	if !ok {
		return nil, nil
	}
	return &model.SyncCursor{Stream: stream, LastSeen: t}, nil
}

func (m *memCursors) Advance(_ context.Context, stream string, to time.Time) error {
	if cur, ok := m.rows[stream]; !ok || to.After(cur) {
		m.rows[stream] = to
	}
	return nil
}

// --- Source gateway fake ---

type fakeSource struct {
	sales     []model.FiscalDocument
	purchases []model.FiscalDocument
	cash      []model.FiscalDocument
	detail    map[string]*model.FiscalDocument
	detailErr error

	fetchErr error
}

func (f *fakeSource) FetchSalesDocuments(_ context.Context, _, _ time.Time) ([]model.FiscalDocument, error) {
	return f.sales, f.fetchErr
}

func (f *fakeSource) FetchPurchaseDocuments(_ context.Context, _, _ time.Time) ([]model.FiscalDocument, error) {
	return f.purchases, f.fetchErr
}

func (f *fakeSource) FetchCashLikeSales(_ context.Context, _, _ time.Time) ([]model.FiscalDocument, error) {
	return f.cash, f.fetchErr
}

func (f *fakeSource) FetchDocumentDetail(_ context.Context, naturalID string) (*model.FiscalDocument, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return f.detail[naturalID], nil
}

// --- Ledger gateway fake ---

type createCall struct {
	EntityType model.LedgerEntityType
	Payload    map[string]any
}

type uploadCall struct {
	EntityType model.LedgerEntityType
	EntityID   string
	Filename   string
	Size       int
}

// fakeLedger assigns sequential entity ids and registers every created bill
// in the probe index, so document-number collisions behave like the real
// ledger within one test.
type fakeLedger struct {
	nextID  int
	creates []createCall
	uploads []uploadCall

	byDocNumber map[string][]driven.LedgerRecord

	createErr  map[model.LedgerEntityType]error
	uploadErr  error
	queryErr   error
	emptyID    bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		byDocNumber: make(map[string][]driven.LedgerRecord),
		createErr:   make(map[model.LedgerEntityType]error),
	}
}

func (f *fakeLedger) create(entityType model.LedgerEntityType, payload map[string]any) (driven.CreateResult, error) {
	if err := f.createErr[entityType]; err != nil {
		return driven.CreateResult{}, err
	}
	f.creates = append(f.creates, createCall{EntityType: entityType, Payload: payload})
	if f.emptyID {
		return driven.CreateResult{}, nil
	}

	f.nextID++
	id := fmt.Sprintf("%d", f.nextID)
	docNumber, _ := payload["DocNumber"].(string)

	if entityType == model.EntityBill {
		rec := driven.LedgerRecord{EntityID: id, DocNumber: docNumber}
		if ref, ok := payload["VendorRef"].(map[string]any); ok {
			rec.VendorID, _ = ref["value"].(string)
		}
		f.byDocNumber[docNumber] = append(f.byDocNumber[docNumber], rec)
	}

	return driven.CreateResult{EntityID: id, DocNumber: docNumber}, nil
}

func (f *fakeLedger) CreateInvoice(_ context.Context, payload map[string]any) (driven.CreateResult, error) {
	return f.create(model.EntityInvoice, payload)
}

func (f *fakeLedger) CreateBill(_ context.Context, payload map[string]any) (driven.CreateResult, error) {
	return f.create(model.EntityBill, payload)
}

func (f *fakeLedger) CreateReceipt(_ context.Context, payload map[string]any) (driven.CreateResult, error) {
	return f.create(model.EntityReceipt, payload)
}

func (f *fakeLedger) CreateVendor(_ context.Context, payload map[string]any) (driven.CreateResult, error) {
	return f.create(model.EntityVendor, payload)
}

func (f *fakeLedger) CreateCustomer(_ context.Context, payload map[string]any) (driven.CreateResult, error) {
	return f.create(model.EntityCustomer, payload)
}

func (f *fakeLedger) UploadAttachment(_ context.Context, entityType model.LedgerEntityType, entityID, filename string, data []byte) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploads = append(f.uploads, uploadCall{EntityType: entityType, EntityID: entityID, Filename: filename, Size: len(data)})
	return nil
}

func (f *fakeLedger) QueryByDocumentNumber(_ context.Context, _ model.LedgerEntityType, docNumber string) ([]driven.LedgerRecord, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.byDocNumber[docNumber], nil
}

func (f *fakeLedger) createdOf(entityType model.LedgerEntityType) []createCall {
	var out []createCall
	for _, c := range f.creates {
		if c.EntityType == entityType {
			out = append(out, c)
		}
	}
	return out
}

// --- Sampler fake ---

type captureSampler struct {
	events []string
}

func (s *captureSampler) Sample(event string, _ ...any) {
	s.events = append(s.events, event)
}

// --- Token fetcher fake ---

type fakeFetcher struct {
	calls int
	token model.Token
	err   error
}

func (f *fakeFetcher) FetchToken(_ context.Context, _ string) (model.Token, error) {
	f.calls++
	return f.token, f.err
}
