package posting

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/erp/ledger/internal/domain/audit"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memState holds every collection the posting pipeline touches. It is
// serializable so the fake scope can snapshot it before a transaction and
// restore it on rollback.
type memState struct {
	Vouchers      map[uuid.UUID]*ledger.Voucher
	Accounts      map[uuid.UUID]*ledger.LedgerAccount
	Balances      map[string]*ledger.LedgerBalance
	Years         map[uuid.UUID]*ledger.FinancialYear
	Companies     map[uuid.UUID]*ledger.Company
	Sequences     map[string]*ledger.VoucherSequence
	Idempotency   map[string]*ledger.IdempotencyRecord
	Batches       map[uuid.UUID]*inventory.StockBatch
	StockBalances map[string]*inventory.StockBalance
	Movements     []*inventory.StockMovement
	AuditEntries  []*audit.AuditEntry
}

func newMemState() memState {
	return memState{
		Vouchers:      make(map[uuid.UUID]*ledger.Voucher),
		Accounts:      make(map[uuid.UUID]*ledger.LedgerAccount),
		Balances:      make(map[string]*ledger.LedgerBalance),
		Years:         make(map[uuid.UUID]*ledger.FinancialYear),
		Companies:     make(map[uuid.UUID]*ledger.Company),
		Sequences:     make(map[string]*ledger.VoucherSequence),
		Idempotency:   make(map[string]*ledger.IdempotencyRecord),
		Batches:       make(map[uuid.UUID]*inventory.StockBatch),
		StockBalances: make(map[string]*inventory.StockBalance),
	}
}

func (s memState) clone() memState {
	data, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	out := newMemState()
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return out
}

// memStore is the in-memory backing for the fake repositories
type memStore struct {
	state memState
	// idemCreateErr is a one-shot error injected into the next idempotency
	// Create call, simulating a concurrent committer winning the unique
	// constraint
	idemCreateErr error
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

func balKey(companyID, accountID, yearID uuid.UUID) string {
	return fmt.Sprintf("%s/%s/%s", companyID, accountID, yearID)
}

func seqKey(companyID uuid.UUID, voucherType ledger.VoucherType, yearID uuid.UUID) string {
	return fmt.Sprintf("%s/%s/%s", companyID, voucherType, yearID)
}

func idemKey(companyID uuid.UUID, key string) string {
	return fmt.Sprintf("%s/%s", companyID, key)
}

func stockKey(companyID, itemID, godownID uuid.UUID) string {
	return fmt.Sprintf("%s/%s/%s", companyID, itemID, godownID)
}

// fakeScope executes the transaction function against the shared store under
// a mutex, snapshotting state beforehand and restoring it when the function
// fails, mirroring a database rollback.
type fakeScope struct {
	mu    sync.Mutex
	store *memStore
	// afterRollback is a one-shot hook run after a rollback restores the
	// snapshot, used to emulate state committed by a concurrent transaction
	afterRollback func(*memStore)
}

func newFakeScope(store *memStore) *fakeScope {
	return &fakeScope{store: store}
}

func (s *fakeScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	backup := s.store.state.clone()
	err := fn(&fakeRepos{store: s.store})
	if err != nil {
		s.store.state = backup
		if s.afterRollback != nil {
			hook := s.afterRollback
			s.afterRollback = nil
			hook(s.store)
		}
	}
	return err
}

var _ TransactionScope = (*fakeScope)(nil)

type fakeRepos struct {
	store *memStore
}

func (r *fakeRepos) Vouchers() ledger.VoucherRepository            { return &fakeVouchers{r.store} }
func (r *fakeRepos) Accounts() ledger.LedgerAccountRepository      { return &fakeAccounts{r.store} }
func (r *fakeRepos) Balances() ledger.LedgerBalanceRepository      { return &fakeBalances{r.store} }
func (r *fakeRepos) Years() ledger.FinancialYearRepository         { return &fakeYears{r.store} }
func (r *fakeRepos) Companies() ledger.CompanyRepository           { return &fakeCompanies{r.store} }
func (r *fakeRepos) Sequences() ledger.VoucherSequenceRepository   { return &fakeSequences{r.store} }
func (r *fakeRepos) Idempotency() ledger.IdempotencyRecordRepository {
	return &fakeIdempotency{r.store}
}
func (r *fakeRepos) Batches() inventory.StockBatchRepository       { return &fakeBatches{r.store} }
func (r *fakeRepos) StockBalances() inventory.StockBalanceRepository {
	return &fakeStockBalances{r.store}
}
func (r *fakeRepos) Movements() inventory.StockMovementRepository { return &fakeMovements{r.store} }
func (r *fakeRepos) Audit() audit.AuditEntryRepository            { return &fakeAudit{r.store} }

type fakeVouchers struct{ store *memStore }

func (f *fakeVouchers) FindByID(_ context.Context, id uuid.UUID) (*ledger.Voucher, error) {
	v, ok := f.store.state.Vouchers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return v, nil
}

func (f *fakeVouchers) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Voucher, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeVouchers) Save(_ context.Context, voucher *ledger.Voucher) error {
	if _, ok := f.store.state.Vouchers[voucher.ID]; ok {
		return shared.ErrAlreadyExists
	}
	f.store.state.Vouchers[voucher.ID] = voucher
	return nil
}

func (f *fakeVouchers) Update(_ context.Context, voucher *ledger.Voucher) error {
	f.store.state.Vouchers[voucher.ID] = voucher
	return nil
}

type fakeAccounts struct{ store *memStore }

func (f *fakeAccounts) FindByID(_ context.Context, id uuid.UUID) (*ledger.LedgerAccount, error) {
	a, ok := f.store.state.Accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return a, nil
}

func (f *fakeAccounts) FindByIDs(_ context.Context, companyID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*ledger.LedgerAccount, error) {
	out := make(map[uuid.UUID]*ledger.LedgerAccount, len(ids))
	for _, id := range ids {
		if a, ok := f.store.state.Accounts[id]; ok && a.CompanyID == companyID {
			out[id] = a
		}
	}
	return out, nil
}

func (f *fakeAccounts) Save(_ context.Context, account *ledger.LedgerAccount) error {
	f.store.state.Accounts[account.ID] = account
	return nil
}

type fakeBalances struct{ store *memStore }

func (f *fakeBalances) Find(_ context.Context, companyID, accountID, yearID uuid.UUID) (*ledger.LedgerBalance, error) {
	b, ok := f.store.state.Balances[balKey(companyID, accountID, yearID)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return b, nil
}

func (f *fakeBalances) FindOrCreateForUpdate(_ context.Context, companyID, accountID, yearID uuid.UUID) (*ledger.LedgerBalance, error) {
	key := balKey(companyID, accountID, yearID)
	if b, ok := f.store.state.Balances[key]; ok {
		return b, nil
	}
	b := ledger.NewLedgerBalance(companyID, accountID, yearID, decimal.Zero)
	f.store.state.Balances[key] = b
	return b, nil
}

func (f *fakeBalances) Save(_ context.Context, balance *ledger.LedgerBalance) error {
	f.store.state.Balances[balKey(balance.CompanyID, balance.LedgerAccountID, balance.FinancialYearID)] = balance
	return nil
}

func (f *fakeBalances) CurrentBalance(_ context.Context, companyID, accountID, yearID uuid.UUID) (decimal.Decimal, error) {
	if b, ok := f.store.state.Balances[balKey(companyID, accountID, yearID)]; ok {
		return b.RunningBalance, nil
	}
	return decimal.Zero, nil
}

type fakeYears struct{ store *memStore }

func (f *fakeYears) FindByID(_ context.Context, id uuid.UUID) (*ledger.FinancialYear, error) {
	fy, ok := f.store.state.Years[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return fy, nil
}

func (f *fakeYears) FindCovering(_ context.Context, companyID uuid.UUID, date time.Time) (*ledger.FinancialYear, error) {
	for _, fy := range f.store.state.Years {
		if fy.CompanyID == companyID && fy.Covers(date) {
			return fy, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeYears) FindOverlapping(_ context.Context, companyID uuid.UUID, start, end time.Time) (*ledger.FinancialYear, error) {
	for _, fy := range f.store.state.Years {
		if fy.CompanyID == companyID && fy.Overlaps(start, end) {
			return fy, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeYears) FindCurrent(_ context.Context, companyID uuid.UUID) (*ledger.FinancialYear, error) {
	for _, fy := range f.store.state.Years {
		if fy.CompanyID == companyID && fy.IsCurrent {
			return fy, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeYears) Save(_ context.Context, year *ledger.FinancialYear) error {
	f.store.state.Years[year.ID] = year
	return nil
}

func (f *fakeYears) Update(_ context.Context, year *ledger.FinancialYear) error {
	f.store.state.Years[year.ID] = year
	return nil
}

func (f *fakeYears) MakeCurrent(_ context.Context, year *ledger.FinancialYear) error {
	for _, fy := range f.store.state.Years {
		if fy.CompanyID == year.CompanyID {
			fy.IsCurrent = fy.ID == year.ID
		}
	}
	year.IsCurrent = true
	f.store.state.Years[year.ID] = year
	return nil
}

type fakeCompanies struct{ store *memStore }

func (f *fakeCompanies) FindByID(_ context.Context, id uuid.UUID) (*ledger.Company, error) {
	c, ok := f.store.state.Companies[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (f *fakeCompanies) Save(_ context.Context, company *ledger.Company) error {
	f.store.state.Companies[company.ID] = company
	return nil
}

func (f *fakeCompanies) Update(_ context.Context, company *ledger.Company) error {
	f.store.state.Companies[company.ID] = company
	return nil
}

type fakeSequences struct{ store *memStore }

func (f *fakeSequences) Next(_ context.Context, companyID uuid.UUID, voucherType ledger.VoucherType, yearID uuid.UUID) (int64, error) {
	key := seqKey(companyID, voucherType, yearID)
	seq, ok := f.store.state.Sequences[key]
	if !ok {
		seq = ledger.NewVoucherSequence(companyID, voucherType, yearID)
		f.store.state.Sequences[key] = seq
	}
	return seq.Take(), nil
}

type fakeIdempotency struct{ store *memStore }

func (f *fakeIdempotency) Find(_ context.Context, companyID uuid.UUID, key string) (*ledger.IdempotencyRecord, error) {
	rec, ok := f.store.state.Idempotency[idemKey(companyID, key)]
	if !ok {
		return nil, nil
	}
	return rec, nil
}

func (f *fakeIdempotency) Create(_ context.Context, record *ledger.IdempotencyRecord) error {
	if err := f.store.idemCreateErr; err != nil {
		f.store.idemCreateErr = nil
		return err
	}
	key := idemKey(record.CompanyID, record.Key)
	if _, ok := f.store.state.Idempotency[key]; ok {
		return shared.ErrAlreadyExists
	}
	f.store.state.Idempotency[key] = record
	return nil
}

type fakeBatches struct{ store *memStore }

func (f *fakeBatches) FindAvailableForUpdate(_ context.Context, companyID, stockItemID, godownID uuid.UUID) ([]*inventory.StockBatch, error) {
	out := make([]*inventory.StockBatch, 0)
	for _, b := range f.store.state.Batches {
		if b.CompanyID == companyID && b.StockItemID == stockItemID && b.GodownID == godownID && !b.IsExhausted() {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceivedDate.Equal(out[j].ReceivedDate) {
			return out[i].ReceivedDate.Before(out[j].ReceivedDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeBatches) Save(_ context.Context, batch *inventory.StockBatch) error {
	f.store.state.Batches[batch.ID] = batch
	return nil
}

func (f *fakeBatches) Update(_ context.Context, batch *inventory.StockBatch) error {
	f.store.state.Batches[batch.ID] = batch
	return nil
}

type fakeStockBalances struct{ store *memStore }

func (f *fakeStockBalances) Find(_ context.Context, companyID, stockItemID, godownID uuid.UUID) (*inventory.StockBalance, error) {
	b, ok := f.store.state.StockBalances[stockKey(companyID, stockItemID, godownID)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return b, nil
}

func (f *fakeStockBalances) FindOrCreateForUpdate(_ context.Context, companyID, stockItemID, godownID uuid.UUID) (*inventory.StockBalance, error) {
	key := stockKey(companyID, stockItemID, godownID)
	if b, ok := f.store.state.StockBalances[key]; ok {
		return b, nil
	}
	b := inventory.NewStockBalance(companyID, stockItemID, godownID)
	f.store.state.StockBalances[key] = b
	return b, nil
}

func (f *fakeStockBalances) Save(_ context.Context, balance *inventory.StockBalance) error {
	f.store.state.StockBalances[stockKey(balance.CompanyID, balance.StockItemID, balance.GodownID)] = balance
	return nil
}

func (f *fakeStockBalances) OnHand(_ context.Context, companyID, stockItemID, godownID uuid.UUID) (decimal.Decimal, error) {
	if b, ok := f.store.state.StockBalances[stockKey(companyID, stockItemID, godownID)]; ok {
		return b.QuantityOnHand, nil
	}
	return decimal.Zero, nil
}

type fakeMovements struct{ store *memStore }

func (f *fakeMovements) Append(_ context.Context, movement *inventory.StockMovement) error {
	f.store.state.Movements = append(f.store.state.Movements, movement)
	return nil
}

func (f *fakeMovements) ListByVoucher(_ context.Context, voucherID uuid.UUID) ([]*inventory.StockMovement, error) {
	out := make([]*inventory.StockMovement, 0)
	for _, m := range f.store.state.Movements {
		if m.VoucherID != nil && *m.VoucherID == voucherID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeAudit struct{ store *memStore }

func (f *fakeAudit) Append(_ context.Context, entry *audit.AuditEntry) error {
	f.store.state.AuditEntries = append(f.store.state.AuditEntries, entry)
	return nil
}

func (f *fakeAudit) ListByEntity(_ context.Context, companyID, entityID uuid.UUID) ([]*audit.AuditEntry, error) {
	out := make([]*audit.AuditEntry, 0)
	for _, e := range f.store.state.AuditEntries {
		if e.CompanyID == companyID && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}
