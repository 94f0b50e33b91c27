package purchaseorders

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/curvacraft/studio-erp/internal/shared"
)

type fakeRepo struct {
	contractors map[int64]*Contractor
	orders      map[int64]*PurchaseOrder
	nextID      int64
	nextSeq     int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		contractors: map[int64]*Contractor{},
		orders:      map[int64]*PurchaseOrder{},
	}
}

func (f *fakeRepo) CreateContractor(_ context.Context, c *Contractor) error {
	for _, other := range f.contractors {
		if other.Email == c.Email {
			return fmt.Errorf("contractor email %q already registered: %w", c.Email, shared.ErrDuplicate)
		}
	}
	f.nextID++
	c.ID = f.nextID
	cp := *c
	f.contractors[c.ID] = &cp
	return nil
}

func (f *fakeRepo) UpdateContractor(_ context.Context, c *Contractor) error {
	if _, ok := f.contractors[c.ID]; !ok {
		return fmt.Errorf("contractor %d: %w", c.ID, shared.ErrNotFound)
	}
	cp := *c
	f.contractors[c.ID] = &cp
	return nil
}

func (f *fakeRepo) GetContractor(_ context.Context, id int64) (*Contractor, error) {
	c, ok := f.contractors[id]
	if !ok {
		return nil, fmt.Errorf("contractor %d: %w", id, shared.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) ListContractors(_ context.Context, _ shared.PageRequest) ([]Contractor, error) {
	var out []Contractor
	for _, c := range f.contractors {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeRepo) DeleteContractor(_ context.Context, id int64) error {
	if _, ok := f.contractors[id]; !ok {
		return fmt.Errorf("contractor %d: %w", id, shared.ErrNotFound)
	}
	delete(f.contractors, id)
	return nil
}

func (f *fakeRepo) CountOrdersForContractor(_ context.Context, contractorID int64) (int, error) {
	n := 0
	for _, po := range f.orders {
		if po.ContractorID == contractorID {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) Create(_ context.Context, po *PurchaseOrder) error {
	if _, ok := f.contractors[po.ContractorID]; !ok {
		return fmt.Errorf("contractor %d: %w", po.ContractorID, shared.ErrNotFound)
	}
	f.nextID++
	f.nextSeq++
	po.ID = f.nextID
	po.Number = fmt.Sprintf("CURV-PO-%s%05d", time.Now().Format("06"), f.nextSeq)
	cp := *po
	f.orders[po.ID] = &cp
	return nil
}

func (f *fakeRepo) Update(_ context.Context, po *PurchaseOrder) error {
	existing, ok := f.orders[po.ID]
	if !ok {
		return fmt.Errorf("purchase order %d: %w", po.ID, shared.ErrNotFound)
	}
	po.Number = existing.Number
	po.Status = existing.Status
	po.ContractorID = existing.ContractorID
	cp := *po
	f.orders[po.ID] = &cp
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*PurchaseOrder, error) {
	po, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("purchase order %d: %w", id, shared.ErrNotFound)
	}
	cp := *po
	return &cp, nil
}

func (f *fakeRepo) List(_ context.Context, filter ListFilter, _ shared.PageRequest) ([]PurchaseOrder, error) {
	var out []PurchaseOrder
	for _, po := range f.orders {
		if filter.ContractorID != 0 && po.ContractorID != filter.ContractorID {
			continue
		}
		if filter.Status != "" && po.Status != filter.Status {
			continue
		}
		out = append(out, *po)
	}
	return out, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id int64, status Status) error {
	po, ok := f.orders[id]
	if !ok {
		return fmt.Errorf("purchase order %d: %w", id, shared.ErrNotFound)
	}
	po.Status = status
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.orders[id]; !ok {
		return fmt.Errorf("purchase order %d: %w", id, shared.ErrNotFound)
	}
	delete(f.orders, id)
	return nil
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func testService(t *testing.T) (*Service, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func seedContractor(t *testing.T, svc *Service) *Contractor {
	t.Helper()
	c := &Contractor{Name: "Al Noor Interiors", Email: "office@alnoor.example"}
	require.NoError(t, svc.CreateContractor(context.Background(), c))
	return c
}

func TestCreateContractorValidates(t *testing.T) {
	svc, _ := testService(t)

	err := svc.CreateContractor(context.Background(), &Contractor{Email: "x@y.example"})
	require.ErrorIs(t, err, shared.ErrValidation)

	err = svc.CreateContractor(context.Background(), &Contractor{Name: "No Email"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateOrderAssignsNumber(t *testing.T) {
	svc, _ := testService(t)
	c := seedContractor(t, svc)

	po := &PurchaseOrder{
		ContractorID:  c.ID,
		TaxPercentage: dec(t, "5"),
		Items: []Item{
			{Description: "Gypsum boards", Quantity: dec(t, "40"), Unit: "pcs", UnitPrice: dec(t, "25.00")},
		},
	}
	require.NoError(t, svc.Create(context.Background(), po))
	require.Equal(t, StatusPending, po.Status)
	require.Regexp(t, `^CURV-PO-\d{2}\d{5}$`, po.Number)

	totals := po.Totals()
	require.True(t, totals.Subtotal.Equal(dec(t, "1000")))
	require.True(t, totals.GrandTotal.Equal(dec(t, "1050")))
}

func TestCreateOrderRequiresItems(t *testing.T) {
	svc, _ := testService(t)
	c := seedContractor(t, svc)

	err := svc.Create(context.Background(), &PurchaseOrder{ContractorID: c.ID})
	require.ErrorIs(t, err, shared.ErrValidation)

	err = svc.Create(context.Background(), &PurchaseOrder{
		ContractorID: c.ID,
		Items:        []Item{{Description: "Paint", Quantity: dec(t, "0"), UnitPrice: dec(t, "10")}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateKeepsNumberAndStatus(t *testing.T) {
	svc, repo := testService(t)
	c := seedContractor(t, svc)

	po := &PurchaseOrder{
		ContractorID: c.ID,
		Items:        []Item{{Description: "Tiles", Quantity: dec(t, "10"), UnitPrice: dec(t, "8.00")}},
	}
	require.NoError(t, svc.Create(context.Background(), po))
	require.NoError(t, svc.SetStatus(context.Background(), po.ID, StatusSent))
	number := po.Number

	updated := &PurchaseOrder{
		ID:            po.ID,
		TaxPercentage: dec(t, "0"),
		Items:         []Item{{Description: "Tiles", Quantity: dec(t, "12"), UnitPrice: dec(t, "8.00")}},
	}
	require.NoError(t, svc.Update(context.Background(), updated))
	require.Equal(t, number, updated.Number)
	require.Equal(t, StatusSent, updated.Status)
	require.Equal(t, StatusSent, repo.orders[po.ID].Status)
}

func TestSetStatusRejectsUnknown(t *testing.T) {
	svc, _ := testService(t)
	c := seedContractor(t, svc)

	po := &PurchaseOrder{
		ContractorID: c.ID,
		Items:        []Item{{Description: "Cement", Quantity: dec(t, "5"), UnitPrice: dec(t, "20")}},
	}
	require.NoError(t, svc.Create(context.Background(), po))

	err := svc.SetStatus(context.Background(), po.ID, Status("SHIPPED"))
	require.ErrorIs(t, err, shared.ErrValidation)

	require.NoError(t, svc.SetStatus(context.Background(), po.ID, StatusCompleted))
}

func TestDeleteContractorBlockedByOrders(t *testing.T) {
	svc, _ := testService(t)
	c := seedContractor(t, svc)

	po := &PurchaseOrder{
		ContractorID: c.ID,
		Items:        []Item{{Description: "Lighting", Quantity: dec(t, "3"), UnitPrice: dec(t, "90")}},
	}
	require.NoError(t, svc.Create(context.Background(), po))

	err := svc.DeleteContractor(context.Background(), c.ID)
	require.ErrorIs(t, err, shared.ErrHasDependents)

	require.NoError(t, svc.Delete(context.Background(), po.ID))
	require.NoError(t, svc.DeleteContractor(context.Background(), c.ID))
}
