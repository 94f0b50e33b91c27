package enquiries

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
	customers  map[int64]*Customer
	enquiries  map[int64]*Enquiry
	quoteCount map[int64]int64
	nextID     int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		customers:  map[int64]*Customer{},
		enquiries:  map[int64]*Enquiry{},
		quoteCount: map[int64]int64{},
	}
}

func (f *fakeRepo) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) CreateCustomer(_ context.Context, c *Customer) error {
	for _, other := range f.customers {
		if other.Email == c.Email {
			return fmt.Errorf("customer email %s: %w", c.Email, shared.ErrDuplicate)
		}
	}
	c.ID = f.id()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	f.customers[c.ID] = &cp
	return nil
}

func (f *fakeRepo) UpdateCustomer(_ context.Context, c *Customer) error {
	if _, ok := f.customers[c.ID]; !ok {
		return fmt.Errorf("customer %d: %w", c.ID, shared.ErrNotFound)
	}
	cp := *c
	f.customers[c.ID] = &cp
	return nil
}

func (f *fakeRepo) GetCustomer(_ context.Context, id int64) (*Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %d: %w", id, shared.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) ListCustomers(_ context.Context, _ shared.PageRequest) ([]Customer, error) {
	var out []Customer
	for _, c := range f.customers {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeRepo) DeleteCustomer(_ context.Context, id int64) error {
	if _, ok := f.customers[id]; !ok {
		return fmt.Errorf("customer %d: %w", id, shared.ErrNotFound)
	}
	delete(f.customers, id)
	return nil
}

func (f *fakeRepo) CountEnquiriesForCustomer(_ context.Context, customerID int64) (int64, error) {
	var n int64
	for _, e := range f.enquiries {
		if e.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) CreateEnquiry(_ context.Context, e *Enquiry) error {
	e.ID = f.id()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	cp := *e
	f.enquiries[e.ID] = &cp
	return nil
}

func (f *fakeRepo) UpdateEnquiry(_ context.Context, e *Enquiry) error {
	cur, ok := f.enquiries[e.ID]
	if !ok {
		return fmt.Errorf("enquiry %d: %w", e.ID, shared.ErrNotFound)
	}
	e.Status = cur.Status
	cp := *e
	f.enquiries[e.ID] = &cp
	return nil
}

func (f *fakeRepo) GetEnquiry(_ context.Context, id int64) (*Enquiry, error) {
	e, ok := f.enquiries[id]
	if !ok {
		return nil, fmt.Errorf("enquiry %d: %w", id, shared.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

func (f *fakeRepo) ListEnquiries(_ context.Context, status EnquiryStatus, _ shared.PageRequest) ([]EnquiryWithCustomer, error) {
	var out []EnquiryWithCustomer
	for _, e := range f.enquiries {
		if status != "" && e.Status != status {
			continue
		}
		item := EnquiryWithCustomer{Enquiry: *e}
		if c, ok := f.customers[e.CustomerID]; ok {
			item.CustomerName = c.Name
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeRepo) UpdateEnquiryStatus(_ context.Context, id int64, status EnquiryStatus) error {
	e, ok := f.enquiries[id]
	if !ok {
		return fmt.Errorf("enquiry %d: %w", id, shared.ErrNotFound)
	}
	e.Status = status
	return nil
}

func (f *fakeRepo) DeleteEnquiry(_ context.Context, id int64) error {
	if _, ok := f.enquiries[id]; !ok {
		return fmt.Errorf("enquiry %d: %w", id, shared.ErrNotFound)
	}
	delete(f.enquiries, id)
	return nil
}

func (f *fakeRepo) CountQuotationsForEnquiry(_ context.Context, enquiryID int64) (int64, error) {
	return f.quoteCount[enquiryID], nil
}

func testService(t *testing.T) (*Service, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func seedCustomer(t *testing.T, svc *Service) *Customer {
	t.Helper()
	c := &Customer{Name: "Meridian Holdings", Email: "office@meridian.example"}
	require.NoError(t, svc.CreateCustomer(context.Background(), c))
	return c
}

func TestCreateCustomerRequiresNameAndEmail(t *testing.T) {
	svc, _ := testService(t)

	err := svc.CreateCustomer(context.Background(), &Customer{Email: "a@b.example"})
	require.ErrorIs(t, err, shared.ErrValidation)

	err = svc.CreateCustomer(context.Background(), &Customer{Name: "No Email"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateCustomerDuplicateEmail(t *testing.T) {
	svc, _ := testService(t)
	seedCustomer(t, svc)

	err := svc.CreateCustomer(context.Background(), &Customer{Name: "Other", Email: "office@meridian.example"})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestDeleteCustomerBlockedByEnquiries(t *testing.T) {
	svc, _ := testService(t)
	c := seedCustomer(t, svc)

	e := &Enquiry{
		CustomerID:  c.ID,
		ProjectType: ProjectTypeFitout,
		Scope:       "office renovation",
		Budget:      decimal.NewFromInt(50000),
	}
	require.NoError(t, svc.CreateEnquiry(context.Background(), e))

	err := svc.DeleteCustomer(context.Background(), c.ID)
	require.ErrorIs(t, err, shared.ErrHasDependents)

	require.NoError(t, svc.DeleteEnquiry(context.Background(), e.ID))
	require.NoError(t, svc.DeleteCustomer(context.Background(), c.ID))
}

func TestCreateEnquiryStartsPending(t *testing.T) {
	svc, _ := testService(t)
	c := seedCustomer(t, svc)

	e := &Enquiry{
		CustomerID:  c.ID,
		ProjectType: ProjectTypeDesign,
		Scope:       "showroom concept",
		Budget:      decimal.NewFromInt(12000),
		Status:      EnquiryStatusQualified, // caller cannot pick the initial status
	}
	require.NoError(t, svc.CreateEnquiry(context.Background(), e))
	require.Equal(t, EnquiryStatusPending, e.Status)
}

func TestCreateEnquiryRejectsBadInput(t *testing.T) {
	svc, _ := testService(t)
	c := seedCustomer(t, svc)

	err := svc.CreateEnquiry(context.Background(), &Enquiry{
		CustomerID:  c.ID,
		ProjectType: "LANDSCAPING",
		Scope:       "garden",
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	err = svc.CreateEnquiry(context.Background(), &Enquiry{
		CustomerID:  c.ID,
		ProjectType: ProjectTypeBoth,
		Scope:       "villa",
		Budget:      decimal.NewFromInt(-1),
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	err = svc.CreateEnquiry(context.Background(), &Enquiry{
		CustomerID:  9999,
		ProjectType: ProjectTypeBoth,
		Scope:       "villa",
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMarkQualifiedOnlyPromotesPending(t *testing.T) {
	svc, repo := testService(t)
	c := seedCustomer(t, svc)

	e := &Enquiry{CustomerID: c.ID, ProjectType: ProjectTypeFitout, Scope: "fitout"}
	require.NoError(t, svc.CreateEnquiry(context.Background(), e))

	require.NoError(t, svc.MarkQualified(context.Background(), e.ID))
	got, err := svc.GetEnquiry(context.Background(), e.ID)
	require.NoError(t, err)
	require.Equal(t, EnquiryStatusQualified, got.Status)

	// A rejected enquiry stays rejected.
	repo.enquiries[e.ID].Status = EnquiryStatusRejected
	require.NoError(t, svc.MarkQualified(context.Background(), e.ID))
	require.Equal(t, EnquiryStatusRejected, repo.enquiries[e.ID].Status)
}

func TestDeleteEnquiryBlockedByQuotations(t *testing.T) {
	svc, repo := testService(t)
	c := seedCustomer(t, svc)

	e := &Enquiry{CustomerID: c.ID, ProjectType: ProjectTypeFitout, Scope: "fitout"}
	require.NoError(t, svc.CreateEnquiry(context.Background(), e))

	repo.quoteCount[e.ID] = 2
	err := svc.DeleteEnquiry(context.Background(), e.ID)
	require.ErrorIs(t, err, shared.ErrHasDependents)
}

func TestListEnquiriesFiltersByStatus(t *testing.T) {
	svc, _ := testService(t)
	c := seedCustomer(t, svc)

	first := &Enquiry{CustomerID: c.ID, ProjectType: ProjectTypeDesign, Scope: "a"}
	second := &Enquiry{CustomerID: c.ID, ProjectType: ProjectTypeFitout, Scope: "b"}
	require.NoError(t, svc.CreateEnquiry(context.Background(), first))
	require.NoError(t, svc.CreateEnquiry(context.Background(), second))
	require.NoError(t, svc.SetStatus(context.Background(), second.ID, EnquiryStatusRejected))

	pending, err := svc.ListEnquiries(context.Background(), EnquiryStatusPending, shared.NewPageRequest(1, 20))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, first.ID, pending[0].ID)
	require.Equal(t, "Meridian Holdings", pending[0].CustomerName)

	_, err = svc.ListEnquiries(context.Background(), "BOGUS", shared.NewPageRequest(1, 20))
	require.ErrorIs(t, err, shared.ErrValidation)
}
