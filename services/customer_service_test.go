package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kendall-kelly/loyalty-rewards-api/analytics"
	"github.com/kendall-kelly/loyalty-rewards-api/models"
	"github.com/kendall-kelly/loyalty-rewards-api/realtime"
	"github.com/kendall-kelly/loyalty-rewards-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCustomerService(t *testing.T) (*CustomerService, *gorm.DB, *recordingPublisher) {
	db := testutil.NewTestDB(t)
	pub := &recordingPublisher{}
	return NewCustomerService(db, Options{Publisher: pub}), db, pub
}

func TestCustomerCreate(t *testing.T) {
	svc, _, pub := setupCustomerService(t)
	ctx := context.Background()

	t.Run("generates a code when omitted", func(t *testing.T) {
		c, err := svc.Create(ctx, CustomerInput{Name: " Alice ", Email: "alice@example.com", Address: "Kandy", DateOfBirth: "1990-05-01"})
		require.NoError(t, err)
		assert.NotZero(t, c.ID)
		assert.Len(t, c.CustomerCode, 9)
		assert.Equal(t, "Alice", c.Name)
		require.NotNil(t, c.DateOfBirth)
		assert.Equal(t, "1990-05-01", time.Time(*c.DateOfBirth).Format(analytics.DayLayout))
		assert.Nil(t, c.Anniversary)
	})

	t.Run("keeps an explicit code", func(t *testing.T) {
		c, err := svc.Create(ctx, CustomerInput{CustomerCode: "VIP01", Name: "Bob"})
		require.NoError(t, err)
		assert.Equal(t, "VIP01", c.CustomerCode)
	})

	t.Run("duplicate code conflicts", func(t *testing.T) {
		_, err := svc.Create(ctx, CustomerInput{CustomerCode: "VIP01", Name: "Bobby"})
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, CodeCustomerExists, conflict.Code())
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := svc.Create(ctx, CustomerInput{Name: "  "})
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "name", validation.Field)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := svc.Create(ctx, CustomerInput{Name: "Carol", Anniversary: "05/01/2010"})
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "anniversary", validation.Field)
	})

	events := pub.Events()
	require.Len(t, events, 2)
	assert.Equal(t, realtime.EntityCustomer, events[0].Entity)
	assert.Equal(t, realtime.Insert, events[0].Event)
}

func TestCustomerGetAndUpdate(t *testing.T) {
	svc, _, pub := setupCustomerService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CustomerInput{CustomerCode: "C1", Name: "Alice"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CustomerInput{CustomerCode: "C2", Name: "Bob"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, 999)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, CodeCustomerNotFound, notFound.Code())

	updated, err := svc.Update(ctx, created.ID, CustomerInput{Name: "Alice Smith", Phone: "555-0100"})
	require.NoError(t, err)
	assert.Equal(t, "C1", updated.CustomerCode, "blank code leaves the code unchanged")
	assert.Equal(t, "Alice Smith", updated.Name)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "555-0100", got.Phone)

	_, err = svc.Update(ctx, created.ID, CustomerInput{CustomerCode: "C2", Name: "Alice"})
	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)

	_, err = svc.Update(ctx, 999, CustomerInput{Name: "Nobody"})
	assert.ErrorAs(t, err, &notFound)

	last := pub.Events()[2]
	assert.Equal(t, realtime.Update, last.Event)
	assert.Equal(t, "Alice", last.Old.(models.Customer).Name)
	assert.Equal(t, "Alice Smith", last.New.(models.Customer).Name)
}

func TestCustomerDeleteCascades(t *testing.T) {
	svc, db, pub := setupCustomerService(t)
	ctx := context.Background()

	alice := testutil.CreateCustomer(t, db, "C1", "Alice")
	bob := testutil.CreateCustomer(t, db, "C2", "Bob")
	orders := NewOrderService(db, 10, Options{})
	for _, code := range []string{"C1", "C2"} {
		_, err := orders.Submit(ctx, Submission{CustomerCode: code, Items: []SubmissionItem{
			{Code: "T1", Name: "Tea", Quantity: 2},
			{Code: "K1", Name: "Cake", Quantity: 1},
		}})
		require.NoError(t, err)
	}

	require.NoError(t, svc.Delete(ctx, alice.ID))

	var remaining int64
	db.Model(&models.Order{}).Where("customer_id = ?", alice.ID).Count(&remaining)
	assert.Zero(t, remaining)
	db.Model(&models.FoodCount{}).Where("customer_id = ?", alice.ID).Count(&remaining)
	assert.Zero(t, remaining)
	db.Model(&models.Order{}).Where("customer_id = ?", bob.ID).Count(&remaining)
	assert.Equal(t, int64(2), remaining, "other customers are untouched")

	_, err := svc.Get(ctx, alice.ID)
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.ErrorAs(t, svc.Delete(ctx, alice.ID), &notFound)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.Delete, events[0].Event)
	assert.Nil(t, events[0].New)
}

func TestCustomerList(t *testing.T) {
	svc, db, _ := setupCustomerService(t)
	ctx := context.Background()

	for i := 1; i <= 23; i++ {
		c := models.Customer{
			CustomerCode: fmt.Sprintf("C%03d", i),
			Name:         fmt.Sprintf("Customer %d", i),
			Email:        fmt.Sprintf("c%d@example.com", i),
			CreatedAt:    time.Date(2024, 1, i, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, db.Create(&c).Error)
	}
	require.NoError(t, db.Create(&models.Customer{CustomerCode: "Z1", Name: "Zed", Email: "ZED@Kitchen.io"}).Error)

	page, err := svc.List(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 24, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, "Zed", page.Items[0].Name, "newest first")

	page, err = svc.List(ctx, "", 3, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 4)

	page, err = svc.List(ctx, "", 4, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)

	page, err = svc.List(ctx, "kitchen", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total, "email matches case-insensitively")
	assert.Equal(t, analytics.DefaultPageSize, page.PageSize)

	page, err = svc.List(ctx, "customer 2", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total, "2, 20, 21, 22, 23")

	page, err = svc.List(ctx, "100%", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total, "wildcards are matched literally")
}

func TestCustomerSearch(t *testing.T) {
	svc, db, _ := setupCustomerService(t)
	ctx := context.Background()

	testutil.CreateCustomer(t, db, "AB12", "Mary")
	testutil.CreateCustomer(t, db, "AB01", "Mark")
	testutil.CreateCustomer(t, db, "XY99", "Abby")

	got, err := svc.Search(ctx, "ab", "code", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "AB01", got[0].CustomerCode, "ordered by the searched field")

	got, err = svc.Search(ctx, "ma", "name", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Mark", got[0].Name)

	got, err = svc.Search(ctx, "ab", "", 10)
	require.NoError(t, err)
	require.Len(t, got, 1, "name is the default field and matching is by prefix")
	assert.Equal(t, "Abby", got[0].Name)

	got, err = svc.Search(ctx, "  ", "name", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = svc.Search(ctx, "ab", "email", 10)
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestCustomerHistory(t *testing.T) {
	svc, db, _ := setupCustomerService(t)
	ctx := context.Background()
	alice := testutil.CreateCustomer(t, db, "C1", "Alice")

	orders := NewOrderService(db, 10, Options{})
	for _, items := range [][]SubmissionItem{
		{{Code: "T1", Name: "Tea", Quantity: 2}, {Code: "K1", Name: "Cake", Quantity: 1}},
		{{Code: "T1", Name: "Tea", Quantity: 3}},
	} {
		_, err := orders.Submit(ctx, Submission{CustomerCode: "C1", Items: items})
		require.NoError(t, err)
	}

	history, err := svc.History(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []analytics.HistoryLine{
		{FoodItem: "Tea", FoodCode: "T1", Quantity: 5, Orders: 2},
		{FoodItem: "Cake", FoodCode: "K1", Quantity: 1, Orders: 1},
	}, history)

	_, err = svc.History(ctx, 42)
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
