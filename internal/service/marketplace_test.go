package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/model"
	"github.com/skillswap/course-marketplace/internal/repository"
)

type market struct {
	store       *memStore
	events      *recordedEvents
	courses     *CourseService
	carts       *CartService
	orders      *OrderService
	enrollments *EnrollmentService
	wishlists   *WishlistService
	admin       *AdminService
}

func newMarket(t *testing.T) *market {
	t.Helper()
	m := newMemStore()
	ev := &recordedEvents{}
	log := logger.Nop()
	return &market{
		store:       m,
		events:      ev,
		courses:     NewCourseService(memCourses{m}, log),
		carts:       NewCartService(memCarts{m}, memCourses{m}, memEnrollments{m}, log),
		orders:      NewOrderService(memOrders{m}, memCarts{m}, ev, log),
		enrollments: NewEnrollmentService(memEnrollments{m}, memCourses{m}, memOrders{m}, log),
		wishlists:   NewWishlistService(memWishlists{m}, memCourses{m}, log),
		admin:       NewAdminService(memUsers{m}, memStats{m}, log),
	}
}

func assertKind(t *testing.T, err error, kind error, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	var se *Error
	require.True(t, errors.As(err, &se))
	if msg != "" {
		assert.Equal(t, msg, se.Message)
	}
}

func TestCheckoutScenario(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	a := mk.store.addCourse("Go Basics", 100)
	b := mk.store.addCourse("Advanced SQL", 200)
	u := mk.store.addUser("Sara", "sara@example.com", model.RoleStudent)

	_, err := mk.carts.Add(ctx, u.ID, a.ID)
	require.NoError(t, err)
	cart, err := mk.carts.Add(ctx, u.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Cart.TotalItems)
	assert.True(t, cart.Cart.TotalAmount.Equal(decimal.NewFromInt(300)))

	o, err := mk.orders.Place(ctx, u.ID, PlaceOrderInput{Discount: decimal.NewFromInt(50)})
	require.NoError(t, err)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(300)))
	assert.True(t, o.FinalAmount.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, model.OrderActive, o.Status)
	assert.Equal(t, model.PaymentPending, o.PaymentStatus)
	assert.Equal(t, model.DefaultPaymentMethod, o.PaymentMethod)

	n, err := mk.carts.Count(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	paid, err := mk.orders.ProcessPayment(ctx, u.ID, PaymentInput{OrderID: o.ID, PaymentID: "pay_1", TransactionID: "tx_1"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderCompleted, paid.Status)
	assert.Equal(t, model.PaymentPaid, paid.PaymentStatus)
	require.NotNil(t, paid.CompletedAt)

	page, err := mk.enrollments.ListMine(ctx, u.ID, repository.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	for _, c := range []*model.Course{a, b} {
		got, err := mk.courses.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, got.EnrolledCount)
	}

	require.Len(t, mk.events.paid, 1)
	ev := mk.events.paid[0]
	assert.Equal(t, o.ID, ev.OrderID)
	assert.ElementsMatch(t, []uint64{a.ID, b.ID}, ev.CourseIDs)
	assert.Equal(t, "250", ev.FinalAmount)

	// paying twice is rejected
	_, err = mk.orders.ProcessPayment(ctx, u.ID, PaymentInput{OrderID: o.ID})
	assertKind(t, err, ErrNotFound, "Order not found or already processed")

	// a purchased course cannot go back into the cart
	_, err = mk.carts.Add(ctx, u.ID, a.ID)
	assertKind(t, err, ErrConflict, "You are already enrolled in this course")
}

func TestPlaceOrderValidation(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	u := mk.store.addUser("Sara", "sara@example.com", model.RoleStudent)
	a := mk.store.addCourse("Go Basics", 100)

	_, err := mk.orders.Place(ctx, u.ID, PlaceOrderInput{})
	assertKind(t, err, ErrValidation, "Cart is empty")

	_, err = mk.carts.Add(ctx, u.ID, a.ID)
	require.NoError(t, err)

	_, err = mk.orders.Place(ctx, u.ID, PlaceOrderInput{Discount: decimal.NewFromInt(-1)})
	assertKind(t, err, ErrValidation, "")
	_, err = mk.orders.Place(ctx, u.ID, PlaceOrderInput{PaymentMethod: "bitcoin"})
	assertKind(t, err, ErrValidation, "Invalid payment method")

	o, err := mk.orders.Place(ctx, u.ID, PlaceOrderInput{PaymentMethod: "UPI", Discount: decimal.NewFromInt(500)})
	require.NoError(t, err)
	assert.Equal(t, "upi", o.PaymentMethod)
	assert.True(t, o.FinalAmount.IsZero())
	assert.True(t, o.Discount.Equal(decimal.NewFromInt(100)), o.Discount.String())
}

// racingCarts lets a course land in the cart right after checkout read it.
type racingCarts struct {
	memCarts
	after func()
}

func (r racingCarts) Get(ctx context.Context, userID uint64) (*model.Cart, error) {
	c, err := r.memCarts.Get(ctx, userID)
	r.after()
	return c, err
}

func TestPlaceOrderRejectsChangedCart(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	u := mk.store.addUser("Sara", "sara@example.com", model.RoleStudent)
	a := mk.store.addCourse("Go Basics", 100)
	b := mk.store.addCourse("Go Advanced", 200)

	_, err := mk.carts.Add(ctx, u.ID, a.ID)
	require.NoError(t, err)

	orders := NewOrderService(memOrders{mk.store}, racingCarts{
		memCarts: memCarts{mk.store},
		after: func() {
			_, err := mk.carts.Add(ctx, u.ID, b.ID)
			require.NoError(t, err)
		},
	}, nil, logger.Nop())

	_, err = orders.Place(ctx, u.ID, PlaceOrderInput{})
	assertKind(t, err, ErrConflict, "Cart changed during checkout, please try again")
	assert.Empty(t, mk.store.orders)

	n, err := mk.carts.Count(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPaymentAbortsOnExistingEnrollment(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	u := mk.store.addUser("Sara", "sara@example.com", model.RoleStudent)
	a := mk.store.addCourse("Go Basics", 100)
	b := mk.store.addCourse("Advanced SQL", 200)

	_, err := mk.carts.Add(ctx, u.ID, a.ID)
	require.NoError(t, err)
	_, err = mk.carts.Add(ctx, u.ID, b.ID)
	require.NoError(t, err)
	o, err := mk.orders.Place(ctx, u.ID, PlaceOrderInput{})
	require.NoError(t, err)

	// enrolled in b some other way in between
	_, err = memEnrollments{mk.store}.Create(ctx, u.ID, b.ID, 999, time.Now())
	require.NoError(t, err)

	_, err = mk.orders.ProcessPayment(ctx, u.ID, PaymentInput{OrderID: o.ID})
	assertKind(t, err, ErrConflict, msgAlreadyEnrolled)

	got, err := mk.orders.Get(ctx, u.ID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderActive, got.Status)
	course, _ := mk.courses.Get(ctx, a.ID)
	assert.Zero(t, course.EnrolledCount)
	assert.Empty(t, mk.events.paid)
}

func TestPaymentPublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	mk.events.err = errors.New("broker down")
	u := mk.store.addUser("Sara", "sara@example.com", model.RoleStudent)
	a := mk.store.addCourse("Go Basics", 100)
	_, err := mk.carts.Add(ctx, u.ID, a.ID)
	require.NoError(t, err)
	o, err := mk.orders.Place(ctx, u.ID, PlaceOrderInput{})
	require.NoError(t, err)

	_, err = mk.orders.ProcessPayment(ctx, u.ID, PaymentInput{OrderID: o.ID})
	assert.NoError(t, err)
}

func TestPaymentWithoutEvents(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	mk.orders = NewOrderService(memOrders{mk.store}, memCarts{mk.store}, nil, logger.Nop())
	u := mk.store.addUser("Sara", "sara@example.com", model.RoleStudent)
	a := mk.store.addCourse("Go Basics", 100)
	_, err := mk.carts.Add(ctx, u.ID, a.ID)
	require.NoError(t, err)
	o, err := mk.orders.Place(ctx, u.ID, PlaceOrderInput{})
	require.NoError(t, err)
	_, err = mk.orders.ProcessPayment(ctx, u.ID, PaymentInput{OrderID: o.ID})
	assert.NoError(t, err)
}

func TestOrderOwnerScoping(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	u := mk.store.addUser("Sara", "sara@example.com", model.RoleStudent)
	other := mk.store.addUser("Omid", "omid@example.com", model.RoleStudent)
	a := mk.store.addCourse("Go Basics", 100)
	_, err := mk.carts.Add(ctx, u.ID, a.ID)
	require.NoError(t, err)
	o, err := mk.orders.Place(ctx, u.ID, PlaceOrderInput{})
	require.NoError(t, err)

	_, err = mk.orders.Get(ctx, other.ID, o.ID)
	assertKind(t, err, ErrNotFound, "Order not found")
	_, err = mk.orders.ProcessPayment(ctx, other.ID, PaymentInput{OrderID: o.ID})
	assertKind(t, err, ErrNotFound, "")
}

func TestOrderAdminStatusAndStats(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	u := mk.store.addUser("Sara", "sara@example.com", model.RoleStudent)
	a := mk.store.addCourse("Go Basics", 100)
	_, err := mk.carts.Add(ctx, u.ID, a.ID)
	require.NoError(t, err)
	o, err := mk.orders.Place(ctx, u.ID, PlaceOrderInput{})
	require.NoError(t, err)

	bad := "shipped"
	_, err = mk.orders.UpdateStatus(ctx, o.ID, &bad, nil)
	assertKind(t, err, ErrValidation, "Invalid order status")
	_, err = mk.orders.UpdateStatus(ctx, o.ID, nil, &bad)
	assertKind(t, err, ErrValidation, "Invalid payment status")
	_, err = mk.orders.UpdateStatus(ctx, 4242, nil, nil)
	assertKind(t, err, ErrNotFound, "Order not found")

	completed, paid := model.OrderCompleted, model.PaymentPaid
	first, err := mk.orders.UpdateStatus(ctx, o.ID, &completed, &paid)
	require.NoError(t, err)
	require.NotNil(t, first.CompletedAt)
	stamp := *first.CompletedAt

	mk.orders.now = func() time.Time { return stamp.Add(time.Hour) }
	again, err := mk.orders.UpdateStatus(ctx, o.ID, &completed, nil)
	require.NoError(t, err)
	assert.True(t, again.CompletedAt.Equal(stamp))

	stats, err := mk.orders.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalOrders)
	assert.EqualValues(t, 1, stats.CompletedOrders)
	assert.True(t, stats.TotalRevenue.Equal(decimal.NewFromInt(100)))

	_, err = mk.orders.ListAll(ctx, repository.OrderFilter{Status: "pending"})
	assertKind(t, err, ErrValidation, "Invalid order status")
	all, err := mk.orders.ListAll(ctx, repository.OrderFilter{Status: model.OrderCompleted})
	require.NoError(t, err)
	assert.Len(t, all.Orders, 1)
	assert.Equal(t, 1, all.CurrentPage)
}

func TestCartRules(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	u := mk.store.addUser("Sara", "sara@example.com", model.RoleStudent)
	a := mk.store.addCourse("Go Basics", 100)

	view, err := mk.carts.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, EmptyCart{UserID: u.ID}, view)

	_, err = mk.carts.Add(ctx, u.ID, 777)
	assertKind(t, err, ErrNotFound, "Course not found")

	_, err = mk.carts.Add(ctx, u.ID, a.ID)
	require.NoError(t, err)
	_, err = mk.carts.Add(ctx, u.ID, a.ID)
	assertKind(t, err, ErrConflict, "Course is already in your cart")

	// removing something that is not there is fine
	view, err = mk.carts.Remove(ctx, u.ID, 777)
	require.NoError(t, err)
	require.IsType(t, PopulatedCart{}, view)
	assert.Len(t, view.(PopulatedCart).Cart.Items, 1)

	view, err = mk.carts.Clear(ctx, u.ID)
	require.NoError(t, err)
	pc := view.(PopulatedCart)
	assert.Empty(t, pc.Cart.Items)
	assert.True(t, pc.Cart.TotalAmount.IsZero())

	other := mk.store.addUser("Omid", "omid@example.com", model.RoleStudent)
	view, err = mk.carts.Clear(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, EmptyCart{UserID: other.ID}, view)
}

func TestCartTotalsFollowCurrentPrices(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	u := mk.store.addUser("Sara", "sara@example.com", model.RoleStudent)
	a := mk.store.addCourse("Go Basics", 100)
	b := mk.store.addCourse("Advanced SQL", 200)
	_, err := mk.carts.Add(ctx, u.ID, a.ID)
	require.NoError(t, err)
	_, err = mk.carts.Add(ctx, u.ID, b.ID)
	require.NoError(t, err)

	price := decimal.NewFromInt(150)
	_, err = mk.courses.Update(ctx, a.ID, model.CoursePatch{Price: &price})
	require.NoError(t, err)
	require.NoError(t, mk.courses.Delete(ctx, b.ID))

	view, err := mk.carts.Get(ctx, u.ID)
	require.NoError(t, err)
	c := view.(PopulatedCart).Cart
	assert.Equal(t, 1, c.TotalItems)
	assert.True(t, c.TotalAmount.Equal(price))
}

func TestEnrollDirect(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	u := mk.store.addUser("Sara", "sara@example.com", model.RoleStudent)
	a := mk.store.addCourse("Go Basics", 100)
	b := mk.store.addCourse("Advanced SQL", 200)

	_, err := mk.carts.Add(ctx, u.ID, a.ID)
	require.NoError(t, err)
	o, err := mk.orders.Place(ctx, u.ID, PlaceOrderInput{})
	require.NoError(t, err)

	_, err = mk.enrollments.Enroll(ctx, u.ID, b.ID, o.ID)
	assertKind(t, err, ErrNotFound, "Invalid order or order not completed")
	_, err = mk.enrollments.Enroll(ctx, u.ID, 9999, o.ID)
	assertKind(t, err, ErrNotFound, "Course not found")

	_, err = mk.orders.ProcessPayment(ctx, u.ID, PaymentInput{OrderID: o.ID})
	require.NoError(t, err)

	_, err = mk.enrollments.Enroll(ctx, u.ID, a.ID, o.ID)
	assertKind(t, err, ErrConflict, msgAlreadyEnrolled)

	e, err := mk.enrollments.Enroll(ctx, u.ID, b.ID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, e.CourseID)

	chk, err := mk.enrollments.Check(ctx, u.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, chk.IsEnrolled)
	chk, err = mk.enrollments.Check(ctx, u.ID, 9999)
	require.NoError(t, err)
	assert.False(t, chk.IsEnrolled)
	assert.Nil(t, chk.Enrollment)
}

func TestConcurrentEnrollOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	u := mk.store.addUser("Sara", "sara@example.com", model.RoleStudent)
	a := mk.store.addCourse("Go Basics", 100)
	b := mk.store.addCourse("Advanced SQL", 200)
	_, err := mk.carts.Add(ctx, u.ID, a.ID)
	require.NoError(t, err)
	o, err := mk.orders.Place(ctx, u.ID, PlaceOrderInput{})
	require.NoError(t, err)
	_, err = mk.orders.ProcessPayment(ctx, u.ID, PaymentInput{OrderID: o.ID})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok, confl int
	)
	start := make(chan struct{})
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := mk.enrollments.Enroll(ctx, u.ID, b.ID, o.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, ErrConflict) {
				confl++
			}
		}()
	}
	close(start)
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, confl)

	course, err := mk.courses.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, course.EnrolledCount)
}

func TestProgressLatch(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	u := mk.store.addUser("Sara", "sara@example.com", model.RoleStudent)
	other := mk.store.addUser("Omid", "omid@example.com", model.RoleStudent)
	a := mk.store.addCourse("Go Basics", 100)
	e, err := memEnrollments{mk.store}.Create(ctx, u.ID, a.ID, 1, time.Now())
	require.NoError(t, err)

	_, err = mk.enrollments.UpdateProgress(ctx, u.ID, e.ID, 101)
	assertKind(t, err, ErrValidation, "Progress must be between 0 and 100")
	_, err = mk.enrollments.UpdateProgress(ctx, u.ID, e.ID, -1)
	assertKind(t, err, ErrValidation, "")
	_, err = mk.enrollments.UpdateProgress(ctx, other.ID, e.ID, 10)
	assertKind(t, err, ErrNotFound, "Enrollment not found")

	got, err := mk.enrollments.UpdateProgress(ctx, u.ID, e.ID, 100)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
	stamp := *got.CompletedAt

	got, err = mk.enrollments.UpdateProgress(ctx, u.ID, e.ID, 40)
	require.NoError(t, err)
	assert.Equal(t, 40, got.Progress)
	assert.True(t, got.Completed)
	assert.True(t, got.CompletedAt.Equal(stamp))
}

func TestWishlist(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	u := mk.store.addUser("Sara", "sara@example.com", model.RoleStudent)
	a := mk.store.addCourse("Go Basics", 100)

	view, err := mk.wishlists.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, EmptyWishlist{UserID: u.ID}, view)

	view, err = mk.wishlists.Remove(ctx, u.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, EmptyWishlist{UserID: u.ID}, view)

	_, err = mk.wishlists.Add(ctx, u.ID, 4242)
	assertKind(t, err, ErrNotFound, "Course not found")

	w, err := mk.wishlists.Add(ctx, u.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, w.Wishlist.Items, 1)
	assert.Equal(t, "Go Basics", w.Wishlist.Items[0].Course.Name)

	_, err = mk.wishlists.Add(ctx, u.ID, a.ID)
	assertKind(t, err, ErrConflict, "Course is already in your wishlist")

	in, err := mk.wishlists.Check(ctx, u.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, in)

	view, err = mk.wishlists.Clear(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, view.(PopulatedWishlist).Wishlist.Items)
}

func TestAdminUsers(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	first := mk.store.addUser("Sara", "sara@example.com", model.RoleStudent)
	second := mk.store.addUser("Omid", "omid@example.com", model.RoleInstructor)

	users, err := mk.admin.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, second.ID, users[0].ID)

	res, err := mk.admin.ToggleBlock(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, res.IsBlocked)
	assert.Equal(t, "User blocked", res.Message)
	res, err = mk.admin.ToggleBlock(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, res.IsBlocked)
	assert.Equal(t, "User unblocked", res.Message)

	_, err = mk.admin.ToggleBlock(ctx, 4242)
	assertKind(t, err, ErrNotFound, "User not found")

	require.NoError(t, mk.admin.DeleteUser(ctx, first.ID))
	assertKind(t, mk.admin.DeleteUser(ctx, first.ID), ErrNotFound, "User not found")

	stats, err := mk.admin.Dashboard(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalUsers)
}

func TestCourseCatalog(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	mk.store.addCourse("Go Basics", 100)

	_, err := mk.courses.Create(ctx, model.Course{Name: "  go basics ", Price: decimal.NewFromInt(1)})
	assertKind(t, err, ErrConflict, "Course with this name already exists")

	c, err := mk.courses.Create(ctx, model.Course{Name: "Rust for Gophers", Price: decimal.NewFromInt(10), IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, model.LevelBeginner, c.Level)
	assert.Equal(t, "English", c.Language)

	taken := "GO BASICS"
	_, err = mk.courses.Update(ctx, c.ID, model.CoursePatch{Name: &taken})
	assertKind(t, err, ErrConflict, "Course with this name already exists")

	same := "rust for gophers"
	got, err := mk.courses.Update(ctx, c.ID, model.CoursePatch{Name: &same})
	require.NoError(t, err)
	assert.Equal(t, "rust for gophers", got.Name)

	_, err = mk.courses.List(ctx, repository.CourseQuery{Sort: "popularity"})
	assertKind(t, err, ErrValidation, "Invalid sort field")
	lo, hi := decimal.NewFromInt(50), decimal.NewFromInt(10)
	_, err = mk.courses.List(ctx, repository.CourseQuery{MinPrice: &lo, MaxPrice: &hi})
	assertKind(t, err, ErrValidation, "")

	_, err = mk.courses.SearchText(ctx, "   ", repository.Page{})
	assertKind(t, err, ErrValidation, "Search query is required")
	page, err := mk.courses.SearchText(ctx, "rust", repository.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 1, page.CurrentPage)

	assertKind(t, mk.courses.Delete(ctx, 4242), ErrNotFound, "Course not found")
}
