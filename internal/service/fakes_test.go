package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skillswap/course-marketplace/internal/model"
	"github.com/skillswap/course-marketplace/internal/queue"
	"github.com/skillswap/course-marketplace/internal/repository"
)

// memStore is an in-memory stand-in for the MySQL repositories. Each
// aggregate is exposed through its own adapter type because the
// repositories share method names.
type memStore struct {
	mu          sync.Mutex
	seq         uint64
	users       map[uint64]model.User
	courses     map[uint64]*model.Course
	carts       map[uint64]*model.Cart // by user id
	orders      map[uint64]*model.Order
	enrollments map[uint64]*model.Enrollment
	wishlists   map[uint64]*model.Wishlist // by user id
	resets      map[string]memReset
	revoked     map[string]time.Time
}

type memReset struct {
	userID uint64
	exp    time.Time
	used   bool
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[uint64]model.User{},
		courses:     map[uint64]*model.Course{},
		carts:       map[uint64]*model.Cart{},
		orders:      map[uint64]*model.Order{},
		enrollments: map[uint64]*model.Enrollment{},
		wishlists:   map[uint64]*model.Wishlist{},
		resets:      map[string]memReset{},
		revoked:     map[string]time.Time{},
	}
}

func (m *memStore) id() uint64 {
	m.seq++
	return m.seq
}

func (m *memStore) addCourse(name string, price int64) *model.Course {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &model.Course{ID: m.id(), Name: name, Price: decimal.NewFromInt(price), IsActive: true, Level: model.LevelBeginner}
	m.courses[c.ID] = c
	return c
}

func (m *memStore) addUser(name, email string, role string) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := model.User{ID: m.id(), Name: name, Email: email, Role: role}
	m.users[u.ID] = u
	return u
}

func (m *memStore) summary(id uint64) *model.CourseSummary {
	c, ok := m.courses[id]
	if !ok {
		return nil
	}
	s := c.Summary()
	return &s
}

// ---- users ----

type memUsers struct{ *memStore }

func (m memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if strings.EqualFold(x.Email, u.Email) {
			return repository.ErrDuplicate
		}
	}
	u.ID = m.id()
	u.Email = repository.NormalizeEmail(u.Email)
	m.users[u.ID] = *u
	return nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m memUsers) GetAdminByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := m.GetByEmail(ctx, email)
	if err != nil || !u.IsAdmin() {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m memUsers) List(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m memUsers) UpdateProfile(_ context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m memUsers) EnrolledCourseIDs(_ context.Context, id uint64) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []uint64{}
	for _, e := range m.enrollments {
		if e.UserID == id {
			out = append(out, e.CourseID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m memUsers) SetBlocked(_ context.Context, id uint64, blocked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsBlocked = blocked
	m.users[id] = u
	return nil
}

func (m memUsers) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	delete(m.carts, id)
	delete(m.wishlists, id)
	return nil
}

// ---- reset tokens and sessions ----

type memResets struct{ *memStore }

func (m memResets) Replace(_ context.Context, userID uint64, hash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, r := range m.resets {
		if r.userID == userID {
			delete(m.resets, h)
		}
	}
	m.resets[hash] = memReset{userID: userID, exp: exp}
	return nil
}

func (m memResets) ResetPassword(_ context.Context, hash, passwordHash string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resets[hash]
	if !ok || r.used || !now.Before(r.exp) {
		return repository.ErrNotFound
	}
	u := m.users[r.userID]
	u.PasswordHash = passwordHash
	m.users[r.userID] = u
	r.used = true
	m.resets[hash] = r
	return nil
}

type memSessions struct{ *memStore }

func (m memSessions) Revoke(_ context.Context, jti string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = exp
	return nil
}

func (m memSessions) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}

// ---- courses ----

type memCourses struct{ *memStore }

func (m memCourses) GetByID(_ context.Context, id uint64) (model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return model.Course{}, repository.ErrNotFound
	}
	return *c, nil
}

func (m memCourses) Create(_ context.Context, c *model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.courses {
		if strings.EqualFold(x.Name, c.Name) {
			return repository.ErrDuplicate
		}
	}
	c.ID = m.id()
	cp := *c
	m.courses[c.ID] = &cp
	return nil
}

func (m memCourses) NameTaken(_ context.Context, name string, excludeID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.courses {
		if x.ID != excludeID && strings.EqualFold(x.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m memCourses) Update(_ context.Context, c model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[c.ID]; !ok {
		return repository.ErrNotFound
	}
	m.courses[c.ID] = &c
	return nil
}

func (m memCourses) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.courses, id)
	for _, c := range m.carts {
		c.Items = filterCart(c.Items, id)
	}
	for _, w := range m.wishlists {
		kept := w.Items[:0]
		for _, it := range w.Items {
			if it.CourseID != id {
				kept = append(kept, it)
			}
		}
		w.Items = kept
	}
	return nil
}

func (m memCourses) Search(_ context.Context, q repository.CourseQuery) ([]model.Course, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Course{}
	for _, c := range m.courses {
		if !c.IsActive {
			continue
		}
		if q.Level != "" && c.Level != q.Level {
			continue
		}
		if q.Text != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(q.Text)) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m memCourses) Latest(ctx context.Context, n int) ([]model.Course, error) {
	list, _, err := m.Search(ctx, repository.CourseQuery{})
	if len(list) > n {
		list = list[:n]
	}
	return list, err
}

func (m memCourses) Trending(ctx context.Context, n int) ([]model.Course, error) {
	list, _, err := m.Search(ctx, repository.CourseQuery{})
	sort.SliceStable(list, func(i, j int) bool { return list[i].EnrolledCount > list[j].EnrolledCount })
	if len(list) > n {
		list = list[:n]
	}
	return list, err
}

// ---- carts ----

func filterCart(items []model.CartItem, courseID uint64) []model.CartItem {
	out := items[:0]
	for _, it := range items {
		if it.CourseID != courseID {
			out = append(out, it)
		}
	}
	return out
}

type memCarts struct{ *memStore }

// view returns a copy of the cart with current course data and totals.
func (m memCarts) view(c *model.Cart) *model.Cart {
	cp := *c
	cp.Items = make([]model.CartItem, len(c.Items))
	prices := make([]*decimal.Decimal, len(c.Items))
	for i, it := range c.Items {
		it.Course = m.summary(it.CourseID)
		if it.Course != nil {
			prices[i] = it.Course.Price
		}
		cp.Items[i] = it
	}
	cp.TotalItems, cp.TotalAmount = model.CartTotals(prices)
	return &cp
}

func (m memCarts) Get(_ context.Context, userID uint64) (*model.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.view(c), nil
}

func (m memCarts) Count(_ context.Context, userID uint64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[userID]; ok {
		return len(c.Items), nil
	}
	return 0, nil
}

func (m memCarts) AddItem(_ context.Context, userID, courseID uint64, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		c = &model.Cart{ID: m.id(), UserID: userID, CreatedAt: now}
		m.carts[userID] = c
	}
	if c.Contains(courseID) {
		return repository.ErrDuplicate
	}
	c.Items = append(c.Items, model.CartItem{CourseID: courseID, AddedAt: now})
	return nil
}

func (m memCarts) RemoveItem(_ context.Context, userID, courseID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return repository.ErrNotFound
	}
	c.Items = filterCart(c.Items, courseID)
	return nil
}

func (m memCarts) Clear(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return repository.ErrNotFound
	}
	c.Items = nil
	return nil
}

// ---- orders ----

type memOrders struct{ *memStore }

func (m memOrders) CreateFromCart(_ context.Context, o *model.Order, cart *model.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if live, ok := m.carts[cart.UserID]; !ok || len(live.Items) != len(cart.Items) {
		return repository.ErrStale
	}
	o.ID = m.id()
	o.CreatedAt = time.Now().UTC()
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	m.orders[o.ID] = &cp
	for _, c := range m.carts {
		if c.ID == cart.ID {
			c.Items = nil
		}
	}
	return nil
}

func (m memOrders) GetForUser(_ context.Context, id, userID uint64) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m memOrders) HasCompletedOrder(_ context.Context, id, userID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	return ok && o.UserID == userID && o.Status == model.OrderCompleted, nil
}

func (m memOrders) ListForUser(_ context.Context, userID uint64, p repository.Page) ([]model.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Order{}
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (m memOrders) ListAll(_ context.Context, f repository.OrderFilter) ([]model.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Order{}
	for _, o := range m.orders {
		if (f.Status == "" || o.Status == f.Status) && (f.PaymentStatus == "" || o.PaymentStatus == f.PaymentStatus) {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (m memOrders) UpdateStatus(_ context.Context, id uint64, status, paymentStatus *string, now time.Time) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if status != nil {
		o.SetStatus(*status, now)
	}
	if paymentStatus != nil {
		o.PaymentStatus = *paymentStatus
	}
	cp := *o
	return &cp, nil
}

// ConfirmPayment applies the whole payment under the store lock, failing
// without side effects when any enrollment already exists.
func (m memOrders) ConfirmPayment(_ context.Context, id, userID uint64, paymentID, transactionID string, now time.Time) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.UserID != userID || o.Status != model.OrderActive {
		return nil, repository.ErrNotFound
	}
	for _, it := range o.Items {
		if m.enrolledLocked(userID, it.CourseID) {
			return nil, repository.ErrDuplicate
		}
	}
	o.PaymentStatus = model.PaymentPaid
	o.PaymentID = paymentID
	o.TransactionID = transactionID
	o.SetStatus(model.OrderCompleted, now)
	for _, it := range o.Items {
		m.enrollLocked(userID, it.CourseID, o.ID, now)
	}
	cp := *o
	return &cp, nil
}

func (m memOrders) Stats(_ context.Context, monthStart time.Time) (model.OrderStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s model.OrderStats
	for _, o := range m.orders {
		s.TotalOrders++
		if o.Status == model.OrderCompleted {
			s.CompletedOrders++
		} else {
			s.ActiveOrders++
		}
		if o.Status == model.OrderCompleted && o.PaymentStatus == model.PaymentPaid {
			s.TotalRevenue = s.TotalRevenue.Add(o.FinalAmount)
			if !o.CreatedAt.Before(monthStart) {
				s.MonthlyRevenue = s.MonthlyRevenue.Add(o.FinalAmount)
			}
		}
	}
	return s, nil
}

// ---- enrollments ----

func (m *memStore) enrolledLocked(userID, courseID uint64) bool {
	for _, e := range m.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return true
		}
	}
	return false
}

func (m *memStore) enrollLocked(userID, courseID, orderID uint64, now time.Time) *model.Enrollment {
	e := &model.Enrollment{ID: m.id(), UserID: userID, CourseID: courseID, OrderID: orderID, EnrolledAt: now}
	m.enrollments[e.ID] = e
	if c, ok := m.courses[courseID]; ok {
		c.EnrolledCount++
	}
	return e
}

type memEnrollments struct{ *memStore }

func (m memEnrollments) Exists(_ context.Context, userID, courseID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enrolledLocked(userID, courseID), nil
}

func (m memEnrollments) Create(_ context.Context, userID, courseID, orderID uint64, now time.Time) (*model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enrolledLocked(userID, courseID) {
		return nil, repository.ErrDuplicate
	}
	cp := *m.enrollLocked(userID, courseID, orderID, now)
	return &cp, nil
}

func (m memEnrollments) GetForUser(_ context.Context, id, userID uint64) (*model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[id]
	if !ok || e.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m memEnrollments) GetByCourse(_ context.Context, userID, courseID uint64) (*model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m memEnrollments) ListForUser(_ context.Context, userID uint64, _ repository.Page) ([]model.Enrollment, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Enrollment{}
	for _, e := range m.enrollments {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}

func (m memEnrollments) UpdateProgress(_ context.Context, id, userID uint64, progress int, now time.Time) (*model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[id]
	if !ok || e.UserID != userID {
		return nil, repository.ErrNotFound
	}
	e.ApplyProgress(progress, now)
	cp := *e
	return &cp, nil
}

// ---- wishlists ----

type memWishlists struct{ *memStore }

func (m memWishlists) Get(_ context.Context, userID uint64) (*model.Wishlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wishlists[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *w
	cp.Items = make([]model.WishlistItem, len(w.Items))
	for i, it := range w.Items {
		it.Course = m.summary(it.CourseID)
		cp.Items[i] = it
	}
	return &cp, nil
}

func (m memWishlists) Contains(_ context.Context, userID, courseID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wishlists[userID].Contains(courseID), nil
}

func (m memWishlists) AddItem(_ context.Context, userID, courseID uint64, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wishlists[userID]
	if !ok {
		w = &model.Wishlist{ID: m.id(), UserID: userID, CreatedAt: now}
		m.wishlists[userID] = w
	}
	if w.Contains(courseID) {
		return repository.ErrDuplicate
	}
	w.Items = append(w.Items, model.WishlistItem{CourseID: courseID, AddedAt: now})
	return nil
}

func (m memWishlists) RemoveItem(_ context.Context, userID, courseID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wishlists[userID]
	if !ok {
		return repository.ErrNotFound
	}
	kept := w.Items[:0]
	for _, it := range w.Items {
		if it.CourseID != courseID {
			kept = append(kept, it)
		}
	}
	w.Items = kept
	return nil
}

func (m memWishlists) Clear(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wishlists[userID]
	if !ok {
		return repository.ErrNotFound
	}
	w.Items = nil
	return nil
}

// ---- stats and events ----

type memStats struct{ *memStore }

func (m memStats) Dashboard(_ context.Context) (model.DashboardStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := model.DashboardStats{
		TotalUsers:   int64(len(m.users)),
		TotalCourses: int64(len(m.courses)),
		TotalOrders:  int64(len(m.orders)),
	}
	for _, o := range m.orders {
		if o.Status == model.OrderCompleted && o.PaymentStatus == model.PaymentPaid {
			s.Revenue = s.Revenue.Add(o.FinalAmount)
		}
	}
	return s, nil
}

type recordedEvents struct {
	mu   sync.Mutex
	paid []queue.OrderPaidEvent
	err  error
}

func (r *recordedEvents) OrderPaid(_ context.Context, ev queue.OrderPaidEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paid = append(r.paid, ev)
	return r.err
}
